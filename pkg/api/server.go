// Package api provides the REST API server for levelsmith
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/levelsmith/levelsmith/pkg/converter"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Levelsmith API
// @version 1.0
// @description API for converting MIDI performances and raster images into level documents
// @host localhost:8080
// @BasePath /api/v1

// StartServer starts the API server on the specified port
func StartServer(port int) error {
	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.POST("/convert/melody", handleMelody)
		v1.POST("/convert/image", handleImage)
		v1.GET("/modes", listModes)
		v1.GET("/defaults", listDefaults)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r.Run(fmt.Sprintf(":%d", port))
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "levelsmith",
	})
}

// listModes godoc
// @Summary List conversion modes
// @Description Returns the supported source media kinds
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/modes [get]
func listModes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"modes":      []string{"melody", "image"},
		"extensions": []string{".mid", ".midi", ".png", ".jpg", ".jpeg", ".gif"},
	})
}

// listDefaults godoc
// @Summary List calibrated defaults
// @Description Returns the default configuration of both converters
// @Tags info
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/defaults [get]
func listDefaults(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"melody": converter.DefaultMelodyConfig(),
		"image":  converter.DefaultRasterConfig(),
	})
}

// handleMelody godoc
// @Summary Convert a MIDI file to a level document
// @Description Upload a MIDI file and receive a level document
// @Tags convert
// @Accept multipart/form-data
// @Produce application/json
// @Param file formData file true "MIDI file to convert"
// @Param instrument query string false "Instrument tag (default: piano)"
// @Param track query int false "Track index, -1 selects the track with most notes"
// @Param bpm query number false "Tempo override; 0 takes the file tempo"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert/melody [post]
func handleMelody(c *gin.Context) {
	data, name, ok := readUpload(c)
	if !ok {
		return
	}

	opts := converter.DefaultOptions()
	opts.Melody.Instrument = c.DefaultQuery("instrument", opts.Melody.Instrument)
	if !queryInt(c, "track", &opts.Melody.TrackIndex) ||
		!queryFloat(c, "bpm", &opts.Melody.BPM) ||
		!queryFloat(c, "start-x", &opts.Melody.StartX) ||
		!queryFloat(c, "base-bounce", &opts.Melody.BaseBounce) ||
		!queryFloat(c, "base-spacing", &opts.Melody.BaseSpacing) ||
		!queryFloat(c, "scale", &opts.Melody.Scale) {
		return
	}
	if !readAssembleOptions(c, &opts.Assemble) {
		return
	}

	doc, err := converter.ConvertMIDI(data, opts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, converter.ErrEmptyTrack) || errors.Is(err, converter.ErrInvalidConfiguration) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	writeDocument(c, doc, name)
}

// handleImage godoc
// @Summary Convert an image to a level document
// @Description Upload a PNG, JPEG or GIF and receive a level document
// @Tags convert
// @Accept multipart/form-data
// @Produce application/json
// @Param file formData file true "Image file to convert"
// @Param block-scale query number false "Block scale; -0.1 spaces pixels 4 units apart"
// @Param resample query int false "Resample percentage 1-100"
// @Param center query bool false "Center the block vertically on start-y"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert/image [post]
func handleImage(c *gin.Context) {
	data, name, ok := readUpload(c)
	if !ok {
		return
	}

	opts := converter.DefaultOptions()
	if !queryFloat(c, "block-scale", &opts.Raster.BlockScale) ||
		!queryInt(c, "resample", &opts.Raster.ResamplePercent) ||
		!queryFloat(c, "start-x", &opts.Raster.StartX) ||
		!queryFloat(c, "start-y", &opts.Raster.StartY) ||
		!queryFloat(c, "scale", &opts.Raster.Scale) {
		return
	}
	opts.Raster.CenterVertically = c.Query("center") == "true"
	opts.Assemble.FinishPolicy = converter.FinishFixed
	if !readAssembleOptions(c, &opts.Assemble) {
		return
	}

	raster, err := converter.DecodeImage(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts.Raster.Normalize()
	estimate := converter.EstimateObjectCount(raster, opts.Raster.ResamplePercent)
	c.Header("X-Object-Estimate", strconv.Itoa(estimate))
	if estimate > converter.LagThreshold {
		c.Header("X-Lag-Warning", fmt.Sprintf("projected %d objects exceeds the lag threshold of %d",
			estimate, converter.LagThreshold))
	}

	objects, err := converter.MapRaster(c.Request.Context(), raster, opts.Raster)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, converter.ErrInvalidConfiguration) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	writeDocument(c, converter.Assemble(objects, opts.Assemble), name)
}

func readUpload(c *gin.Context) ([]byte, string, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return nil, "", false
	}
	return data, header.Filename, true
}

func readAssembleOptions(c *gin.Context, opts *converter.AssembleOptions) bool {
	opts.Name = c.DefaultQuery("name", opts.Name)
	opts.Description = c.DefaultQuery("description", opts.Description)

	switch c.Query("finish") {
	case "", "default":
	case "content":
		opts.FinishPolicy = converter.FinishFromContent
	case "fixed":
		opts.FinishPolicy = converter.FinishFixed
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "finish must be content or fixed"})
		return false
	}
	return queryFloat(c, "finish-x", &opts.FixedFinishX)
}

func queryFloat(c *gin.Context, key string, dst *float64) bool {
	raw := c.Query(key)
	if raw == "" {
		return true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s must be numeric", key)})
		return false
	}
	*dst = v
	return true
}

func queryInt(c *gin.Context, key string, dst *int) bool {
	raw := c.Query(key)
	if raw == "" {
		return true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s must be an integer", key)})
		return false
	}
	*dst = v
	return true
}

func writeDocument(c *gin.Context, doc *converter.Document, uploadName string) {
	out, err := doc.Marshal()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	outputName := "level.json"
	if i := strings.LastIndex(uploadName, "."); i > 0 {
		outputName = uploadName[:i] + ".level.json"
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", outputName))
	c.Data(http.StatusOK, "application/json", out)
}
