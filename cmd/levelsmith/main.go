// Package main is the entry point for the levelsmith CLI
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/levelsmith/levelsmith/pkg/api"
	"github.com/levelsmith/levelsmith/pkg/converter"
	"github.com/levelsmith/levelsmith/pkg/tui"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	outputFile string
	serverPort int

	levelName   string
	finishMode  string
	finishX     float64

	instrument  string
	trackIndex  int
	bpm         float64
	startX      float64
	baseBounce  float64
	baseSpacing float64
	blockScale  float64
	resamplePct int
	imageStartX float64
	imageStartY float64
	centered    bool
	objectScale float64
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "levelsmith",
	Short: "Convert MIDI performances and images into playable level documents",
	Long: `levelsmith turns source media into declarative level documents for the
downstream 2D engine.

A MIDI performance is reduced to a monophonic melody whose rhythm drives the
spacing and bounce of music blocks; an image becomes a lattice of color
blocks, one per opaque pixel.

Examples:
  levelsmith melody song.mid -o song.level.json
  levelsmith melody song.mid --instrument marimba --track 2
  levelsmith image logo.png --resample 50 --center
  levelsmith tui
  levelsmith serve --port 8080`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var melodyCmd = &cobra.Command{
	Use:   "melody <input.mid>",
	Short: "Convert a MIDI performance to a level document",
	Long:  `Reduces the selected track to a monophonic melody and places one music block per note.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runMelody,
}

var imageCmd = &cobra.Command{
	Use:   "image <input.png>",
	Short: "Convert an image to a level document",
	Long:  `Maps every opaque pixel onto a color block; transparent pixels are skipped.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runImage,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	melody := converter.DefaultMelodyConfig()
	raster := converter.DefaultRasterConfig()

	// Shared document flags
	for _, cmd := range []*cobra.Command{melodyCmd, imageCmd} {
		cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output level file path")
		cmd.Flags().StringVar(&levelName, "name", "", "Level name")
		cmd.Flags().StringVar(&finishMode, "finish", "", "Finish line policy: content or fixed")
		cmd.Flags().Float64Var(&finishX, "finish-x", 0, "Finish line position for the fixed policy")
		cmd.Flags().Float64Var(&objectScale, "scale", melody.Scale, "Uniform object scale")
	}

	// Melody flags
	melodyCmd.Flags().StringVar(&instrument, "instrument", melody.Instrument, "Instrument tag carried onto each block")
	melodyCmd.Flags().IntVar(&trackIndex, "track", converter.AutoTrack, "Track index (-1 selects the track with most notes)")
	melodyCmd.Flags().Float64Var(&bpm, "bpm", 0, "Tempo override; 0 takes the file tempo")
	melodyCmd.Flags().Float64Var(&startX, "start-x", melody.StartX, "X position of the first block")
	melodyCmd.Flags().Float64Var(&baseBounce, "base-bounce", melody.BaseBounce, "Bounce factor of one quarter note")
	melodyCmd.Flags().Float64Var(&baseSpacing, "base-spacing", melody.BaseSpacing, "Horizontal advance of one quarter note")

	// Image flags
	imageCmd.Flags().Float64Var(&blockScale, "block-scale", raster.BlockScale, "Block scale; -0.1 spaces pixels 4 units apart")
	imageCmd.Flags().IntVar(&resamplePct, "resample", raster.ResamplePercent, "Resample percentage 1-100")
	imageCmd.Flags().Float64Var(&imageStartX, "start-x", raster.StartX, "X position of the first column")
	imageCmd.Flags().Float64Var(&imageStartY, "start-y", raster.StartY, "Y position of the top row, or the centering anchor")
	imageCmd.Flags().BoolVar(&centered, "center", false, "Center the block vertically on start-y")

	// serve command
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	rootCmd.AddCommand(melodyCmd)
	rootCmd.AddCommand(imageCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

func getOutputPath(input string) string {
	if outputFile != "" {
		return outputFile
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + ".level.json"
}

func assembleOptions(defaultPolicy converter.FinishPolicy) (converter.AssembleOptions, error) {
	opts := converter.AssembleOptions{
		Name:         levelName,
		FinishPolicy: defaultPolicy,
		FixedFinishX: finishX,
	}
	switch finishMode {
	case "":
	case "content":
		opts.FinishPolicy = converter.FinishFromContent
	case "fixed":
		opts.FinishPolicy = converter.FinishFixed
	default:
		return opts, fmt.Errorf("%w: --finish must be content or fixed", converter.ErrInvalidConfiguration)
	}
	return opts, nil
}

func writeDocument(doc *converter.Document, input string) error {
	out, err := doc.Marshal()
	if err != nil {
		return err
	}

	output := getOutputPath(input)
	if err := os.WriteFile(output, out, 0644); err != nil {
		return err
	}

	fmt.Printf("Converted %s -> %s (%d objects, finish at %.0f)\n",
		input, output, len(doc.Objects), doc.FinishX)
	return nil
}

func runMelody(cmd *cobra.Command, args []string) error {
	input := args[0]
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	opts := converter.DefaultOptions()
	opts.Melody.Instrument = instrument
	opts.Melody.TrackIndex = trackIndex
	opts.Melody.BPM = bpm
	opts.Melody.StartX = startX
	opts.Melody.BaseBounce = baseBounce
	opts.Melody.BaseSpacing = baseSpacing
	opts.Melody.Scale = objectScale
	if opts.Assemble, err = assembleOptions(converter.FinishFromContent); err != nil {
		return err
	}

	doc, err := converter.ConvertMIDI(data, opts)
	if err != nil {
		return err
	}
	return writeDocument(doc, input)
}

func runImage(cmd *cobra.Command, args []string) error {
	input := args[0]
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	opts := converter.DefaultOptions()
	opts.Raster.BlockScale = blockScale
	opts.Raster.ResamplePercent = resamplePct
	opts.Raster.StartX = imageStartX
	opts.Raster.StartY = imageStartY
	opts.Raster.CenterVertically = centered
	opts.Raster.Scale = objectScale
	if opts.Assemble, err = assembleOptions(converter.FinishFixed); err != nil {
		return err
	}

	raster, err := converter.DecodeImage(data)
	if err != nil {
		return err
	}

	opts.Raster.Normalize()
	if estimate := converter.EstimateObjectCount(raster, opts.Raster.ResamplePercent); estimate > converter.LagThreshold {
		fmt.Fprintf(os.Stderr, "warning: projected %d objects exceeds the lag threshold of %d; the level may stutter\n",
			estimate, converter.LagThreshold)
	}

	objects, err := converter.MapRaster(cmd.Context(), raster, opts.Raster)
	if err != nil {
		return err
	}

	return writeDocument(converter.Assemble(objects, opts.Assemble), input)
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run()
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("Starting API server on port %d...\n", serverPort)
	return api.StartServer(serverPort)
}
