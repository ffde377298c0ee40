package converter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format represents a source media kind.
type Format string

const (
	FormatMIDI    Format = "midi"
	FormatImage   Format = "image"
	FormatUnknown Format = "unknown"
)

// DetectFormat detects the source format from a filename.
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".mid", ".midi":
		return FormatMIDI
	case ".png", ".jpg", ".jpeg", ".gif":
		return FormatImage
	default:
		return FormatUnknown
	}
}

// DetectFormatFromContent detects the source format from file content.
func DetectFormatFromContent(data []byte) Format {
	if len(data) < 4 {
		return FormatUnknown
	}

	// MIDI file signature "MThd"
	if string(data[:4]) == "MThd" {
		return FormatMIDI
	}

	// PNG, JPEG and GIF magic numbers
	switch {
	case bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}):
		return FormatImage
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return FormatImage
	case bytes.HasPrefix(data, []byte("GIF8")):
		return FormatImage
	}

	return FormatUnknown
}

// Options bundles the full conversion surface for one run.
type Options struct {
	Melody   MelodyConfig
	Raster   RasterConfig
	Assemble AssembleOptions
}

// DefaultOptions returns the calibrated defaults for both modes.
func DefaultOptions() Options {
	return Options{
		Melody:   DefaultMelodyConfig(),
		Raster:   DefaultRasterConfig(),
		Assemble: AssembleOptions{},
	}
}

// Convert runs the front end matching the data's format and assembles the
// result into a level document.
func Convert(ctx context.Context, data []byte, opts Options) (*Document, error) {
	switch DetectFormatFromContent(data) {
	case FormatMIDI:
		return ConvertMIDI(data, opts)
	case FormatImage:
		return ConvertImage(ctx, data, opts)
	default:
		return nil, fmt.Errorf("unrecognized source format")
	}
}

// ConvertMIDI is the full music pipeline over raw MIDI bytes.
func ConvertMIDI(data []byte, opts Options) (*Document, error) {
	perf, err := DecodeMIDI(data)
	if err != nil {
		return nil, err
	}
	objects, err := ConvertPerformance(perf, opts.Melody)
	if err != nil {
		return nil, err
	}
	return Assemble(objects, opts.Assemble), nil
}

// ConvertImage is the full image pipeline over raw image bytes.
func ConvertImage(ctx context.Context, data []byte, opts Options) (*Document, error) {
	raster, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}
	objects, err := MapRaster(ctx, raster, opts.Raster)
	if err != nil {
		return nil, err
	}
	return Assemble(objects, opts.Assemble), nil
}

// ConvertFile converts a source media file into a level document file.
func ConvertFile(ctx context.Context, inputPath, outputPath string, opts Options) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	format := DetectFormat(inputPath)
	if format == FormatUnknown {
		format = DetectFormatFromContent(data)
	}

	var doc *Document
	switch format {
	case FormatMIDI:
		doc, err = ConvertMIDI(data, opts)
	case FormatImage:
		doc, err = ConvertImage(ctx, data, opts)
	default:
		return fmt.Errorf("cannot determine source format of %s", inputPath)
	}
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	out, err := doc.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, out, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
