// Package converter turns musical performances and raster images into
// playable level documents for the downstream engine.
package converter

import "errors"

// Conversion errors. All of them are local to a single conversion attempt;
// a failed run produces no partial output.
var (
	ErrEmptyTrack           = errors.New("selected track has no notes")
	ErrNoActiveTrack        = errors.New("no performance loaded")
	ErrNoActiveImage        = errors.New("no image loaded")
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// OnsetTolerance is the time window (seconds) within which two note onsets
// count as simultaneous.
const OnsetTolerance = 0.001

// DefaultBPM is used when a performance declares no tempo.
const DefaultBPM = 120.0

// NoteEvent is one decoded note of a performance track.
type NoteEvent struct {
	Name     string  // pitch name, e.g. "C4"
	Pitch    int     // MIDI pitch number (0-127)
	Onset    float64 // start time in seconds from performance start
	Duration float64 // sounding length in seconds
}

// Track is an ordered sequence of note events with a display label.
type Track struct {
	Label string
	Notes []NoteEvent
}

// Performance is a decoded musical source: a tempo plus one or more tracks.
// Exactly one track is selected for conversion.
type Performance struct {
	BPM    float64
	Tracks []Track
}

// MelodyNote is one note of the reduced monophonic line: the single note
// chosen per distinct onset after collapsing simultaneous notes.
type MelodyNote struct {
	Name     string
	Pitch    int
	Onset    float64
	Duration float64
}

// PixelSample is one decoded pixel of a raster image.
type PixelSample struct {
	X, Y       int
	R, G, B, A uint8
}

// AutoTrack selects the track with the most notes instead of an explicit index.
const AutoTrack = -1

// MelodyConfig holds the configuration surface of the melody converter.
// The zero value is not meaningful; start from DefaultMelodyConfig.
type MelodyConfig struct {
	BPM         float64 // beats per minute; 0 means take it from the performance
	Instrument  string  // free-text instrument tag carried onto each block
	TrackIndex  int     // explicit track index, or AutoTrack
	StartX      float64 // x position of the first block
	Y           float64 // fixed y for every block; pitch does not affect it
	BaseBounce  float64 // bounce factor of one quarter note at the active tempo
	BaseSpacing float64 // horizontal advance of one quarter note
	Scale       float64 // uniform object scale, passed through
}

// DefaultMelodyConfig returns the calibrated melody defaults.
func DefaultMelodyConfig() MelodyConfig {
	return MelodyConfig{
		Instrument:  "piano",
		TrackIndex:  AutoTrack,
		StartX:      191,
		Y:           350,
		BaseBounce:  5.94,
		BaseSpacing: 63.44,
		Scale:       1,
	}
}

// RasterConfig holds the configuration surface of the image converter.
// The zero value is not meaningful; start from DefaultRasterConfig.
type RasterConfig struct {
	BlockScale       float64 // spacing control; -0.1 yields spacing 4
	ResamplePercent  int     // 1-100, shrinks the image before sampling
	StartX           float64
	StartY           float64 // top row position, or the centering anchor
	CenterVertically bool    // center the block on StartY instead of starting there
	Scale            float64 // uniform object scale, passed through
}

// DefaultRasterConfig returns the calibrated image defaults.
func DefaultRasterConfig() RasterConfig {
	return RasterConfig{
		BlockScale:      -0.1,
		ResamplePercent: 100,
		StartX:          200,
		StartY:          300,
		Scale:           1,
	}
}
