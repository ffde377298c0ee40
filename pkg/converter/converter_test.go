package converter

import (
	"context"
	"image"
	"image/color"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		expected Format
	}{
		{"song.mid", FormatMIDI},
		{"song.midi", FormatMIDI},
		{"logo.png", FormatImage},
		{"photo.jpg", FormatImage},
		{"photo.jpeg", FormatImage},
		{"anim.gif", FormatImage},
		{"level.json", FormatUnknown},
		{"noext", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := DetectFormat(tt.filename); got != tt.expected {
				t.Errorf("DetectFormat(%q) = %v, want %v", tt.filename, got, tt.expected)
			}
		})
	}
}

func TestDetectFormatFromContent(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected Format
	}{
		{"MIDI file", []byte("MThd\x00\x00\x00\x06"), FormatMIDI},
		{"PNG file", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, FormatImage},
		{"JPEG file", []byte{0xFF, 0xD8, 0xFF, 0xE0}, FormatImage},
		{"GIF file", []byte("GIF89a"), FormatImage},
		{"short data", []byte{0x00, 0x01}, FormatUnknown},
		{"arbitrary binary", []byte{0x3C, 0x01, 0x3E, 0x02}, FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormatFromContent(tt.data); got != tt.expected {
				t.Errorf("DetectFormatFromContent() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConvertDispatchesOnContent(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})

	doc, err := Convert(context.Background(), encodePNG(t, img), DefaultOptions())
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	// One color block plus the terminal flag.
	if len(doc.Objects) != 2 {
		t.Fatalf("document has %d objects, want 2", len(doc.Objects))
	}
	if doc.Objects[0].Type != ObjectColorBlock {
		t.Errorf("first object type = %q, want %q", doc.Objects[0].Type, ObjectColorBlock)
	}
}

func TestConvertRejectsUnknownFormat(t *testing.T) {
	if _, err := Convert(context.Background(), []byte("plain text, not media"), DefaultOptions()); err == nil {
		t.Error("Convert() accepted unrecognizable input")
	}
}

func TestConvertMIDIEndToEnd(t *testing.T) {
	doc, err := ConvertMIDI(buildTestMIDI(t), DefaultOptions())
	if err != nil {
		t.Fatalf("ConvertMIDI() error = %v", err)
	}

	// Two melody notes plus the terminal flag.
	if len(doc.Objects) != 3 {
		t.Fatalf("document has %d objects, want 3", len(doc.Objects))
	}
	if doc.Objects[0].X != 191.00 || doc.Objects[0].Bounce != 5.94 {
		t.Errorf("first block = (x %v, bounce %v), want (191.00, 5.94)",
			doc.Objects[0].X, doc.Objects[0].Bounce)
	}
	if doc.Objects[1].X != 254.44 {
		t.Errorf("second block x = %v, want 254.44", doc.Objects[1].X)
	}
}
