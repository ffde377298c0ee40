package converter

import (
	"encoding/json"
	"fmt"
	"math"
)

// Object types understood by the engine.
const (
	ObjectMusicBlock = "music_block"
	ObjectColorBlock = "color_block"
	ObjectFlag       = "flag"
)

// Object is a positioned, typed placement record, the common currency
// between the converters and the level document. The Type field
// discriminates which of the optional fields are meaningful.
type Object struct {
	Type       string  `json:"type"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Note       string  `json:"note,omitempty"`
	Instrument string  `json:"instrument,omitempty"`
	Bounce     float64 `json:"bounce,omitempty"`
	Color      string  `json:"color,omitempty"`
	Scale      float64 `json:"scale,omitempty"`
}

// AudioSettings is the nested audio block of a level document.
type AudioSettings struct {
	RestartOnDeath bool `json:"restart_on_death"`
	Volume         int  `json:"volume"` // 0-100
}

// Pipe, Projectile and ProjectileTrigger are engine features the converters
// never populate; the document carries them as empty collections.
type Pipe struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Length float64 `json:"length"`
}

type Projectile struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Speed float64 `json:"speed"`
}

type ProjectileTrigger struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Document is one complete level description. It is created fresh per
// conversion run and never mutated after serialization.
type Document struct {
	Name               string              `json:"name"`
	Description        string              `json:"description"`
	Version            int                 `json:"version"`
	ScrollSpeed        float64             `json:"scroll_speed"`
	Gravity            float64             `json:"gravity"`
	Antigravity        bool                `json:"antigravity"`
	VerticalFollow     bool                `json:"vertical_follow"`
	MusicDisabled      bool                `json:"music_disabled"`
	GradientTop        string              `json:"gradient_top"`
	GradientBottom     string              `json:"gradient_bottom"`
	Audio              AudioSettings       `json:"audio"`
	StartX             float64             `json:"start_x"`
	StartY             float64             `json:"start_y"`
	Pipes              []Pipe              `json:"pipes"`
	Projectiles        []Projectile        `json:"projectiles"`
	ProjectileTriggers []ProjectileTrigger `json:"projectile_triggers"`
	CurrentLayer       int                 `json:"current_layer"`
	MaxLayers          int                 `json:"max_layers"`
	Objects            []Object            `json:"objects"`
	FinishX            float64             `json:"finish_x"`
	Goal               string              `json:"goal"`
}

// Fixed document calibration. These defaults are part of the engine contract
// and must not drift between runs.
const (
	DocumentVersion  = 1
	DefaultGravity   = 0.3
	DefaultVolume    = 50
	FinishMargin     = 200
	FixedFinishX     = 2500
	flagY            = 350
	defaultStartX    = 100
	defaultStartY    = 350
	gradientTopColor = "#87ceeb"
	gradientBotColor = "#ffffff"
	goalFinishLine   = "finish_line"
)

// FinishPolicy selects how finish_x is derived.
type FinishPolicy int

const (
	// FinishFromContent computes finish_x from the rightmost placement.
	FinishFromContent FinishPolicy = iota
	// FinishFixed uses a configured constant, independent of content.
	FinishFixed
)

// AssembleOptions carries the per-run document metadata.
type AssembleOptions struct {
	Name         string
	Description  string
	FinishPolicy FinishPolicy
	FixedFinishX float64 // used with FinishFixed; 0 means FixedFinishX
}

// Assemble wraps converter output into a complete level document. A terminal
// flag marker is appended unconditionally, placed on the finish line.
func Assemble(objects []Object, opts AssembleOptions) *Document {
	doc := newDocument()
	if opts.Name != "" {
		doc.Name = opts.Name
	}
	if opts.Description != "" {
		doc.Description = opts.Description
	}

	switch opts.FinishPolicy {
	case FinishFixed:
		doc.FinishX = opts.FixedFinishX
		if doc.FinishX == 0 {
			doc.FinishX = FixedFinishX
		}
	default:
		maxX := 0.0
		for _, o := range objects {
			if o.X > maxX {
				maxX = o.X
			}
		}
		doc.FinishX = math.Ceil(maxX + FinishMargin)
	}

	doc.Objects = make([]Object, 0, len(objects)+1)
	doc.Objects = append(doc.Objects, objects...)
	doc.Objects = append(doc.Objects, Object{
		Type: ObjectFlag,
		X:    round2(doc.FinishX),
		Y:    flagY,
	})

	return doc
}

// newDocument returns a document populated with the fixed engine defaults.
func newDocument() *Document {
	return &Document{
		Name:               "Untitled Level",
		Description:        "Generated by levelsmith",
		Version:            DocumentVersion,
		ScrollSpeed:        0,
		Gravity:            DefaultGravity,
		Antigravity:        false,
		VerticalFollow:     false,
		MusicDisabled:      true,
		GradientTop:        gradientTopColor,
		GradientBottom:     gradientBotColor,
		Audio:              AudioSettings{RestartOnDeath: false, Volume: DefaultVolume},
		StartX:             defaultStartX,
		StartY:             defaultStartY,
		Pipes:              []Pipe{},
		Projectiles:        []Projectile{},
		ProjectileTriggers: []ProjectileTrigger{},
		CurrentLayer:       0,
		MaxLayers:          1,
		Objects:            []Object{},
		Goal:               goalFinishLine,
	}
}

// Marshal serializes the document to indented JSON.
func (d *Document) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize level: %w", err)
	}
	return data, nil
}

// ParseDocument reads a serialized level document back.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse level: %w", err)
	}
	return &doc, nil
}

// round2 rounds to 2 decimal digits, the emission precision of all
// document-space coordinates.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
