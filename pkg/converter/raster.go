package converter

import (
	"context"
	"fmt"
	"math"
)

// LagThreshold is the projected object count above which a conversion is
// flagged as likely to lag the engine. Advisory only; generation is never
// refused.
const LagThreshold = 10000

// referenceBlockScale / referenceSpacing anchor the spacing derivation:
// a block scale of -0.1 places adjacent pixels 4 units apart.
const (
	referenceBlockScale = -0.1
	referenceSpacing    = 4.0
)

// PixelSpacing derives the document-space distance between adjacent source
// pixels from the block-scale parameter. Only the magnitude matters.
func PixelSpacing(blockScale float64) float64 {
	return math.Abs(referenceSpacing * (blockScale / referenceBlockScale))
}

// Normalize clamps the resample percentage into [1,100]. Per the engine
// calibration this is the only field that is clamped rather than rejected.
func (cfg *RasterConfig) Normalize() {
	if cfg.ResamplePercent < 1 {
		cfg.ResamplePercent = 1
	}
	if cfg.ResamplePercent > 100 {
		cfg.ResamplePercent = 100
	}
}

// Validate rejects configurations no scan should start with.
func (cfg RasterConfig) Validate() error {
	if cfg.BlockScale == 0 {
		return fmt.Errorf("%w: block scale must be non-zero", ErrInvalidConfiguration)
	}
	for name, v := range map[string]float64{
		"block scale": cfg.BlockScale,
		"start x":     cfg.StartX,
		"start y":     cfg.StartY,
		"scale":       cfg.Scale,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidConfiguration, name)
		}
	}
	return nil
}

// EstimateObjectCount is the upper bound on objects a scan can produce,
// after resampling. Callers compare it against LagThreshold before running
// the full scan.
func EstimateObjectCount(r *Raster, resamplePercent int) int {
	if r == nil {
		return 0
	}
	w, h := resampledSize(r.Width, r.Height, resamplePercent)
	return w * h
}

// MapRaster converts every opaque pixel of the raster into a color block on
// a regular lattice. Fully transparent pixels contribute no object, which is
// how arbitrary silhouettes come through. The scan is row-major and
// deterministic; cancellation is honored only at row boundaries so that a
// re-run with the same inputs is idempotent.
func MapRaster(ctx context.Context, r *Raster, cfg RasterConfig) ([]Object, error) {
	if r == nil {
		return nil, ErrNoActiveImage
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	scaled := r.Resample(cfg.ResamplePercent)
	spacing := PixelSpacing(cfg.BlockScale)

	startY := cfg.StartY
	if cfg.CenterVertically {
		startY = cfg.StartY - float64(scaled.Height)*spacing/2
	}

	objects := make([]Object, 0, scaled.Width*scaled.Height)
	for y := 0; y < scaled.Height; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := 0; x < scaled.Width; x++ {
			s := scaled.At(x, y)
			if s.A == 0 {
				continue
			}
			objects = append(objects, Object{
				Type:  ObjectColorBlock,
				X:     round2(cfg.StartX + float64(x)*spacing),
				Y:     round2(startY + float64(y)*spacing),
				Color: hexColor(s.R, s.G, s.B),
				Scale: cfg.Scale,
			})
		}
	}

	return objects, nil
}

// hexColor formats an RGB triple as a lowercase zero-padded hex string.
func hexColor(r, g, b uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// resampledSize floors both dimensions by the given percentage, keeping at
// least one pixel per axis.
func resampledSize(w, h, percent int) (int, int) {
	sw := w * percent / 100
	sh := h * percent / 100
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}
	return sw, sh
}
