package pipeline

import (
	"math"

	"github.com/dunamismax/shrinkray/internal/codec"
	"github.com/dunamismax/shrinkray/internal/domain"
)

const (
	// autoMaxDimension bounds the search space before iterating; very
	// large originals would otherwise burn the whole round budget on
	// quality cuts alone.
	autoMaxDimension = 2048

	autoStartQuality = 95
	autoMaxRounds    = 10

	// Quality floors. The aggressive cut stops at 30, the fine cut at
	// 20; past that the optimizer shrinks dimensions instead.
	autoQualityFineFloor       = 20
	autoQualityAggressiveFloor = 30

	// Dimension floors for the shrink fallback.
	autoMinWidth  = 300
	autoMinHeight = 200

	// After a shrink the smaller frame affords some quality back.
	autoReboundCap = 85
)

// optimizeForSize searches quality and, once quality bottoms out,
// dimensions, until a WEBP encode of the buffer fits targetBytes. It is
// a greedy heuristic, not a binary search: quality drops first, and the
// result may stay above target when the floors are reached before
// convergence. Returns the final buffer and the quality it settled on.
//
// A target of zero or less is unreachable; the loop runs to exhaustion
// and hands back the smallest buffer it found.
func optimizeForSize(img codec.Image, targetBytes int) (codec.Image, int, error) {
	img = img.AutoOrient()

	if img.Width() > autoMaxDimension || img.Height() > autoMaxDimension {
		shrunk, err := fitWithin(img, autoMaxDimension, autoMaxDimension)
		if err != nil {
			return nil, 0, err
		}
		img = shrunk
	}

	quality := autoStartQuality
	for round := 0; round < autoMaxRounds; round++ {
		encoded, err := img.Encode(codec.FormatWEBP, codec.SaveParams{Quality: quality, Optimize: true})
		if err != nil {
			return nil, 0, err
		}
		size := len(encoded)

		switch {
		case size <= targetBytes:
			return img, quality, nil
		case size > targetBytes*3/2 && quality > autoQualityAggressiveFloor:
			quality = maxInt(autoQualityAggressiveFloor, quality-15)
		case quality > autoQualityFineFloor:
			quality = maxInt(autoQualityFineFloor, quality-5)
		default:
			// Quality has bottomed out; shrink toward the byte target
			// instead. sqrt because bytes scale with area.
			scale := 0.0
			if targetBytes > 0 {
				scale = math.Sqrt(float64(targetBytes) / float64(size))
			}
			w, h := img.Width(), img.Height()
			newW := maxInt(autoMinWidth, int(float64(w)*scale))
			newH := maxInt(autoMinHeight, int(float64(h)*scale))
			if newW >= w || newH >= h {
				// Already at the floor; nothing left to try.
				return img, quality, nil
			}
			img, err = img.Resize(newW, newH)
			if err != nil {
				return nil, 0, err
			}
			quality = minInt(autoReboundCap, quality+10)
		}
	}

	return img, quality, nil
}

// forceAutoDefaults pins the settings auto mode always runs with: WEBP
// output, metadata stripped, orientation corrected, progressive
// optimization on. Caller preferences for these are deliberately
// overridden for predictable output.
func forceAutoDefaults(settings domain.Settings) domain.Settings {
	settings.Format.OutputFormat = "webp"
	settings.Format.ConvertToWebp = true
	settings.Optimization.RemoveMetadata = true
	settings.Optimization.AutoOrient = true
	settings.Optimization.Progressive = true
	return settings
}
