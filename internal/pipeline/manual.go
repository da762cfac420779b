package pipeline

import (
	"github.com/dunamismax/shrinkray/internal/codec"
	"github.com/dunamismax/shrinkray/internal/domain"
)

// applyManual runs the declared transformations once, in order, without
// measuring output size. Each stage is gated on its own settings flag.
func applyManual(img codec.Image, settings domain.Settings) (codec.Image, error) {
	if settings.Optimization.AutoOrient {
		img = img.AutoOrient()
	}

	if settings.Resize.Enabled {
		resized, err := resizeExact(img, settings.Resize.Width, settings.Resize.Height, settings.Resize.MaintainAspectRatio)
		if err != nil {
			return nil, err
		}
		img = resized
	}

	if settings.Compression.Enabled {
		bounded, err := fitWithin(img, settings.Compression.MaxWidth, settings.Compression.MaxHeight)
		if err != nil {
			return nil, err
		}
		img = bounded
	}

	return img, nil
}
