//go:build govips && cgo

package codec

import (
	"fmt"

	"github.com/davidbyttow/govips/v2/vips"
)

// vipsImage wraps a libvips image ref. ImageRef operations mutate in
// place, so every transform copies the ref first to keep the value
// semantics the pipeline relies on.
type vipsImage struct {
	ref *vips.ImageRef
}

func decodeVips(data []byte) (Image, error) {
	params := vips.NewImportParams()
	params.NumPages.Set(-1)

	ref, err := vips.LoadImageFromBuffer(data, params)
	if err != nil {
		return nil, fmt.Errorf("decode source image: %w", err)
	}
	return &vipsImage{ref: ref}, nil
}

func (t *vipsImage) Width() int  { return t.ref.Width() }
func (t *vipsImage) Height() int { return t.ref.PageHeight() }

func (t *vipsImage) SourceFormat() Format {
	switch t.ref.Format() {
	case vips.ImageTypeJPEG:
		return FormatJPEG
	case vips.ImageTypePNG:
		return FormatPNG
	case vips.ImageTypeWEBP:
		return FormatWEBP
	case vips.ImageTypeGIF:
		return FormatGIF
	default:
		return ""
	}
}

func (t *vipsImage) HasAlpha() bool { return t.ref.HasAlpha() }
func (t *vipsImage) Animated() bool { return t.ref.Pages() > 1 }

func (t *vipsImage) AutoOrient() Image {
	cp, err := t.ref.Copy()
	if err != nil {
		return t
	}
	if err := cp.AutoRotate(); err != nil {
		return t
	}
	return &vipsImage{ref: cp}
}

func (t *vipsImage) Resize(width, height int) (Image, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("resize requires positive dimensions, got %dx%d", width, height)
	}

	cp, err := t.ref.Copy()
	if err != nil {
		return nil, fmt.Errorf("copy image: %w", err)
	}

	hscale := float64(width) / float64(t.Width())
	vscale := float64(height) / float64(t.Height())
	if err := cp.ResizeWithVScale(hscale, vscale, vips.KernelLanczos3); err != nil {
		return nil, fmt.Errorf("resize image: %w", err)
	}
	return &vipsImage{ref: cp}, nil
}

func (t *vipsImage) Flatten() (Image, error) {
	cp, err := t.ref.Copy()
	if err != nil {
		return nil, fmt.Errorf("copy image: %w", err)
	}

	if cp.HasAlpha() {
		if err := cp.Flatten(&vips.Color{R: 255, G: 255, B: 255}); err != nil {
			return nil, fmt.Errorf("flatten alpha: %w", err)
		}
	}
	if err := cp.RemoveMetadata(); err != nil {
		return nil, fmt.Errorf("strip metadata: %w", err)
	}
	return &vipsImage{ref: cp}, nil
}

func (t *vipsImage) Encode(format Format, params SaveParams) ([]byte, error) {
	switch format {
	case FormatJPEG:
		p := vips.NewJpegExportParams()
		if params.Quality > 0 && params.Quality <= 100 {
			p.Quality = params.Quality
		}
		p.Interlace = params.Progressive
		p.OptimizeCoding = params.Optimize
		data, _, err := t.ref.ExportJpeg(p)
		if err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		return data, nil
	case FormatPNG:
		p := vips.NewPngExportParams()
		data, _, err := t.ref.ExportPng(p)
		if err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
		return data, nil
	case FormatWEBP:
		p := vips.NewWebpExportParams()
		if params.Quality > 0 && params.Quality <= 100 {
			p.Quality = params.Quality
		}
		data, _, err := t.ref.ExportWebp(p)
		if err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}
		return data, nil
	case FormatGIF:
		p := vips.NewGifExportParams()
		if params.Quality > 0 && params.Quality <= 100 {
			p.Quality = params.Quality
		}
		data, _, err := t.ref.ExportGIF(p)
		if err != nil {
			return nil, fmt.Errorf("encode gif: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}
