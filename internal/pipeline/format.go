package pipeline

import (
	"strings"

	"github.com/dunamismax/shrinkray/internal/codec"
	"github.com/dunamismax/shrinkray/internal/domain"
)

// resolveFormat maps the requested logical format to a concrete codec
// format. "original" keeps the input's own format, defaulting to JPEG
// when the decoder could not identify it. Unrecognized names fall back
// to WEBP.
func resolveFormat(requested string, original codec.Format) codec.Format {
	switch strings.ToLower(strings.TrimSpace(requested)) {
	case "original":
		if original == "" {
			return codec.FormatJPEG
		}
		return original
	case "jpeg", "jpg":
		return codec.FormatJPEG
	case "png":
		return codec.FormatPNG
	case "gif":
		return codec.FormatGIF
	case "webp":
		return codec.FormatWEBP
	default:
		return codec.FormatWEBP
	}
}

// saveParams builds the encode parameter set for a format. Quality and
// progressive apply to JPEG/WEBP, PNG only gets optimize, and GIF gets
// the all-frames flag for animated sequences.
func saveParams(format codec.Format, settings domain.Settings, animated bool) codec.SaveParams {
	switch format {
	case codec.FormatJPEG:
		return codec.SaveParams{
			Quality:     settings.Compression.Quality,
			Optimize:    true,
			Progressive: settings.Optimization.Progressive,
		}
	case codec.FormatWEBP:
		return codec.SaveParams{
			Quality:  settings.Compression.Quality,
			Optimize: true,
		}
	case codec.FormatPNG:
		return codec.SaveParams{Optimize: true}
	case codec.FormatGIF:
		return codec.SaveParams{AllFrames: animated}
	default:
		return codec.SaveParams{}
	}
}
