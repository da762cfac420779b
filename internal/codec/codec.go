package codec

import "errors"

// Format is a concrete output format understood by both backends.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWEBP Format = "webp"
	FormatGIF  Format = "gif"
)

var ErrUnsupportedFormat = errors.New("unsupported output format")

// SaveParams carries format-specific encode knobs. Fields a format does
// not understand are ignored by the backend.
type SaveParams struct {
	Quality     int
	Optimize    bool
	Progressive bool
	AllFrames   bool
}

// Image is a decoded pixel buffer. Transforms return a new Image and
// leave the receiver untouched, so a stage never mutates a buffer still
// held by an earlier stage.
type Image interface {
	Width() int
	Height() int

	// SourceFormat is the format the buffer was decoded from, or ""
	// when unknown.
	SourceFormat() Format

	HasAlpha() bool
	Animated() bool

	// AutoOrient applies the EXIF orientation transform. It is
	// best-effort: with no orientation tag, or when the transform
	// cannot be applied, the receiver is returned unchanged.
	AutoOrient() Image

	// Resize resamples to exactly width x height. An animated
	// sequence collapses to a single transformed frame.
	Resize(width, height int) (Image, error)

	// Flatten rebuilds the buffer from raw pixel values with no
	// auxiliary metadata attached. A buffer with an alpha channel is
	// composited onto an opaque white background.
	Flatten() (Image, error)

	Encode(format Format, params SaveParams) ([]byte, error)
}

// Extension returns the lowercase file extension for a format. JPEG
// maps to "jpg".
func Extension(f Format) string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}

// ContentType returns the MIME type served for a format.
func ContentType(f Format) string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWEBP:
		return "image/webp"
	case FormatGIF:
		return "image/gif"
	default:
		return "image/png"
	}
}
