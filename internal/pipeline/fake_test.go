package pipeline

import (
	"fmt"

	"github.com/dunamismax/shrinkray/internal/codec"
)

// fakeImage is an in-memory stand-in for a decoded buffer. encodedSize
// controls how many bytes Encode claims the frame compresses to, which
// lets optimizer tests steer the search deterministically.
type fakeImage struct {
	w, h        int
	srcFormat   codec.Format
	alpha       bool
	animated    bool
	oriented    bool
	flattened   bool
	encodes     *int
	encodedSize func(w, h, quality int) int
}

func newFakeImage(w, h int) *fakeImage {
	return &fakeImage{
		w:         w,
		h:         h,
		srcFormat: codec.FormatJPEG,
		encodes:   new(int),
		encodedSize: func(w, h, quality int) int {
			return w * h
		},
	}
}

func (f *fakeImage) Width() int                 { return f.w }
func (f *fakeImage) Height() int                { return f.h }
func (f *fakeImage) SourceFormat() codec.Format { return f.srcFormat }
func (f *fakeImage) HasAlpha() bool             { return f.alpha }
func (f *fakeImage) Animated() bool             { return f.animated }

func (f *fakeImage) AutoOrient() codec.Image {
	clone := *f
	clone.oriented = true
	return &clone
}

func (f *fakeImage) Resize(width, height int) (codec.Image, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid resize target %dx%d", width, height)
	}
	clone := *f
	clone.w = width
	clone.h = height
	return &clone, nil
}

func (f *fakeImage) Flatten() (codec.Image, error) {
	clone := *f
	clone.flattened = true
	return &clone, nil
}

func (f *fakeImage) Encode(_ codec.Format, params codec.SaveParams) ([]byte, error) {
	*f.encodes++
	return make([]byte, f.encodedSize(f.w, f.h, params.Quality)), nil
}
