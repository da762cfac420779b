package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	"github.com/rwcarlsen/goexif/exif"
	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// stdImage is the portable backend. Pixels live in an NRGBA buffer;
// animated GIF frames are retained alongside so an untransformed
// buffer can re-encode the full sequence. Any pixel-level transform
// drops the frames, collapsing the image to a single transformed
// frame.
type stdImage struct {
	pix         *image.NRGBA
	srcFormat   Format
	alpha       bool
	orientation int
	frames      *gif.GIF
}

func decodeStd(data []byte) (Image, error) {
	src, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode source image: %w", err)
	}

	img := &stdImage{
		pix:         toNRGBA(src),
		srcFormat:   formatFromName(name),
		orientation: readOrientation(data),
	}
	img.alpha = hasTransparency(img.pix)

	if name == "gif" {
		if frames, err := gif.DecodeAll(bytes.NewReader(data)); err == nil && len(frames.Image) > 1 {
			img.frames = frames
		}
	}

	return img, nil
}

func (t *stdImage) Width() int           { return t.pix.Bounds().Dx() }
func (t *stdImage) Height() int          { return t.pix.Bounds().Dy() }
func (t *stdImage) SourceFormat() Format { return t.srcFormat }
func (t *stdImage) HasAlpha() bool       { return t.alpha }
func (t *stdImage) Animated() bool       { return t.frames != nil && len(t.frames.Image) > 1 }

func (t *stdImage) AutoOrient() Image {
	if t.orientation <= 1 || t.orientation > 8 {
		return t
	}

	pix := t.pix
	switch t.orientation {
	case 2:
		pix = flipH(pix)
	case 3:
		pix = rotate180(pix)
	case 4:
		pix = flipV(pix)
	case 5:
		pix = flipH(rotate270(pix))
	case 6:
		pix = rotate90(pix)
	case 7:
		pix = flipH(rotate90(pix))
	case 8:
		pix = rotate270(pix)
	}

	return &stdImage{
		pix:       pix,
		srcFormat: t.srcFormat,
		alpha:     t.alpha,
	}
}

func (t *stdImage) Resize(width, height int) (Image, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("resize requires positive dimensions, got %dx%d", width, height)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), t.pix, t.pix.Bounds(), xdraw.Over, nil)

	return &stdImage{
		pix:         dst,
		srcFormat:   t.srcFormat,
		alpha:       t.alpha,
		orientation: t.orientation,
	}, nil
}

func (t *stdImage) Flatten() (Image, error) {
	bounds := t.pix.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	if t.alpha {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
		draw.Draw(dst, dst.Bounds(), t.pix, bounds.Min, draw.Over)
	} else {
		draw.Draw(dst, dst.Bounds(), t.pix, bounds.Min, draw.Src)
	}

	return &stdImage{
		pix:       dst,
		srcFormat: t.srcFormat,
	}, nil
}

func (t *stdImage) Encode(format Format, params SaveParams) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case FormatJPEG:
		quality := params.Quality
		if quality < 1 || quality > 100 {
			quality = 80
		}
		if err := jpeg.Encode(&buf, t.pix, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case FormatPNG:
		encoder := png.Encoder{CompressionLevel: png.DefaultCompression}
		if params.Optimize {
			encoder.CompressionLevel = png.BestCompression
		}
		if err := encoder.Encode(&buf, t.pix); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case FormatWEBP:
		quality := params.Quality
		if quality < 1 || quality > 100 {
			quality = 80
		}
		if err := webp.Encode(&buf, t.pix, &webp.Options{Quality: float32(quality)}); err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}
	case FormatGIF:
		if params.AllFrames && t.Animated() {
			if err := gif.EncodeAll(&buf, t.frames); err != nil {
				return nil, fmt.Errorf("encode gif frames: %w", err)
			}
		} else if err := gif.Encode(&buf, t.pix, &gif.Options{NumColors: 256}); err != nil {
			return nil, fmt.Errorf("encode gif: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return buf.Bytes(), nil
}

func formatFromName(name string) Format {
	switch name {
	case "jpeg":
		return FormatJPEG
	case "png":
		return FormatPNG
	case "webp":
		return FormatWEBP
	case "gif":
		return FormatGIF
	default:
		return ""
	}
}

// readOrientation pulls the EXIF orientation tag out of the raw input.
// Returns 0 when there is no usable tag.
func readOrientation(data []byte) int {
	meta, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 0
	}
	tag, err := meta.Get(exif.Orientation)
	if err != nil {
		return 0
	}
	value, err := tag.Int(0)
	if err != nil || value < 1 || value > 8 {
		return 0
	}
	return value
}

func toNRGBA(src image.Image) *image.NRGBA {
	if nrgba, ok := src.(*image.NRGBA); ok {
		clone := image.NewNRGBA(nrgba.Bounds())
		copy(clone.Pix, nrgba.Pix)
		return clone
	}
	bounds := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
	return dst
}

func hasTransparency(pix *image.NRGBA) bool {
	for i := 3; i < len(pix.Pix); i += 4 {
		if pix.Pix[i] != 0xFF {
			return true
		}
	}
	return false
}

func rotate90(src *image.NRGBA) *image.NRGBA {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.SetNRGBA(h-1-y, x, src.NRGBAAt(src.Bounds().Min.X+x, src.Bounds().Min.Y+y))
		}
	}
	return dst
}

func rotate180(src *image.NRGBA) *image.NRGBA {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.SetNRGBA(w-1-x, h-1-y, src.NRGBAAt(src.Bounds().Min.X+x, src.Bounds().Min.Y+y))
		}
	}
	return dst
}

func rotate270(src *image.NRGBA) *image.NRGBA {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.SetNRGBA(y, w-1-x, src.NRGBAAt(src.Bounds().Min.X+x, src.Bounds().Min.Y+y))
		}
	}
	return dst
}

func flipH(src *image.NRGBA) *image.NRGBA {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.SetNRGBA(w-1-x, y, src.NRGBAAt(src.Bounds().Min.X+x, src.Bounds().Min.Y+y))
		}
	}
	return dst
}

func flipV(src *image.NRGBA) *image.NRGBA {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.SetNRGBA(x, h-1-y, src.NRGBAAt(src.Bounds().Min.X+x, src.Bounds().Min.Y+y))
		}
	}
	return dst
}
