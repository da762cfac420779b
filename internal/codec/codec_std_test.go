package codec

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func solidNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestDecodeStdPNG(t *testing.T) {
	data := encodePNG(t, solidNRGBA(20, 10, color.NRGBA{R: 200, G: 100, B: 50, A: 255}))

	img, err := decodeStd(data)
	if err != nil {
		t.Fatal(err)
	}
	if img.Width() != 20 || img.Height() != 10 {
		t.Errorf("dimensions = %dx%d, want 20x10", img.Width(), img.Height())
	}
	if img.SourceFormat() != FormatPNG {
		t.Errorf("source format = %q, want png", img.SourceFormat())
	}
	if img.HasAlpha() {
		t.Error("opaque image reported alpha")
	}
	if img.Animated() {
		t.Error("still image reported animated")
	}
}

func TestDecodeStdDetectsAlpha(t *testing.T) {
	src := solidNRGBA(4, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	src.SetNRGBA(1, 1, color.NRGBA{A: 0})

	img, err := decodeStd(encodePNG(t, src))
	if err != nil {
		t.Fatal(err)
	}
	if !img.HasAlpha() {
		t.Error("expected alpha to be detected")
	}
}

func TestDecodeStdRejectsGarbage(t *testing.T) {
	if _, err := decodeStd([]byte("not an image at all")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestStdResize(t *testing.T) {
	img, err := decodeStd(encodePNG(t, solidNRGBA(40, 20, color.NRGBA{R: 1, G: 2, B: 3, A: 255})))
	if err != nil {
		t.Fatal(err)
	}

	resized, err := img.Resize(20, 10)
	if err != nil {
		t.Fatal(err)
	}
	if resized.Width() != 20 || resized.Height() != 10 {
		t.Errorf("resized to %dx%d, want 20x10", resized.Width(), resized.Height())
	}
	// Original buffer is untouched.
	if img.Width() != 40 || img.Height() != 20 {
		t.Errorf("source mutated to %dx%d", img.Width(), img.Height())
	}

	if _, err := img.Resize(0, 10); err == nil {
		t.Error("expected error for a zero dimension")
	}
}

func TestStdFlattenCompositesAlphaOntoWhite(t *testing.T) {
	src := solidNRGBA(2, 2, color.NRGBA{R: 0, G: 0, B: 0, A: 255})
	src.SetNRGBA(0, 0, color.NRGBA{A: 0}) // fully transparent corner

	img, err := decodeStd(encodePNG(t, src))
	if err != nil {
		t.Fatal(err)
	}

	flat, err := img.Flatten()
	if err != nil {
		t.Fatal(err)
	}
	if flat.HasAlpha() {
		t.Error("flattened image still reports alpha")
	}

	got := flat.(*stdImage).pix.NRGBAAt(0, 0)
	if got.R != 255 || got.G != 255 || got.B != 255 || got.A != 255 {
		t.Errorf("transparent corner flattened to %+v, want white", got)
	}
	opaque := flat.(*stdImage).pix.NRGBAAt(1, 1)
	if opaque.R != 0 || opaque.G != 0 || opaque.B != 0 {
		t.Errorf("opaque pixel changed: %+v", opaque)
	}
}

func TestStdAutoOrient(t *testing.T) {
	// 2x1 strip: red then blue.
	strip := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	strip.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	strip.SetNRGBA(1, 0, color.NRGBA{B: 255, A: 255})

	t.Run("rotate 90", func(t *testing.T) {
		img := &stdImage{pix: strip, orientation: 6}
		out := img.AutoOrient().(*stdImage)
		if out.Width() != 1 || out.Height() != 2 {
			t.Fatalf("dimensions = %dx%d, want 1x2", out.Width(), out.Height())
		}
		if out.pix.NRGBAAt(0, 0).R != 255 || out.pix.NRGBAAt(0, 1).B != 255 {
			t.Error("pixels not rotated clockwise")
		}
	})

	t.Run("rotate 180", func(t *testing.T) {
		img := &stdImage{pix: strip, orientation: 3}
		out := img.AutoOrient().(*stdImage)
		if out.pix.NRGBAAt(0, 0).B != 255 || out.pix.NRGBAAt(1, 0).R != 255 {
			t.Error("pixels not reversed")
		}
	})

	t.Run("mirror", func(t *testing.T) {
		img := &stdImage{pix: strip, orientation: 2}
		out := img.AutoOrient().(*stdImage)
		if out.pix.NRGBAAt(0, 0).B != 255 || out.pix.NRGBAAt(1, 0).R != 255 {
			t.Error("pixels not mirrored")
		}
	})

	t.Run("no orientation is a no-op", func(t *testing.T) {
		img := &stdImage{pix: strip, orientation: 0}
		if img.AutoOrient() != Image(img) {
			t.Error("expected the same image back")
		}
	})
}

func TestStdEncodeFormats(t *testing.T) {
	img, err := decodeStd(encodePNG(t, solidNRGBA(8, 8, color.NRGBA{R: 120, G: 90, B: 60, A: 255})))
	if err != nil {
		t.Fatal(err)
	}

	for _, format := range []Format{FormatJPEG, FormatPNG, FormatWEBP, FormatGIF} {
		data, err := img.Encode(format, SaveParams{Quality: 80, Optimize: true})
		if err != nil {
			t.Fatalf("encode %s: %v", format, err)
		}
		decoded, name, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("re-decode %s: %v", format, err)
		}
		if string(format) != name {
			t.Errorf("encoded %s, decoder identified %s", format, name)
		}
		if decoded.Bounds().Dx() != 8 || decoded.Bounds().Dy() != 8 {
			t.Errorf("%s dimensions = %v", format, decoded.Bounds())
		}
	}

	if _, err := img.Encode(Format("avif"), SaveParams{}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("unsupported format error = %v", err)
	}
}

func TestStdAnimatedGIF(t *testing.T) {
	palette := color.Palette{color.Black, color.White}
	frame := func(c uint8) *image.Paletted {
		p := image.NewPaletted(image.Rect(0, 0, 4, 4), palette)
		for i := range p.Pix {
			p.Pix[i] = c
		}
		return p
	}

	var buf bytes.Buffer
	err := gif.EncodeAll(&buf, &gif.GIF{
		Image: []*image.Paletted{frame(0), frame(1)},
		Delay: []int{10, 10},
	})
	if err != nil {
		t.Fatal(err)
	}

	img, err := decodeStd(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if !img.Animated() {
		t.Fatal("two-frame gif not reported animated")
	}

	data, err := img.Encode(FormatGIF, SaveParams{AllFrames: true})
	if err != nil {
		t.Fatal(err)
	}
	out, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Image) != 2 {
		t.Fatalf("re-encoded gif has %d frames, want 2", len(out.Image))
	}

	still, err := img.Encode(FormatGIF, SaveParams{})
	if err != nil {
		t.Fatal(err)
	}
	single, err := gif.DecodeAll(bytes.NewReader(still))
	if err != nil {
		t.Fatal(err)
	}
	if len(single.Image) != 1 {
		t.Fatalf("single-frame encode has %d frames", len(single.Image))
	}
}

func TestStdTransformsCollapseAnimation(t *testing.T) {
	palette := color.Palette{color.Black, color.White}
	frame := func(c uint8) *image.Paletted {
		p := image.NewPaletted(image.Rect(0, 0, 8, 8), palette)
		for i := range p.Pix {
			p.Pix[i] = c
		}
		return p
	}

	var buf bytes.Buffer
	err := gif.EncodeAll(&buf, &gif.GIF{
		Image: []*image.Paletted{frame(0), frame(1)},
		Delay: []int{10, 10},
	})
	if err != nil {
		t.Fatal(err)
	}

	img, err := decodeStd(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if !img.Animated() {
		t.Fatal("fixture not animated")
	}

	t.Run("resize", func(t *testing.T) {
		resized, err := img.Resize(4, 4)
		if err != nil {
			t.Fatal(err)
		}
		if resized.Animated() {
			t.Error("resized image still reports animated")
		}

		data, err := resized.Encode(FormatGIF, SaveParams{AllFrames: true})
		if err != nil {
			t.Fatal(err)
		}
		out, err := gif.DecodeAll(bytes.NewReader(data))
		if err != nil {
			t.Fatal(err)
		}
		if len(out.Image) != 1 {
			t.Fatalf("resized gif has %d frames, want 1", len(out.Image))
		}
		bounds := out.Image[0].Bounds()
		if bounds.Dx() != 4 || bounds.Dy() != 4 {
			t.Errorf("encoded frame = %dx%d, want 4x4", bounds.Dx(), bounds.Dy())
		}
	})

	t.Run("flatten", func(t *testing.T) {
		flat, err := img.Flatten()
		if err != nil {
			t.Fatal(err)
		}
		if flat.Animated() {
			t.Error("flattened image still reports animated")
		}
	})
}

func TestExtensionAndContentType(t *testing.T) {
	if Extension(FormatJPEG) != "jpg" {
		t.Errorf("jpeg extension = %q", Extension(FormatJPEG))
	}
	if Extension(FormatWEBP) != "webp" {
		t.Errorf("webp extension = %q", Extension(FormatWEBP))
	}
	if ContentType(FormatWEBP) != "image/webp" {
		t.Errorf("webp content type = %q", ContentType(FormatWEBP))
	}
	if ContentType(FormatJPEG) != "image/jpeg" {
		t.Errorf("jpeg content type = %q", ContentType(FormatJPEG))
	}
}
