package pipeline

import (
	"testing"

	"github.com/dunamismax/shrinkray/internal/domain"
)

func TestOptimizeForSizeFitsOnFirstEncode(t *testing.T) {
	img := newFakeImage(1200, 900)
	img.encodedSize = func(w, h, quality int) int { return 40_000 }

	out, quality, err := optimizeForSize(img, 150*1024)
	if err != nil {
		t.Fatal(err)
	}
	if quality != autoStartQuality {
		t.Errorf("quality = %d, want %d", quality, autoStartQuality)
	}
	if *img.encodes != 1 {
		t.Errorf("encodes = %d, want 1", *img.encodes)
	}
	dims(t, out, 1200, 900)
	if !out.(*fakeImage).oriented {
		t.Error("expected orientation applied before the search")
	}
}

func TestOptimizeForSizePreShrinksLargeInput(t *testing.T) {
	img := newFakeImage(4096, 2048)
	img.encodedSize = func(w, h, quality int) int { return 1 }

	out, _, err := optimizeForSize(img, 150*1024)
	if err != nil {
		t.Fatal(err)
	}
	dims(t, out, 2048, 1024)
}

func TestOptimizeForSizeAggressiveQualityDescent(t *testing.T) {
	img := newFakeImage(1000, 1000)
	img.encodedSize = func(w, h, quality int) int {
		if quality > 50 {
			return 100_000
		}
		return 900
	}

	_, quality, err := optimizeForSize(img, 1000)
	if err != nil {
		t.Fatal(err)
	}
	// Far over target drops quality in steps of 15: 95, 80, 65, 50.
	if quality != 50 {
		t.Errorf("quality = %d, want 50", quality)
	}
	if *img.encodes != 4 {
		t.Errorf("encodes = %d, want 4", *img.encodes)
	}
}

func TestOptimizeForSizeFineQualityDescent(t *testing.T) {
	img := newFakeImage(1000, 1000)
	img.encodedSize = func(w, h, quality int) int {
		if quality > 60 {
			return 1400 // within 1.5x of target, so only fine cuts apply
		}
		return 950
	}

	_, quality, err := optimizeForSize(img, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if quality != 60 {
		t.Errorf("quality = %d, want 60", quality)
	}
	if *img.encodes != 8 {
		t.Errorf("encodes = %d, want 8", *img.encodes)
	}
}

func TestOptimizeForSizeShrinksAfterQualityBottomsOut(t *testing.T) {
	img := newFakeImage(1600, 1600)
	// Bytes scale with area and ignore quality, forcing the search all
	// the way through both quality floors into the shrink fallback.
	img.encodedSize = func(w, h, quality int) int { return w * h / 4 }

	out, quality, err := optimizeForSize(img, 160_000)
	if err != nil {
		t.Fatal(err)
	}
	// sqrt(160000/640000) = 0.5, then +10 quality rebound from the floor.
	dims(t, out, 800, 800)
	if quality != 30 {
		t.Errorf("quality = %d, want 30", quality)
	}
}

func TestOptimizeForSizeUnreachableTargetExhaustsRounds(t *testing.T) {
	img := newFakeImage(640, 480)
	img.encodedSize = func(w, h, quality int) int { return 10_000 }

	out, quality, err := optimizeForSize(img, 0)
	if err != nil {
		t.Fatal(err)
	}
	if *img.encodes != autoMaxRounds {
		t.Errorf("encodes = %d, want the full %d rounds", *img.encodes, autoMaxRounds)
	}
	if out.Width() < autoMinWidth || out.Height() < autoMinHeight {
		t.Errorf("dimensions %dx%d fell below the %dx%d floor", out.Width(), out.Height(), autoMinWidth, autoMinHeight)
	}
	if quality < autoQualityFineFloor {
		t.Errorf("quality = %d fell below the floor %d", quality, autoQualityFineFloor)
	}
}

func TestOptimizeForSizeSmallImageStopsAtDimensionFloor(t *testing.T) {
	img := newFakeImage(100, 100)
	img.encodedSize = func(w, h, quality int) int { return 10_000 }

	out, _, err := optimizeForSize(img, 0)
	if err != nil {
		t.Fatal(err)
	}
	// The shrink fallback would round up to the floor, which is larger
	// than the frame; the search stops instead of growing the image.
	dims(t, out, 100, 100)
	if *img.encodes >= autoMaxRounds {
		t.Errorf("encodes = %d, expected an early stop", *img.encodes)
	}
}

func TestForceAutoDefaults(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.Format.OutputFormat = "png"
	settings.Format.ConvertToWebp = false
	settings.Optimization.RemoveMetadata = false
	settings.Optimization.AutoOrient = false
	settings.Optimization.Progressive = false
	settings.TargetFileSize = 42

	forced := forceAutoDefaults(settings)
	if forced.Format.OutputFormat != "webp" || !forced.Format.ConvertToWebp {
		t.Errorf("format not pinned: %+v", forced.Format)
	}
	if !forced.Optimization.RemoveMetadata || !forced.Optimization.AutoOrient || !forced.Optimization.Progressive {
		t.Errorf("optimization not pinned: %+v", forced.Optimization)
	}
	if forced.TargetFileSize != 42 {
		t.Errorf("TargetFileSize = %d, caller value should survive", forced.TargetFileSize)
	}
}
