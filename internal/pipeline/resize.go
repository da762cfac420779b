package pipeline

import (
	"math"

	"github.com/dunamismax/shrinkray/internal/codec"
)

// fitWithin scales the image down so both dimensions are at most
// maxW x maxH, preserving aspect ratio. Images that already fit are
// returned unchanged. New dimensions round down.
func fitWithin(img codec.Image, maxW, maxH int) (codec.Image, error) {
	w, h := img.Width(), img.Height()
	if maxW < 1 || maxH < 1 {
		return img, nil
	}
	if w <= maxW && h <= maxH {
		return img, nil
	}

	ratio := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	newW := maxInt(1, int(float64(w)*ratio))
	newH := maxInt(1, int(float64(h)*ratio))
	return img.Resize(newW, newH)
}

// resizeExact resizes to the requested target dimensions. A target of 0
// means unset. With maintainAspect, a single target scales the other
// dimension proportionally and two targets fit within the box; without
// it the image is stretched to exactly the given dimensions, current
// dimensions filling in for unset targets.
func resizeExact(img codec.Image, targetW, targetH int, maintainAspect bool) (codec.Image, error) {
	if targetW <= 0 && targetH <= 0 {
		return img, nil
	}

	w, h := img.Width(), img.Height()
	var newW, newH int

	switch {
	case !maintainAspect:
		newW, newH = targetW, targetH
		if newW <= 0 {
			newW = w
		}
		if newH <= 0 {
			newH = h
		}
	case targetW > 0 && targetH > 0:
		ratio := math.Min(float64(targetW)/float64(w), float64(targetH)/float64(h))
		newW = int(float64(w) * ratio)
		newH = int(float64(h) * ratio)
	case targetW > 0:
		newW = targetW
		newH = int(float64(h) * float64(targetW) / float64(w))
	default:
		newW = int(float64(w) * float64(targetH) / float64(h))
		newH = targetH
	}

	newW = maxInt(1, newW)
	newH = maxInt(1, newH)
	if newW == w && newH == h {
		return img, nil
	}
	return img.Resize(newW, newH)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
