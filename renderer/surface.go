package renderer

import "image"

// Surface is a caller-owned raster that renders are written into. Resize
// reuses the pixel buffer when it is large enough, so images returned by
// earlier calls alias the new contents.
type Surface struct {
	img *image.NRGBA
}

// NewSurface allocates a transparent surface of the given size.
func NewSurface(w, h int) *Surface {
	s := &Surface{}
	s.Resize(w, h)
	return s
}

// Resize re-targets the surface to w x h and clears it to transparent.
func (s *Surface) Resize(w, h int) *image.NRGBA {
	need := 4 * w * h
	if s.img != nil && cap(s.img.Pix) >= need {
		pix := s.img.Pix[:need]
		clear(pix)
		s.img = &image.NRGBA{Pix: pix, Stride: 4 * w, Rect: image.Rect(0, 0, w, h)}
		return s.img
	}
	s.img = image.NewNRGBA(image.Rect(0, 0, w, h))
	return s.img
}

// Image returns the current raster, or nil before the first Resize.
func (s *Surface) Image() *image.NRGBA {
	return s.img
}

// OpaqueFraction returns the share of pixels whose alpha is at least threshold.
func OpaqueFraction(img *image.NRGBA, threshold uint8) float64 {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}
	n := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			if row[4*x+3] >= threshold {
				n++
			}
		}
	}
	return float64(n) / float64(total)
}
