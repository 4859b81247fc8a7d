package model3d

import "image"

// Moore neighbourhood, clockwise in image coordinates starting east.
var moore = [8]image.Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// TraceContour follows the outer boundary of the first opaque region in
// scan order using Moore-neighbour tracing with Jacob's stopping
// criterion: the trace ends when it is about to leave start the same way
// it first did. Pixels on one-pixel bridges, start included, appear once
// per pass. A pixel is opaque when its alpha is at least threshold. It
// returns nil when the image has no region of at least three boundary
// pixels.
func TraceContour(img *image.NRGBA, threshold uint8) []image.Point {
	b := img.Bounds()
	opaque := func(p image.Point) bool {
		if !p.In(b) {
			return false
		}
		return img.Pix[img.PixOffset(p.X, p.Y)+3] >= threshold
	}

	start, found := image.Point{}, false
	for y := b.Min.Y; y < b.Max.Y && !found; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if opaque(image.Pt(x, y)) {
				start, found = image.Pt(x, y), true
				break
			}
		}
	}
	if !found {
		return nil
	}

	contour := []image.Point{start}
	cur := start
	var second image.Point
	left := false
	// Scan order guarantees the west neighbour of start is background, so
	// the search around start begins there.
	dir := 4
	limit := b.Dx() * b.Dy() * 2
	for range limit {
		next, nextDir, ok := image.Point{}, 0, false
		for i := range 8 {
			d := (dir + i) % 8
			p := cur.Add(moore[d])
			if opaque(p) {
				next, nextDir, ok = p, d, true
				break
			}
		}
		if !ok {
			break // isolated pixel
		}
		if cur == start {
			if left && next == second {
				break
			}
			if !left {
				second, left = next, true
			}
		}
		contour = append(contour, next)
		cur = next
		// Resume just after the backtrack direction.
		dir = (nextDir + 6) % 8
	}

	if n := len(contour); n > 1 && contour[n-1] == start {
		contour = contour[:n-1]
	}
	if len(contour) < 3 {
		return nil
	}
	return contour
}
