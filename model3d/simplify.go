package model3d

import "image"

// pointSegmentDistanceSq is the squared distance from p to segment ab.
func pointSegmentDistanceSq(p, a, b image.Point) float64 {
	abx, aby := float64(b.X-a.X), float64(b.Y-a.Y)
	apx, apy := float64(p.X-a.X), float64(p.Y-a.Y)
	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return apx*apx + apy*apy
	}
	t := (apx*abx + apy*aby) / lenSq
	t = max(0, min(1, t))
	dx, dy := apx-t*abx, apy-t*aby
	return dx*dx + dy*dy
}

// Simplify reduces a closed contour with Douglas-Peucker. The loop is
// split at the point farthest from the first so both halves are open
// polylines. Contours that would collapse below three points are
// returned unchanged.
func Simplify(points []image.Point, tolerance float64) []image.Point {
	if len(points) < 4 || tolerance <= 0 {
		return points
	}

	far, farDist := 0, -1
	for i, p := range points {
		dx, dy := p.X-points[0].X, p.Y-points[0].Y
		if d := dx*dx + dy*dy; d > farDist {
			far, farDist = i, d
		}
	}
	if far == 0 {
		return points
	}

	loop := append(append([]image.Point{}, points...), points[0])
	tolSq := tolerance * tolerance
	first := douglasPeucker(loop[:far+1], tolSq)
	second := douglasPeucker(loop[far:], tolSq)

	out := append(first, second[1:len(second)-1]...)
	if len(out) < 3 {
		return points
	}
	return out
}

func douglasPeucker(pts []image.Point, tolSq float64) []image.Point {
	if len(pts) < 3 {
		return append([]image.Point{}, pts...)
	}
	a, b := pts[0], pts[len(pts)-1]
	idx, maxD := 0, -1.0
	for i := 1; i < len(pts)-1; i++ {
		if d := pointSegmentDistanceSq(pts[i], a, b); d > maxD {
			idx, maxD = i, d
		}
	}
	if maxD <= tolSq {
		return []image.Point{a, b}
	}
	left := douglasPeucker(pts[:idx+1], tolSq)
	right := douglasPeucker(pts[idx:], tolSq)
	return append(left[:len(left)-1], right...)
}
