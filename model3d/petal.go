package model3d

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// petalLayer describes where one rendered petal layer sits in the model.
type petalLayer struct {
	contour []image.Point // simplified outline in texture pixels
	width   int           // texture size
	height  int
	base    r3.Vec  // centre of the layer on the flower axis
	radius  float64 // layer radius in pixels
	scale   float64 // layer radius relative to the outermost layer
}

// addPetalLayer lofts three rings from the outline: an inner ring tucked
// against the stem, a peak ring that lifts the petals and the outline
// itself drooping beyond the peak. Every vertex keeps the texture
// coordinate of the pixel it was lifted from.
func (m *Mesh) addPetalLayer(l petalLayer, p Parameters) error {
	if len(l.contour) < 3 {
		return fmt.Errorf("petal layer outline has %d points", len(l.contour))
	}
	cx, cy := float64(l.width)/2, float64(l.height)/2
	innerY := l.base.Y + p.ConnectionVerticalOffset*l.radius*p.PetalScaleFactor
	peakY := l.base.Y + p.PeakHeightOffset*l.scale

	vertex := func(px, py, y float64) uint32 {
		return m.AddVertex(Vertex{
			Pos: r3.Vec{
				X: l.base.X + (px-cx)*p.PetalScaleFactor,
				Y: y,
				Z: l.base.Z + (py-cy)*p.PetalScaleFactor,
			},
			UV: [2]float64{px / float64(l.width), py / float64(l.height)},
		})
	}

	n := len(l.contour)
	inner := make([]uint32, n)
	peak := make([]uint32, n)
	outer := make([]uint32, n)
	for i, pt := range l.contour {
		px, py := float64(pt.X)+0.5, float64(pt.Y)+0.5
		dx, dy := px-cx, py-cy
		dist := math.Hypot(dx, dy) * p.PetalScaleFactor
		beyond := dist * (1 - p.DroopStartFrac)

		inner[i] = vertex(cx+dx*p.ConnectionRadiusFrac, cy+dy*p.ConnectionRadiusFrac, innerY)
		peak[i] = vertex(cx+dx*p.DroopStartFrac, cy+dy*p.DroopStartFrac, peakY)
		outer[i] = vertex(px, py, peakY-p.PetalDroopFactor*beyond)
	}

	for i := range n {
		j := (i + 1) % n
		m.AddTriangle(inner[i], peak[j], peak[i])
		m.AddTriangle(inner[i], inner[j], peak[j])
		m.AddTriangle(peak[i], outer[j], outer[i])
		m.AddTriangle(peak[i], peak[j], outer[j])
	}
	m.HasUV = true
	return nil
}
