package model3d

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Ring is one cross-section of a segmented cylinder: an ellipse centred at
// Center with radii along the local u and w axes. UAxis fixes the
// orientation of the ellipse; when zero it is derived from the axis.
type Ring struct {
	Center  r3.Vec
	RadiusU float64
	RadiusW float64
	UAxis   r3.Vec
}

// frame returns two unit vectors perpendicular to axis.
func frame(axis, hint r3.Vec) (u, w r3.Vec) {
	if r3.Norm(hint) > 0 {
		u = r3.Sub(hint, r3.Scale(r3.Dot(hint, axis), axis))
	}
	if r3.Norm(u) < 1e-9 {
		ref := r3.Vec{X: 1}
		if math.Abs(axis.X) > 0.9 {
			ref = r3.Vec{Z: 1}
		}
		u = r3.Cross(ref, axis)
	}
	u = r3.Unit(u)
	w = r3.Unit(r3.Cross(axis, u))
	return u, w
}

// AddSegmentedCylinder sweeps ellipses through profile and stitches the
// walls. Optional caps close the first and last rings. UVs wrap U around
// the circumference and run V along the profile.
func (m *Mesh) AddSegmentedCylinder(profile []Ring, radial int, baseCap, tipCap bool) error {
	if len(profile) < 2 {
		return fmt.Errorf("segmented cylinder needs at least 2 rings, got %d", len(profile))
	}
	if radial < 3 {
		return fmt.Errorf("segmented cylinder needs at least 3 radial segments, got %d", radial)
	}

	rings := make([][]uint32, len(profile))
	for i, ring := range profile {
		var axis r3.Vec
		switch {
		case i == 0:
			axis = r3.Sub(profile[1].Center, ring.Center)
		case i == len(profile)-1:
			axis = r3.Sub(ring.Center, profile[i-1].Center)
		default:
			axis = r3.Sub(profile[i+1].Center, profile[i-1].Center)
		}
		if r3.Norm(axis) == 0 {
			return fmt.Errorf("segmented cylinder ring %d coincides with its neighbour", i)
		}
		axis = r3.Unit(axis)
		u, w := frame(axis, ring.UAxis)

		v := float64(i) / float64(len(profile)-1)
		rings[i] = make([]uint32, radial+1)
		for s := 0; s <= radial; s++ {
			a := 2 * math.Pi * float64(s) / float64(radial)
			offset := r3.Add(r3.Scale(ring.RadiusU*math.Cos(a), u), r3.Scale(ring.RadiusW*math.Sin(a), w))
			rings[i][s] = m.AddVertex(Vertex{
				Pos: r3.Add(ring.Center, offset),
				UV:  [2]float64{float64(s) / float64(radial), v},
			})
		}
	}

	for i := 0; i+1 < len(rings); i++ {
		bot, top := rings[i], rings[i+1]
		for s := 0; s < radial; s++ {
			m.AddTriangle(bot[s], top[s+1], top[s])
			m.AddTriangle(bot[s], bot[s+1], top[s+1])
		}
	}

	if baseCap {
		m.addCap(profile[0], rings[0], radial, true)
	}
	if tipCap {
		m.addCap(profile[len(profile)-1], rings[len(rings)-1], radial, false)
	}
	m.HasUV = true
	return nil
}

// addCap fans a ring around its centre. Base caps face backwards along
// the sweep, tip caps forwards.
func (m *Mesh) addCap(ring Ring, idx []uint32, radial int, base bool) {
	c := m.AddVertex(Vertex{Pos: ring.Center, UV: [2]float64{0.5, 0.5}})
	for s := 0; s < radial; s++ {
		if base {
			m.AddTriangle(c, idx[s+1], idx[s])
		} else {
			m.AddTriangle(c, idx[s], idx[s+1])
		}
	}
}
