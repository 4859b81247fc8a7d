package model3d

import (
	"hash/fnv"
	"image"
	"image/color"
	"math"
	"math/rand"
)

// textureSeed derives a deterministic noise seed from a model id and a
// texture name, so that a model rebuilt from the same genome is identical.
func textureSeed(modelID, name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(modelID))
	h.Write([]byte{0})
	h.Write([]byte(name))
	return int64(h.Sum64())
}

// NormalMap builds a tangent-space normal map from a petal texture. The
// height field is alpha-weighted luminance plus a little seeded grain;
// Sobel gradients of it become the normal's x and y.
func NormalMap(img *image.NRGBA, seed int64, strength float64) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	rng := rand.New(rand.NewSource(seed))

	height := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			lum := (0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)) / 255
			height[y*w+x] = lum*float64(c.A)/255 + 0.04*rng.Float64()
		}
	}
	at := func(x, y int) float64 {
		x = max(0, min(w-1, x))
		y = max(0, min(h-1, y))
		return height[y*w+x]
	}

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := (at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)) - (at(x-1, y-1) + 2*at(x-1, y) + at(x-1, y+1))
			dy := (at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)) - (at(x-1, y-1) + 2*at(x, y-1) + at(x+1, y-1))
			nx, ny, nz := -dx*strength, -dy*strength, 1.0
			l := math.Sqrt(nx*nx + ny*ny + nz*nz)
			out.SetNRGBA(x, y, color.NRGBA{
				R: uint8(math.Round((nx/l*0.5 + 0.5) * 255)),
				G: uint8(math.Round((ny/l*0.5 + 0.5) * 255)),
				B: uint8(math.Round((nz/l*0.5 + 0.5) * 255)),
				A: 255,
			})
		}
	}
	return out
}

// GrainNormalMap is a small seeded noise normal map for organ surfaces.
func GrainNormalMap(size int, seed int64) *image.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	grain := image.NewNRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(grain.Pix); i += 4 {
		v := uint8(rng.Intn(256))
		grain.Pix[i], grain.Pix[i+1], grain.Pix[i+2], grain.Pix[i+3] = v, v, v, 255
	}
	return NormalMap(grain, seed, 1.0)
}

// EmissiveMap keeps the pixels whose colour is close to the colour at the
// centre of the texture and blacks out the rest, so only the heart of the
// flower glows.
func EmissiveMap(img *image.NRGBA, threshold uint8, tolerance float64) *image.NRGBA {
	b := img.Bounds()
	centre := img.NRGBAAt(b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2)
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := img.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			keep := c.A >= threshold && centre.A >= threshold && colorDistance(c, centre) <= tolerance
			if keep {
				out.SetNRGBA(x, y, color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255})
			} else {
				out.SetNRGBA(x, y, color.NRGBA{A: 255})
			}
		}
	}
	return out
}

func colorDistance(a, b color.NRGBA) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}
