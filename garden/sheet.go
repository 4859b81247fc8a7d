package garden

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/anthonynsimon/bild/transform"

	"github.com/pthm-cable/bloom/renderer"
)

// ContactSheet draws the petals of every flower as a size x size
// thumbnail at its plot in the bed.
func (g *Garden) ContactSheet(size int) (*image.NRGBA, error) {
	if size <= 0 {
		return nil, fmt.Errorf("thumbnail size must be positive, got %d", size)
	}
	members := g.Members()
	cols, rows := 1, 1
	for _, m := range members {
		cols = max(cols, m.Plot.Col+1)
		rows = max(rows, m.Plot.Row+1)
	}
	sheet := image.NewNRGBA(image.Rect(0, 0, cols*size, rows*size))

	surface := &renderer.Surface{}
	for _, m := range members {
		if err := g.eng.DrawPetals(m.Genome.Text, g.cfg.Phenotype, surface); err != nil {
			return nil, fmt.Errorf("drawing flower %d: %w", m.Identity.ID, err)
		}
		thumb := transform.Resize(surface.Image(), size, size, transform.Lanczos)
		at := image.Pt(m.Plot.Col*size, m.Plot.Row*size)
		draw.Draw(sheet, image.Rectangle{Min: at, Max: at.Add(image.Pt(size, size))}, thumb, image.Point{}, draw.Over)
	}
	return sheet, nil
}

// ContactSheetPNG is ContactSheet encoded as PNG.
func (g *Garden) ContactSheetPNG(size int) ([]byte, error) {
	sheet, err := g.ContactSheet(size)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, sheet); err != nil {
		return nil, fmt.Errorf("encoding contact sheet: %w", err)
	}
	return buf.Bytes(), nil
}
