// Flower preview tool - interactive breeding with sliders.
//
// Usage: go run ./cmd/flowerpreview
package main

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math/rand"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	gui "github.com/gen2brain/raylib-go/raygui"

	"github.com/pthm-cable/bloom/components"
	"github.com/pthm-cable/bloom/config"
	"github.com/pthm-cable/bloom/engine"
	"github.com/pthm-cable/bloom/flower"
	"github.com/pthm-cable/bloom/garden"
	"github.com/pthm-cable/bloom/model3d"
	"github.com/pthm-cable/bloom/renderer"
	"github.com/pthm-cable/bloom/stats"
)

const (
	windowWidth  = 1100
	windowHeight = 760
	previewW     = 480
	previewH     = 720
	panelWidth   = windowWidth - previewW - 30
)

// previewState is everything the sliders and buttons act on.
type previewState struct {
	params  flower.Params
	env     stats.Environment
	current string // exchange text of the shown flower
	parent  string // previous flower, used as the second parent
	stats   stats.Stats
	err     error
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Default()
	eng, err := engine.New(cfg, slog.Default())
	if err != nil {
		slog.Error("failed to create engine", "error", err)
		os.Exit(1)
	}
	rng := rand.New(rand.NewSource(42))

	rl.InitWindow(windowWidth, windowHeight, "Flower Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	st := &previewState{params: cfg.Phenotype, env: cfg.Garden.Environment()}
	surface := &renderer.Surface{}
	var texture rl.Texture2D
	var texW, texH int
	defer func() {
		if texW > 0 {
			rl.UnloadTexture(texture)
		}
	}()

	st.current, st.err = eng.MakeFlower(rng, st.params, surface)
	st.evaluate(eng)
	needsRedraw := true

	for !rl.WindowShouldClose() {
		if needsRedraw && st.err == nil {
			if err := eng.DrawFlower(st.current, st.params, surface); err != nil {
				st.err = err
			} else {
				img := surface.Image()
				w, h := img.Bounds().Dx(), img.Bounds().Dy()
				if w != texW || h != texH {
					if texW > 0 {
						rl.UnloadTexture(texture)
					}
					blank := rl.GenImageColor(w, h, rl.Blank)
					texture = rl.LoadTextureFromImage(blank)
					rl.UnloadImage(blank)
					texW, texH = w, h
				}
				rl.UpdateTexture(texture, pixels(img))
			}
			needsRedraw = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		if texW > 0 {
			scale := min(float32(previewW)/float32(texW), float32(previewH)/float32(texH))
			rl.DrawTexturePro(
				texture,
				rl.Rectangle{X: 0, Y: 0, Width: float32(texW), Height: float32(texH)},
				rl.Rectangle{X: 10, Y: 10, Width: float32(texW) * scale, Height: float32(texH) * scale},
				rl.Vector2{X: 0, Y: 0},
				0,
				rl.White,
			)
		}
		rl.DrawRectangleLines(10, 10, previewW, previewH, rl.DarkGray)

		panelX := float32(previewW + 20)
		panelY := float32(10)

		rl.DrawText("Phenotype", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 30

		changed := false
		radius := slider("Radius", &panelY, panelX, float32(st.params.Radius), 8, 256, "%.0f")
		if int(radius) != st.params.Radius {
			st.params.Radius = int(radius)
			changed = true
		}
		layers := slider("Layers", &panelY, panelX, float32(st.params.NumLayers), 1, 8, "%.0f")
		if int(layers) != st.params.NumLayers {
			st.params.NumLayers = int(layers)
			changed = true
		}
		p := slider("P (symmetry)", &panelY, panelX, float32(st.params.P), 0, 16, "%.2f")
		if float64(p) != st.params.P {
			st.params.P = float64(p)
			changed = true
		}
		bias := slider("Bias", &panelY, panelX, float32(st.params.Bias), -4, 4, "%.2f")
		if float64(bias) != st.params.Bias {
			st.params.Bias = float64(bias)
			changed = true
		}
		if changed {
			needsRedraw = true
		}

		rl.DrawLine(int32(panelX), int32(panelY), int32(panelX)+int32(panelWidth)-20, int32(panelY), rl.LightGray)
		panelY += 10
		rl.DrawText("Environment", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 30

		envChanged := false
		humidity := slider("Humidity", &panelY, panelX, float32(st.env.Humidity), 0, 1, "%.2f")
		if float64(humidity) != st.env.Humidity {
			st.env.Humidity = float64(humidity)
			envChanged = true
		}
		temp := slider("Temperature", &panelY, panelX, float32(st.env.Temperature), -20, 60, "%.0f")
		if int(temp) != st.env.Temperature {
			st.env.Temperature = int(temp)
			envChanged = true
		}
		if envChanged {
			st.evaluate(eng)
		}

		// Buttons
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "New Flower") {
			st.replace(eng, func() (string, error) { return eng.MakePetals(rng, st.params, nil) })
			needsRedraw = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Mutate") {
			st.replace(eng, func() (string, error) {
				return eng.Mutate(rng, st.current, st.params, cfg.Mutation.Rates, nil)
			})
			needsRedraw = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 260, Y: panelY, Width: 120, Height: 30}, "Breed") {
			if st.parent != "" {
				st.replace(eng, func() (string, error) {
					return eng.Reproduce(rng, st.current, st.parent, st.params, nil)
				})
				needsRedraw = true
			}
		}
		panelY += 45

		rl.DrawText("Stats", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 26
		rl.DrawText(fmt.Sprintf("Sex: %s  Fitness: %.1f", st.stats.Sex, garden.Fitness(st.stats, st.env.Temperature)),
			int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 20
		for _, d := range components.TraitFieldDescriptors() {
			v, err := components.TraitValue(st.stats, d.ID)
			if err != nil {
				continue
			}
			rl.DrawText(d.Label, int32(panelX), int32(panelY), 14, rl.Gray)
			if d.IsBar {
				drawBar(panelX+110, panelY, float32(panelWidth-190), float32(v), d)
			}
			rl.DrawText(fmt.Sprintf(d.Format, v), int32(panelX+float32(panelWidth-70)), int32(panelY), 14, rl.DarkGray)
			panelY += 18
		}

		if st.err != nil {
			rl.DrawText(st.err.Error(), int32(panelX), int32(windowHeight-50), 12, rl.Red)
		}
		rl.DrawText("C: copy flower  G: write flower.gltf", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)

		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(st.current)
		}
		if rl.IsKeyPressed(rl.KeyG) {
			st.err = writeModel(eng, st)
		}

		rl.EndDrawing()
	}
}

// slider draws a labelled slider and advances the panel cursor.
func slider(label string, y *float32, x, value, lo, hi float32, format string) float32 {
	rl.DrawText(label, int32(x), int32(*y), 14, rl.Gray)
	*y += 18
	v := gui.SliderBar(
		rl.Rectangle{X: x, Y: *y, Width: float32(panelWidth - 80), Height: 20},
		"", "",
		value, lo, hi,
	)
	rl.DrawText(fmt.Sprintf(format, value), int32(x+float32(panelWidth-70)), int32(*y+2), 16, rl.DarkGray)
	*y += 32
	return v
}

// drawBar draws v on a bar spanning the descriptor's range. Centered bars
// fill from the middle.
func drawBar(x, y, width, v float32, d components.FieldDescriptor) {
	rl.DrawRectangleLines(int32(x), int32(y), int32(width), 14, rl.LightGray)
	t := (min(max(v, d.Min), d.Max) - d.Min) / (d.Max - d.Min)
	if d.Centered {
		mid := x + width/2
		end := x + t*width
		rl.DrawRectangle(int32(min(mid, end)), int32(y+1), int32(max(mid, end)-min(mid, end)), 12, rl.SkyBlue)
		rl.DrawLine(int32(mid), int32(y), int32(mid), int32(y+14), rl.Gray)
		return
	}
	rl.DrawRectangle(int32(x+1), int32(y+1), int32(t*(width-2)), 12, rl.SkyBlue)
}

// replace swaps in a new flower, keeping the old one as the next
// breeding partner.
func (st *previewState) replace(eng *engine.Engine, next func() (string, error)) {
	text, err := next()
	if err != nil {
		st.err = err
		return
	}
	st.parent, st.current, st.err = st.current, text, nil
	st.evaluate(eng)
}

func (st *previewState) evaluate(eng *engine.Engine) {
	if st.current == "" {
		return
	}
	text, err := eng.Stats(st.current, st.env)
	if err != nil {
		st.err = err
		return
	}
	var s stats.Stats
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		st.err = err
		return
	}
	st.stats = s
}

func writeModel(eng *engine.Engine, st *previewState) error {
	doc, err := eng.Model3D(st.current, "preview", model3d.Options{Sex: st.stats.Sex, UseNormals: true})
	if err != nil {
		return err
	}
	return os.WriteFile("flower.gltf", []byte(doc), 0644)
}

// pixels converts an NRGBA raster to the straight-alpha layout raylib
// textures expect.
func pixels(img *image.NRGBA) []color.RGBA {
	b := img.Bounds()
	out := make([]color.RGBA, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			o := 4 * x
			out = append(out, color.RGBA{R: row[o], G: row[o+1], B: row[o+2], A: row[o+3]})
		}
	}
	return out
}
