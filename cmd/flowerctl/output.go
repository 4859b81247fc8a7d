package main

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/anthonynsimon/bild/transform"

	"github.com/pthm-cable/bloom/renderer"
)

// parseKind maps a -kind flag value to a render kind.
func parseKind(s string) (renderer.Kind, error) {
	for k := renderer.KindFlower; k <= renderer.KindStem; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown kind %q (want flower, petals, layer or stem)", s)
}

// readInput returns the contents of path, or stdin for "" and "-".
func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimSpace(data)), nil
}

// writeOutput writes text to path, or stdout for "" and "-".
func writeOutput(path, text string) error {
	if path == "" || path == "-" {
		_, err := fmt.Fprintln(os.Stdout, text)
		return err
	}
	return os.WriteFile(path, []byte(text), 0644)
}

// writePNG encodes img to path, first shrinking it to fit a thumb x thumb
// box when thumb > 0.
func writePNG(path string, img image.Image, thumb int) error {
	if path == "" || img == nil {
		return nil
	}
	if thumb > 0 {
		img = thumbnail(img, thumb)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

// thumbnail resizes img to fit within size x size, keeping its aspect.
func thumbnail(img image.Image, size int) image.Image {
	b := img.Bounds()
	w, h := size, size
	if b.Dx() > b.Dy() {
		h = max(1, size*b.Dy()/b.Dx())
	} else if b.Dy() > b.Dx() {
		w = max(1, size*b.Dx()/b.Dy())
	}
	return transform.Resize(img, w, h, transform.Lanczos)
}
