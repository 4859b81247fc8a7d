package main

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/bloom/flower"
	"github.com/pthm-cable/bloom/renderer"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    renderer.Kind
		wantErr bool
	}{
		{"flower", renderer.KindFlower, false},
		{"petals", renderer.KindPetals, false},
		{"layer", renderer.KindLayer, false},
		{"stem", renderer.KindStem, false},
		{"leaf", 0, true},
	}
	for _, tt := range tests {
		got, err := parseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParamsOverlayOnlySetFlags(t *testing.T) {
	c := newCommon("test")
	if err := c.fs.Parse([]string{"-radius", "32", "-bias", "0"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	base := flower.Params{Radius: 64, NumLayers: 3, P: 6, Bias: 1}
	got := c.params(base)
	want := flower.Params{Radius: 32, NumLayers: 3, P: 6, Bias: 0}
	if got != want {
		t.Errorf("params = %+v, want %+v", got, want)
	}
}

func TestWritePNGThumbnail(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 60))
	path := filepath.Join(t.TempDir(), "thumb.png")
	if err := writePNG(path, img, 30); err != nil {
		t.Fatalf("writePNG: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 20 || cfg.Height != 30 {
		t.Errorf("thumbnail is %dx%d, want 20x30", cfg.Width, cfg.Height)
	}

	if err := writePNG("", img, 0); err != nil {
		t.Errorf("empty path should be a no-op, got %v", err)
	}
}
