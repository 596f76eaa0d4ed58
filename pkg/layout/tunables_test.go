package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ThatOrJohn/flowturi/pkg/errors"
)

func TestTunablesValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Tunables)
		wantErr bool
	}{
		{name: "Defaults", mutate: func(*Tunables) {}},
		{name: "AlphaZero", mutate: func(t *Tunables) { t.SmoothingAlpha = 0 }, wantErr: true},
		{name: "AlphaAboveOne", mutate: func(t *Tunables) { t.SmoothingAlpha = 1.5 }, wantErr: true},
		{name: "AlphaOne", mutate: func(t *Tunables) { t.SmoothingAlpha = 1 }},
		{name: "WindowZero", mutate: func(t *Tunables) { t.StalenessWindow = 0 }, wantErr: true},
		{name: "NegativeWidth", mutate: func(t *Tunables) { t.NodeWidth = -1 }, wantErr: true},
		{name: "ZeroMaxHeight", mutate: func(t *Tunables) { t.MaxNodeHeight = 0 }, wantErr: true},
		{name: "NegativePadding", mutate: func(t *Tunables) { t.NodePadding = -1 }, wantErr: true},
		{name: "ZeroPadding", mutate: func(t *Tunables) { t.NodePadding = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tun := DefaultTunables()
			tt.mutate(&tun)

			err := tun.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("want error, got nil")
				}
				if code := errors.GetCode(err); code != errors.ErrCodeInvalidConfig {
					t.Errorf("code = %s, want INVALID_CONFIG", code)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestLoadTunables(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "tunables.toml")
	content := "smoothing_alpha = 0.5\nnode_width = 25.0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tun, err := LoadTunables(path)
	if err != nil {
		t.Fatalf("LoadTunables: %v", err)
	}
	if tun.SmoothingAlpha != 0.5 {
		t.Errorf("SmoothingAlpha = %g, want 0.5", tun.SmoothingAlpha)
	}
	if tun.NodeWidth != 25 {
		t.Errorf("NodeWidth = %g, want 25", tun.NodeWidth)
	}
	// Omitted keys keep their defaults.
	if tun.StalenessWindow != DefaultStalenessWindow {
		t.Errorf("StalenessWindow = %d, want default %d", tun.StalenessWindow, int64(DefaultStalenessWindow))
	}
}

func TestLoadTunablesInvalid(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(path, []byte("smoothing_alpha = 7.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadTunables(path); err == nil {
		t.Fatal("want validation error, got nil")
	}

	if _, err := LoadTunables(filepath.Join(dir, "missing.toml")); err == nil {
		t.Fatal("want error for missing file, got nil")
	}
}
