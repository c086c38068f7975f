package duration

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultHasEveryKey(t *testing.T) {
	keys := []string{"A_FZ_AH", "B_CB_clamp", "C_SR_Next", "D_SR_Reset"}
	d := Default()
	for _, k := range keys {
		if d.Get(k) <= 0 {
			t.Fatalf("default for %s must be positive", k)
		}
	}
}

func TestLoadOverlayMissingFileIsNotAnError(t *testing.T) {
	d, warn := LoadOverlay(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if warn != "" {
		t.Fatalf("missing file should not warn, got %q", warn)
	}
	if d.Get("A_DRILL") != defaults["A_DRILL"] {
		t.Fatalf("expected default A_DRILL to be unchanged")
	}
}

func TestLoadOverlayAppliesKnownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.json")
	if err := os.WriteFile(path, []byte(`{"A_DRILL": 1, "UNKNOWN_KEY": 99}`), 0o644); err != nil {
		t.Fatal(err)
	}
	d, warn := LoadOverlay(path)
	if warn != "" {
		t.Fatalf("unexpected warning: %q", warn)
	}
	if d.Get("A_DRILL") != 1 {
		t.Fatalf("A_DRILL override not applied")
	}
}

func TestLoadOverlayWarnsOnBadValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.json")
	if err := os.WriteFile(path, []byte(`{"A_DRILL": "not-a-number"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	d, warn := LoadOverlay(path)
	if warn == "" {
		t.Fatalf("expected a warning for non-integer override")
	}
	if d.Get("A_DRILL") != defaults["A_DRILL"] {
		t.Fatalf("bad override should leave default in place")
	}
}

func TestLoadOverlayWarnsOnMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.json")
	if err := os.WriteFile(path, []byte(`not json`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, warn := LoadOverlay(path)
	if warn == "" {
		t.Fatalf("expected a warning for malformed JSON")
	}
}
