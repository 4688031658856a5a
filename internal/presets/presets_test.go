package presets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParse(t *testing.T) {
	raw := []byte(`
presets:
  - label: Tea
    seconds: 180
  - label: ""
    seconds: 125
  - label: Broken
    seconds: 0
  - label: Way too long
    seconds: 999999
`)
	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d presets; want 3: %+v", len(got), got)
	}
	if got[0].Label != "Tea" || got[0].Seconds != 180 {
		t.Fatalf("unexpected first preset %+v", got[0])
	}
	if got[1].Label != "02:05" {
		t.Fatalf("empty label should fall back to duration, got %q", got[1].Label)
	}
	if got[2].Seconds != 86400 {
		t.Fatalf("expected clamp to a day, got %d", got[2].Seconds)
	}
}

func TestParse_EmptyListUsesDefaults(t *testing.T) {
	got, err := Parse([]byte("presets: []\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != len(Defaults()) {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestParse_Malformed(t *testing.T) {
	got, err := Parse([]byte("presets: [oops"))
	if err == nil {
		t.Fatalf("expected yaml error")
	}
	if len(got) != len(Defaults()) {
		t.Fatalf("malformed file should still return defaults")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	got, err := Load(filepath.Join(dir, "missing.yml"))
	if err != nil || len(got) != len(Defaults()) {
		t.Fatalf("missing file: got %+v, err %v", got, err)
	}

	path := filepath.Join(dir, "presets.yml")
	if err := os.WriteFile(path, []byte("presets:\n  - label: Egg\n    seconds: 420\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err = Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].Label != "Egg" || got[0].Seconds != 420 {
		t.Fatalf("unexpected presets %+v", got)
	}
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d[0].Seconds != 60 || d[0].Label != "1 min" {
		t.Fatalf("unexpected first default %+v", d[0])
	}
	if d[len(d)-1].Seconds != 3600 {
		t.Fatalf("unexpected last default %+v", d[len(d)-1])
	}
}
