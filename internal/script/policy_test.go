package script

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidPolicy(t *testing.T) {
	p, err := Load(`
function tint(probability, intensity)
  if probability >= 0.5 then
    return 0, 200, 0, intensity
  end
  return 200, 0, 0, intensity
end
`)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer p.Close()

	high, err := p.TintFor(0.8, 0.2)
	if err != nil {
		t.Fatalf("TintFor() error = %v", err)
	}
	if high.R != 0 || high.G != 200 || high.B != 0 || high.Alpha != 0.2 {
		t.Errorf("high tint = %+v", high)
	}

	low, err := p.TintFor(0.1, 0.2)
	if err != nil {
		t.Fatalf("TintFor() error = %v", err)
	}
	if low.R != 200 || low.G != 0 {
		t.Errorf("low tint = %+v", low)
	}
}

func TestLoad_UsesMathLibrary(t *testing.T) {
	p, err := Load(`
function tint(probability, intensity)
  local v = math.floor(probability * 255)
  return v, v, v, intensity
end
`)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer p.Close()

	got, err := p.TintFor(0.5, 0.1)
	if err != nil {
		t.Fatalf("TintFor() error = %v", err)
	}
	if got.R != 127 {
		t.Errorf("R = %d, want 127", got.R)
	}
}

func TestLoad_MissingTintFunction(t *testing.T) {
	_, err := Load(`local x = 1`)
	if !errors.Is(err, ErrNoTintFunction) {
		t.Errorf("error = %v, want ErrNoTintFunction", err)
	}
}

func TestLoad_SyntaxError(t *testing.T) {
	_, err := Load(`function tint( broken`)
	if err == nil {
		t.Error("Load() error = nil, want parse error")
	}
}

func TestLoad_SandboxExcludesOS(t *testing.T) {
	p, err := Load(`
function tint(probability, intensity)
  os.exit(1)
  return 0, 0, 0, 0
end
`)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer p.Close()

	if _, err := p.TintFor(0.5, 0.1); err == nil {
		t.Error("TintFor() error = nil, want error from missing os library")
	}
}

func TestTintFor_RuntimeErrorIsReturned(t *testing.T) {
	p, err := Load(`
function tint(probability, intensity)
  error("boom")
end
`)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer p.Close()

	if _, err := p.TintFor(0.5, 0.1); err == nil {
		t.Error("TintFor() error = nil, want runtime error")
	}
}

func TestTintFor_BadReturnValues(t *testing.T) {
	p, err := Load(`
function tint(probability, intensity)
  return "red", "green", "blue", "opaque"
end
`)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer p.Close()

	if _, err := p.TintFor(0.5, 0.1); !errors.Is(err, ErrBadReturn) {
		t.Errorf("error = %v, want ErrBadReturn", err)
	}
}

func TestTintFor_ClampsComponents(t *testing.T) {
	p, err := Load(`
function tint(probability, intensity)
  return 999, -50, 128, 3.0
end
`)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer p.Close()

	got, err := p.TintFor(0.5, 0.1)
	if err != nil {
		t.Fatalf("TintFor() error = %v", err)
	}
	if got.R != 255 || got.G != 0 || got.B != 128 || got.Alpha != 1 {
		t.Errorf("clamped tint = %+v", got)
	}
}

func TestPolicy_CloseIdempotent(t *testing.T) {
	p, err := Load(`function tint(p, i) return 0, 0, 0, 0 end`)
	if err != nil {
		t.Fatal(err)
	}

	p.Close()
	p.Close()

	if _, err := p.TintFor(0.5, 0.1); !errors.Is(err, ErrClosed) {
		t.Errorf("error = %v, want ErrClosed", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.lua")
	content := `function tint(p, i) return 10, 20, 30, i end`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	defer p.Close()

	got, err := p.TintFor(0.5, 0.4)
	if err != nil {
		t.Fatal(err)
	}
	if got.R != 10 || got.G != 20 || got.B != 30 || got.Alpha != 0.4 {
		t.Errorf("tint = %+v", got)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.lua")); err == nil {
		t.Error("LoadFile() error = nil, want read error")
	}
}
