package serial

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyACM0")
	if cfg.Device != "/dev/ttyACM0" || cfg.Baud != 250000 || cfg.ReadTimeout != 100*time.Millisecond {
		t.Errorf("DefaultConfig = %+v", cfg)
	}
}

func TestOpenErrors(t *testing.T) {
	if _, err := Open(nil); err == nil {
		t.Error("Open(nil) succeeded")
	}
	missing := filepath.Join(t.TempDir(), "ttyNONE")
	if _, err := Open(DefaultConfig(missing)); err == nil {
		t.Errorf("Open(%s) succeeded", missing)
	}
}
