package daemon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aerialtv/aerial/internal/infra/sqlite"
	"github.com/aerialtv/aerial/internal/settings"
)

func TestNewAtFreshHome(t *testing.T) {
	home := t.TempDir()

	d, err := NewAt(home)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	v, err := d.DB.Version()
	if err != nil {
		t.Fatal(err)
	}
	if v.Compare(sqlite.MaxSchemaVersion) != 0 {
		t.Fatalf("store at %s after startup, want %s", v, sqlite.MaxSchemaVersion)
	}

	if d.Settings.ConfigVersion != settings.ConfigVersion {
		t.Fatalf("config version = %d, want %d", d.Settings.ConfigVersion, settings.ConfigVersion)
	}

	// Startup persists the fully populated config file.
	if _, err := os.Stat(filepath.Join(home, "config.toml")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
}

func TestNewAtIsIdempotent(t *testing.T) {
	home := t.TempDir()

	d, err := NewAt(home)
	if err != nil {
		t.Fatal(err)
	}
	port := d.Settings.WebPort
	d.Close()

	d, err = NewAt(home)
	if err != nil {
		t.Fatalf("second startup against migrated home: %v", err)
	}
	defer d.Close()

	if d.Settings.WebPort != port {
		t.Fatalf("settings changed across restarts: %d != %d", d.Settings.WebPort, port)
	}
}

func TestHomeEnvOverride(t *testing.T) {
	t.Setenv("AERIAL_HOME", "/srv/aerial")
	if Home() != "/srv/aerial" {
		t.Fatalf("Home() = %q", Home())
	}
}
