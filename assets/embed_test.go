package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/DavidGR0788/ruleta/config"
)

func TestDefaultSettingsMatchDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "settings.json")
	if err := WriteDefaultSettings(path, false); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(config.DefaultConfig(), got); diff != "" {
		t.Fatalf("embedded settings drifted from defaults (-want +got):\n%s", diff)
	}
}

func TestWriteDefaultSettings_KeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"debug":true}`), 0o644); err != nil {
		t.Fatal(err)
	}
	err := WriteDefaultSettings(path, false)
	if !errors.Is(err, ErrSettingsExist) {
		t.Fatalf("expected ErrSettingsExist, got %v", err)
	}
	if err := WriteDefaultSettings(path, true); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if string(raw) != string(DefaultSettingsJSON) {
		t.Fatalf("file not overwritten")
	}
}
