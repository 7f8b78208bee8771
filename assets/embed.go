// Package assets holds files compiled into the binary.
package assets

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultSettingsJSON is the settings document written by "ruleta init".
//
//go:embed settings.default.json
var DefaultSettingsJSON []byte

// ErrSettingsExist is returned by WriteDefaultSettings when path already
// exists and overwrite is false.
var ErrSettingsExist = errors.New("settings file already exists")

// WriteDefaultSettings writes the embedded settings document to path,
// creating parent directories.
func WriteDefaultSettings(path string, overwrite bool) error {
	if len(DefaultSettingsJSON) == 0 {
		return fmt.Errorf("embedded settings.default.json is empty")
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrSettingsExist, path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, DefaultSettingsJSON, 0o644)
}
