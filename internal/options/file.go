package options

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// LocalFileName is the repository-local option file. It is JSONC, so
// comments and trailing commas are allowed.
const LocalFileName = ".hgbuf.jsonc"

// DefaultGlobalPath returns $XDG_CONFIG_HOME/hgbuf/config.yaml (or the
// platform equivalent reported by os.UserConfigDir).
func DefaultGlobalPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config directory: %w", err)
	}
	return filepath.Join(dir, "hgbuf", "config.yaml"), nil
}

// LoadGlobal reads a YAML option file into a Layer. A missing file yields
// an empty layer; a malformed one is an error.
//
// Example:
//
//	edit: split
//	split: vertical
//	name_result_surfaces: true
func LoadGlobal(path string) (Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Layer{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return flatten(path, raw)
}

// LoadLocal reads a JSONC option file into a Layer. A missing file yields
// an empty layer.
func LoadLocal(path string) (Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Layer{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// Strip // and /* */ comments and trailing commas before decoding.
	var raw map[string]any
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return flatten(path, raw)
}

// FindLocal walks up from dir looking for LocalFileName. It returns the
// empty string when no file is found before the filesystem root.
func FindLocal(dir string) string {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, LocalFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// flatten converts decoded scalars to their string form. Nested maps and
// lists have no meaning in the flat option namespace and are rejected.
func flatten(path string, raw map[string]any) (Layer, error) {
	layer := make(Layer, len(raw))

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch v := raw[k].(type) {
		case string:
			layer[k] = v
		case bool:
			layer[k] = strconv.FormatBool(v)
		case int:
			layer[k] = strconv.Itoa(v)
		case float64:
			layer[k] = strconv.FormatFloat(v, 'f', -1, 64)
		case nil:
			// An explicit null leaves the name undefined in this layer.
		default:
			return nil, fmt.Errorf("%s: option %q must be a scalar, got %T", path, k, v)
		}
	}
	return layer, nil
}
