package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.json
var defaultCatalog []byte

// Format is a catalog encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the encoding from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Default returns the catalog shipped with the engine.
func Default() *Catalog {
	c, err := Load(defaultCatalog, FormatJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Load decodes a catalog. Economy and watering settings that the document
// leaves out keep their stock values. Unknown JSON fields are rejected.
func Load(data []byte, format Format) (*Catalog, error) {
	c := &Catalog{
		Economy:  DefaultEconomy(),
		Watering: DefaultWatering(),
	}

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil {
			return nil, fmt.Errorf("failed to decode catalog yaml: %w", err)
		}
	case FormatJSON, "":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(c); err != nil {
			return nil, fmt.Errorf("failed to decode catalog json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s", format)
	}

	c.Index()
	return c, nil
}

// LoadFile reads a catalog from disk, choosing the decoder by extension.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Load(data, FormatFromPath(path))
}
