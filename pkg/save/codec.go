package save

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Codec converts snapshots to and from bytes.
type Codec interface {
	Name() string
	ContentType() string
	Marshal(s *Snapshot) ([]byte, error)
	Unmarshal(data []byte) (*Snapshot, error)
}

type JSONCodec struct {
	Indent bool
}

func (JSONCodec) Name() string        { return "json" }
func (JSONCodec) ContentType() string { return "application/json" }

func (c JSONCodec) Marshal(s *Snapshot) ([]byte, error) {
	if c.Indent {
		return json.MarshalIndent(s, "", "  ")
	}
	return json.Marshal(s)
}

func (JSONCodec) Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode json snapshot: %w", err)
	}
	return &s, nil
}

type YAMLCodec struct{}

func (YAMLCodec) Name() string        { return "yaml" }
func (YAMLCodec) ContentType() string { return "application/yaml" }

func (YAMLCodec) Marshal(s *Snapshot) ([]byte, error) {
	return yaml.Marshal(s)
}

func (YAMLCodec) Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode yaml snapshot: %w", err)
	}
	return &s, nil
}

// CodecFor returns the codec for a format name or file extension.
func CodecFor(format string) (Codec, error) {
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "", "json":
		return JSONCodec{}, nil
	case "yaml", "yml":
		return YAMLCodec{}, nil
	}
	return nil, fmt.Errorf("unsupported snapshot format %q", format)
}
