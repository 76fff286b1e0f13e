package level

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Format selects a level codec.
type Format uint8

const (
	FormatMsgpack Format = iota
	FormatJSON
)

// FormatFor picks the codec from a file extension: .json is JSON, anything
// else is msgpack.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatMsgpack
}

// Marshal encodes l in the given format.
func Marshal(l *Level, f Format) ([]byte, error) {
	if f == FormatJSON {
		return json.MarshalIndent(l, "", "  ")
	}
	return msgpack.Marshal(l)
}

// Unmarshal decodes and validates a level.
func Unmarshal(data []byte, f Format) (*Level, error) {
	var l Level
	var err error
	if f == FormatJSON {
		err = json.Unmarshal(data, &l)
	} else {
		err = msgpack.Unmarshal(data, &l)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding level: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Save validates l and writes it to path.
func Save(path string, l *Level) error {
	if err := l.Validate(); err != nil {
		return err
	}
	data, err := Marshal(l, FormatFor(path))
	if err != nil {
		return fmt.Errorf("encoding level: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating level dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing level: %w", err)
	}
	return nil
}

// Load reads, decodes and validates the level at path.
func Load(path string) (*Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading level: %w", err)
	}
	l, err := Unmarshal(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}
