package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DecodeEvent parses a JSON encoded batch.
func DecodeEvent(r io.Reader) (*Event, error) {
	var ev Event
	if err := json.NewDecoder(r).Decode(&ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return &ev, nil
}

// LoadEventFile reads a batch from a JSON or YAML file. The format is chosen
// by extension; anything other than .yaml/.yml is parsed as JSON.
func LoadEventFile(path string) (*Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var ev Event
		if err := yaml.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("parse event file %s: %w", path, err)
		}
		return &ev, nil
	default:
		ev, err := DecodeEvent(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parse event file %s: %w", path, err)
		}
		return ev, nil
	}
}
