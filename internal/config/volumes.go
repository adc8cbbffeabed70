package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Volume describes one source catalog document and the page range holding items.
type Volume struct {
	Number       int    `yaml:"number"`
	Filename     string `yaml:"filename"`
	ContentStart int    `yaml:"content_start"`
	ContentEnd   int    `yaml:"content_end"`
}

// Manifest lists the volumes processed by a full extraction, in order.
type Manifest struct {
	Volumes []Volume `yaml:"volumes"`
}

// DefaultVolumes are used when no manifest file exists.
var DefaultVolumes = []Volume{
	{Number: 1, Filename: "data/1　第一回重要刀剣等図譜.pdf", ContentStart: 5, ContentEnd: 66},
	{Number: 2, Filename: "data/2　第二回重要刀剣等図譜.pdf", ContentStart: 5, ContentEnd: 82},
}

// LoadManifest reads the volume manifest at path. A missing file yields DefaultVolumes.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Manifest{Volumes: append([]Volume(nil), DefaultVolumes...)}, nil
	}
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	for _, v := range m.Volumes {
		if err := v.Validate(); err != nil {
			return Manifest{}, fmt.Errorf("manifest %s: %w", path, err)
		}
	}
	return m, nil
}

// Validate checks the page bounds are usable.
func (v Volume) Validate() error {
	if v.Number <= 0 {
		return fmt.Errorf("volume number must be positive, got %d", v.Number)
	}
	if v.Filename == "" {
		return fmt.Errorf("volume %d: filename is empty", v.Number)
	}
	if v.ContentStart < 1 || v.ContentEnd < v.ContentStart {
		return fmt.Errorf("volume %d: invalid page range %d-%d", v.Number, v.ContentStart, v.ContentEnd)
	}
	return nil
}

// Find returns the manifest entry for number.
func (m Manifest) Find(number int) (Volume, bool) {
	for _, v := range m.Volumes {
		if v.Number == number {
			return v, true
		}
	}
	return Volume{}, false
}
