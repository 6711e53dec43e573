// Package vocabulary serves the recommended tag list shown by tag pickers.
package vocabulary

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tags.yaml
var defaultTags []byte

type Tag struct {
	Name  string `yaml:"name" json:"name"`
	Color string `yaml:"color,omitempty" json:"color"`
}

type Vocabulary struct {
	DefaultColor string `yaml:"default_color" json:"default_color"`
	Tags         []Tag  `yaml:"tags" json:"tags"`
}

// Default returns the embedded vocabulary.
func Default() *Vocabulary {
	v, err := parse(defaultTags, "")
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: embedded tag vocabulary is invalid: %v", err))
	}
	return v
}

// Load reads path when set, otherwise returns the embedded vocabulary.
func Load(path string) (*Vocabulary, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tag vocabulary: %w", err)
	}
	v, err := parse(data, Default().DefaultColor)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return v, nil
}

// Names lists the tag names in file order.
func (v *Vocabulary) Names() []string {
	out := make([]string, len(v.Tags))
	for i, t := range v.Tags {
		out[i] = t.Name
	}
	return out
}

// ColorOf returns the color for tag, or the default color for unknown tags.
func (v *Vocabulary) ColorOf(tag string) string {
	for _, t := range v.Tags {
		if t.Name == tag {
			return t.Color
		}
	}
	return v.DefaultColor
}

func parse(data []byte, fallbackColor string) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	if v.DefaultColor == "" {
		v.DefaultColor = fallbackColor
	}

	seen := make(map[string]bool, len(v.Tags))
	tags := v.Tags[:0]
	for _, t := range v.Tags {
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" {
			return nil, errors.New("tag without a name")
		}
		if seen[t.Name] {
			continue
		}
		seen[t.Name] = true
		if t.Color == "" {
			t.Color = v.DefaultColor
		}
		tags = append(tags, t)
	}
	v.Tags = tags
	return &v, nil
}
