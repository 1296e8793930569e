// Package scene supplies scene text to the graph builder. Providers own
// all I/O, including timeout policy; the core pipeline only consumes the
// ListScenes/LoadScene/HasScene triad.
package scene

import (
	"fmt"
	"sort"
	"strings"
)

// Provider supplies scenes by name.
type Provider interface {
	ListScenes() ([]string, error)
	LoadScene(name string) (string, error)
	HasScene(name string) bool
}

// Normalize canonicalizes a scene name: lower-cased, without a .txt
// extension.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimSuffix(name, ".txt")
}

// MapProvider serves scenes from memory. It backs tests and programmatic
// use.
type MapProvider struct {
	Scenes map[string]string
}

// NewMapProvider creates a MapProvider over the given scenes.
func NewMapProvider(scenes map[string]string) *MapProvider {
	normalized := make(map[string]string, len(scenes))
	for name, text := range scenes {
		normalized[Normalize(name)] = text
	}
	return &MapProvider{Scenes: normalized}
}

func (p *MapProvider) ListScenes() ([]string, error) {
	names := make([]string, 0, len(p.Scenes))
	for name := range p.Scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (p *MapProvider) LoadScene(name string) (string, error) {
	text, ok := p.Scenes[Normalize(name)]
	if !ok {
		return "", fmt.Errorf("scene %q not found", name)
	}
	return text, nil
}

func (p *MapProvider) HasScene(name string) bool {
	_, ok := p.Scenes[Normalize(name)]
	return ok
}
