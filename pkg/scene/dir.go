package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DirProvider reads scene files from a directory of .txt files. Files are
// matched case-insensitively and decoded to UTF-8; stories authored on
// Windows frequently carry UTF-8 or UTF-16 byte order marks.
type DirProvider struct {
	dir string
}

// NewDirProvider creates a provider over dir. The directory must exist.
func NewDirProvider(dir string) (*DirProvider, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("scene directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scene directory %s is not a directory", dir)
	}
	return &DirProvider{dir: dir}, nil
}

// ListScenes returns the scene names in the directory, sorted.
func (p *DirProvider) ListScenes() ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			continue
		}
		names = append(names, Normalize(e.Name()))
	}
	return names, nil
}

// LoadScene reads and decodes one scene file.
func (p *DirProvider) LoadScene(name string) (string, error) {
	path, err := p.find(name)
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("load scene %q: %w", name, err)
	}
	return decode(raw)
}

// HasScene reports whether a scene file exists for name.
func (p *DirProvider) HasScene(name string) bool {
	_, err := p.find(name)
	return err == nil
}

// find locates the file for a scene name, matching case-insensitively.
func (p *DirProvider) find(name string) (string, error) {
	want := Normalize(name)
	direct := filepath.Join(p.dir, want+".txt")
	if _, err := os.Stat(direct); err == nil {
		return direct, nil
	}
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return "", fmt.Errorf("find scene %q: %w", name, err)
	}
	for _, e := range entries {
		if !e.IsDir() && Normalize(e.Name()) == want {
			return filepath.Join(p.dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("scene %q not found in %s", name, p.dir)
}

// decode converts scene bytes to UTF-8, honoring any byte order mark.
func decode(raw []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, raw)
	if err != nil {
		return "", fmt.Errorf("decode scene text: %w", err)
	}
	return string(out), nil
}
