package scene

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// WebProvider fetches scene files over HTTP from a base URL, the way
// hosted stories publish them (<base>/<name>.txt). It owns the request
// timeout; the builder never blocks on anything else.
type WebProvider struct {
	base   string
	client *http.Client
}

// NewWebProvider creates a provider rooted at base.
func NewWebProvider(base string, timeout time.Duration) (*WebProvider, error) {
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("scene base URL: %w", err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &WebProvider{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: timeout},
	}, nil
}

// ListScenes is empty for the web: the scene list comes from the startup
// scene's *scene_list and from jump-target discovery.
func (p *WebProvider) ListScenes() ([]string, error) {
	return nil, nil
}

// LoadScene fetches and decodes one scene file.
func (p *WebProvider) LoadScene(name string) (string, error) {
	resp, err := p.client.Get(p.sceneURL(name))
	if err != nil {
		return "", fmt.Errorf("fetch scene %q: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch scene %q: %s", name, resp.Status)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read scene %q: %w", name, err)
	}
	return decode(raw)
}

// HasScene probes for a scene file with a HEAD request.
func (p *WebProvider) HasScene(name string) bool {
	resp, err := p.client.Head(p.sceneURL(name))
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (p *WebProvider) sceneURL(name string) string {
	return p.base + "/" + url.PathEscape(Normalize(name)) + ".txt"
}
