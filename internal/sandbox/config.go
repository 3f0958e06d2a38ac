package sandbox

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config describes the remote sandbox service.
type Config struct {
	// Origin is the scheme and host of the service, e.g. https://codesandbox.io.
	Origin string
	// DefinePath receives the bundle.
	DefinePath string
	// ViewerPath is the viewer URL path; {id} is replaced by the identifier.
	ViewerPath string
	// Timeout bounds a whole submission.
	Timeout time.Duration
	// MaxResponseBytes caps how much of the response body is read.
	MaxResponseBytes int64
	// ExcerptBytes caps the response excerpt carried by failures.
	ExcerptBytes int
	// MarkerProperty is the meta property or name that carries the sandbox URL.
	MarkerProperty string
	// MaxTokens bounds the marker scan.
	MaxTokens int
}

// DefaultConfig returns the settings for the public CodeSandbox service.
func DefaultConfig() Config {
	return Config{
		Origin:           "https://codesandbox.io",
		DefinePath:       "/api/v1/sandboxes/define",
		ViewerPath:       "/s/{id}",
		Timeout:          90 * time.Second,
		MaxResponseBytes: 2 << 20,
		ExcerptBytes:     512,
		MarkerProperty:   "og:url",
		MaxTokens:        4096,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	u, err := url.Parse(c.Origin)
	if err != nil {
		return fmt.Errorf("invalid origin: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported origin scheme: %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("origin %q has no host", c.Origin)
	}
	if !strings.HasPrefix(c.DefinePath, "/") {
		return fmt.Errorf("define path %q must start with /", c.DefinePath)
	}
	if !strings.Contains(c.ViewerPath, "{id}") {
		return fmt.Errorf("viewer path %q has no {id} placeholder", c.ViewerPath)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxResponseBytes <= 0 || c.ExcerptBytes <= 0 || c.MaxTokens <= 0 {
		return fmt.Errorf("response limits must be positive")
	}
	if c.MarkerProperty == "" {
		return fmt.Errorf("marker property is required")
	}
	return nil
}

func (c Config) defineURL() string {
	return strings.TrimSuffix(c.Origin, "/") + c.DefinePath
}

// ViewerURL builds the viewer URL for a sandbox identifier.
func (c Config) ViewerURL(id string) string {
	return strings.TrimSuffix(c.Origin, "/") + strings.ReplaceAll(c.ViewerPath, "{id}", url.PathEscape(id))
}
