package sandbox

import (
	"bytes"
	"encoding/json"
	"html"
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	nethtml "golang.org/x/net/html"
)

var (
	identifierRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	excerptText  = bluemonday.StrictPolicy()
)

// ExtractIdentifier scans an HTML document for a meta tag whose property or
// name equals marker and returns the last path segment of its content. The
// scan stops after maxTokens tokens. A JSON body with a sandbox_id field is
// accepted as well.
func ExtractIdentifier(body []byte, marker string, maxTokens int) (string, bool) {
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '{' {
		var payload struct {
			SandboxID string `json:"sandbox_id"`
		}
		if json.Unmarshal(trimmed, &payload) == nil && identifierRe.MatchString(payload.SandboxID) {
			return payload.SandboxID, true
		}
	}

	z := nethtml.NewTokenizer(bytes.NewReader(body))
	for i := 0; i < maxTokens; i++ {
		switch z.Next() {
		case nethtml.ErrorToken:
			return "", false
		case nethtml.StartTagToken, nethtml.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "meta" || !hasAttr {
				continue
			}
			if id, ok := metaIdentifier(z, marker); ok {
				return id, true
			}
		}
	}
	return "", false
}

func metaIdentifier(z *nethtml.Tokenizer, marker string) (string, bool) {
	var matched bool
	var content string
	for {
		key, val, more := z.TagAttr()
		switch string(key) {
		case "property", "name":
			if string(val) == marker {
				matched = true
			}
		case "content":
			content = string(val)
		}
		if !more {
			break
		}
	}
	if !matched {
		return "", false
	}
	return identifierFromURL(content)
}

func identifierFromURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	id := path.Base(strings.TrimSuffix(u.Path, "/"))
	if !identifierRe.MatchString(id) {
		return "", false
	}
	return id, true
}

// Excerpt returns the visible text of body with whitespace collapsed,
// truncated to at most limit bytes without splitting a rune.
func Excerpt(body []byte, limit int) string {
	text := html.UnescapeString(excerptText.Sanitize(string(body)))
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
