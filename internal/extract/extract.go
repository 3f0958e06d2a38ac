// Package extract pulls code blocks out of markdown assistant replies so the
// CLI can accept a saved reply as input.
package extract

import (
	"bytes"
	"errors"
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ErrNoCodeBlock is returned when a reply contains no usable code block.
var ErrNoCodeBlock = errors.New("no JavaScript code block found")

var codeLanguages = []string{"", "js", "jsx", "javascript", "ts", "tsx", "typescript", "react"}

// Block is one fenced code block.
type Block struct {
	Language string
	Code     string
	Line     int
}

// Blocks returns every fenced code block in source order.
func Blocks(body []byte) []Block {
	root := goldmark.New().Parser().Parse(text.NewReader(body))
	var out []Block
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		fcb, ok := n.(*gmast.FencedCodeBlock)
		if !ok {
			return gmast.WalkContinue, nil
		}
		var buf bytes.Buffer
		lines := fcb.Lines()
		for i := range lines.Len() {
			seg := lines.At(i)
			buf.Write(seg.Value(body))
		}
		b := Block{Language: strings.ToLower(string(fcb.Language(body))), Code: buf.String()}
		if lines.Len() > 0 {
			b.Line = bytes.Count(body[:lines.At(0).Start], []byte("\n")) + 1
		}
		out = append(out, b)
		return gmast.WalkSkipChildren, nil
	})
	return out
}

// Code returns the largest JavaScript-family block of the reply. Ties go to
// the earliest block.
func Code(body []byte) (Block, error) {
	var best Block
	found := false
	for _, b := range Blocks(body) {
		if !slices.Contains(codeLanguages, b.Language) || strings.TrimSpace(b.Code) == "" {
			continue
		}
		if !found || len(b.Code) > len(best.Code) {
			best, found = b, true
		}
	}
	if !found {
		return Block{}, ErrNoCodeBlock
	}
	return best, nil
}

// IsMarkdown reports whether path names a markdown file.
func IsMarkdown(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}
