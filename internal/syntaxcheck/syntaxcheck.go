// Package syntaxcheck parses JavaScript with the tree-sitter grammar and
// reports the locations the parser had to recover from.
package syntaxcheck

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// MaxProblems caps the number of reported problems per source.
const MaxProblems = 10

// Problem is one parse error or missing token.
type Problem struct {
	Line    int // 1-based
	Column  int // 1-based, in bytes
	Missing bool
	Node    string
}

func (p Problem) String() string {
	if p.Missing {
		return fmt.Sprintf("%d:%d: missing %s", p.Line, p.Column, p.Node)
	}
	return fmt.Sprintf("%d:%d: unexpected syntax", p.Line, p.Column)
}

// Check parses src as JavaScript with JSX. A nil slice means the source
// parsed cleanly.
func Check(ctx context.Context, src string) ([]Problem, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, []byte(src))
	if err != nil {
		return nil, fmt.Errorf("parse javascript: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil, nil
	}
	var problems []Problem
	collect(root, &problems)
	return problems, nil
}

func collect(n *sitter.Node, out *[]Problem) {
	if len(*out) >= MaxProblems {
		return
	}
	if n.IsError() || n.IsMissing() {
		pt := n.StartPoint()
		*out = append(*out, Problem{
			Line:    int(pt.Row) + 1,
			Column:  int(pt.Column) + 1,
			Missing: n.IsMissing(),
			Node:    n.Type(),
		})
		if n.IsMissing() {
			return
		}
	}
	if !n.HasError() {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		collect(n.Child(i), out)
	}
}
