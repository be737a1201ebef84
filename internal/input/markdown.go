package input

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// parseMarkdown extracts a backup plan from a Markdown document. Paths and
// exclusion patterns are taken from list items and from the lines of fenced
// code blocks; all other prose is ignored, so a plan can carry headings and
// explanatory text alongside the path list.
func parseMarkdown(r io.Reader) (*Plan, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read markdown plan: %w", err)
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(content))

	plan := &Plan{}
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.ListItem:
			line := strings.TrimSpace(listItemText(node, content))
			if line != "" {
				plan.Lines = append(plan.Lines, line)
			}
			// List item content already consumed; don't descend into
			// its paragraph nodes
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock:
			for i := 0; i < node.Lines().Len(); i++ {
				segment := node.Lines().At(i)
				line := strings.TrimSpace(string(segment.Value(content)))
				if line != "" && !strings.HasPrefix(line, "#") {
					plan.Lines = append(plan.Lines, line)
				}
			}
			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk markdown plan: %w", err)
	}

	return plan, nil
}

// listItemText extracts the plain text of a list item, traversing its
// paragraph wrapper when present.
func listItemText(item *ast.ListItem, source []byte) string {
	var buf bytes.Buffer
	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		buf.WriteString(extractText(c, source))
	}
	return buf.String()
}

// extractText extracts plain text from an AST node's direct children
func extractText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(source))
		case *ast.CodeSpan:
			buf.WriteString(extractText(node, source))
		}
	}
	return buf.String()
}
