// Package xml streams elements of scripture text documents through
// xmlquery and xpath.
//
// Security Notes:
//   - xmlquery parses with Go's encoding/xml, which never fetches external
//     entities, so XXE payloads in uploaded OSIS files are inert.
package xml

import (
	"errors"
	"fmt"
	"io"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Node is one streamed XML element.
type Node struct {
	node *xmlquery.Node
}

// Stream calls fn for every element matching expr without holding the whole
// document in memory. expr must be an element path such as "//verse".
func Stream(r io.Reader, expr string, fn func(*Node) error) error {
	if _, err := xpath.Compile(expr); err != nil {
		return fmt.Errorf("invalid xpath: %w", err)
	}
	p, err := xmlquery.CreateStreamParser(r, expr)
	if err != nil {
		return fmt.Errorf("xml stream: %w", err)
	}
	for {
		n, err := p.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("parsing XML: %w", err)
		}
		if err := fn(&Node{node: n}); err != nil {
			return err
		}
	}
}

// Text returns all text content of the node and its descendants.
func (n *Node) Text() string {
	if n == nil || n.node == nil {
		return ""
	}
	return n.node.InnerText()
}

// Attr returns the value of an attribute, or "".
func (n *Node) Attr(name string) string {
	if n == nil || n.node == nil {
		return ""
	}
	return n.node.SelectAttr(name)
}
