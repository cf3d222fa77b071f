// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

// Package htmlutils provides utility functions for working with HTML.
package htmlutils

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Node2string appends the text content of n to sb, one space between
// non-empty text nodes.
func Node2string(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		tmp := strings.Join(strings.Fields(n.Data), " ")
		if len(tmp) > 0 {
			if sb.Len() != 0 {
				sb.WriteByte(' ')
			}

			sb.WriteString(tmp)
		}

		return
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		Node2string(child, sb)
	}
}

// TextContent returns the plain text of an HTML fragment.
func TextContent(fragment string) (string, error) {
	nodes, err := ParseFragment(fragment)
	if err != nil {
		return "", err
	}

	sb := strings.Builder{}
	for _, n := range nodes {
		Node2string(n, &sb)
	}

	return sb.String(), nil
}

// ParseFragment parses s as the content of a <div>.
func ParseFragment(s string) ([]*html.Node, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	}

	nodes, err := html.ParseFragment(strings.NewReader(s), context)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML fragment: %w", err)
	}

	return nodes, nil
}

// Text creates a text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Element creates an element with the given attributes, given as
// key/value pairs, and children.
func Element(tag atom.Atom, attrs []html.Attribute, children ...*html.Node) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag.String(),
		DataAtom: tag,
		Attr:     attrs,
	}

	for _, child := range children {
		if child.Parent != nil {
			child.Parent.RemoveChild(child)
		}

		n.AppendChild(child)
	}

	return n
}

// Attrs builds an attribute list from key/value pairs.
func Attrs(kv ...string) []html.Attribute {
	attrs := make([]html.Attribute, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		attrs = append(attrs, html.Attribute{Key: kv[i], Val: kv[i+1]})
	}

	return attrs
}

// Render serializes nodes back to HTML.
func Render(nodes ...*html.Node) (string, error) {
	sb := strings.Builder{}
	for _, n := range nodes {
		if err := html.Render(&sb, n); err != nil {
			return "", fmt.Errorf("rendering HTML: %w", err)
		}
	}

	return sb.String(), nil
}
