// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

package htmlutils

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func TestNode2string(t *testing.T) {
	tests := []struct {
		expected string
		input    string
	}{
		{"foo bar", "<div><pre>foo</pre><span>bar</span>"},
		{"a b", "<p>  a\n\n b </p>"},
		{"", "<img src='x'>"},
	}

	for _, test := range tests {
		n, err := html.Parse(strings.NewReader(test.input))
		if err != nil {
			t.Fatalf("parsing HTML `%s': %s", test.input, err)
		}

		sb := strings.Builder{}
		Node2string(n, &sb)

		if got := sb.String(); got != test.expected {
			t.Errorf("`%s': expected `%v' but got `%v'", test.input, test.expected, got)
		}
	}
}

func TestTextContent(t *testing.T) {
	got, err := TextContent("<b>Colosseum</b>, <i>Rome</i>")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if got != "Colosseum , Rome" {
		t.Errorf("expected `Colosseum , Rome' but got `%s'", got)
	}
}

func TestRenderEscapesAttributes(t *testing.T) {
	a := Element(atom.A, Attrs("href", `http://x/?a=1&b="2"`, "target", "_blank"), Text("<link>"))

	got, err := Render(a)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	const expected = `<a href="http://x/?a=1&amp;b=&#34;2&#34;" target="_blank">&lt;link&gt;</a>`
	if got != expected {
		t.Errorf("expected `%s' but got `%s'", expected, got)
	}
}

func TestElementReparentsFragmentNodes(t *testing.T) {
	nodes, err := ParseFragment("one<b>two</b>")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	p := Element(atom.P, nil, nodes...)

	got, err := Render(p)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if got != "<p>one<b>two</b></p>" {
		t.Errorf("unexpected render `%s'", got)
	}
}
