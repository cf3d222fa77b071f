// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

package places

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInfoWindowContent(t *testing.T) {
	tests := []struct {
		name     string
		query    PlaceQuery
		expected string
	}{
		{
			name:     "no content",
			query:    PlaceQuery{Address: "x"},
			expected: "(No content)",
		},
		{
			name:     "author content",
			query:    PlaceQuery{Content: "<b>Trevi</b> fountain"},
			expected: "<b>Trevi</b> fountain",
		},
		{
			name:  "picture",
			query: PlaceQuery{Content: "Trevi", PictureURL: "https://img.example/trevi.jpg"},
			expected: `Trevi<p><a href="https://img.example/trevi.jpg" target="_blank">` +
				`<img src="https://img.example/trevi.jpg" style="width: 100%;"/></a></p>`,
		},
		{
			name:     "external reference",
			query:    PlaceQuery{ExternalReferenceURL: "https://example.org/?a=1&b=2"},
			expected: `(No content)<p><a href="https://example.org/?a=1&amp;b=2" target="_blank">https://example.org/?a=1&amp;b=2</a></p>`,
		},
		{
			name:     "escaped attribute",
			query:    PlaceQuery{Content: "x", PictureURL: `"><script>`},
			expected: `x<p><a href="&#34;&gt;&lt;script&gt;" target="_blank"><img src="&#34;&gt;&lt;script&gt;" style="width: 100%;"/></a></p>`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := InfoWindowContent(test.query)
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}

			if diff := cmp.Diff(test.expected, got); diff != "" {
				t.Errorf("InfoWindowContent() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
