// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

package places

import (
	"github.com/jcodagnone/mapplaces/utils/htmlutils"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NoContent is shown in the info window of a place without content.
const NoContent = "(No content)"

// InfoWindowContent renders the HTML shown when the marker of q is clicked:
// the author's content, then the picture and the external reference, each
// linked to open in a new tab.
func InfoWindowContent(q PlaceQuery) (string, error) {
	var nodes []*html.Node

	if q.Content == "" {
		nodes = append(nodes, htmlutils.Text(NoContent))
	} else {
		fragment, err := htmlutils.ParseFragment(q.Content)
		if err != nil {
			return "", err
		}

		nodes = append(nodes, fragment...)
	}

	if q.PictureURL != "" {
		img := htmlutils.Element(atom.Img, htmlutils.Attrs("src", q.PictureURL, "style", "width: 100%;"))
		link := htmlutils.Element(atom.A, htmlutils.Attrs("href", q.PictureURL, "target", "_blank"), img)
		nodes = append(nodes, htmlutils.Element(atom.P, nil, link))
	}

	if q.ExternalReferenceURL != "" {
		link := htmlutils.Element(atom.A,
			htmlutils.Attrs("href", q.ExternalReferenceURL, "target", "_blank"),
			htmlutils.Text(q.ExternalReferenceURL))
		nodes = append(nodes, htmlutils.Element(atom.P, nil, link))
	}

	return htmlutils.Render(nodes...)
}
