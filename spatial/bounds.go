// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"github.com/paulmach/orb"
)

// Bounds is a latitude/longitude rectangle grown point by point, the way a
// map's LatLngBounds is. The zero value is empty.
type Bounds struct {
	bound orb.Bound
	init  bool
}

// NewBounds returns the smallest bounds covering all points.
func NewBounds(points ...Point) Bounds {
	var b Bounds
	for _, p := range points {
		b = b.Extend(p)
	}

	return b
}

// Extend returns bounds grown to include p.
func (b Bounds) Extend(p Point) Bounds {
	if b.IsEmpty() {
		return Bounds{bound: p.Orb().Bound(), init: true}
	}

	b.bound = b.bound.Extend(p.Orb())

	return b
}

// IsEmpty reports whether no point has been added.
func (b Bounds) IsEmpty() bool {
	return !b.init
}

// Center returns the geometric center of the rectangle.
func (b Bounds) Center() Point {
	return FromOrb(b.bound.Center())
}

// SouthWest returns the lower-left corner.
func (b Bounds) SouthWest() Point {
	return FromOrb(b.bound.Min)
}

// NorthEast returns the upper-right corner.
func (b Bounds) NorthEast() Point {
	return FromOrb(b.bound.Max)
}

// Contains reports whether p lies inside the bounds, edges included.
func (b Bounds) Contains(p Point) bool {
	if b.IsEmpty() {
		return false
	}

	return b.bound.Contains(p.Orb())
}

// IsPoint reports whether the bounds collapse to a single location.
func (b Bounds) IsPoint() bool {
	return !b.IsEmpty() && b.bound.Min.Equal(b.bound.Max)
}
