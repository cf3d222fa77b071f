// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jcodagnone/mapplaces/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
