//go:build headless

package main

import "github.com/intuitionamiga/alcore"

func newBackend(_ bool) al.Backend {
	return al.NewHeadlessBackend()
}
