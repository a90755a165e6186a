// Package main is the production entry point for Echoverse.
//
// Echoverse plays catalog tracks, meters every second of playback against a
// per-track rate, and keeps playlists per signed-in user.
//
// Build:
//
//	go build -o build/echoverse ./cmd
//
// Run:
//
//	./build/echoverse serve
package main

import "github.com/echoverse/echoverse/internal/cli"

func main() {
	cli.Execute()
}
