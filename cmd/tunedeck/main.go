// Command tunedeck manages a persistent audio track library from the shell:
// import files into the queue, organize them into playlists, and undo changes.
//
// Build:
//
//	go build -o build/tunedeck ./cmd/tunedeck
//
// Run:
//
//	./build/tunedeck import ~/Music
//	./build/tunedeck move --to Favorites current 0 2
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	runner := NewRunner(RunnerOpts{})
	if err := runner.Command().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "tunedeck: %v\n", err)
		os.Exit(1)
	}
}
