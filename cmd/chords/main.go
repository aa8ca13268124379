// Command chords adds vocal harmonies to a song.
//
// Usage:
//
//	chords [flags] input
//
// The input is split into vocals and accompaniment with demucs, harmony
// voices are pitch-shifted from the vocals in the detected key, and the
// result is mixed back and written next to the input as
// <stem>_harmony<ext> unless -o is given.
//
// Examples:
//
//	chords song.mp3
//	chords --harmony third,fifth_lower --harmony-volume 0.4 song.wav
//	chords --no-reverb -o out.flac song.flac
//	chords intervals --key Am
//	chords --info
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "chords:", err)
		os.Exit(1)
	}
}
