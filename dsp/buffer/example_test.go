package buffer_test

import (
	"fmt"

	"github.com/cwbudde/algo-chords/dsp/buffer"
)

func ExampleBuffer() {
	b, err := buffer.FromInterleaved([]float64{0.5, -0.5, 1, 0}, 2)
	if err != nil {
		panic(err)
	}

	fmt.Println(b.Channels(), b.Len())
	fmt.Println(b.Channel(0), b.Channel(1))
	fmt.Println(b.Mono())

	// Output:
	// 2 2
	// [0.5 1] [-0.5 0]
	// [0 0.5]
}
