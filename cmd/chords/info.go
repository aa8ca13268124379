package main

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"text/tabwriter"

	"github.com/cwbudde/algo-chords/internal/cpu"
)

func printInfo(w io.Writer, o *options) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "version\t%s\n", version)
	fmt.Fprintf(tw, "go\t%s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(tw, "cpus\t%d\n", runtime.NumCPU())
	fmt.Fprintf(tw, "simd\t%s\n", cpu.Detect())
	for _, bin := range []struct{ name, path string }{
		{"ffmpeg", o.ffmpeg},
		{"ffprobe", o.ffprobe},
		{"demucs", o.demucs},
	} {
		fmt.Fprintf(tw, "%s\t%s\n", bin.name, resolve(bin.path))
	}
	fmt.Fprintf(tw, "demucs model\t%s\n", o.demucsModel)
	return tw.Flush()
}

func resolve(bin string) string {
	path, err := exec.LookPath(bin)
	if err != nil {
		return "not found (" + bin + ")"
	}
	return path
}
