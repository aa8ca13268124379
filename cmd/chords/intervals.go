package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-chords/theory/interval"
	"github.com/cwbudde/algo-chords/theory/key"
)

func newIntervalsCmd() *cobra.Command {
	var keyName string
	cmd := &cobra.Command{
		Use:   "intervals",
		Short: "Print the harmony interval tables for a key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := key.Parse(keyName)
			if err != nil {
				return err
			}
			return printIntervals(cmd.OutOrStdout(), k)
		},
	}
	cmd.Flags().StringVar(&keyName, "key", "C", `key such as "C", "F#m" or "Bb minor"`)
	return cmd
}

func printIntervals(w io.Writer, k key.Info) error {
	fmt.Fprintf(w, "key %s %s: %v\n\n", k.RootName(), k.Mode, k.Scale)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "voice\tsemitones\t\n")
	for _, h := range interval.All {
		off, _ := interval.For(h, k.Mode)
		fmt.Fprintf(tw, "%s\t%+d\t\n", h, off)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprint(w, "\nper scale degree (inspection only):\n")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "note\t")
	for _, h := range interval.All {
		fmt.Fprintf(tw, "%s\t", h)
	}
	fmt.Fprint(tw, "\n")
	for i, degree := range k.Mode.Offsets() {
		fmt.Fprintf(tw, "%s\t", k.Scale[i])
		for _, h := range interval.All {
			off, _ := interval.ForDegree(h, k.Mode, degree)
			fmt.Fprintf(tw, "%+d\t", off)
		}
		fmt.Fprint(tw, "\n")
	}
	return tw.Flush()
}
