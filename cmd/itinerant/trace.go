package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/itinerant/pkg/trace"
)

func newTraceCommand() *cobra.Command {
	var (
		in     string
		format string
	)
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Validate a saved run trace and print it as YAML or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if in == "" {
				return errors.New("--in is required")
			}
			out, err := trace.ParseFormat(format)
			if err != nil {
				return err
			}
			f, err := os.Open(in)
			if err != nil {
				return errors.Wrap(err, "open trace")
			}
			defer func() {
				_ = f.Close()
			}()
			spans, err := trace.Decode(f, traceFormatFor(in))
			if err != nil {
				return errors.Wrapf(err, "read %s", in)
			}
			return trace.Encode(cmd.OutOrStdout(), spans, out)
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "Trace file (.json or .yaml)")
	cmd.Flags().StringVar(&format, "format", string(trace.FormatYAML), "Output format (yaml, json)")
	return cmd
}
