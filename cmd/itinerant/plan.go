package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tcnksm/go-input"

	"github.com/go-go-golems/itinerant/pkg/trace"
	"github.com/go-go-golems/itinerant/pkg/travel"
	"github.com/go-go-golems/itinerant/pkg/turns"
	"github.com/go-go-golems/itinerant/pkg/turns/serde"
)

func newPlanCommand() *cobra.Command {
	var (
		query      string
		model      string
		multiAgent bool
		format     string
		traceOut   string
		runsDir    string
		printRuns  bool
	)
	cmd := &cobra.Command{
		Use:   "plan [query]",
		Short: "Plan a trip from a natural-language query",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if query == "" {
				query = strings.Join(args, " ")
			}
			if strings.TrimSpace(query) == "" {
				if !isatty.IsTerminal(os.Stdin.Fd()) {
					return errors.New("no query given, use --query")
				}
				q, err := askQuery()
				if err != nil {
					return err
				}
				query = q
			}
			f, err := parseOutputFormat(format)
			if err != nil {
				return err
			}
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			assistant, err := travel.New(s, travel.WithMultiAgent(multiAgent))
			if err != nil {
				return err
			}

			var resp travel.Response
			err = withRuntime(cmd.Context(), func(ctx context.Context) error {
				resp = assistant.Run(ctx, query, model)
				return nil
			})
			if err != nil {
				return err
			}

			out, err := render(resp.Text, f)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(out, "\n"))

			if traceOut != "" && resp.Err == nil {
				if err := writeTrace(traceOut, resp.Spans); err != nil {
					return err
				}
				log.Info().Str("file", traceOut).Int("spans", len(resp.Spans)).Msg("trace written")
			}
			if printRuns {
				for _, r := range resp.Runs {
					fmt.Fprintf(cmd.ErrOrStderr(), "=== %s (%s)\n", r.Name, r.ID)
					turns.FprintRun(cmd.ErrOrStderr(), r)
				}
			}
			if runsDir != "" && resp.Err == nil {
				if err := saveRuns(runsDir, resp.Runs); err != nil {
					return err
				}
			}
			if resp.Err != nil {
				return errPlanFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&query, "query", "", "Travel query")
	cmd.Flags().StringVar(&model, "model", "", "Model identifier, e.g. openai:gpt-4o (default from settings)")
	cmd.Flags().BoolVar(&multiAgent, "multi-agent", false, "Plan with the coordinator and the specialized agents")
	cmd.Flags().StringVar(&format, "format", "", "Output format (markdown, terminal, html); terminal when stdout is a TTY")
	cmd.Flags().StringVar(&traceOut, "trace-out", "", "Write the run trace to this file (.json or .yaml)")
	cmd.Flags().BoolVar(&printRuns, "print-runs", false, "Print the message history of every agent run on stderr")
	cmd.Flags().StringVar(&runsDir, "runs-dir", "", "Save the full message history of every agent run as YAML in this directory")
	return cmd
}

func askQuery() (string, error) {
	ui := &input.UI{
		Writer: os.Stderr,
		Reader: os.Stdin,
	}
	answer, err := ui.Ask("Where would you like to travel?", &input.Options{
		Required:  true,
		Loop:      true,
		HideOrder: true,
	})
	if err != nil {
		return "", errors.Wrap(err, "read query")
	}
	return strings.TrimSpace(answer), nil
}

// traceFormatFor picks the trace encoding from the file extension.
func traceFormatFor(path string) trace.Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return trace.FormatJSON
	}
	return trace.FormatYAML
}

func writeTrace(path string, spans []trace.Span) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create trace file")
	}
	defer func() {
		_ = f.Close()
	}()
	return trace.Encode(f, spans, traceFormatFor(path))
}

// saveRuns writes one YAML file per run, numbered in run order.
func saveRuns(dir string, runs []*turns.Run) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create runs directory")
	}
	for i, r := range runs {
		path := filepath.Join(dir, fmt.Sprintf("%02d-%s.yaml", i, r.Name))
		if err := serde.SaveRunYAML(path, r); err != nil {
			return err
		}
	}
	log.Info().Str("dir", dir).Int("runs", len(runs)).Msg("agent runs saved")
	return nil
}
