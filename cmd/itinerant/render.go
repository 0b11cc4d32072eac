package main

import (
	"bytes"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
)

type outputFormat string

const (
	formatMarkdown outputFormat = "markdown"
	formatTerminal outputFormat = "terminal"
	formatHTML     outputFormat = "html"
)

// parseOutputFormat picks terminal rendering for an empty format when stdout
// is a terminal, markdown otherwise.
func parseOutputFormat(s string) (outputFormat, error) {
	switch outputFormat(s) {
	case "":
		if isatty.IsTerminal(os.Stdout.Fd()) {
			return formatTerminal, nil
		}
		return formatMarkdown, nil
	case formatMarkdown, formatTerminal, formatHTML:
		return outputFormat(s), nil
	default:
		return "", errors.Errorf("unknown output format %q (expected markdown, terminal or html)", s)
	}
}

func render(text string, f outputFormat) (string, error) {
	switch f {
	case formatTerminal:
		styled, err := glamour.Render(text, "dark")
		if err != nil {
			return "", errors.Wrap(err, "render markdown for terminal")
		}
		return styled, nil
	case formatHTML:
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(text), &buf); err != nil {
			return "", errors.Wrap(err, "render markdown as html")
		}
		return buf.String(), nil
	default:
		return text, nil
	}
}
