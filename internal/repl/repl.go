// Package repl is the interactive line-oriented front end.
package repl

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
	"github.com/pkg/errors"

	"github.com/reinhart/finAgent/internal/logger"
)

const prompt = "Query: "

// Querier answers one query.
type Querier interface {
	ProcessQuery(ctx context.Context, query string) (string, error)
}

// LineReader reads one line of input after showing a prompt.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// Run reads queries until "quit", EOF or an aborted prompt and prints each
// answer. A failing query is reported and the loop continues.
func Run(ctx context.Context, q Querier, in LineReader, out io.Writer) error {
	fmt.Fprintln(out, "\nMCP Client Started!")
	fmt.Fprintln(out, "Type your queries or 'quit' to exit.")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		fmt.Fprintln(out)
		line, err := in.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return errors.Wrap(err, "reading input")
		}

		query := strings.TrimSpace(line)
		if query == "" {
			continue
		}
		if strings.EqualFold(query, "quit") {
			return nil
		}

		response, err := q.ProcessQuery(ctx, query)
		if err != nil {
			logger.Debug("query failed: %v", err)
			fmt.Fprintf(out, "\nError: %v\n", err)
			continue
		}
		fmt.Fprintln(out, "\n"+response)
	}
}
