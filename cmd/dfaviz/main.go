// Command dfaviz renders, validates, exports and runs DFA documents.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ha1tch/dfaviz/pkg/dfa"
	"github.com/ha1tch/dfaviz/pkg/dfafile"
	"github.com/ha1tch/dfaviz/pkg/graph"
	"github.com/ha1tch/dfaviz/pkg/logging"
)

// errInvalid signals a failed validation whose message was already
// printed; it only sets the exit status.
var errInvalid = errors.New("validation failed")

type app struct {
	logLevel  string
	logFormat string
	logger    *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: logging.Discard()}

	root := &cobra.Command{
		Use:   "dfaviz",
		Short: "Render, validate and run deterministic finite automata",
		Long: `dfaviz works with DFA documents in YAML or JSON: it draws them to
PNG or SVG, checks them, exports Graphviz DOT or Go code and steps them
over an input.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(a.logLevel, a.logFormat, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "text", "log format (text, json)")

	root.AddCommand(
		a.renderCmd(),
		a.validateCmd(),
		a.dotCmd(),
		a.runCmd(),
		a.convertCmd(),
		a.genCmd(),
	)
	return root
}

// open loads a document and builds its automaton and layout graph.
func (a *app) open(path string) (*dfafile.Document, *dfa.DFA, *graph.Graph, error) {
	doc, err := dfafile.Load(path)
	if err != nil {
		return nil, nil, nil, err
	}
	d, g, err := doc.Open(a.logger, nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	a.logger.Debug("loaded document", "path", path, "states", len(doc.States), "symbols", len(doc.Alphabet))
	return doc, d, g, nil
}

// report prints the validation outcome and returns errInvalid on failure.
func report(w io.Writer, path string, err error) error {
	var verr *dfa.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintf(w, "%s: %s\n", path, verr.Message())
		return errInvalid
	}
	return err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
