package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ha1tch/dfaviz/pkg/dfafile"
)

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check that a document describes a complete DFA",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, _, err := a.open(args[0])
			if err != nil {
				return err
			}
			if err := report(cmd.OutOrStdout(), args[0], d.Validate()); err != nil {
				return err
			}
			snap := d.Snapshot()
			transitions := 0
			for _, row := range snap.Transitions {
				transitions += len(row)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %d states, %d symbols, %d transitions\n",
				args[0], len(snap.States), len(snap.Alphabet), transitions)
			return nil
		},
	}
}

func (a *app) dotCmd() *cobra.Command {
	var (
		output string
		title  string
	)
	cmd := &cobra.Command{
		Use:     "dot FILE",
		Short:   "Export Graphviz DOT",
		Example: "  dfaviz dot even.yaml | dot -Tpng -o even.png",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, d, _, err := a.open(args[0])
			if err != nil {
				return err
			}
			if title == "" {
				title = doc.Name
			}
			dot := dfafile.GenerateDOT(d.Snapshot(), title)
			if output == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), dot)
				return err
			}
			return os.WriteFile(output, []byte(dot), 0o644)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout when empty)")
	cmd.Flags().StringVar(&title, "title", "", "graph title (defaults to the document name)")
	return cmd
}

func (a *app) convertCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "convert FILE -o OUT",
		Short: "Convert a document between YAML and JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := dfafile.Load(args[0])
			if err != nil {
				return err
			}
			if err := dfafile.Save(output, doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Converted %s -> %s\n", args[0], output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.json, .yaml or .yml)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
