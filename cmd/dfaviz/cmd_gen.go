package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ha1tch/dfaviz/pkg/codegen"
)

func (a *app) genCmd() *cobra.Command {
	var (
		output string
		opts   codegen.GoOptions
	)
	cmd := &cobra.Command{
		Use:     "gen FILE",
		Short:   "Generate a Go matcher for the automaton",
		Example: "  dfaviz gen even.yaml --package parity -o parity/even.go",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, d, _, err := a.open(args[0])
			if err != nil {
				return err
			}
			if opts.Name == "" {
				opts.Name = doc.Name
			}
			src, err := codegen.GenerateGo(d.Snapshot(), opts)
			if err != nil {
				return report(cmd.OutOrStdout(), args[0], err)
			}
			if output == "" {
				_, err := cmd.OutOrStdout().Write(src)
				return err
			}
			if err := os.WriteFile(output, src, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout when empty)")
	cmd.Flags().StringVar(&opts.Package, "package", "", "package name (derived from the document name when empty)")
	cmd.Flags().StringVar(&opts.Type, "type", "", "type name (derived from the document name when empty)")
	return cmd
}
