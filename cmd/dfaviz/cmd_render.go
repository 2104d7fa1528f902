package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ha1tch/dfaviz/pkg/dfa"
	"github.com/ha1tch/dfaviz/pkg/dfafile"
	"github.com/ha1tch/dfaviz/pkg/render"
)

func (a *app) renderCmd() *cobra.Command {
	var (
		output string
		input  string
		steps  int
		opts   = dfafile.DefaultPNGOptions()
	)
	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Draw a document to PNG or SVG",
		Example: `  dfaviz render even.yaml -o even.png
  dfaviz render even.yaml -o even.svg --input 0110 --steps 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, g, err := a.open(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("input") {
				d.SetInput(input)
			}
			if err := advance(d, steps); err != nil {
				a.logger.Warn("stopped early", "steps", steps, "err", err)
			}
			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".png"
			}
			ext := strings.ToLower(filepath.Ext(output))
			if ext != ".png" && ext != ".svg" {
				return fmt.Errorf("unsupported output format %q (use .png or .svg)", filepath.Ext(output))
			}
			opts.Logger = a.logger

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()

			switch ext {
			case ".svg":
				r, err := dfafile.Scene(d, g, opts)
				if err != nil {
					return err
				}
				if err := render.WriteSVG(f, r); err != nil {
					return err
				}
			default:
				if err := dfafile.RenderPNG(f, d, g, opts); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.png or .svg)")
	cmd.Flags().IntVar(&opts.Width, "width", opts.Width, "image width in pixels")
	cmd.Flags().IntVar(&opts.Height, "height", opts.Height, "image height in pixels")
	cmd.Flags().StringVar(&input, "input", "", "replace the document input")
	cmd.Flags().IntVar(&steps, "steps", 0, "step the automaton this many times before drawing")
	return cmd
}

// advance takes up to n instant steps, stopping quietly at the end of the
// input.
func advance(d *dfa.DFA, n int) error {
	for i := 0; i < n; i++ {
		if _, err := d.Next(); err != nil {
			if errors.Is(err, dfa.ErrEndOfInput) {
				return nil
			}
			return err
		}
	}
	return nil
}
