package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ha1tch/dfaviz/pkg/dfa"
)

func (a *app) runCmd() *cobra.Command {
	var (
		input string
		delay time.Duration
	)
	cmd := &cobra.Command{
		Use:     "run FILE",
		Short:   "Step the automaton over an input and report acceptance",
		Example: "  dfaviz run even.yaml --input 0110 --delay 200ms",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, _, err := a.open(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("input") {
				d.SetInput(input)
			}
			out := cmd.OutOrStdout()
			if err := report(out, args[0], d.Validate()); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			snap := d.Snapshot()
			fmt.Fprintf(out, "input %q, start %s\n", snap.Input, snap.StateName(snap.Initial))

			actions := make(chan dfa.Action)
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				defer close(actions)
				return d.Run(ctx, delay, func(act dfa.Action) {
					select {
					case actions <- act:
					case <-ctx.Done():
					}
				})
			})
			g.Go(func() error {
				for act := range actions {
					fmt.Fprintf(out, "%3d  %s --%s--> %s\n", act.Condition, snap.StateName(act.From), act.Symbol, snap.StateName(act.To))
				}
				return nil
			})

			err = g.Wait()
			switch {
			case errors.Is(err, dfa.ErrNoTransition):
				fmt.Fprintf(out, "rejected: %v\n", err)
				return errInvalid
			case errors.Is(err, context.Canceled):
				fmt.Fprintln(out, "interrupted")
				return err
			case err != nil:
				return err
			}
			if d.IsInputValid() {
				fmt.Fprintf(out, "accepted in %s\n", snap.StateName(d.CurrentState()))
				return nil
			}
			fmt.Fprintf(out, "rejected in %s\n", snap.StateName(d.CurrentState()))
			return errInvalid
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "replace the document input")
	cmd.Flags().DurationVar(&delay, "delay", 0, "animation delay per step (0 steps instantly)")
	return cmd
}
