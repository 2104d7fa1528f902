// Command dfaview shows a DFA document in the terminal and steps it over
// its input.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/ha1tch/dfaviz/pkg/dfafile"
	"github.com/ha1tch/dfaviz/pkg/logging"
)

type options struct {
	watch      bool
	configPath string
	logFile    string
	fps        int
	input      string
}

func newRootCmd(newScreen func() (tcell.Screen, error)) *cobra.Command {
	o := &options{configPath: ConfigPath()}

	cmd := &cobra.Command{
		Use:   "dfaview FILE",
		Short: "Interactive terminal viewer for DFA documents",
		Long: `dfaview draws a DFA document in the terminal. Space steps the input
and replays it once it is used up. r restarts, i edits the input, f fits
the view, s saves the layout back to the file and q quits. Drag a state
to move it, drag the background to pan and use the wheel to zoom.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(o.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("fps") {
				cfg.FPS = o.fps
			}
			if o.logFile != "" {
				cfg.LogFile = o.logFile
			}
			if err := cfg.validate(); err != nil {
				return err
			}

			logger, closeLog, err := openLog(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			doc, err := dfafile.Load(path)
			if err != nil {
				return err
			}

			screen, err := newScreen()
			if err != nil {
				return fmt.Errorf("creating screen: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("initializing screen: %w", err)
			}
			defer screen.Fini()
			screen.EnableMouse(tcell.MouseMotionEvents)
			screen.Clear()

			v, err := NewViewer(screen, path, doc, cfg, logger)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("input") {
				v.setInput(o.input)
			}
			logger.Info("viewer started", "path", path, "watch", o.watch, "input", v.current.Load().Input())

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return v.Run(ctx, o.watch)
		},
	}
	cmd.Flags().BoolVarP(&o.watch, "watch", "w", false, "reload the file when it changes")
	cmd.Flags().StringVar(&o.configPath, "config", o.configPath, "configuration file")
	cmd.Flags().StringVar(&o.logFile, "log-file", "", "append logs to this file")
	cmd.Flags().IntVar(&o.fps, "fps", 0, "frames per second")
	cmd.Flags().StringVar(&o.input, "input", "", "input to run instead of the document's")
	return cmd
}

// openLog returns the viewer's logger. The terminal belongs to the screen,
// so logs only go to a file.
func openLog(cfg Config) (*slog.Logger, func(), error) {
	if cfg.LogFile == "" {
		return logging.Discard(), func() {}, nil
	}
	f, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return logger, func() { f.Close() }, nil
}

func main() {
	if err := newRootCmd(tcell.NewScreen).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
