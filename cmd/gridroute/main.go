package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gridroute/gridroute/internal/cli"
	rterrors "github.com/gridroute/gridroute/pkg/errors"
)

// Exit codes: scripts driving the router distinguish "the tool broke" from
// "the design did not route".
const (
	exitFailure    = 1   // bad input, config error, internal failure
	exitUnroutable = 2   // router ran fine, no legal routing exists/was found
	exitInterrupt  = 130 // standard shell convention for SIGINT
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(exitInterrupt)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps routing outcomes onto distinct exit codes.
func exitCode(err error) int {
	switch rterrors.GetCode(err) {
	case rterrors.ErrCodeUnroutable, rterrors.ErrCodeConvergenceAborted:
		return exitUnroutable
	default:
		return exitFailure
	}
}

func run(ctx context.Context) error {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	// The root command's own PersistentPreRunE attaches the logger to the
	// command context; wrap it so the level is set before that happens.
	attachLogger := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := cli.LogInfo
		if verbose {
			level = cli.LogDebug
		}
		c.SetLogLevel(level)

		if attachLogger != nil {
			return attachLogger(cmd, args)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}
