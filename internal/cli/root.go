// Package cli implements the slate command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/slate/internal/intake"
	"github.com/mesh-intelligence/slate/internal/kanban"
	"github.com/mesh-intelligence/slate/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// DefaultProject is the project used when neither --project nor
// config.yaml names one.
const DefaultProject = "default"

// rootFlags holds global flag values shared by every subcommand.
type rootFlags struct {
	configDir string
	dataDir   string
	project   string
	jsonMode  bool
	logLevel  string
}

// NewRootCmd creates the top-level "slate" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "slate",
		Short: "Break a screenplay into scenes and run the production board",
		Long: "Slate splits a screenplay into scenes, optionally analyzes them with an LLM,\n" +
			"and tracks every scene on a Kanban board from unscheduled to edit.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return userErr(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: .slate)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "data directory (default: .slate-db)")
	pf.StringVarP(&flags.project, "project", "p", "", "project ID (default: "+DefaultProject+")")
	pf.BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(flags),
		newParseCmd(flags),
		newBoardCmd(flags),
		newCharactersCmd(flags),
		newAddSceneCmd(flags),
		newSetCmd(flags),
		newMoveCmd(flags),
		newDuplicateCmd(flags),
		newDeleteCmd(flags),
		newAnalyzeCmd(flags),
		newProjectCmd(flags),
		newColumnCmd(flags),
		newFieldCmd(flags),
		newScheduleCmd(flags),
		newStatsCmd(flags),
		newServeCmd(flags),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return run(NewRootCmd(), os.Args[1:], os.Stderr)
}

func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintln(stderr, "slate:", err)
	}
	return exitCode(err)
}

// userError marks a failure caused by the command line rather than the
// system.
type userError struct{ err error }

func (e *userError) Error() string { return e.err.Error() }
func (e *userError) Unwrap() error { return e.err }

func userErr(err error) error { return &userError{err: err} }

func userErrf(format string, args ...any) error {
	return &userError{err: fmt.Errorf(format, args...)}
}

func exitCode(err error) int {
	var ue *userError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &ue),
		types.IsUserError(err),
		errors.Is(err, intake.ErrEmptyScript),
		errors.Is(err, kanban.ErrNoAnalyzer):
		return exitUserError
	default:
		return exitSysError
	}
}

// exactArgs is cobra.ExactArgs reporting a user error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return userErr(err)
		}
		return nil
	}
}
