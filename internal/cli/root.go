// Package cli is the checklist command line: the bare command opens the
// interactive list, subcommands are scriptable one-shots.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/checklist/internal/app"
	"github.com/idilsaglam/checklist/internal/checklist"
	"github.com/idilsaglam/checklist/internal/config"
	"github.com/idilsaglam/checklist/internal/tui"
	"github.com/idilsaglam/checklist/internal/ui"
)

// Exit codes: 0 ok, 1 error, 2 usage.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// usageError marks mistakes in how the command was invoked.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error { return usageError{fmt.Sprintf(format, args...)} }

// reported marks errors that were already shown to the user.
type reported struct{ code int }

func (r reported) Error() string { return fmt.Sprintf("exit %d", r.code) }

// Env carries root flags and the loaded configuration to subcommands.
type Env struct {
	ConfigPath string
	Theme      string
	Color      bool
	NoColor    bool
	Verbose    bool

	Config *config.Config
}

func NewRootCmd() *cobra.Command {
	env := &Env{}

	cmd := &cobra.Command{
		Use:           "checklist",
		Short:         "Checklist with reminders (TUI + CLI)",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Open the interactive list
  checklist

  # Scriptable commands
  checklist add "Buy milk"
  checklist done 1
  checklist set 1 --interval 30 --repeat daily --at 09:00
  checklist notify grant
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), env)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(env.ConfigPath)
		if err != nil {
			return err
		}
		env.Config = cfg
		theme := cfg.UI.Theme
		if env.Theme != "" {
			theme = env.Theme
		}
		ui.SetColorForcing(env.Color, env.NoColor)
		ui.SetTheme(theme)
		return nil
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err.Error()}
	})

	cmd.PersistentFlags().StringVarP(&env.ConfigPath, "config", "c", "", "Config file (default $"+config.EnvConfigPath+" or <state dir>/config.yaml)")
	cmd.PersistentFlags().StringVar(&env.Theme, "theme", "", "Colour theme: classic, neon or mono")
	cmd.PersistentFlags().BoolVar(&env.Color, "color", false, "Force colour output")
	cmd.PersistentFlags().BoolVar(&env.NoColor, "no-color", false, "Disable colour output")
	cmd.PersistentFlags().BoolVarP(&env.Verbose, "verbose", "v", false, "Debug logging")

	cmd.AddCommand(newAddCmd(env))
	cmd.AddCommand(newListCmd(env))
	cmd.AddCommand(newDoneCmd(env, true))
	cmd.AddCommand(newDoneCmd(env, false))
	cmd.AddCommand(newCrossCmd(env))
	cmd.AddCommand(newRemoveCmd(env))
	cmd.AddCommand(newSetCmd(env))
	cmd.AddCommand(newCompleteCmd(env))
	cmd.AddCommand(newNotifyCmd(env))
	cmd.AddCommand(newDaemonCmd(env))

	return cmd
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var r reported
	if errors.As(err, &r) {
		return r.code
	}
	var u usageError
	if errors.As(err, &u) || strings.HasPrefix(err.Error(), "unknown command") {
		ui.Fail(err.Error())
		ui.Hint("Run `checklist --help` for usage")
		return ExitUsage
	}
	ui.Fail(err.Error())
	return ExitError
}

// withApp opens the store for a one-shot command. Reminders are left to
// whichever process owns the scheduler.
func withApp(ctx context.Context, env *Env, fn func(*app.App) error) error {
	closeLog, err := app.SetupLogging(env.Config, false, env.Verbose)
	if err != nil {
		return err
	}
	defer closeLog()

	a, err := app.New(ctx, env.Config, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func runTUI(ctx context.Context, env *Env) error {
	closeLog, err := app.SetupLogging(env.Config, true, env.Verbose)
	if err != nil {
		return err
	}
	defer closeLog()

	binding, err := checklist.ParseBinding(env.Config.UI.Binding)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, env.Config, app.Options{NATS: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.StartReminders(ctx); err != nil {
		return err
	}
	if err := a.ListenForActions(ctx); err != nil {
		return err
	}
	return tui.Run(ctx, tui.Options{
		Service:    a.Service,
		Permission: a.Perm,
		Tray:       a.Tray,
		Binding:    binding,
		Complete:   a.CompleteFromNotification,
	})
}

func exactArgs(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef("usage: %s", usage)
		}
		return nil
	}
}

// parseID accepts "3" or "#3".
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef("not an item id: %s", s)
	}
	return id, nil
}
