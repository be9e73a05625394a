package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/checklist/internal/app"
	"github.com/idilsaglam/checklist/internal/permission"
	"github.com/idilsaglam/checklist/internal/ui"
)

func newNotifyCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Allow, deny or inspect reminder notifications",
		Args:  exactArgs(0, "checklist notify grant|revoke|status"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return usagef("usage: checklist notify grant|revoke|status")
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "grant",
		Short: "Allow reminders; a running checklist arms them right away",
		Args:  exactArgs(0, "checklist notify grant"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := permission.NewFileChecker(env.Config.StateDir).Grant(); err != nil {
				return fmt.Errorf("grant: %w", err)
			}
			ui.OK("notifications allowed")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "revoke",
		Short: "Deny reminders; pending ones are cancelled",
		Args:  exactArgs(0, "checklist notify revoke"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := permission.NewFileChecker(env.Config.StateDir).Revoke(); err != nil {
				return fmt.Errorf("revoke: %w", err)
			}
			ui.OK("notifications denied")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether reminders are allowed",
		Args:  exactArgs(0, "checklist notify status"),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := permission.NewFileChecker(env.Config.StateDir).Status()
			if err != nil {
				return err
			}
			state := "denied"
			if g.Granted {
				state = "granted"
			}
			ui.OK(fmt.Sprintf("notifications %s (%s)", state, g.Source))
			if !g.Granted {
				ui.Hint("Run `checklist notify grant` to allow reminders")
			}
			return nil
		},
	})
	return cmd
}

func newDaemonCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Send reminders without the interactive list",
		Long: "Runs the reminder scheduler in the foreground, logging each reminder. " +
			"Serves Prometheus metrics and listens for NATS actions when the config enables them.",
		Args: exactArgs(0, "checklist daemon"),
		RunE: func(cmd *cobra.Command, args []string) error {
			closeLog, err := app.SetupLogging(env.Config, false, env.Verbose)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, env.Config, app.Options{LogSink: true, NATS: true, Metrics: true})
			if err != nil {
				return err
			}
			defer a.Close()
			return a.RunDaemon(ctx)
		},
	}
}
