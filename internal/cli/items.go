package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/checklist/internal/app"
	"github.com/idilsaglam/checklist/internal/checklist"
	"github.com/idilsaglam/checklist/internal/model"
	"github.com/idilsaglam/checklist/internal/policy"
	"github.com/idilsaglam/checklist/internal/store"
	"github.com/idilsaglam/checklist/internal/ui"
)

func newAddCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text...>",
		Short: "Add an item (text can be multiple words)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usagef("usage: checklist add <text...>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), env, func(a *app.App) error {
				it, err := a.Service.Add(cmd.Context(), strings.Join(args, " "))
				if errors.Is(err, model.ErrInvalidItem) {
					return usageError{err.Error()}
				}
				if err != nil {
					return err
				}
				ui.OK(fmt.Sprintf("added #%d", it.ID))
				return nil
			})
		},
	}
}

func newListCmd(env *Env) *cobra.Command {
	var group bool
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List items",
		Args:    exactArgs(0, "checklist ls [--group]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), env, func(a *app.App) error {
				items, err := a.Service.Items(cmd.Context())
				if err != nil {
					return fmt.Errorf("load: %w", err)
				}
				renderList(items, group, a.Perm.Granted())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&group, "group", false, "Group output by pending/done")
	return cmd
}

func renderList(items []model.Item, group, permitted bool) {
	t := ui.Current()
	d, p := ui.Stats(items)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		t.Title.Render("My Checklist"),
		t.Success.Render(t.SymDone), d,
		t.Pending.Render(t.SymPending), p,
		t.Accent.Render("Total"), len(items),
	)

	lines := []string{header, t.Muted.Render(ui.ProgressBar(d, d+p, 28)), ""}
	switch {
	case len(items) == 0:
		lines = append(lines, t.Muted.Render("Nothing here yet"))
	case group:
		lines = append(lines, groupLines(items)...)
	default:
		for _, it := range items {
			lines = append(lines, ui.ItemLine(it))
		}
	}
	lines = append(lines, "")
	if !permitted && d > 0 {
		lines = append(lines, t.Pending.Render("Reminders are off: run `checklist notify grant`"))
	}
	lines = append(lines, t.Muted.Render("Tip: add with `checklist add \"Buy milk\"`"))
	ui.Panel(lines)
}

func groupLines(items []model.Item) []string {
	t := ui.Current()
	var pending, done []string
	for _, it := range items {
		if it.IsCompleted {
			done = append(done, "  "+ui.ItemLine(it))
		} else {
			pending = append(pending, "  "+ui.ItemLine(it))
		}
	}
	var out []string
	if len(pending) > 0 {
		out = append(out, t.Pending.Render("Pending"))
		out = append(out, pending...)
	}
	if len(done) > 0 {
		if len(out) > 0 {
			out = append(out, "")
		}
		out = append(out, t.Success.Render("Done"))
		out = append(out, done...)
	}
	return out
}

// itemCmd builds a one-argument command acting on a single item.
func itemCmd(env *Env, use, short string, act func(ctx context.Context, a *app.App, id int64) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  exactArgs(1, "checklist "+use+" <id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), env, func(a *app.App) error {
				msg, err := act(cmd.Context(), a, id)
				return report(msg, id, err)
			})
		},
	}
}

// report prints the outcome of an item command. A missing permission is
// not a failure: the change is saved, only the reminder waits.
func report(msg string, id int64, err error) error {
	switch {
	case err == nil:
		ui.OK(msg)
		return nil
	case errors.Is(err, store.ErrNotFound):
		ui.Fail(fmt.Sprintf("no item #%d", id))
		ui.Hint("Hint: run `checklist ls` to see item ids")
		return reported{ExitUsage}
	case policy.OnlyNeedsPermission(err):
		ui.OK(msg)
		ui.Hint("Reminders are off until you run `checklist notify grant`")
		return nil
	}
	return err
}

func newDoneCmd(env *Env, completed bool) *cobra.Command {
	use, short, msg := "done", "Mark an item completed and start its reminders", "completed"
	if !completed {
		use, short, msg = "undone", "Mark an item not completed and stop its reminders", "reopened"
	}
	return itemCmd(env, use, short, func(ctx context.Context, a *app.App, id int64) (string, error) {
		_, err := a.Service.SetCompleted(ctx, id, completed)
		return fmt.Sprintf("%s #%d", msg, id), err
	})
}

func newCrossCmd(env *Env) *cobra.Command {
	return itemCmd(env, "cross", "Cross out a completed item, or restore it", func(ctx context.Context, a *app.App, id int64) (string, error) {
		it, err := a.Service.ToggleCrossOut(ctx, id)
		if err != nil && !policy.OnlyNeedsPermission(err) {
			return "", err
		}
		switch {
		case it.IsMarkedComplete:
			return fmt.Sprintf("crossed out #%d", id), err
		case !it.IsCompleted:
			return fmt.Sprintf("#%d is not completed; nothing to cross out", id), err
		}
		return fmt.Sprintf("restored #%d", id), err
	})
}

func newRemoveCmd(env *Env) *cobra.Command {
	return itemCmd(env, "rm", "Delete an item and its reminders", func(ctx context.Context, a *app.App, id int64) (string, error) {
		_, err := a.Service.Delete(ctx, id)
		return fmt.Sprintf("removed #%d", id), err
	})
}

func newCompleteCmd(env *Env) *cobra.Command {
	return itemCmd(env, "complete", "Act on a reminder: complete and cross out the item", func(ctx context.Context, a *app.App, id int64) (string, error) {
		if _, err := a.Store.Get(ctx, id); err != nil {
			return "", err
		}
		return fmt.Sprintf("completed #%d", id), a.CompleteFromNotification(ctx, id)
	})
}

func newSetCmd(env *Env) *cobra.Command {
	var (
		interval int
		repeat   string
		at       string
	)
	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Change an item's reminder interval and repeat",
		Args:  exactArgs(1, "checklist set <id> [--interval N] [--repeat none|daily|weekly|monthly|yearly] [--at HH:MM]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("interval") && !flags.Changed("repeat") && !flags.Changed("at") {
				return usagef("set: nothing to change; pass --interval, --repeat or --at")
			}
			return withApp(cmd.Context(), env, func(a *app.App) error {
				it, err := a.Store.Get(cmd.Context(), id)
				if err != nil {
					return report("", id, err)
				}
				set := checklist.SettingsOf(it)
				if flags.Changed("interval") {
					if interval < 0 {
						return usagef("set: interval must not be negative")
					}
					set.IntervalMinutes = interval
				}
				if flags.Changed("repeat") {
					r, err := model.ParseRepeatType(repeat)
					if err != nil {
						return usageError{"set: " + err.Error()}
					}
					set.Repeat = r
				}
				if flags.Changed("at") {
					h, m, err := parseClock(at)
					if err != nil {
						return err
					}
					set.Hour, set.Minute = h, m
				}
				updated, err := a.Service.UpdateSettings(cmd.Context(), id, set)
				return report(fmt.Sprintf("updated #%d%s", id, ui.ReminderSuffix(updated)), id, err)
			})
		},
	}
	cmd.Flags().IntVar(&interval, "interval", 0, "Reminder interval in minutes (0 uses the default)")
	cmd.Flags().StringVar(&repeat, "repeat", "", "Repeat: none, daily, weekly, monthly or yearly")
	cmd.Flags().StringVar(&at, "at", "", "Repeat time of day, HH:MM")
	return cmd
}

func parseClock(s string) (hour, minute int, err error) {
	hs, ms, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, usagef("set: --at wants HH:MM, got %q", s)
	}
	hour, herr := strconv.Atoi(hs)
	minute, merr := strconv.Atoi(ms)
	if herr != nil || merr != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, usagef("set: --at wants HH:MM, got %q", s)
	}
	return hour, minute, nil
}
