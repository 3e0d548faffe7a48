package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	domerrors "github.com/garyellow/vyatsu-schedule/internal/errors"
	"github.com/garyellow/vyatsu-schedule/internal/export"
	"github.com/garyellow/vyatsu-schedule/internal/resolver"
	"github.com/garyellow/vyatsu-schedule/internal/schedule"
)

var (
	icsPath   string
	levelFlag string
)

var getCmd = &cobra.Command{
	Use:   "get <group or instructor>",
	Short: "Show the lessons for one date",
	Example: `  vyatsu-schedule get ивт-43-03-00
  vyatsu-schedule get "чистяков г.а." --date завтра`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		return withEngine(cmd, func(ctx context.Context, e *engine) error {
			date, err := e.date()
			if err != nil {
				return err
			}

			var res *schedule.Result
			runWithSpinner("Fetching the schedule...", func() {
				res, err = e.service.Get(ctx, query, date)
			})
			var ambiguous *domerrors.AmbiguousMatchError
			if errors.As(err, &ambiguous) {
				choice, pickErr := pickCandidate(ambiguous)
				if pickErr != nil {
					return pickErr
				}
				runWithSpinner("Fetching the schedule...", func() {
					res, err = e.service.SelectInstructor(ctx, choice, date)
				})
			}
			if err != nil {
				return userError(err)
			}
			renderResult(cmd.OutOrStdout(), res)
			return nil
		})
	},
}

var weekCmd = &cobra.Command{
	Use:   "week <group or instructor>",
	Short: "Show every day of the document covering the date",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		return withEngine(cmd, func(ctx context.Context, e *engine) error {
			date, err := e.date()
			if err != nil {
				return err
			}

			var week *schedule.WeekResult
			runWithSpinner("Fetching the schedule...", func() {
				week, err = e.service.Week(ctx, query, date)
			})
			if err != nil {
				return userError(err)
			}

			if icsPath == "" {
				renderWeek(cmd.OutOrStdout(), week)
				return nil
			}
			f, err := os.Create(icsPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", icsPath, err)
			}
			if err := export.WriteICS(f, week, e.cfg.Location(), time.Now()); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Calendar written to "+linkStyle.Render(icsPath))
			return nil
		})
	},
}

var linkCmd = &cobra.Command{
	Use:   "link <group or instructor>",
	Short: "Print the document link for the date without downloading it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		return withEngine(cmd, func(ctx context.Context, e *engine) error {
			date, err := e.date()
			if err != nil {
				return err
			}
			link, err := e.service.Link(ctx, query, date)
			if err != nil {
				return userError(err)
			}
			renderLink(cmd.OutOrStdout(), link)
			return nil
		})
	},
}

var groupsCmd = &cobra.Command{
	Use:   "groups <name>",
	Short: "Print the canonical form of a group name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		return withEngine(cmd, func(_ context.Context, e *engine) error {
			snap, err := e.directory.Snapshot()
			if err != nil {
				return userError(err)
			}
			level := e.cfg.DefaultLevelRune()
			if levelFlag != "" {
				level = []rune(levelFlag)[0]
			}
			group := resolver.Canonicalize(snap, query, level)
			if group == "" {
				return userError(domerrors.ErrInvalidName)
			}
			fmt.Fprintln(cmd.OutOrStdout(), group)
			return nil
		})
	},
}

var instructorsCmd = &cobra.Command{
	Use:   "instructors <surname [name [patronymic]]>",
	Short: "List directory instructors matching a name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		return withEngine(cmd, func(_ context.Context, e *engine) error {
			snap, err := e.directory.Snapshot()
			if err != nil {
				return userError(err)
			}
			found := resolver.FindInstructor(snap, query)
			if len(found) == 0 {
				return userError(domerrors.ErrInvalidName)
			}
			for _, in := range found {
				fmt.Fprintln(cmd.OutOrStdout(), in.Name+mutedStyle.Render("  "+in.Department))
			}
			return nil
		})
	},
}

func init() {
	weekCmd.Flags().StringVar(&icsPath, "ics", "", "write an iCalendar file instead of printing")
	groupsCmd.Flags().StringVar(&levelFlag, "level", "", "education level letter to assume (б, м, с, а)")
}

// pickCandidate asks which of several matching instructors was meant.
func pickCandidate(amb *domerrors.AmbiguousMatchError) (domerrors.Candidate, error) {
	options := make([]huh.Option[int], len(amb.Candidates))
	for i, c := range amb.Candidates {
		options[i] = huh.NewOption(c.Name+" ("+c.Scope+")", i)
	}

	var picked int
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title(fmt.Sprintf("Several instructors match %q", amb.Query)).
				Options(options...).
				Value(&picked),
		),
	)
	if err := form.Run(); err != nil {
		return domerrors.Candidate{}, fmt.Errorf("%w (%s)", err, candidateList(amb.Candidates))
	}
	return amb.Candidates[picked], nil
}

func candidateList(cs []domerrors.Candidate) string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name + " / " + c.Scope
	}
	return strings.Join(names, "; ")
}

// userError keeps the cause for --verbose runs and otherwise shows the
// short user message.
func userError(err error) error {
	if verboseFlag {
		return err
	}
	return errors.New(domerrors.GetUserMessage(err))
}
