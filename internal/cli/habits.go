package cli

import (
	"fmt"
	"strconv"

	"cloud.google.com/go/civil"

	"lifeboard/internal/habit"
)

type HabitCmd struct {
	List   HabitListCmd   `cmd:"" help:"List habits."`
	Stats  HabitStatsCmd  `cmd:"" help:"Show completion rate and streak per habit."`
	Toggle HabitToggleCmd `cmd:"" help:"Check or uncheck a habit for a day."`
}

type HabitListCmd struct{}

func (c *HabitListCmd) Run(ctx *Context) error {
	habits, err := ctx.Client.ListHabits(ctx.Ctx)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		fmt.Fprintln(ctx.Out, mutedStyle.Render("No habits yet."))
		return nil
	}

	t := newTable("ID", "NAME", "FREQUENCY")
	for _, h := range habits {
		freq := string(h.Frequency)
		if h.TargetDays != nil {
			freq = fmt.Sprintf("%s (%d/wk)", freq, *h.TargetDays)
		}
		t.Row(strconv.FormatInt(h.ID, 10), h.Name, freq)
	}
	fmt.Fprintln(ctx.Out, t.Render())
	return nil
}

type HabitStatsCmd struct{}

func (c *HabitStatsCmd) Run(ctx *Context) error {
	stats, err := ctx.Client.HabitStats(ctx.Ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(ctx.Out, titleStyle.Render("Habits · "+stats.Date.String()))
	fmt.Fprintf(ctx.Out, "%s%d\n", labelStyle.Render("Total"), stats.Summary.Total)
	fmt.Fprintf(ctx.Out, "%s%d days\n", labelStyle.Render("Current streak"), stats.Summary.CurrentStreak)
	fmt.Fprintf(ctx.Out, "%s%d%%\n", labelStyle.Render("Completion (30d)"), stats.Summary.CompletionRate)
	fmt.Fprintf(ctx.Out, "%s%d\n", labelStyle.Render("Done today"), stats.CompletedToday)

	if len(stats.Habits) == 0 {
		return nil
	}
	t := newTable("ID", "NAME", "RATE", "STREAK", "DONE/TRACKED")
	for _, s := range stats.Habits {
		t.Row(
			strconv.FormatInt(s.HabitID, 10),
			s.Name,
			fmt.Sprintf("%d%%", s.CompletionRate),
			strconv.Itoa(s.CurrentStreak),
			fmt.Sprintf("%d/%d", s.Completed, s.Tracked),
		)
	}
	fmt.Fprintln(ctx.Out, t.Render())
	return nil
}

type HabitToggleCmd struct {
	ID   int64  `arg:"" help:"Habit ID."`
	Date string `help:"Day to toggle (YYYY-MM-DD). Defaults to today on the server." short:"d"`
}

func (c *HabitToggleCmd) Run(ctx *Context) error {
	var date *civil.Date
	if c.Date != "" {
		d, err := civil.ParseDate(c.Date)
		if err != nil {
			return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", c.Date)
		}
		date = &d
	}

	res, err := ctx.Client.ToggleHabit(ctx.Ctx, c.ID, date)
	if err != nil {
		return err
	}

	switch res.Action {
	case habit.ActionDelete:
		fmt.Fprintf(ctx.Out, "%s habit %d unchecked\n", check(false), c.ID)
	default:
		day := ""
		if res.Entry != nil {
			day = " for " + res.Entry.Date.String()
		}
		fmt.Fprintf(ctx.Out, "%s habit %d checked%s\n", check(true), c.ID, day)
	}
	return nil
}
