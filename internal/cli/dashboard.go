package cli

import (
	"fmt"

	"lifeboard/internal/model"
)

type DashboardCmd struct{}

func (c *DashboardCmd) Run(ctx *Context) error {
	d, err := ctx.Client.Dashboard(ctx.Ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(ctx.Out, titleStyle.Render("Tasks"))
	fmt.Fprintf(ctx.Out, "%s%d/%d (%d%%)\n", labelStyle.Render("Completed"), d.Tasks.Completed, d.Tasks.Total, d.Tasks.CompletionRate)
	for _, t := range d.Tasks.Pending {
		fmt.Fprintf(ctx.Out, "  %s %s\n", check(false), t.Text)
	}

	fmt.Fprintln(ctx.Out, titleStyle.Render("Projects"))
	fmt.Fprintf(ctx.Out, "%s%d of %d\n", labelStyle.Render("In progress"), d.Projects.InProgress, d.Projects.Total)

	fmt.Fprintln(ctx.Out, titleStyle.Render("Habits"))
	fmt.Fprintf(ctx.Out, "%s%d/%d\n", labelStyle.Render("Done today"), d.Habits.CompletedToday, d.Habits.Total)
	fmt.Fprintf(ctx.Out, "%s%d days\n", labelStyle.Render("Current streak"), d.Habits.CurrentStreak)
	fmt.Fprintf(ctx.Out, "%s%d%%\n", labelStyle.Render("Completion (30d)"), d.Habits.CompletionRate)

	fmt.Fprintln(ctx.Out, titleStyle.Render("Finance"))
	fmt.Fprintf(ctx.Out, "%s%s\n", labelStyle.Render("Balance"), model.FormatCents(d.Finance.TotalBalanceCents))
	fmt.Fprintf(ctx.Out, "%s%d\n", labelStyle.Render("Transactions"), d.Finance.TransactionCount)

	fmt.Fprintln(ctx.Out, titleStyle.Render("Notes"))
	fmt.Fprintf(ctx.Out, "%s%d (%d pinned)\n", labelStyle.Render("Total"), d.Notes.Total, d.Notes.Pinned)
	return nil
}
