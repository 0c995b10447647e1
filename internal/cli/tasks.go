package cli

import (
	"fmt"
	"strconv"

	"lifeboard/internal/model"
)

type TaskCmd struct {
	List TaskListCmd `cmd:"" help:"List tasks."`
}

type TaskListCmd struct {
	Filter string `help:"all, completed or pending." default:"all" enum:"all,completed,pending"`
	Query  string `help:"Case-insensitive match on text or category." short:"q"`
}

func (c *TaskListCmd) Run(ctx *Context) error {
	filter, err := model.ParseTaskFilter(c.Filter)
	if err != nil {
		return err
	}
	tasks, err := ctx.Client.ListTasks(ctx.Ctx, filter, c.Query)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Fprintln(ctx.Out, mutedStyle.Render("No tasks found."))
		return nil
	}

	t := newTable("", "ID", "TASK", "PRIORITY", "DUE")
	for _, task := range tasks {
		priority, due := "-", "-"
		if task.Priority != nil {
			priority = string(*task.Priority)
		}
		if task.DueDate != nil {
			due = task.DueDate.String()
		}
		t.Row(check(task.Completed), strconv.FormatInt(task.ID, 10), task.Text, priority, due)
	}
	fmt.Fprintln(ctx.Out, t.Render())
	return nil
}
