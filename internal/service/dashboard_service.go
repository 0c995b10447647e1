package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"lifeboard/internal/habit"
	"lifeboard/internal/model"
)

// number of pending tasks shown on the dashboard
const dashboardPendingTasks = 5

type DashboardService struct {
	tasks    TaskStore
	projects ProjectStore
	habits   *HabitService
	finance  FinanceStore
	notes    NoteStore
}

func NewDashboardService(tasks TaskStore, projects ProjectStore, habits *HabitService, finance FinanceStore, notes NoteStore) *DashboardService {
	return &DashboardService{tasks: tasks, projects: projects, habits: habits, finance: finance, notes: notes}
}

// Build loads every section concurrently and fails if any of them fails.
func (s *DashboardService) Build(ctx context.Context, userID string) (*model.Dashboard, error) {
	var d model.Dashboard
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tasks, err := s.tasks.ListTasks(ctx, userID)
		if err != nil {
			return fmt.Errorf("tasks: %w", err)
		}
		st := TaskStatsOf(tasks)
		d.Tasks = model.DashboardTasks{
			Total:          st.Total,
			Completed:      st.Completed,
			CompletionRate: st.CompletionRate,
			Pending:        firstPending(tasks, dashboardPendingTasks),
		}
		return nil
	})

	g.Go(func() error {
		projects, err := s.projects.ListProjects(ctx, userID)
		if err != nil {
			return fmt.Errorf("projects: %w", err)
		}
		st := ProjectStatsOf(projects)
		d.Projects = model.DashboardProjects{Total: st.Total, InProgress: st.InProgress}
		return nil
	})

	g.Go(func() error {
		today := s.habits.Today()
		habits, entries, err := s.habits.snapshot(ctx, userID, today)
		if err != nil {
			return fmt.Errorf("habits: %w", err)
		}
		sum := habit.Summarize(habits, entries, today)
		d.Habits = model.DashboardHabits{
			Total:          sum.Total,
			Active:         sum.Active,
			CurrentStreak:  sum.CurrentStreak,
			CompletionRate: sum.CompletionRate,
			CompletedToday: habit.CompletedOn(entries, today),
		}
		return nil
	})

	g.Go(func() error {
		accounts, err := s.finance.ListAccounts(ctx, userID)
		if err != nil {
			return fmt.Errorf("accounts: %w", err)
		}
		txs, err := s.finance.ListTransactions(ctx, userID, nil)
		if err != nil {
			return fmt.Errorf("transactions: %w", err)
		}
		sum := FinanceSummaryOf(accounts, txs)
		d.Finance = model.DashboardFinance{TotalBalanceCents: sum.TotalBalanceCents, TransactionCount: sum.TransactionCount}
		return nil
	})

	g.Go(func() error {
		notes, err := s.notes.ListNotes(ctx, userID)
		if err != nil {
			return fmt.Errorf("notes: %w", err)
		}
		st := NoteStatsOf(notes, s.habits.now())
		d.Notes = model.DashboardNotes{Total: st.Total, Pinned: st.Pinned}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

func firstPending(tasks []model.Task, n int) []model.Task {
	out := make([]model.Task, 0, n)
	for _, t := range tasks {
		if len(out) == n {
			break
		}
		if !t.Completed {
			out = append(out, t)
		}
	}
	return out
}
