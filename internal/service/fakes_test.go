package service

import (
	"context"
	"sort"
	"sync"

	"cloud.google.com/go/civil"

	"lifeboard/internal/model"
)

// memDB backs every store interface in memory.
type memDB struct {
	mu       sync.Mutex
	seq      int64
	habits   map[int64]*model.Habit
	entries  map[int64]*model.HabitEntry
	tasks    map[int64]*model.Task
	projects map[int64]*model.Project
	notes    map[int64]*model.Note
	accounts map[int64]*model.Account
	txs      map[int64]*model.Transaction
	profiles map[string]*model.UserProfile
	activity []model.Activity
	failWith error
}

func newMemDB() *memDB {
	return &memDB{
		habits:   map[int64]*model.Habit{},
		entries:  map[int64]*model.HabitEntry{},
		tasks:    map[int64]*model.Task{},
		projects: map[int64]*model.Project{},
		notes:    map[int64]*model.Note{},
		accounts: map[int64]*model.Account{},
		txs:      map[int64]*model.Transaction{},
		profiles: map[string]*model.UserProfile{},
	}
}

func (m *memDB) next() int64 {
	m.seq++
	return m.seq
}

// habits

func (m *memDB) ListHabits(_ context.Context, userID string) ([]model.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := []model.Habit{}
	for _, h := range m.habits {
		if h.UserID == userID {
			out = append(out, *h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDB) GetHabit(_ context.Context, userID string, id int64) (*model.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.habits[id]
	if !ok || h.UserID != userID {
		return nil, model.ErrNotFound
	}
	cp := *h
	return &cp, nil
}

func (m *memDB) CreateHabit(_ context.Context, h *model.Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h.ID = m.next()
	cp := *h
	m.habits[h.ID] = &cp
	return nil
}

func (m *memDB) UpdateHabit(_ context.Context, h *model.Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.habits[h.ID]; !ok {
		return model.ErrNotFound
	}
	cp := *h
	m.habits[h.ID] = &cp
	return nil
}

func (m *memDB) DeleteHabit(_ context.Context, userID string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.habits[id]; ok && h.UserID == userID {
		delete(m.habits, id)
		for eid, e := range m.entries {
			if e.HabitID == id {
				delete(m.entries, eid)
			}
		}
	}
	return nil
}

// entries

func (m *memDB) ListEntries(_ context.Context, f model.EntryFilter) ([]model.HabitEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.HabitEntry{}
	for _, e := range m.entries {
		if e.UserID != f.UserID {
			continue
		}
		if f.HabitID != nil && e.HabitID != *f.HabitID {
			continue
		}
		if f.From != nil && e.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && e.Date.After(*f.To) {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDB) findEntry(habitID int64, date civil.Date) *model.HabitEntry {
	for _, e := range m.entries {
		if e.HabitID == habitID && e.Date == date {
			return e
		}
	}
	return nil
}

func (m *memDB) FindEntry(_ context.Context, userID string, habitID int64, date civil.Date) (*model.HabitEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.findEntry(habitID, date)
	if e == nil || e.UserID != userID {
		return nil, model.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memDB) CreateEntry(_ context.Context, userID string, habitID int64, date civil.Date) (*model.HabitEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	if m.findEntry(habitID, date) != nil {
		return nil, model.ErrConflict
	}
	e := &model.HabitEntry{ID: m.next(), UserID: userID, HabitID: habitID, Date: date, Completed: true}
	m.entries[e.ID] = e
	cp := *e
	return &cp, nil
}

func (m *memDB) MarkEntryCompleted(_ context.Context, userID string, id int64) (*model.HabitEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || e.UserID != userID {
		return nil, model.ErrNotFound
	}
	e.Completed = true
	cp := *e
	return &cp, nil
}

func (m *memDB) DeleteEntry(_ context.Context, userID string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || e.UserID != userID {
		return model.ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *memDB) UpsertEntry(_ context.Context, userID string, in model.EntryUpsert) (*model.HabitEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.habits[in.HabitID]
	if !ok || h.UserID != userID {
		return nil, model.ErrNotFound
	}
	e := m.findEntry(in.HabitID, in.Date)
	if e == nil {
		e = &model.HabitEntry{ID: m.next(), UserID: userID, HabitID: in.HabitID, Date: in.Date, Completed: true}
		m.entries[e.ID] = e
	}
	if in.Completed != nil {
		e.Completed = *in.Completed
	}
	if in.Notes != nil {
		e.Notes = in.Notes
	}
	cp := *e
	return &cp, nil
}

// tasks

func (m *memDB) ListTasks(_ context.Context, userID string) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := []model.Task{}
	for _, t := range m.tasks {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDB) GetTask(_ context.Context, userID string, id int64) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.UserID != userID {
		return nil, model.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memDB) CreateTask(_ context.Context, t *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.next()
	cp := *t
	m.tasks[t.ID] = &cp
	return nil
}

func (m *memDB) UpdateTask(_ context.Context, t *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tasks[t.ID] = &cp
	return nil
}

func (m *memDB) DeleteTask(_ context.Context, userID string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[id]; ok && t.UserID == userID {
		delete(m.tasks, id)
	}
	return nil
}

// projects

func (m *memDB) ListProjects(_ context.Context, userID string) ([]model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Project{}
	for _, p := range m.projects {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDB) GetProject(_ context.Context, userID string, id int64) (*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok || p.UserID != userID {
		return nil, model.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memDB) CreateProject(_ context.Context, p *model.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.next()
	cp := *p
	m.projects[p.ID] = &cp
	return nil
}

func (m *memDB) UpdateProject(_ context.Context, p *model.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.projects[p.ID] = &cp
	return nil
}

func (m *memDB) DeleteProject(_ context.Context, userID string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.projects[id]; ok && p.UserID == userID {
		delete(m.projects, id)
	}
	return nil
}

// notes

func (m *memDB) ListNotes(_ context.Context, userID string) ([]model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Note{}
	for _, n := range m.notes {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDB) GetNote(_ context.Context, userID string, id int64) (*model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok || n.UserID != userID {
		return nil, model.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (m *memDB) CreateNote(_ context.Context, n *model.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = m.next()
	cp := *n
	m.notes[n.ID] = &cp
	return nil
}

func (m *memDB) UpdateNote(_ context.Context, n *model.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	m.notes[n.ID] = &cp
	return nil
}

func (m *memDB) TogglePin(_ context.Context, userID string, id int64) (*model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok || n.UserID != userID {
		return nil, model.ErrNotFound
	}
	n.IsPinned = !n.IsPinned
	cp := *n
	return &cp, nil
}

func (m *memDB) DeleteNote(_ context.Context, userID string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.notes[id]; ok && n.UserID == userID {
		delete(m.notes, id)
	}
	return nil
}

// finance

func (m *memDB) ListAccounts(_ context.Context, userID string) ([]model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Account{}
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDB) GetAccount(_ context.Context, userID string, id int64) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.UserID != userID {
		return nil, model.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memDB) CreateAccount(_ context.Context, a *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.next()
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *memDB) UpdateAccount(_ context.Context, a *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *memDB) DeleteAccount(_ context.Context, userID string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accounts, id)
	for tid, t := range m.txs {
		if t.AccountID == id {
			delete(m.txs, tid)
		}
	}
	return nil
}

func (m *memDB) ListTransactions(_ context.Context, userID string, accountID *int64) ([]model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Transaction{}
	for _, t := range m.txs {
		if t.UserID == userID && (accountID == nil || t.AccountID == *accountID) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDB) GetTransaction(_ context.Context, userID string, id int64) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txs[id]
	if !ok || t.UserID != userID {
		return nil, model.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memDB) adjust(userID string, accountID, delta int64) error {
	a, ok := m.accounts[accountID]
	if !ok || a.UserID != userID {
		return model.ErrNotFound
	}
	a.BalanceCents += delta
	return nil
}

func (m *memDB) CreateTransaction(_ context.Context, t *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.adjust(t.UserID, t.AccountID, t.Effect()); err != nil {
		return err
	}
	t.ID = m.next()
	cp := *t
	m.txs[t.ID] = &cp
	return nil
}

func (m *memDB) UpdateTransaction(_ context.Context, t *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.txs[t.ID]
	if !ok || old.UserID != t.UserID {
		return model.ErrNotFound
	}
	if err := m.adjust(t.UserID, old.AccountID, -old.Effect()); err != nil {
		return err
	}
	if err := m.adjust(t.UserID, t.AccountID, t.Effect()); err != nil {
		return err
	}
	cp := *t
	m.txs[t.ID] = &cp
	return nil
}

func (m *memDB) DeleteTransaction(_ context.Context, userID string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.txs[id]
	if !ok || old.UserID != userID {
		return nil
	}
	delete(m.txs, id)
	return m.adjust(userID, old.AccountID, -old.Effect())
}

// profiles

func (m *memDB) UpsertProfile(_ context.Context, u *model.UserProfile) (*model.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.profiles[u.ID]; ok {
		cur.Email = u.Email
		if cur.DisplayName == nil {
			cur.DisplayName = u.DisplayName
		}
		cp := *cur
		return &cp, nil
	}
	cp := *u
	m.profiles[u.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memDB) GetProfile(_ context.Context, userID string) (*model.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.profiles[userID]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memDB) UpdateProfile(_ context.Context, u *model.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.profiles[u.ID] = &cp
	return nil
}

// activity

func (m *memDB) RecordActivity(_ context.Context, a *model.Activity) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.activity {
		if x.EventID == a.EventID {
			return false, nil
		}
	}
	a.ID = m.next()
	m.activity = append(m.activity, *a)
	return true, nil
}

func (m *memDB) ListActivity(_ context.Context, userID string, limit int) ([]model.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Activity{}
	for i := len(m.activity) - 1; i >= 0 && len(out) < limit; i-- {
		if m.activity[i].UserID == userID {
			out = append(out, m.activity[i])
		}
	}
	return out, nil
}
