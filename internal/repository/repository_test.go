package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"lifeboard/internal/model"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(pgx.ErrNoRows), model.ErrNotFound)
	assert.ErrorIs(t, translate(fmt.Errorf("scan: %w", pgx.ErrNoRows)), model.ErrNotFound)

	dup := translate(&pgconn.PgError{Code: "23505", ConstraintName: "habit_entries_habit_id_date_key"})
	assert.ErrorIs(t, dup, model.ErrConflict)
	assert.Contains(t, dup.Error(), "habit_entries_habit_id_date_key")

	assert.ErrorIs(t, translate(&pgconn.PgError{Code: "23503"}), model.ErrNotFound)

	other := errors.New("boom")
	assert.Equal(t, other, translate(other))
}

func TestDateHelpers(t *testing.T) {
	d := civil.Date{Year: 2024, Month: time.February, Day: 29}

	arg := dateArg(d)
	assert.Equal(t, time.UTC, arg.Location())
	assert.Equal(t, d, dateOf(arg))

	assert.Nil(t, nullDateArg(nil))
	assert.Nil(t, nullDateOf(nil))
	back := nullDateOf(nullDateArg(&d))
	if assert.NotNil(t, back) {
		assert.Equal(t, d, *back)
	}
}

func TestToggledPayload(t *testing.T) {
	e := &model.HabitEntry{ID: 4, HabitID: 2, Date: civil.Date{Year: 2024, Month: time.January, Day: 15}}

	p := toggled(e, "created")
	assert.Equal(t, "2024-01-15", p.Date)
	if assert.NotNil(t, p.EntryID) {
		assert.Equal(t, int64(4), *p.EntryID)
	}
	assert.Nil(t, toggled(e, "deleted").EntryID)
}
