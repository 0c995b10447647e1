// Package repository stores the app's records in PostgreSQL through pgx.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	contractsmq "lifeboard/contracts/mq"
	"lifeboard/internal/model"
	"lifeboard/pkg/outbox"
)

// translate maps driver errors onto the model sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", model.ErrConflict, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%w: %s", model.ErrNotFound, pgErr.ConstraintName)
		}
	}
	return err
}

// emit writes an enveloped event into the outbox within tx.
func emit(ctx context.Context, tx pgx.Tx, aggregate string, id int64, routingKey, userID string, data any) error {
	env, err := contractsmq.NewEnvelope(ctx, routingKey, userID, data)
	if err != nil {
		return err
	}
	_, err = outbox.Enqueue(ctx, tx, aggregate, id, routingKey, env)
	return err
}

// pgx has no codec for civil.Date; DATE columns go through time.Time at midnight UTC.

func dateArg(d civil.Date) time.Time {
	return d.In(time.UTC)
}

func nullDateArg(d *civil.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.In(time.UTC)
	return &t
}

func dateOf(t time.Time) civil.Date {
	return civil.DateOf(t)
}

func nullDateOf(t *time.Time) *civil.Date {
	if t == nil {
		return nil
	}
	d := civil.DateOf(*t)
	return &d
}
