package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/fitcal/fitcal/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrExerciseNotFound = errors.New("exercise not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Upsert inserts a catalog exercise, or refreshes body part and media
// link when an exercise with the same name already exists. Used by the
// CSV importer so re-imports stay idempotent.
func (r *Repo) Upsert(ctx context.Context, exercise Exercise) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.library.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx,
		`INSERT INTO exercise_library (name, body_part, media_url)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
			SET body_part = EXCLUDED.body_part, media_url = EXCLUDED.media_url
		RETURNING id`,
		exercise.Name, exercise.BodyPart, exercise.MediaURL,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, errors.New("unexpected error, failed to insert library exercise")
	}
	if err := rows.Scan(&exercise.ID); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows err: %w", rows.Err())
	}

	return &exercise, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.library.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var exercise Exercise
	err = r.db.QueryRow(ctx,
		`SELECT id, name, body_part, media_url FROM exercise_library WHERE id = $1`,
		id,
	).Scan(&exercise.ID, &exercise.Name, &exercise.BodyPart, &exercise.MediaURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}

	return &exercise, nil
}

// List returns catalog exercises sorted by name, optionally narrowed
// down to one body part.
func (r *Repo) List(ctx context.Context, bodyPart string) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.library.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	query := `SELECT id, name, body_part, media_url FROM exercise_library`
	args := make([]interface{}, 0, 1)
	if bodyPart != "" {
		query += ` WHERE body_part = $1`
		args = append(args, bodyPart)
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exercises []Exercise
	for rows.Next() {
		var exercise Exercise
		if err := rows.Scan(
			&exercise.ID, &exercise.Name, &exercise.BodyPart, &exercise.MediaURL,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		exercises = append(exercises, exercise)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows err: %w", rows.Err())
	}

	return exercises, nil
}

// BodyParts returns the distinct body parts present in the catalog.
func (r *Repo) BodyParts(ctx context.Context) (_ []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.library.bodyParts")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT body_part FROM exercise_library ORDER BY body_part`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bodyParts []string
	for rows.Next() {
		var bodyPart string
		if err := rows.Scan(&bodyPart); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		bodyParts = append(bodyParts, bodyPart)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows err: %w", rows.Err())
	}

	return bodyParts, nil
}
