package workoutlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fitcal/fitcal/internal/telemetry/tracing"
	"github.com/fitcal/fitcal/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrLogNotFound     = errors.New("workout log not found")
	ErrUnknownExercise = errors.New("planned exercise not found")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Upsert saves a log, replacing the previous values for the same
// (user, planned exercise, date) triple if they exist.
func (r *Repo) Upsert(ctx context.Context, log Log) (_ *Log, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workoutlog.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	log.Date = pkg.DateOnly(log.Date)

	rows, err := r.db.Query(ctx,
		`INSERT INTO workout_logs (user_id, program_exercise_id, log_date, sets, reps, weight, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, program_exercise_id, log_date) DO UPDATE
			SET sets = EXCLUDED.sets,
				reps = EXCLUDED.reps,
				weight = EXCLUDED.weight,
				notes = EXCLUDED.notes
		RETURNING id`,
		log.UserID, log.ProgramExerciseID, log.Date,
		log.Sets, log.Reps, log.Weight, log.Notes,
	)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return nil, ErrUnknownExercise
		}
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if rows.Err() != nil && pkg.IsForeignKeyViolationError(rows.Err()) {
			return nil, ErrUnknownExercise
		}
		return nil, errors.New("unexpected error, failed to upsert workout log")
	}
	if err := rows.Scan(&log.ID); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows err: %w", rows.Err())
	}

	return &log, nil
}

// ListForDate returns all logs of a user for one calendar date.
func (r *Repo) ListForDate(ctx context.Context, userID int, date time.Time) (_ []Log, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workoutlog.listForDate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, program_exercise_id, log_date, sets, reps, weight, notes
		FROM workout_logs
		WHERE user_id = $1 AND log_date = $2`,
		userID, pkg.DateOnly(date),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLogs(rows)
}

// ListForExercise returns a user's full log history of one planned
// exercise, newest first.
func (r *Repo) ListForExercise(ctx context.Context, userID, programExerciseID int) (_ []Log, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workoutlog.listForExercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, program_exercise_id, log_date, sets, reps, weight, notes
		FROM workout_logs
		WHERE user_id = $1 AND program_exercise_id = $2
		ORDER BY log_date DESC`,
		userID, programExerciseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLogs(rows)
}

func (r *Repo) Delete(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workoutlog.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(ctx,
		`DELETE FROM workout_logs WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLogNotFound
	}

	return nil
}

// DeleteForExercises removes all logs of the given planned exercises,
// across all users. Runs as the first step of a program or day cascade
// delete, before the exercise rows themselves go.
func (r *Repo) DeleteForExercises(ctx context.Context, programExerciseIDs []int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workoutlog.deleteForExercises")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if len(programExerciseIDs) == 0 {
		return nil
	}

	_, err = r.db.Exec(ctx,
		`DELETE FROM workout_logs WHERE program_exercise_id = ANY($1)`,
		programExerciseIDs,
	)
	return err
}

func scanLogs(rows pgx.Rows) ([]Log, error) {
	var logs []Log
	for rows.Next() {
		var l Log
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.ProgramExerciseID, &l.Date,
			&l.Sets, &l.Reps, &l.Weight, &l.Notes,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		logs = append(logs, l)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows err: %w", rows.Err())
	}
	return logs, nil
}
