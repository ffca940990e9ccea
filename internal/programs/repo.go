package programs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fitcal/fitcal/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrProgramNotFound  = errors.New("program not found")
	ErrDayNotFound      = errors.New("day not found")
	ErrExerciseNotFound = errors.New("planned exercise not found")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) AddProgram(ctx context.Context, program Program) (_ *Program, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	now := time.Now()
	program.CreatedAt = now
	program.UpdatedAt = now

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO programs (user_id, name, description, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
		RETURNING id;`,
		program.UserID, program.Name, program.Description, program.CreatedAt, program.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	var id int
	if err := rows.Scan(&id); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	span.SetAttributes(attribute.Int("program.id", id))

	program.ID = id
	return &program, nil
}

func (r *Repo) GetProgram(ctx context.Context, userID, id int) (_ *Program, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	var p Program
	err = r.db.QueryRow(
		ctx,
		`SELECT id, user_id, name, description, created_at, updated_at
			FROM programs
			WHERE id = $1 AND user_id = $2;`,
		id, userID,
	).Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *Repo) ListPrograms(ctx context.Context, userID int) (_ []Program, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, name, description, created_at, updated_at
			FROM programs
			WHERE user_id = $1
			ORDER BY created_at DESC;`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	programs := make([]Program, 0)
	for rows.Next() {
		var p Program
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}

	return programs, nil
}

func (r *Repo) UpdateProgram(ctx context.Context, program *Program) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", program.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE programs SET name = $1, description = $2, updated_at = $3
			WHERE id = $4 AND user_id = $5;`,
		program.Name, program.Description, time.Now(), program.ID, program.UserID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrProgramNotFound
	}

	return nil
}

// DeleteProgram removes the program row only. Its days and planned
// exercises must be removed first, see CascadeDeleteProgram on the service.
func (r *Repo) DeleteProgram(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM programs WHERE id = $1 AND user_id = $2;`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProgramNotFound
	}
	return nil
}

func (r *Repo) AddDay(ctx context.Context, day Day) (_ *Day, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.days.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("program.id", day.ProgramID))

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO program_days (program_id, day_name, "order") VALUES ($1, $2, $3) RETURNING id;`,
		day.ProgramID, day.Name, day.Order,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	if err := rows.Scan(&day.ID); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	return &day, nil
}

// GetDay returns the day together with the owning user of its program,
// so callers can enforce ownership.
func (r *Repo) GetDay(ctx context.Context, id int) (_ *Day, ownerID int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.days.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	var d Day
	err = r.db.QueryRow(
		ctx,
		`SELECT d.id, d.program_id, d.day_name, d."order", p.user_id
			FROM program_days d
			JOIN programs p ON d.program_id = p.id
			WHERE d.id = $1;`,
		id,
	).Scan(&d.ID, &d.ProgramID, &d.Name, &d.Order, &ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrDayNotFound
		}
		return nil, 0, err
	}

	return &d, ownerID, nil
}

func (r *Repo) ListDays(ctx context.Context, programID int) (_ []Day, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.days.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("program.id", programID))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, program_id, day_name, "order"
			FROM program_days
			WHERE program_id = $1
			ORDER BY "order" ASC;`,
		programID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	days := make([]Day, 0)
	for rows.Next() {
		var d Day
		if err := rows.Scan(&d.ID, &d.ProgramID, &d.Name, &d.Order); err != nil {
			return nil, err
		}
		days = append(days, d)
	}

	return days, nil
}

func (r *Repo) UpdateDay(ctx context.Context, day *Day) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.days.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", day.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE program_days SET day_name = $1, "order" = $2 WHERE id = $3;`,
		day.Name, day.Order, day.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDayNotFound
	}
	return nil
}

func (r *Repo) DeleteDay(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.days.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM program_days WHERE id = $1;`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDayNotFound
	}
	return nil
}

func (r *Repo) AddExercise(ctx context.Context, exercise PlannedExercise) (_ *PlannedExercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.exercises.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("day.id", exercise.DayID))

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO program_exercises (day_id, library_id, sets, reps, weight, notes, "order")
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id;`,
		exercise.DayID, exercise.LibraryID,
		exercise.Sets, exercise.Reps, exercise.Weight,
		exercise.Notes, exercise.Order,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	if err := rows.Scan(&exercise.ID); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	return &exercise, nil
}

// GetExercise returns the planned exercise together with the owning user,
// resolved through day -> program.
func (r *Repo) GetExercise(ctx context.Context, id int) (_ *PlannedExercise, ownerID int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.exercises.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	var e PlannedExercise
	err = r.db.QueryRow(
		ctx,
		`SELECT e.id, e.day_id, e.library_id, e.sets, e.reps, e.weight, e.notes, e."order",
				l.name, l.body_part, l.media_url, p.user_id
			FROM program_exercises e
			JOIN exercise_library l ON e.library_id = l.id
			JOIN program_days d ON e.day_id = d.id
			JOIN programs p ON d.program_id = p.id
			WHERE e.id = $1;`,
		id,
	).Scan(
		&e.ID, &e.DayID, &e.LibraryID, &e.Sets, &e.Reps, &e.Weight, &e.Notes, &e.Order,
		&e.Name, &e.BodyPart, &e.MediaURL, &ownerID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrExerciseNotFound
		}
		return nil, 0, err
	}

	return &e, ownerID, nil
}

// ListExercises returns the planned exercises of a day in ordinal order,
// joined with the library metadata (name, body part, media).
func (r *Repo) ListExercises(ctx context.Context, dayID int) (_ []PlannedExercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.exercises.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("day.id", dayID))

	rows, err := r.db.Query(
		ctx,
		`SELECT e.id, e.day_id, e.library_id, e.sets, e.reps, e.weight, e.notes, e."order",
				l.name, l.body_part, l.media_url
			FROM program_exercises e
			JOIN exercise_library l ON e.library_id = l.id
			WHERE e.day_id = $1
			ORDER BY e."order" ASC;`,
		dayID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	exercises := make([]PlannedExercise, 0)
	for rows.Next() {
		var e PlannedExercise
		if err := rows.Scan(
			&e.ID, &e.DayID, &e.LibraryID, &e.Sets, &e.Reps, &e.Weight, &e.Notes, &e.Order,
			&e.Name, &e.BodyPart, &e.MediaURL,
		); err != nil {
			return nil, err
		}
		exercises = append(exercises, e)
	}

	return exercises, nil
}

func (r *Repo) UpdateExercise(ctx context.Context, exercise *PlannedExercise) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.exercises.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", exercise.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE program_exercises
			SET library_id = $1, sets = $2, reps = $3, weight = $4, notes = $5, "order" = $6
			WHERE id = $7;`,
		exercise.LibraryID, exercise.Sets, exercise.Reps, exercise.Weight,
		exercise.Notes, exercise.Order, exercise.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExerciseNotFound
	}
	return nil
}

func (r *Repo) DeleteExercise(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.exercises.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM program_exercises WHERE id = $1;`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExerciseNotFound
	}
	return nil
}

// DeleteExercisesForDay removes all planned exercises of a day,
// the first step of the day / program cascade.
func (r *Repo) DeleteExercisesForDay(ctx context.Context, dayID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.exercises.deleteForDay")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("day.id", dayID))

	_, err = r.db.Exec(
		ctx,
		`DELETE FROM program_exercises WHERE day_id = $1;`,
		dayID,
	)
	return err
}
