package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/fitcal/fitcal/internal/telemetry/tracing"
	"github.com/fitcal/fitcal/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrSettingNotFound = errors.New("schedule setting not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Upsert replaces the user's schedule setting wholesale, the user id is
// the conflict key.
func (r *Repo) Upsert(ctx context.Context, setting Setting) (_ *Setting, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.schedule.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	setting.StartDate = pkg.DateOnly(setting.StartDate)
	setting.UpdatedAt = time.Now()

	_, err = r.db.Exec(ctx,
		`INSERT INTO schedule_settings (user_id, program_id, start_date, duration_count, duration_unit, rest_days, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE
			SET program_id = EXCLUDED.program_id,
				start_date = EXCLUDED.start_date,
				duration_count = EXCLUDED.duration_count,
				duration_unit = EXCLUDED.duration_unit,
				rest_days = EXCLUDED.rest_days,
				updated_at = EXCLUDED.updated_at`,
		setting.UserID, setting.ProgramID, setting.StartDate,
		setting.DurationCount, setting.DurationUnit, setting.RestDays,
		setting.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &setting, nil
}

func (r *Repo) Get(ctx context.Context, userID int) (_ *Setting, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.schedule.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var setting Setting
	err = r.db.QueryRow(ctx,
		`SELECT user_id, program_id, start_date, duration_count, duration_unit, rest_days, updated_at
		FROM schedule_settings WHERE user_id = $1`,
		userID,
	).Scan(
		&setting.UserID, &setting.ProgramID, &setting.StartDate,
		&setting.DurationCount, &setting.DurationUnit, &setting.RestDays,
		&setting.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSettingNotFound
		}
		return nil, err
	}

	return &setting, nil
}

func (r *Repo) Delete(ctx context.Context, userID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.schedule.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(ctx,
		`DELETE FROM schedule_settings WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSettingNotFound
	}

	return nil
}
