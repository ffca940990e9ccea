package programs

import (
	"context"
	"fmt"
	"sync"

	"github.com/fitcal/fitcal/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
)

type programsRepo interface {
	AddProgram(ctx context.Context, program Program) (*Program, error)
	GetProgram(ctx context.Context, userID, id int) (*Program, error)
	ListPrograms(ctx context.Context, userID int) ([]Program, error)
	UpdateProgram(ctx context.Context, program *Program) error
	DeleteProgram(ctx context.Context, userID, id int) error
	AddDay(ctx context.Context, day Day) (*Day, error)
	GetDay(ctx context.Context, id int) (*Day, int, error)
	ListDays(ctx context.Context, programID int) ([]Day, error)
	UpdateDay(ctx context.Context, day *Day) error
	DeleteDay(ctx context.Context, id int) error
	AddExercise(ctx context.Context, exercise PlannedExercise) (*PlannedExercise, error)
	GetExercise(ctx context.Context, id int) (*PlannedExercise, int, error)
	ListExercises(ctx context.Context, dayID int) ([]PlannedExercise, error)
	UpdateExercise(ctx context.Context, exercise *PlannedExercise) error
	DeleteExercise(ctx context.Context, id int) error
	DeleteExercisesForDay(ctx context.Context, dayID int) error
}

// logsPurger removes persisted workout logs of planned exercises that
// are about to be deleted. A nil purger skips the step.
type logsPurger interface {
	DeleteForExercises(ctx context.Context, programExerciseIDs []int) error
}

type Service struct {
	repo programsRepo
	logs logsPurger

	// fired after every successful program write, set via SetMutationHook
	mutated func(ctx context.Context, userID int)
}

func NewService(repo programsRepo, logs logsPurger) *Service {
	return &Service{
		repo: repo,
		logs: logs,
	}
}

// SetMutationHook registers a callback invoked after every successful
// write on a user's programs, days or planned exercises. The schedule
// cache hangs off of it.
func (s *Service) SetMutationHook(hook func(ctx context.Context, userID int)) {
	s.mutated = hook
}

func (s *Service) notifyMutation(ctx context.Context, userID int) {
	if s.mutated != nil {
		s.mutated(ctx, userID)
	}
}

func (s *Service) purgeLogs(ctx context.Context, exercises []PlannedExercise) error {
	if s.logs == nil || len(exercises) == 0 {
		return nil
	}
	ids := make([]int, 0, len(exercises))
	for _, exercise := range exercises {
		ids = append(ids, exercise.ID)
	}
	return s.logs.DeleteForExercises(ctx, ids)
}

// ProgramDetail assembles a program with its days and, per day, the planned
// exercises joined with library metadata. The per-day exercise fetches run
// concurrently, each result lands in its own day slot.
func (s *Service) ProgramDetail(ctx context.Context, userID, programID int) (_ *Program, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.programs.detail")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("program.id", programID))

	program, err := s.repo.GetProgram(ctx, userID, programID)
	if err != nil {
		return nil, err
	}

	days, err := s.repo.ListDays(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}

	var wg sync.WaitGroup
	fetchErrs := make([]error, len(days))
	for i := range days {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			exercises, exErr := s.repo.ListExercises(ctx, days[i].ID)
			if exErr != nil {
				fetchErrs[i] = fmt.Errorf("list exercises for day %d: %w", days[i].ID, exErr)
				return
			}
			days[i].Exercises = exercises
		}(i)
	}
	wg.Wait()

	if err := multierr.Combine(fetchErrs...); err != nil {
		return nil, err
	}

	program.Days = days
	return program, nil
}

// ProgramsWithDays lists all programs of a user with fully assembled days.
func (s *Service) ProgramsWithDays(ctx context.Context, userID int) (_ []Program, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.programs.listWithDays")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	programs, err := s.repo.ListPrograms(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range programs {
		detail, err := s.ProgramDetail(ctx, userID, programs[i].ID)
		if err != nil {
			return nil, fmt.Errorf("program %d detail: %w", programs[i].ID, err)
		}
		programs[i] = *detail
	}

	return programs, nil
}

// AddDay appends a day at the end of the program cycle unless an explicit
// ordinal position was given.
func (s *Service) AddDay(ctx context.Context, userID int, day Day) (_ *Day, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.programs.addDay")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if _, err := s.repo.GetProgram(ctx, userID, day.ProgramID); err != nil {
		return nil, err
	}

	if day.Order <= 0 {
		days, err := s.repo.ListDays(ctx, day.ProgramID)
		if err != nil {
			return nil, fmt.Errorf("list days: %w", err)
		}
		day.Order = len(days) + 1
	}

	added, err := s.repo.AddDay(ctx, day)
	if err != nil {
		return nil, err
	}

	s.notifyMutation(ctx, userID)
	return added, nil
}

// CascadeDeleteDay removes a day and its planned exercises: workout
// logs first, then the exercises, then the day, fail-fast on the first
// failed step. The remaining days keep their cycle order compacted
// afterwards.
func (s *Service) CascadeDeleteDay(ctx context.Context, userID, dayID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.programs.cascadeDeleteDay")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("day.id", dayID))

	day, ownerID, err := s.repo.GetDay(ctx, dayID)
	if err != nil {
		return err
	}
	if ownerID != userID {
		return ErrDayNotFound
	}

	exercises, err := s.repo.ListExercises(ctx, dayID)
	if err != nil {
		return fmt.Errorf("list exercises for day %d: %w", dayID, err)
	}
	if err := s.purgeLogs(ctx, exercises); err != nil {
		return fmt.Errorf("purge logs for day %d: %w", dayID, err)
	}

	if err := s.repo.DeleteExercisesForDay(ctx, dayID); err != nil {
		return fmt.Errorf("delete exercises for day %d: %w", dayID, err)
	}
	if err := s.repo.DeleteDay(ctx, dayID); err != nil {
		// exercises are already gone, the day row remains - there is no
		// wrapping transaction here, so log the inconsistency loudly
		log.Warnf("cascade delete day %d: exercises removed but day delete failed: %s", dayID, err)
		return fmt.Errorf("delete day %d: %w", dayID, err)
	}

	if err := s.compactDayOrder(ctx, day.ProgramID); err != nil {
		return err
	}

	s.notifyMutation(ctx, userID)
	return nil
}

// CascadeDeleteProgram deletes a program the way the schema expects it:
// workout logs of every planned exercise, then the exercises per day,
// then the days, then the program itself. Fail-fast: the first failed
// step aborts and surfaces the error, already deleted children stay
// deleted.
func (s *Service) CascadeDeleteProgram(ctx context.Context, userID, programID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.programs.cascadeDeleteProgram")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("program.id", programID))

	if _, err := s.repo.GetProgram(ctx, userID, programID); err != nil {
		return err
	}

	days, err := s.repo.ListDays(ctx, programID)
	if err != nil {
		return fmt.Errorf("list days: %w", err)
	}

	for _, day := range days {
		exercises, err := s.repo.ListExercises(ctx, day.ID)
		if err != nil {
			return fmt.Errorf("list exercises for day %d: %w", day.ID, err)
		}
		if err := s.purgeLogs(ctx, exercises); err != nil {
			return fmt.Errorf("purge logs for day %d: %w", day.ID, err)
		}
	}
	for _, day := range days {
		if err := s.repo.DeleteExercisesForDay(ctx, day.ID); err != nil {
			log.Warnf("cascade delete program %d aborted mid-way at day %d exercises: %s", programID, day.ID, err)
			return fmt.Errorf("delete exercises for day %d: %w", day.ID, err)
		}
	}
	for _, day := range days {
		if err := s.repo.DeleteDay(ctx, day.ID); err != nil {
			log.Warnf("cascade delete program %d aborted mid-way at day %d: %s", programID, day.ID, err)
			return fmt.Errorf("delete day %d: %w", day.ID, err)
		}
	}

	if err := s.repo.DeleteProgram(ctx, userID, programID); err != nil {
		return err
	}

	s.notifyMutation(ctx, userID)
	return nil
}

// CascadeDeleteExercise removes a planned exercise together with its
// persisted workout logs.
func (s *Service) CascadeDeleteExercise(ctx context.Context, userID, exerciseID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.programs.cascadeDeleteExercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("exercise.id", exerciseID))

	exercise, ownerID, err := s.repo.GetExercise(ctx, exerciseID)
	if err != nil {
		return err
	}
	if ownerID != userID {
		return ErrExerciseNotFound
	}

	if err := s.purgeLogs(ctx, []PlannedExercise{*exercise}); err != nil {
		return fmt.Errorf("purge logs for exercise %d: %w", exerciseID, err)
	}
	if err := s.repo.DeleteExercise(ctx, exerciseID); err != nil {
		return fmt.Errorf("delete exercise %d: %w", exerciseID, err)
	}

	s.notifyMutation(ctx, userID)
	return nil
}

// compactDayOrder renumbers the remaining days of a program to 1..N,
// keeping their relative order.
func (s *Service) compactDayOrder(ctx context.Context, programID int) error {
	days, err := s.repo.ListDays(ctx, programID)
	if err != nil {
		return fmt.Errorf("list days: %w", err)
	}

	for i := range days {
		wantOrder := i + 1
		if days[i].Order == wantOrder {
			continue
		}
		days[i].Order = wantOrder
		if err := s.repo.UpdateDay(ctx, &days[i]); err != nil {
			return fmt.Errorf("update day %d order: %w", days[i].ID, err)
		}
	}

	return nil
}
