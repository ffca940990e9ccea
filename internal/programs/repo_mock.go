package programs

import (
	"context"
	"sort"
	"sync"
	"time"
)

// RepoMock is an in-memory programsRepo used in tests, here and in the
// packages building on top of programs.
type RepoMock struct {
	mu        sync.Mutex
	nextID    int
	programs  map[int]*Program
	days      map[int]*Day
	exercises map[int]*PlannedExercise
}

func NewRepoMock() *RepoMock {
	return &RepoMock{
		programs:  make(map[int]*Program),
		days:      make(map[int]*Day),
		exercises: make(map[int]*PlannedExercise),
	}
}

func (r *RepoMock) id() int {
	r.nextID++
	return r.nextID
}

func (r *RepoMock) AddProgram(_ context.Context, program Program) (*Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	program.ID = r.id()
	now := time.Now()
	program.CreatedAt = now
	program.UpdatedAt = now
	r.programs[program.ID] = &program
	return &program, nil
}

func (r *RepoMock) GetProgram(_ context.Context, userID, id int) (*Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	program, ok := r.programs[id]
	if !ok || program.UserID != userID {
		return nil, ErrProgramNotFound
	}
	p := *program
	return &p, nil
}

func (r *RepoMock) ListPrograms(_ context.Context, userID int) ([]Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var programs []Program
	for _, p := range r.programs {
		if p.UserID == userID {
			programs = append(programs, *p)
		}
	}
	sort.Slice(programs, func(i, j int) bool {
		return programs[i].ID < programs[j].ID
	})
	return programs, nil
}

func (r *RepoMock) UpdateProgram(_ context.Context, program *Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.programs[program.ID]
	if !ok || existing.UserID != program.UserID {
		return ErrProgramNotFound
	}
	program.CreatedAt = existing.CreatedAt
	program.UpdatedAt = time.Now()
	p := *program
	r.programs[program.ID] = &p
	return nil
}

func (r *RepoMock) DeleteProgram(_ context.Context, userID, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	program, ok := r.programs[id]
	if !ok || program.UserID != userID {
		return ErrProgramNotFound
	}
	delete(r.programs, id)
	return nil
}

func (r *RepoMock) AddDay(_ context.Context, day Day) (*Day, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	day.ID = r.id()
	r.days[day.ID] = &day
	return &day, nil
}

func (r *RepoMock) GetDay(_ context.Context, id int) (*Day, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	day, ok := r.days[id]
	if !ok {
		return nil, 0, ErrDayNotFound
	}
	program, ok := r.programs[day.ProgramID]
	if !ok {
		return nil, 0, ErrDayNotFound
	}
	d := *day
	return &d, program.UserID, nil
}

func (r *RepoMock) ListDays(_ context.Context, programID int) ([]Day, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var days []Day
	for _, d := range r.days {
		if d.ProgramID == programID {
			days = append(days, *d)
		}
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Order < days[j].Order
	})
	return days, nil
}

func (r *RepoMock) UpdateDay(_ context.Context, day *Day) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.days[day.ID]; !ok {
		return ErrDayNotFound
	}
	d := *day
	d.Exercises = nil
	r.days[day.ID] = &d
	return nil
}

func (r *RepoMock) DeleteDay(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.days[id]; !ok {
		return ErrDayNotFound
	}
	delete(r.days, id)
	return nil
}

func (r *RepoMock) AddExercise(_ context.Context, exercise PlannedExercise) (*PlannedExercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exercise.ID = r.id()
	r.exercises[exercise.ID] = &exercise
	return &exercise, nil
}

func (r *RepoMock) GetExercise(_ context.Context, id int) (*PlannedExercise, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exercise, ok := r.exercises[id]
	if !ok {
		return nil, 0, ErrExerciseNotFound
	}
	day, ok := r.days[exercise.DayID]
	if !ok {
		return nil, 0, ErrExerciseNotFound
	}
	program, ok := r.programs[day.ProgramID]
	if !ok {
		return nil, 0, ErrExerciseNotFound
	}
	e := *exercise
	return &e, program.UserID, nil
}

func (r *RepoMock) ListExercises(_ context.Context, dayID int) ([]PlannedExercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var exercises []PlannedExercise
	for _, e := range r.exercises {
		if e.DayID == dayID {
			exercises = append(exercises, *e)
		}
	}
	sort.Slice(exercises, func(i, j int) bool {
		return exercises[i].Order < exercises[j].Order
	})
	return exercises, nil
}

func (r *RepoMock) UpdateExercise(_ context.Context, exercise *PlannedExercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.exercises[exercise.ID]; !ok {
		return ErrExerciseNotFound
	}
	e := *exercise
	r.exercises[exercise.ID] = &e
	return nil
}

func (r *RepoMock) DeleteExercise(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.exercises[id]; !ok {
		return ErrExerciseNotFound
	}
	delete(r.exercises, id)
	return nil
}

func (r *RepoMock) DeleteExercisesForDay(_ context.Context, dayID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.exercises {
		if e.DayID == dayID {
			delete(r.exercises, id)
		}
	}
	return nil
}
