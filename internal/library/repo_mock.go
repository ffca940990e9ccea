package library

import (
	"context"
	"sort"
	"sync"
)

// RepoMock is an in-memory libraryRepo for tests.
type RepoMock struct {
	mu        sync.Mutex
	nextID    int
	exercises map[int]*Exercise

	// counts repo reads so cache hits can be asserted
	GetCalls  int
	ListCalls int
}

func NewRepoMock() *RepoMock {
	return &RepoMock{
		exercises: make(map[int]*Exercise),
	}
}

func (r *RepoMock) Upsert(_ context.Context, exercise Exercise) (*Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.exercises {
		if e.Name == exercise.Name {
			e.BodyPart = exercise.BodyPart
			e.MediaURL = exercise.MediaURL
			updated := *e
			return &updated, nil
		}
	}
	r.nextID++
	exercise.ID = r.nextID
	r.exercises[exercise.ID] = &exercise
	return &exercise, nil
}

func (r *RepoMock) Get(_ context.Context, id int) (*Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.GetCalls++
	exercise, ok := r.exercises[id]
	if !ok {
		return nil, ErrExerciseNotFound
	}
	e := *exercise
	return &e, nil
}

func (r *RepoMock) List(_ context.Context, bodyPart string) ([]Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ListCalls++
	var exercises []Exercise
	for _, e := range r.exercises {
		if bodyPart == "" || e.BodyPart == bodyPart {
			exercises = append(exercises, *e)
		}
	}
	sort.Slice(exercises, func(i, j int) bool {
		return exercises[i].Name < exercises[j].Name
	})
	return exercises, nil
}

func (r *RepoMock) BodyParts(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]struct{})
	var bodyParts []string
	for _, e := range r.exercises {
		if _, ok := seen[e.BodyPart]; ok {
			continue
		}
		seen[e.BodyPart] = struct{}{}
		bodyParts = append(bodyParts, e.BodyPart)
	}
	sort.Strings(bodyParts)
	return bodyParts, nil
}
