package library

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fitcal/fitcal/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	oneMinute          = 60
	libraryCacheExpire = oneMinute * 10
)

type libraryRepo interface {
	Upsert(ctx context.Context, exercise Exercise) (*Exercise, error)
	Get(ctx context.Context, id int) (*Exercise, error)
	List(ctx context.Context, bodyPart string) ([]Exercise, error)
	BodyParts(ctx context.Context) ([]string, error)
}

// Service caches catalog reads in-process. The catalog changes only on
// imports, so short lived cached lists are good enough.
type Service struct {
	repo  libraryRepo
	cache *freecache.Cache
}

func NewService(repo libraryRepo) *Service {
	megabyte := 1024 * 1024
	cacheSize := 10 * megabyte
	return &Service{
		repo:  repo,
		cache: freecache.NewCache(cacheSize),
	}
}

func (s *Service) Get(ctx context.Context, id int) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.library.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	cacheKey := fmt.Sprintf("exercise::%d", id)
	if exerciseBytes, err := s.cache.Get([]byte(cacheKey)); err == nil {
		var exercise Exercise
		if err = json.Unmarshal(exerciseBytes, &exercise); err == nil {
			return &exercise, nil
		}
		log.Errorf("failed to unmarshal cached library exercise %d: %s", id, err)
	}

	exercise, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	exerciseBytes, err := json.Marshal(exercise)
	if err == nil {
		if err := s.cache.Set([]byte(cacheKey), exerciseBytes, libraryCacheExpire); err != nil {
			log.Errorf("failed to cache library exercise %d: %s", id, err)
		}
	}

	return exercise, nil
}

func (s *Service) List(ctx context.Context, bodyPart string) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.library.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	cacheKey := "list::" + bodyPart
	if listBytes, err := s.cache.Get([]byte(cacheKey)); err == nil {
		var exercises []Exercise
		if err = json.Unmarshal(listBytes, &exercises); err == nil {
			log.Tracef("library list [%s] served from cache", bodyPart)
			return exercises, nil
		}
		log.Errorf("failed to unmarshal cached library list: %s", err)
	}

	exercises, err := s.repo.List(ctx, bodyPart)
	if err != nil {
		return nil, err
	}

	listBytes, err := json.Marshal(exercises)
	if err == nil {
		if err := s.cache.Set([]byte(cacheKey), listBytes, libraryCacheExpire); err != nil {
			log.Errorf("failed to cache library list [%s]: %s", bodyPart, err)
		}
	}

	return exercises, nil
}

func (s *Service) BodyParts(ctx context.Context) ([]string, error) {
	return s.repo.BodyParts(ctx)
}

// Import upserts the given catalog entries and drops the read cache.
func (s *Service) Import(ctx context.Context, exercises []Exercise) (imported int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.library.import")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	for _, exercise := range exercises {
		if _, err := s.repo.Upsert(ctx, exercise); err != nil {
			return imported, fmt.Errorf("upsert exercise [%s]: %w", exercise.Name, err)
		}
		imported++
	}

	s.cache.Clear()
	return imported, nil
}
