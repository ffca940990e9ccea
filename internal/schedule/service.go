package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fitcal/fitcal/internal/programs"
	"github.com/fitcal/fitcal/internal/telemetry/metrics"
	"github.com/fitcal/fitcal/internal/telemetry/tracing"
	"github.com/fitcal/fitcal/pkg"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	mappingCacheKeyPrefix = "fitcal-schedule||"
	mappingCacheTTL       = time.Hour
)

var ErrShiftDateInFuture = errors.New("future dates cannot be skipped")

type settingsRepo interface {
	Upsert(ctx context.Context, setting Setting) (*Setting, error)
	Get(ctx context.Context, userID int) (*Setting, error)
	Delete(ctx context.Context, userID int) error
}

type programsService interface {
	ProgramDetail(ctx context.Context, userID, programID int) (*programs.Program, error)
}

// Service owns the per-user schedule: the stored setting, the generated
// date mapping and its redis cache. The mapping is always produced by a
// full regeneration, there are no incremental updates.
type Service struct {
	repo           settingsRepo
	programs       programsService
	redisClient    *redis.Client
	metricsManager *metrics.Manager

	// replaced in tests
	NowFunc func() time.Time
}

func NewService(
	repo settingsRepo,
	programsService programsService,
	redisClient *redis.Client,
	metricsManager *metrics.Manager,
) *Service {
	return &Service{
		repo:           repo,
		programs:       programsService,
		redisClient:    redisClient,
		metricsManager: metricsManager,
		NowFunc:        time.Now,
	}
}

// Set replaces the user's schedule setting and drops the cached
// mapping. The referenced program must exist and belong to the user.
func (s *Service) Set(ctx context.Context, setting Setting) (_ *Setting, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.schedule.set")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := setting.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.programs.ProgramDetail(ctx, setting.UserID, setting.ProgramID); err != nil {
		return nil, err
	}

	saved, err := s.repo.Upsert(ctx, setting)
	if err != nil {
		return nil, err
	}

	s.DropCachedMapping(ctx, setting.UserID)
	return saved, nil
}

func (s *Service) Get(ctx context.Context, userID int) (*Setting, error) {
	return s.repo.Get(ctx, userID)
}

// Clear removes the user's schedule setting and the cached mapping.
func (s *Service) Clear(ctx context.Context, userID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.schedule.clear")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}

	s.DropCachedMapping(ctx, userID)
	return nil
}

// Mapping returns the user's generated schedule, from the redis cache
// when fresh, regenerated from the stored setting otherwise.
func (s *Service) Mapping(ctx context.Context, userID int) (_ map[string]Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.schedule.mapping")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	cacheKey := mappingCacheKey(userID)
	if mappingBytes, err := s.redisClient.Get(ctx, cacheKey).Bytes(); err == nil {
		var mapping map[string]Entry
		if err = json.Unmarshal(mappingBytes, &mapping); err == nil {
			log.Tracef("schedule mapping for user %d served from cache", userID)
			return mapping, nil
		}
		log.Errorf("failed to unmarshal cached schedule mapping for user %d: %s", userID, err)
	}

	setting, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	mapping, err := s.generate(ctx, *setting)
	if err != nil {
		return nil, err
	}

	if mappingBytes, err := json.Marshal(mapping); err == nil {
		if err := s.redisClient.Set(ctx, cacheKey, mappingBytes, mappingCacheTTL).Err(); err != nil {
			log.Errorf("failed to cache schedule mapping for user %d: %s", userID, err)
		}
	}

	return mapping, nil
}

// ResolveDate answers what the given date holds for the user: a
// workout day with its exercises, a rest day, or nothing.
func (s *Service) ResolveDate(ctx context.Context, userID int, date time.Time) (_ Resolution, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.schedule.resolveDate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	setting, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSettingNotFound) {
			return Resolution{Kind: DayKindUnscheduled}, nil
		}
		return Resolution{}, err
	}

	program, err := s.programs.ProgramDetail(ctx, userID, setting.ProgramID)
	if err != nil {
		return Resolution{}, fmt.Errorf("program %d detail: %w", setting.ProgramID, err)
	}

	mapping, err := s.Mapping(ctx, userID)
	if err != nil {
		return Resolution{}, err
	}

	dateKey := pkg.DateOnly(date).Format(time.DateOnly)
	return Resolve(dateKey, mapping, program.Days), nil
}

// Shift pushes the whole schedule forward by exactly one calendar day:
// the start date is incremented, nothing else changes, and the mapping
// is fully regenerated. Only dates up to today can be skipped.
func (s *Service) Shift(ctx context.Context, userID int, missedDate time.Time) (_ *Setting, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.schedule.shift")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	today := pkg.DateOnly(s.NowFunc())
	if pkg.DateOnly(missedDate).After(today) {
		return nil, ErrShiftDateInFuture
	}

	setting, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	setting.StartDate = pkg.DateOnly(setting.StartDate).AddDate(0, 0, 1)
	saved, err := s.repo.Upsert(ctx, *setting)
	if err != nil {
		return nil, err
	}

	s.DropCachedMapping(ctx, userID)
	return saved, nil
}

func (s *Service) generate(ctx context.Context, setting Setting) (map[string]Entry, error) {
	program, err := s.programs.ProgramDetail(ctx, setting.UserID, setting.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("program %d detail: %w", setting.ProgramID, err)
	}

	mapping, err := Generate(
		program.Days, setting.StartDate,
		setting.DurationCount, setting.DurationUnit, setting.RestDays,
	)
	if err != nil {
		return nil, err
	}

	s.metricsManager.CounterSchedulesGenerated.Inc()
	return mapping, nil
}

// DropCachedMapping invalidates the cached schedule mapping of a user.
// Called locally after setting writes and hooked into the programs
// service so day and exercise edits never serve a stale mapping.
func (s *Service) DropCachedMapping(ctx context.Context, userID int) {
	if err := s.redisClient.Del(ctx, mappingCacheKey(userID)).Err(); err != nil {
		log.Errorf("failed to drop cached schedule mapping for user %d: %s", userID, err)
	}
}

func mappingCacheKey(userID int) string {
	return fmt.Sprintf("%s%d", mappingCacheKeyPrefix, userID)
}
