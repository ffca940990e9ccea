package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fitcal/fitcal/internal/auth"
	"github.com/fitcal/fitcal/internal/programs"
	"github.com/fitcal/fitcal/internal/telemetry/tracing"
	"github.com/fitcal/fitcal/internal/workoutlog"
	"github.com/fitcal/fitcal/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type logsProvider interface {
	ListForDate(ctx context.Context, userID int, date time.Time) ([]workoutlog.Log, error)
}

type Handler struct {
	service *Service
	logs    logsProvider
}

func NewHandler(service *Service, logs logsProvider) *Handler {
	return &Handler{
		service: service,
		logs:    logs,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	calRouter := router.PathPrefix("/calendar").Subrouter()
	calRouter.HandleFunc("", handler.handleGetMapping).Methods("GET", "OPTIONS")
	calRouter.HandleFunc("", handler.handleSet).Methods("PUT", "OPTIONS")
	calRouter.HandleFunc("", handler.handleClear).Methods("DELETE", "OPTIONS")
	calRouter.HandleFunc("/setting", handler.handleGetSetting).Methods("GET", "OPTIONS")
	calRouter.HandleFunc("/skip", handler.handleSkip).Methods("POST", "OPTIONS")
	calRouter.HandleFunc("/day/{date}", handler.handleDayDetail).Methods("GET", "OPTIONS")
}

type setScheduleRequest struct {
	ProgramID     int    `json:"programId"`
	StartDate     string `json:"startDate"`
	DurationCount int    `json:"durationCount"`
	DurationUnit  string `json:"durationUnit"`
	RestDays      int    `json:"restDays"`
}

type dayDetailResponse struct {
	Date      string                       `json:"date"`
	Kind      DayKind                      `json:"kind"`
	Day       *programs.Day                `json:"day,omitempty"`
	Exercises []workoutlog.DisplayExercise `json:"exercises,omitempty"`
}

func (handler *Handler) handleGetMapping(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.schedule.mapping")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	mapping, err := handler.service.Mapping(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSettingNotFound) {
			// no schedule configured, nothing on the calendar
			pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, []byte("{}"))
			return
		}
		log.Errorf("get schedule mapping for user %d: %s", userID, err)
		http.Error(w, "failed to get schedule", http.StatusInternalServerError)
		return
	}

	mappingBytes, err := json.Marshal(mapping)
	if err != nil {
		log.Errorf("marshal schedule mapping: %s", err)
		http.Error(w, "marshal schedule error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, mappingBytes)
}

func (handler *Handler) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.schedule.getSetting")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	setting, err := handler.service.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSettingNotFound) {
			http.Error(w, "schedule setting not found", http.StatusNotFound)
			return
		}
		log.Errorf("get schedule setting for user %d: %s", userID, err)
		http.Error(w, "failed to get schedule setting", http.StatusInternalServerError)
		return
	}

	settingBytes, err := json.Marshal(setting)
	if err != nil {
		log.Errorf("marshal schedule setting: %s", err)
		http.Error(w, "marshal setting error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, settingBytes)
}

func (handler *Handler) handleSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.schedule.set")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	var req setScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("set schedule, unmarshal json params: %s", err)
		http.Error(w, "set schedule failed", http.StatusBadRequest)
		return
	}

	startDate, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		http.Error(w, "error, start date invalid", http.StatusBadRequest)
		return
	}

	setting, err := handler.service.Set(ctx, Setting{
		UserID:        userID,
		ProgramID:     req.ProgramID,
		StartDate:     startDate,
		DurationCount: req.DurationCount,
		DurationUnit:  DurationUnit(req.DurationUnit),
		RestDays:      req.RestDays,
	})
	if err != nil {
		if errors.Is(err, programs.ErrProgramNotFound) {
			http.Error(w, "program not found", http.StatusNotFound)
			return
		}
		log.Errorf("set schedule for user %d: %s", userID, err)
		http.Error(w, "set schedule failed", http.StatusBadRequest)
		return
	}

	settingBytes, err := json.Marshal(setting)
	if err != nil {
		log.Errorf("marshal schedule setting: %s", err)
		http.Error(w, "marshal setting error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, settingBytes)
}

func (handler *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.schedule.clear")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	if err := handler.service.Clear(ctx, userID); err != nil {
		if errors.Is(err, ErrSettingNotFound) {
			http.Error(w, "schedule setting not found", http.StatusNotFound)
			return
		}
		log.Errorf("clear schedule for user %d: %s", userID, err)
		http.Error(w, "clear schedule failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, []byte(`{"cleared":true}`))
}

// handleSkip shifts the whole schedule one day forward after a missed
// workout. The skipped date must not be in the future.
func (handler *Handler) handleSkip(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.schedule.skip")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	var req struct {
		Date string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("skip day, unmarshal json params: %s", err)
		http.Error(w, "skip day failed", http.StatusBadRequest)
		return
	}

	missedDate, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		http.Error(w, "error, date invalid", http.StatusBadRequest)
		return
	}

	setting, err := handler.service.Shift(ctx, userID, missedDate)
	if err != nil {
		switch {
		case errors.Is(err, ErrShiftDateInFuture):
			http.Error(w, "future dates cannot be skipped", http.StatusBadRequest)
		case errors.Is(err, ErrSettingNotFound):
			http.Error(w, "schedule setting not found", http.StatusNotFound)
		default:
			log.Errorf("skip day for user %d: %s", userID, err)
			http.Error(w, "skip day failed", http.StatusInternalServerError)
		}
		return
	}

	settingBytes, err := json.Marshal(setting)
	if err != nil {
		log.Errorf("marshal schedule setting: %s", err)
		http.Error(w, "marshal setting error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, settingBytes)
}

// handleDayDetail resolves one calendar date and, for workout days,
// merges the planned exercises with the logs saved for that date.
func (handler *Handler) handleDayDetail(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.schedule.dayDetail")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	date, err := time.Parse(time.DateOnly, vars["date"])
	if err != nil {
		http.Error(w, "error, date invalid", http.StatusBadRequest)
		return
	}

	resolution, err := handler.service.ResolveDate(ctx, userID, date)
	if err != nil {
		log.Errorf("resolve date %s for user %d: %s", vars["date"], userID, err)
		http.Error(w, "failed to resolve date", http.StatusInternalServerError)
		return
	}

	resp := dayDetailResponse{
		Date: date.Format(time.DateOnly),
		Kind: resolution.Kind,
		Day:  resolution.Day,
	}

	if resolution.Kind == DayKindWorkout {
		logs, err := handler.logs.ListForDate(ctx, userID, date)
		if err != nil {
			log.Errorf("list logs for user %d on %s: %s", userID, vars["date"], err)
			http.Error(w, "failed to get workout logs", http.StatusInternalServerError)
			return
		}
		resp.Exercises = workoutlog.Merge(resolution.Day.Exercises, logs)
	}

	respBytes, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal day detail: %s", err)
		http.Error(w, "marshal day detail error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}
