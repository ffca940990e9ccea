package workoutlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fitcal/fitcal/internal/auth"
	"github.com/fitcal/fitcal/internal/telemetry/metrics"
	"github.com/fitcal/fitcal/internal/telemetry/tracing"
	"github.com/fitcal/fitcal/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=handler.go -destination=mocks_test.go -package=workoutlog

type logsRepo interface {
	Upsert(ctx context.Context, l Log) (*Log, error)
	ListForDate(ctx context.Context, userID int, date time.Time) ([]Log, error)
	ListForExercise(ctx context.Context, userID, programExerciseID int) ([]Log, error)
	Delete(ctx context.Context, userID, id int) error
}

type Handler struct {
	repo           logsRepo
	metricsManager *metrics.Manager
}

func NewHandler(repo logsRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	logsRouter := router.PathPrefix("/logs").Subrouter()
	logsRouter.HandleFunc("", handler.handleSaveBatch).Methods("POST", "OPTIONS")
	logsRouter.HandleFunc("", handler.handleListForDate).Methods("GET", "OPTIONS")
	logsRouter.HandleFunc("/exercise/{id}", handler.handleExerciseHistory).Methods("GET", "OPTIONS")
	logsRouter.HandleFunc("/{id}", handler.handleDelete).Methods("DELETE", "OPTIONS")
}

type saveBatchEntry struct {
	ProgramExerciseID int      `json:"programExerciseId"`
	Sets              *int     `json:"sets,omitempty"`
	Reps              *int     `json:"reps,omitempty"`
	Weight            *float64 `json:"weight,omitempty"`
	Notes             string   `json:"notes,omitempty"`
}

type saveBatchRequest struct {
	Date string           `json:"date"`
	Logs []saveBatchEntry `json:"logs"`
}

type saveBatchResponse struct {
	Saved   int    `json:"saved"`
	Message string `json:"message,omitempty"`
}

// handleSaveBatch persists the day's edited logs in one go. Entries
// without a single filled field are skipped, and a batch of only such
// entries is a no-op answered with "nothing to save".
func (handler *Handler) handleSaveBatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workoutlog.saveBatch")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	var req saveBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("save logs, unmarshal json params: %s", err)
		http.Error(w, "save logs failed", http.StatusBadRequest)
		return
	}

	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		http.Error(w, "error, date invalid", http.StatusBadRequest)
		return
	}

	var batch []Log
	for _, entry := range req.Logs {
		if entry.ProgramExerciseID <= 0 {
			http.Error(w, "error, exercise id invalid", http.StatusBadRequest)
			return
		}
		l := Log{
			UserID:            userID,
			ProgramExerciseID: entry.ProgramExerciseID,
			Date:              date,
			Sets:              entry.Sets,
			Reps:              entry.Reps,
			Weight:            entry.Weight,
			Notes:             entry.Notes,
		}
		if l.Empty() {
			continue
		}
		batch = append(batch, l)
	}

	if len(batch) == 0 {
		respBytes, err := json.Marshal(saveBatchResponse{Saved: 0, Message: "nothing to save"})
		if err != nil {
			http.Error(w, "marshal response error", http.StatusInternalServerError)
			return
		}
		pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
		return
	}

	for _, l := range batch {
		if _, err := handler.repo.Upsert(ctx, l); err != nil {
			if errors.Is(err, ErrUnknownExercise) {
				http.Error(w, "error, exercise not found", http.StatusBadRequest)
				return
			}
			log.Errorf("save log for exercise %d on %s: %s", l.ProgramExerciseID, req.Date, err)
			http.Error(w, "save logs failed", http.StatusInternalServerError)
			return
		}
	}

	handler.metricsManager.CounterWorkoutLogsSaved.Add(float64(len(batch)))

	respBytes, err := json.Marshal(saveBatchResponse{Saved: len(batch)})
	if err != nil {
		http.Error(w, "marshal response error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}

func (handler *Handler) handleListForDate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workoutlog.listForDate")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	date, err := time.Parse(time.DateOnly, r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "error, date invalid", http.StatusBadRequest)
		return
	}

	logs, err := handler.repo.ListForDate(ctx, userID, date)
	if err != nil {
		log.Errorf("list logs for user %d: %s", userID, err)
		http.Error(w, "failed to list logs", http.StatusInternalServerError)
		return
	}
	if logs == nil {
		logs = []Log{}
	}

	logsBytes, err := json.Marshal(logs)
	if err != nil {
		log.Errorf("marshal logs: %s", err)
		http.Error(w, "marshal logs error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, logsBytes)
}

func (handler *Handler) handleExerciseHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workoutlog.exerciseHistory")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	exerciseID, err := strconv.Atoi(vars["id"])
	if err != nil || exerciseID <= 0 {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	logs, err := handler.repo.ListForExercise(ctx, userID, exerciseID)
	if err != nil {
		log.Errorf("list logs for exercise %d: %s", exerciseID, err)
		http.Error(w, "failed to list logs", http.StatusInternalServerError)
		return
	}
	if logs == nil {
		logs = []Log{}
	}

	logsBytes, err := json.Marshal(logs)
	if err != nil {
		log.Errorf("marshal logs: %s", err)
		http.Error(w, "marshal logs error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, logsBytes)
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workoutlog.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil || id <= 0 {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, ErrLogNotFound) {
			http.Error(w, "log not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete log %d: %s", id, err)
		http.Error(w, "delete log failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, []byte(fmt.Sprintf(`{"deleted":%d}`, id)))
}
