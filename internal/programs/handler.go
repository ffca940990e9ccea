package programs

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/fitcal/fitcal/internal/auth"
	"github.com/fitcal/fitcal/internal/telemetry/tracing"
	"github.com/fitcal/fitcal/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	repo    programsRepo
	service *Service
}

func NewHandler(repo programsRepo, service *Service) *Handler {
	return &Handler{
		repo:    repo,
		service: service,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	progRouter := router.PathPrefix("/programs").Subrouter()
	progRouter.HandleFunc("", handler.handleList).Methods("GET", "OPTIONS")
	progRouter.HandleFunc("", handler.handleAdd).Methods("POST", "OPTIONS")
	progRouter.HandleFunc("/{id}", handler.handleGet).Methods("GET", "OPTIONS")
	progRouter.HandleFunc("/{id}", handler.handleUpdate).Methods("PUT", "OPTIONS")
	progRouter.HandleFunc("/{id}", handler.handleDelete).Methods("DELETE", "OPTIONS")
	progRouter.HandleFunc("/{id}/days", handler.handleAddDay).Methods("POST", "OPTIONS")

	dayRouter := router.PathPrefix("/days").Subrouter()
	dayRouter.HandleFunc("/{id}", handler.handleUpdateDay).Methods("PUT", "OPTIONS")
	dayRouter.HandleFunc("/{id}", handler.handleDeleteDay).Methods("DELETE", "OPTIONS")
	dayRouter.HandleFunc("/{id}/exercises", handler.handleAddExercise).Methods("POST", "OPTIONS")

	exRouter := router.PathPrefix("/exercises").Subrouter()
	exRouter.HandleFunc("/{id}", handler.handleUpdateExercise).Methods("PUT", "OPTIONS")
	exRouter.HandleFunc("/{id}", handler.handleDeleteExercise).Methods("DELETE", "OPTIONS")
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	programs, err := handler.service.ProgramsWithDays(ctx, userID)
	if err != nil {
		log.Errorf("list programs for user %d: %s", userID, err)
		http.Error(w, "failed to list programs", http.StatusInternalServerError)
		return
	}

	programsBytes, err := json.Marshal(programs)
	if err != nil {
		log.Errorf("marshal programs: %s", err)
		http.Error(w, "marshal programs error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, programsBytes)
}

func (handler *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.add")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	var program Program
	if err := json.NewDecoder(r.Body).Decode(&program); err != nil {
		log.Errorf("add program, unmarshal json params: %s", err)
		http.Error(w, "add program failed", http.StatusBadRequest)
		return
	}

	program.Name = strings.TrimSpace(program.Name)
	if program.Name == "" {
		http.Error(w, "error, name empty", http.StatusBadRequest)
		return
	}
	program.UserID = userID

	added, err := handler.repo.AddProgram(ctx, program)
	if err != nil {
		log.Errorf("add program: %s", err)
		http.Error(w, "add program failed", http.StatusInternalServerError)
		return
	}

	addedBytes, err := json.Marshal(added)
	if err != nil {
		log.Errorf("marshal added program: %s", err)
		http.Error(w, "marshal program error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedBytes, http.StatusCreated)
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	program, err := handler.service.ProgramDetail(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ErrProgramNotFound) {
			http.Error(w, "program not found", http.StatusNotFound)
			return
		}
		log.Errorf("get program %d: %s", id, err)
		http.Error(w, "failed to get program", http.StatusInternalServerError)
		return
	}

	programBytes, err := json.Marshal(program)
	if err != nil {
		log.Errorf("marshal program: %s", err)
		http.Error(w, "marshal program error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, programBytes)
}

func (handler *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.update")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	var program Program
	if err := json.NewDecoder(r.Body).Decode(&program); err != nil {
		log.Errorf("update program, unmarshal json params: %s", err)
		http.Error(w, "update program failed", http.StatusBadRequest)
		return
	}

	program.Name = strings.TrimSpace(program.Name)
	if program.Name == "" {
		http.Error(w, "error, name empty", http.StatusBadRequest)
		return
	}
	program.ID = id
	program.UserID = userID

	if err := handler.repo.UpdateProgram(ctx, &program); err != nil {
		if errors.Is(err, ErrProgramNotFound) {
			http.Error(w, "program not found", http.StatusNotFound)
			return
		}
		log.Errorf("update program %d: %s", id, err)
		http.Error(w, "update program failed", http.StatusInternalServerError)
		return
	}

	handler.service.notifyMutation(ctx, userID)
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, []byte(fmt.Sprintf(`{"updated":%d}`, id)))
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	if err := handler.service.CascadeDeleteProgram(ctx, userID, id); err != nil {
		if errors.Is(err, ErrProgramNotFound) {
			http.Error(w, "program not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete program %d: %s", id, err)
		http.Error(w, "delete program failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, []byte(fmt.Sprintf(`{"deleted":%d}`, id)))
}

func (handler *Handler) handleAddDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.addDay")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	programID, err := pathID(r)
	if err != nil {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	var day Day
	if err := json.NewDecoder(r.Body).Decode(&day); err != nil {
		log.Errorf("add day, unmarshal json params: %s", err)
		http.Error(w, "add day failed", http.StatusBadRequest)
		return
	}

	day.Name = strings.TrimSpace(day.Name)
	if day.Name == "" {
		http.Error(w, "error, name empty", http.StatusBadRequest)
		return
	}
	day.ProgramID = programID

	added, err := handler.service.AddDay(ctx, userID, day)
	if err != nil {
		if errors.Is(err, ErrProgramNotFound) {
			http.Error(w, "program not found", http.StatusNotFound)
			return
		}
		log.Errorf("add day to program %d: %s", programID, err)
		http.Error(w, "add day failed", http.StatusInternalServerError)
		return
	}

	addedBytes, err := json.Marshal(added)
	if err != nil {
		log.Errorf("marshal added day: %s", err)
		http.Error(w, "marshal day error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedBytes, http.StatusCreated)
}

func (handler *Handler) handleUpdateDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.updateDay")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	existing, ownerID, err := handler.repo.GetDay(ctx, id)
	if err != nil {
		if errors.Is(err, ErrDayNotFound) {
			http.Error(w, "day not found", http.StatusNotFound)
			return
		}
		log.Errorf("get day %d: %s", id, err)
		http.Error(w, "update day failed", http.StatusInternalServerError)
		return
	}
	if ownerID != userID {
		http.Error(w, "day not found", http.StatusNotFound)
		return
	}

	var day Day
	if err := json.NewDecoder(r.Body).Decode(&day); err != nil {
		log.Errorf("update day, unmarshal json params: %s", err)
		http.Error(w, "update day failed", http.StatusBadRequest)
		return
	}

	day.Name = strings.TrimSpace(day.Name)
	if day.Name == "" {
		http.Error(w, "error, name empty", http.StatusBadRequest)
		return
	}
	day.ID = id
	day.ProgramID = existing.ProgramID
	if day.Order <= 0 {
		day.Order = existing.Order
	}

	if err := handler.repo.UpdateDay(ctx, &day); err != nil {
		log.Errorf("update day %d: %s", id, err)
		http.Error(w, "update day failed", http.StatusInternalServerError)
		return
	}

	handler.service.notifyMutation(ctx, userID)
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, []byte(fmt.Sprintf(`{"updated":%d}`, id)))
}

func (handler *Handler) handleDeleteDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.deleteDay")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	if err := handler.service.CascadeDeleteDay(ctx, userID, id); err != nil {
		if errors.Is(err, ErrDayNotFound) {
			http.Error(w, "day not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete day %d: %s", id, err)
		http.Error(w, "delete day failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, []byte(fmt.Sprintf(`{"deleted":%d}`, id)))
}

func (handler *Handler) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.addExercise")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	dayID, err := pathID(r)
	if err != nil {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	_, ownerID, err := handler.repo.GetDay(ctx, dayID)
	if err != nil {
		if errors.Is(err, ErrDayNotFound) {
			http.Error(w, "day not found", http.StatusNotFound)
			return
		}
		log.Errorf("get day %d: %s", dayID, err)
		http.Error(w, "add exercise failed", http.StatusInternalServerError)
		return
	}
	if ownerID != userID {
		http.Error(w, "day not found", http.StatusNotFound)
		return
	}

	var exercise PlannedExercise
	if err := json.NewDecoder(r.Body).Decode(&exercise); err != nil {
		log.Errorf("add exercise, unmarshal json params: %s", err)
		http.Error(w, "add exercise failed", http.StatusBadRequest)
		return
	}

	if exercise.LibraryID <= 0 {
		http.Error(w, "error, library id invalid", http.StatusBadRequest)
		return
	}
	exercise.DayID = dayID
	if exercise.Order <= 0 {
		existing, err := handler.repo.ListExercises(ctx, dayID)
		if err != nil {
			log.Errorf("list exercises for day %d: %s", dayID, err)
			http.Error(w, "add exercise failed", http.StatusInternalServerError)
			return
		}
		exercise.Order = len(existing) + 1
	}

	added, err := handler.repo.AddExercise(ctx, exercise)
	if err != nil {
		log.Errorf("add exercise to day %d: %s", dayID, err)
		http.Error(w, "add exercise failed", http.StatusInternalServerError)
		return
	}

	handler.service.notifyMutation(ctx, userID)

	addedBytes, err := json.Marshal(added)
	if err != nil {
		log.Errorf("marshal added exercise: %s", err)
		http.Error(w, "marshal exercise error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedBytes, http.StatusCreated)
}

func (handler *Handler) handleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.updateExercise")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	existing, ownerID, err := handler.repo.GetExercise(ctx, id)
	if err != nil {
		if errors.Is(err, ErrExerciseNotFound) {
			http.Error(w, "exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("get exercise %d: %s", id, err)
		http.Error(w, "update exercise failed", http.StatusInternalServerError)
		return
	}
	if ownerID != userID {
		http.Error(w, "exercise not found", http.StatusNotFound)
		return
	}

	var exercise PlannedExercise
	if err := json.NewDecoder(r.Body).Decode(&exercise); err != nil {
		log.Errorf("update exercise, unmarshal json params: %s", err)
		http.Error(w, "update exercise failed", http.StatusBadRequest)
		return
	}

	exercise.ID = id
	exercise.DayID = existing.DayID
	if exercise.LibraryID <= 0 {
		exercise.LibraryID = existing.LibraryID
	}
	if exercise.Order <= 0 {
		exercise.Order = existing.Order
	}

	if err := handler.repo.UpdateExercise(ctx, &exercise); err != nil {
		log.Errorf("update exercise %d: %s", id, err)
		http.Error(w, "update exercise failed", http.StatusInternalServerError)
		return
	}

	handler.service.notifyMutation(ctx, userID)
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, []byte(fmt.Sprintf(`{"updated":%d}`, id)))
}

func (handler *Handler) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.deleteExercise")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	if err := handler.service.CascadeDeleteExercise(ctx, userID, id); err != nil {
		if errors.Is(err, ErrExerciseNotFound) {
			http.Error(w, "exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete exercise %d: %s", id, err)
		http.Error(w, "delete exercise failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, []byte(fmt.Sprintf(`{"deleted":%d}`, id)))
}

func pathID(r *http.Request) (int, error) {
	vars := mux.Vars(r)
	idStr := vars["id"]
	if idStr == "" {
		return 0, errors.New("id missing")
	}
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return 0, errors.New("id invalid")
	}
	return id, nil
}
