package library

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fitcal/fitcal/internal/telemetry/tracing"
	"github.com/fitcal/fitcal/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	libRouter := router.PathPrefix("/library").Subrouter()
	libRouter.HandleFunc("", handler.handleList).Methods("GET", "OPTIONS")
	libRouter.HandleFunc("/bodyparts", handler.handleBodyParts).Methods("GET", "OPTIONS")
	libRouter.HandleFunc("/{id}", handler.handleGet).Methods("GET", "OPTIONS")
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.library.list")
	defer span.End()

	bodyPart := r.URL.Query().Get("bodyPart")

	exercises, err := handler.service.List(ctx, bodyPart)
	if err != nil {
		log.Errorf("list library exercises: %s", err)
		http.Error(w, "failed to list exercises", http.StatusInternalServerError)
		return
	}
	if exercises == nil {
		exercises = []Exercise{}
	}

	exercisesBytes, err := json.Marshal(exercises)
	if err != nil {
		log.Errorf("marshal library exercises: %s", err)
		http.Error(w, "marshal exercises error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, exercisesBytes)
}

func (handler *Handler) handleBodyParts(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.library.bodyParts")
	defer span.End()

	bodyParts, err := handler.service.BodyParts(ctx)
	if err != nil {
		log.Errorf("list library body parts: %s", err)
		http.Error(w, "failed to list body parts", http.StatusInternalServerError)
		return
	}
	if bodyParts == nil {
		bodyParts = []string{}
	}

	bodyPartsBytes, err := json.Marshal(bodyParts)
	if err != nil {
		log.Errorf("marshal body parts: %s", err)
		http.Error(w, "marshal body parts error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, bodyPartsBytes)
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.library.get")
	defer span.End()

	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil || id <= 0 {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	exercise, err := handler.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrExerciseNotFound) {
			http.Error(w, "exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("get library exercise %d: %s", id, err)
		http.Error(w, "failed to get exercise", http.StatusInternalServerError)
		return
	}

	exerciseBytes, err := json.Marshal(exercise)
	if err != nil {
		log.Errorf("marshal library exercise: %s", err)
		http.Error(w, "marshal exercise error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, exerciseBytes)
}
