package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fitcal/fitcal/internal/telemetry/metrics"
	"github.com/fitcal/fitcal/internal/telemetry/tracing"
	"github.com/fitcal/fitcal/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// AuthTokenHeader carries the session token on every authenticated request.
const AuthTokenHeader = "X-FITCAL-TOKEN"

type usersRepo interface {
	Add(ctx context.Context, email, passwordHash string) (*User, error)
	Get(ctx context.Context, id int) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

type Handler struct {
	usersRepo      usersRepo
	service        *Service
	metricsManager *metrics.Manager
}

func NewHandler(
	usersRepo usersRepo,
	service *Service,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		usersRepo:      usersRepo,
		service:        service,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimit mux.MiddlewareFunc,
) {
	authSubrouter := mainRouter.PathPrefix("/a").Subrouter()
	authSubrouter.
		HandleFunc("/register", handler.handleRegister).
		Methods("POST", "OPTIONS").Name("register")
	authSubrouter.
		HandleFunc("/login", handler.handleLogin).
		Methods("POST", "OPTIONS").Name("login")
	authSubrouter.
		HandleFunc("/logout", handler.handleLogout).
		Methods("GET", "OPTIONS").Name("logout")
	authSubrouter.
		HandleFunc("/logout/all", handler.handleLogoutAll).
		Methods("GET", "OPTIONS").Name("logout-all")

	// rate limit the auth endpoints to prevent abuse
	authSubrouter.Use(rateLimit)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token       string `json:"token"`
	UserID      int    `json:"userId"`
	DisplayName string `json:"displayName"`
}

func decodeCredentials(r *http.Request) (*credentialsRequest, error) {
	var creds credentialsRequest
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			return nil, fmt.Errorf("unmarshal json params: %w", err)
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		creds = credentialsRequest{
			Email:    r.Form.Get("email"),
			Password: r.Form.Get("password"),
		}
	}

	creds.Email = strings.TrimSpace(strings.ToLower(creds.Email))
	return &creds, nil
}

func (handler *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.register")
	defer span.End()

	creds, err := decodeCredentials(r)
	if err != nil {
		log.Errorf("register failed: %s", err)
		http.Error(w, "register failed", http.StatusBadRequest)
		return
	}

	if creds.Email == "" || !strings.Contains(creds.Email, "@") {
		http.Error(w, "error, invalid email", http.StatusBadRequest)
		return
	}
	if len(creds.Password) < 6 {
		http.Error(w, "error, password too short", http.StatusBadRequest)
		return
	}

	passwordHash, err := pkg.HashPassword(creds.Password)
	if err != nil {
		log.Errorf("register, hash password: %s", err)
		http.Error(w, "register failed", http.StatusInternalServerError)
		return
	}

	user, err := handler.usersRepo.Add(ctx, creds.Email, passwordHash)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			http.Error(w, "error, email already taken", http.StatusConflict)
			return
		}
		log.Errorf("register, add user [%s]: %s", creds.Email, err)
		http.Error(w, "register failed", http.StatusInternalServerError)
		return
	}

	log.Debugf("new user registered: %d [%s]", user.ID, user.Email)

	userJson, err := json.Marshal(user)
	if err != nil {
		log.Errorf("register, marshal user: %s", err)
		http.Error(w, "register failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, userJson, http.StatusCreated)
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.login")
	defer span.End()

	creds, err := decodeCredentials(r)
	if err != nil {
		log.Errorf("login failed: %s", err)
		http.Error(w, "login failed", http.StatusBadRequest)
		return
	}

	if creds.Email == "" {
		http.Error(w, "error, email empty", http.StatusBadRequest)
		return
	}
	if creds.Password == "" {
		http.Error(w, "error, password empty", http.StatusBadRequest)
		return
	}

	user, err := handler.usersRepo.GetByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			reqIp, _ := pkg.ReadUserIP(r)
			log.Tracef("[email] failed login attempt for %s from %s", creds.Email, reqIp)
			http.Error(w, "error, wrong credentials", http.StatusBadRequest)
			return
		}
		log.Errorf("login, get user [%s]: %s", creds.Email, err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	if !pkg.CheckPasswordHash(creds.Password, user.PasswordHash) {
		reqIp, _ := pkg.ReadUserIP(r)
		log.Tracef("[password] failed login attempt for %s from %s", creds.Email, reqIp)
		http.Error(w, "error, wrong credentials", http.StatusBadRequest)
		return
	}

	token, err := handler.service.Login(ctx, user.ID, time.Now())
	if err != nil {
		log.Errorf("login failed, generate token error: %s", err)
		http.Error(w, "generate token error", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterLogins.Inc()

	respJson, err := json.Marshal(loginResponse{
		Token:       token,
		UserID:      user.ID,
		DisplayName: user.DisplayName(),
	})
	if err != nil {
		log.Errorf("login, marshal response: %s", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, string(respJson))
}

func (handler *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.logout")
	defer span.End()

	token := r.Header.Get(AuthTokenHeader)
	if token == "" {
		http.Error(w, "error, token empty", http.StatusBadRequest)
		return
	}

	if err := handler.service.Logout(ctx, token); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusBadRequest)
			return
		}
		log.Errorf("logout: %s", err)
		http.Error(w, "logout failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "logged-out")
}

func (handler *Handler) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.logoutAll")
	defer span.End()

	token := r.Header.Get(AuthTokenHeader)
	if token == "" {
		http.Error(w, "error, token empty", http.StatusBadRequest)
		return
	}

	session, err := handler.service.TokenSession(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusBadRequest)
			return
		}
		log.Errorf("logout all, token session: %s", err)
		http.Error(w, "logout failed", http.StatusInternalServerError)
		return
	}

	removed, err := handler.service.LogoutAll(ctx, session.UserID)
	if err != nil {
		log.Errorf("logout all for user %d: %s", session.UserID, err)
		http.Error(w, "logout failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, fmt.Sprintf(`{"removedSessions":%d}`, removed))
}
