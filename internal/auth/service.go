package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fitcal/fitcal/pkg"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "fitcal-session||"
	tokensSetKey     = "fitcal-sessions"
)

var ErrSessionNotFound = errors.New("session not found")

type Session struct {
	Token     string
	UserID    int
	CreatedAt time.Time
}

type Service struct {
	redisClient *redis.Client
	ttl         time.Duration
	notifier    *Notifier
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewService(ttl time.Duration, redisClient *redis.Client, notifier *Notifier) *Service {
	return &Service{
		ttl:            ttl,
		redisClient:    redisClient,
		notifier:       notifier,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

func (s *Service) Login(ctx context.Context, userID int, createdAt time.Time) (string, error) {
	token, err := s.RandStringFunc(35)
	if err != nil {
		return "", err
	}

	sessionKey := sessionKeyPrefix + token
	cmdSet := s.redisClient.Set(ctx, sessionKey, sessionValue(userID, createdAt), 0)
	if err := cmdSet.Err(); err != nil {
		return "", err
	}

	// add token to the set of active sessions
	cmdSAdd := s.redisClient.SAdd(ctx, tokensSetKey, token)
	if err := cmdSAdd.Err(); err != nil {
		return "", err
	}

	s.notifier.Publish(SessionEvent{
		Type:   SessionEventLogin,
		UserID: userID,
		At:     createdAt,
	})

	return token, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	session, err := s.TokenSession(ctx, token)
	if err != nil {
		return err
	}

	cmdDel := s.redisClient.Del(ctx, sessionKeyPrefix+token)
	if err := cmdDel.Err(); err != nil {
		return err
	}

	cmdSRem := s.redisClient.SRem(ctx, tokensSetKey, token)
	if err := cmdSRem.Err(); err != nil {
		return err
	}

	s.notifier.Publish(SessionEvent{
		Type:   SessionEventLogout,
		UserID: session.UserID,
		At:     time.Now(),
	})

	return nil
}

// LogoutAll removes every session of the given user ("sign out everywhere").
func (s *Service) LogoutAll(ctx context.Context, userID int) (int, error) {
	cmd := s.redisClient.SMembers(ctx, tokensSetKey)
	if err := cmd.Err(); err != nil {
		return 0, fmt.Errorf("get sessions: %w", err)
	}

	removed := 0
	for _, token := range cmd.Val() {
		session, err := s.TokenSession(ctx, token)
		if err != nil {
			log.Errorf("auth service, logout all, session for token %s: %s", token, err)
			continue
		}
		if session.UserID != userID {
			continue
		}
		if err := s.Logout(ctx, token); err != nil {
			log.Errorf("auth service, logout all, token %s: %s", token, err)
			continue
		}
		removed++
	}

	return removed, nil
}

// TokenSession resolves a session token to the stored session data.
func (s *Service) TokenSession(ctx context.Context, token string) (*Session, error) {
	cmd := s.redisClient.Get(ctx, sessionKeyPrefix+token)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	userID, createdAt, err := parseSessionValue(cmd.Val())
	if err != nil {
		return nil, err
	}

	return &Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: createdAt,
	}, nil
}

// ScanAndClean will run through all sessions, check the TTL, and clean them if old
func (s *Service) ScanAndClean(ctx context.Context) {
	cmd := s.redisClient.SMembers(ctx, tokensSetKey)
	if err := cmd.Err(); err != nil {
		log.Errorf("!!! auth service, scan and clean, get sessions: %s", err)
		return
	}

	sessionTokens := cmd.Val()
	if len(sessionTokens) == 0 {
		log.Debugln("=> auth service, scan and clean abort, no sessions")
		return
	}

	log.Debugf("=> auth service, scan and clean [%d sessions] start ...", len(sessionTokens))
	var toRemove []string
	for _, token := range sessionTokens {
		session, err := s.TokenSession(ctx, token)
		if err != nil {
			log.Errorf("=> auth service, scan and clean token %s: %s", token, err)
			continue
		}

		if time.Since(session.CreatedAt) > s.ttl {
			toRemove = append(toRemove, token)
		}
	}

	for _, token := range toRemove {
		if err := s.Logout(ctx, token); err != nil {
			log.Errorf("=> auth service, clean token %s: %s", token, err)
		}
	}
}

func sessionValue(userID int, createdAt time.Time) string {
	return fmt.Sprintf("%d||%d", userID, createdAt.Unix())
}

func parseSessionValue(val string) (userID int, createdAt time.Time, err error) {
	userIDStr, createdAtStr, found := strings.Cut(val, "||")
	if !found {
		return 0, time.Time{}, fmt.Errorf("malformed session value: %s", val)
	}

	userID, err = strconv.Atoi(userIDStr)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("malformed session user id: %w", err)
	}

	createdAtUnix, err := strconv.ParseInt(createdAtStr, 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("malformed session created at: %w", err)
	}

	return userID, time.Unix(createdAtUnix, 0), nil
}
