package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"scoreboard/internal/scoreboard/revelation"
	"scoreboard/internal/scoreboard/site"
	"scoreboard/internal/scoreboard/view"
	pkgerrors "scoreboard/pkg/errors"
	"scoreboard/pkg/utils/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultRevealTTL = 6 * time.Hour
	revealTokenType  = "reveal"
)

// Reveal actions accepted by Act.
const (
	ActionStep    = "step"
	ActionTop     = "top"
	ActionJump    = "jump"
	ActionBack    = "back"
	ActionRestart = "restart"
)

type RevealConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// RevealService keeps one revelation engine per session. Sessions are
// addressed by a signed token issued when the session opens.
type RevealService struct {
	secret  []byte
	issuer  string
	ttl     time.Duration
	metrics *Metrics
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*revealSession
}

type revealSession struct {
	mu      sync.Mutex
	contest string
	site    *site.Site
	engine  *revelation.Engine
	expires time.Time
}

// RevealView is what a presenter sees after every action.
type RevealView struct {
	Contest   string           `json:"contest"`
	Site      string           `json:"site"`
	State     revelation.State `json:"state"`
	Steps     int              `json:"steps"`
	Remaining int              `json:"remaining"`
	Spotlight string           `json:"spotlight,omitempty"`
	Next      string           `json:"next,omitempty"`
	Standings []view.Row       `json:"standings"`
}

type revealClaims struct {
	Contest   string `json:"contest"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

func NewRevealService(cfg RevealConfig, metrics *Metrics) *RevealService {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultRevealTTL
	}
	return &RevealService{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		ttl:      ttl,
		metrics:  metrics,
		now:      time.Now,
		sessions: make(map[string]*revealSession),
	}
}

// Open starts a revelation of the site unlocked by secret and returns the
// session token with the initial frozen view.
func (s *RevealService) Open(contest *ContestService, secret string) (string, RevealView, error) {
	if len(s.secret) == 0 {
		return "", RevealView{}, pkgerrors.New(pkgerrors.ServiceUnavailable).WithMessage("reveal signing key is not configured")
	}
	teams, runs, st, err := contest.RevealInput(secret)
	if err != nil {
		return "", RevealView{}, err
	}

	engine := revelation.New(teams, runs, revelation.WithSite(st))
	if err := engine.Skipped(); err != nil {
		ctx := logger.WithContest(context.Background(), contest.Name())
		logger.Warn(ctx, "runs left out of revelation",
			zap.String("site", st.Name), zap.Int("count", engine.SkippedCount()), zap.Error(err))
	}

	now := s.now()
	id := uuid.NewString()
	sess := &revealSession{
		contest: contest.Name(),
		site:    st,
		engine:  engine,
		expires: now.Add(s.ttl),
	}

	claims := revealClaims{
		Contest:   sess.contest,
		TokenType: revealTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   st.Name,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", RevealView{}, pkgerrors.Wrapf(err, pkgerrors.TokenGenerationFailed, "sign reveal token: %v", err)
	}

	s.mu.Lock()
	s.pruneLocked(now)
	s.sessions[id] = sess
	s.metrics.SetRevealSessions(len(s.sessions))
	s.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return token, sess.view(), nil
}

// View returns the current state of a session.
func (s *RevealService) View(token string) (RevealView, error) {
	sess, err := s.session(token)
	if err != nil {
		return RevealView{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view(), nil
}

// Act applies one presenter action. n is used by ActionTop only.
func (s *RevealService) Act(token, action string, n int) (RevealView, error) {
	sess, err := s.session(token)
	if err != nil {
		return RevealView{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := ApplyRevealAction(sess.engine, action, n); err != nil {
		return RevealView{}, err
	}
	return sess.view(), nil
}

// ApplyRevealAction runs one presenter action against e.
func ApplyRevealAction(e *revelation.Engine, action string, n int) error {
	switch action {
	case ActionStep:
		return e.Step()
	case ActionTop:
		if n < 0 {
			return pkgerrors.Newf(pkgerrors.InvalidParams, "top needs a non-negative count, got %d", n)
		}
		return e.RevealTopN(n)
	case ActionJump:
		return e.JumpTeamForward()
	case ActionBack:
		return e.BackOne()
	case ActionRestart:
		e.Restart()
		return nil
	default:
		return pkgerrors.Newf(pkgerrors.RevealActionUnknown, "unknown reveal action %q", action)
	}
}

// Close ends a session.
func (s *RevealService) Close(token string) error {
	claims, err := s.parseToken(token)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, claims.ID)
	s.metrics.SetRevealSessions(len(s.sessions))
	return nil
}

func (s *RevealService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *RevealService) session(token string) (*revealSession, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[claims.ID]
	if !ok || sess.contest != claims.Contest {
		return nil, pkgerrors.New(pkgerrors.RevealSessionNotFound)
	}
	if !sess.expires.After(s.now()) {
		delete(s.sessions, claims.ID)
		s.metrics.SetRevealSessions(len(s.sessions))
		return nil, pkgerrors.New(pkgerrors.TokenExpired)
	}
	return sess, nil
}

func (s *RevealService) pruneLocked(now time.Time) {
	for id, sess := range s.sessions {
		if !sess.expires.After(now) {
			delete(s.sessions, id)
		}
	}
}

func (s *RevealService) parseToken(raw string) (*revealClaims, error) {
	if raw == "" || len(s.secret) == 0 {
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	parsed, err := jwt.ParseWithClaims(raw, &revealClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, pkgerrors.New(pkgerrors.TokenExpired)
		}
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	claims, ok := parsed.Claims.(*revealClaims)
	if !ok || !parsed.Valid {
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	if claims.TokenType != revealTokenType || claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	return claims, nil
}

// view must be called with sess.mu held.
func (sess *revealSession) view() RevealView {
	return BuildRevealView(sess.contest, sess.site, sess.engine)
}

// BuildRevealView renders the state of e. A nil site shows every team
// without medals.
func BuildRevealView(contest string, st *site.Site, e *revelation.Engine) RevealView {
	spotlight, _ := view.Spotlight(e)
	next, _ := e.Peek()
	v := RevealView{
		Contest:   contest,
		State:     e.State(),
		Steps:     e.Steps(),
		Remaining: e.Len(),
		Spotlight: spotlight,
		Next:      next,
		Standings: view.Standings(e.Contest(), st),
	}
	if st != nil {
		v.Site = st.Name
	}
	return v
}
