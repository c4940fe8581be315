// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"errors"
	"regexp"
	"sync"
	"time"

	"github.com/ManuGH/preroll/internal/domain/preroll/controller"
	"github.com/ManuGH/preroll/internal/domain/preroll/model"
	"github.com/ManuGH/preroll/internal/log"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidSurface rejects surface ids outside [A-Za-z0-9._-]{1,64}.
	ErrInvalidSurface = errors.New("invalid surface id")
	// ErrTooManySurfaces is returned when the registry is full.
	ErrTooManySurfaces = errors.New("too many surfaces")
)

var surfaceIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// Surface is one content-viewing surface and its controller.
type Surface struct {
	ID   string
	ctrl *controller.Controller

	mu       sync.Mutex
	lastUsed time.Time
	ctaURL   string
}

// Controller returns the surface's playback controller.
func (s *Surface) Controller() *controller.Controller { return s.ctrl }

func (s *Surface) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *Surface) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// takeCTA returns and clears the last CTA target opened on this surface.
func (s *Surface) takeCTA() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	url := s.ctaURL
	s.ctaURL = ""
	return url
}

// Registry hosts one controller per surface, created on first use.
type Registry struct {
	base   controller.Config
	max    int
	now    func() time.Time
	logger zerolog.Logger

	mu       sync.Mutex
	surfaces map[string]*Surface
}

// NewRegistry creates controllers from base. Callbacks in base still run;
// the registry chains its own bookkeeping in front of them.
func NewRegistry(base controller.Config, maxSurfaces int) *Registry {
	now := base.Now
	if now == nil {
		now = time.Now
	}
	if maxSurfaces <= 0 {
		maxSurfaces = 1024
	}
	return &Registry{
		base:     base,
		max:      maxSurfaces,
		now:      now,
		logger:   log.WithComponent("surfaces"),
		surfaces: make(map[string]*Surface),
	}
}

// Get returns an existing surface.
func (r *Registry) Get(id string) (*Surface, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surfaces[id]
	if ok {
		s.touch(r.now())
	}
	return s, ok
}

// Acquire returns the surface, creating it when absent.
func (r *Registry) Acquire(id string) (*Surface, error) {
	if !surfaceIDPattern.MatchString(id) {
		return nil, ErrInvalidSurface
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.surfaces[id]; ok {
		s.touch(r.now())
		return s, nil
	}
	if len(r.surfaces) >= r.max {
		return nil, ErrTooManySurfaces
	}

	s := &Surface{ID: id, lastUsed: r.now()}
	cfg := r.base
	logger := r.logger.With().Str(log.FieldSurfaceID, id).Logger()
	cfg.Logger = &logger

	onResolved := r.base.OnAdSessionResolved
	cfg.OnAdSessionResolved = func(res controller.Resolution) {
		logger.Info().
			Str(log.FieldEvent, "preroll.handoff").
			Str(log.FieldSessionID, res.SessionID).
			Msg("primary content may start")
		if onResolved != nil {
			onResolved(res)
		}
	}
	onCTA := r.base.OnOpenCTA
	cfg.OnOpenCTA = func(url string) {
		s.mu.Lock()
		s.ctaURL = url
		s.mu.Unlock()
		if onCTA != nil {
			onCTA(url)
		}
	}
	s.ctrl = controller.New(cfg)
	r.surfaces[id] = s
	return s, nil
}

// Usage returns the number of hosted surfaces and the limit.
func (r *Registry) Usage() (used, limit int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.surfaces), r.max
}

// Prune evicts surfaces that are idle and untouched for longer than ttl.
func (r *Registry) Prune(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.surfaces {
		if s.idleSince().After(cutoff) || s.ctrl.View().State != model.StateIdle {
			continue
		}
		delete(r.surfaces, id)
		n++
	}
	if n > 0 {
		r.logger.Debug().Int("evicted", n).Msg("pruned idle surfaces")
	}
	return n
}

// TeardownAll abandons every active session. It returns how many were active.
func (r *Registry) TeardownAll() int {
	r.mu.Lock()
	list := make([]*Surface, 0, len(r.surfaces))
	for _, s := range r.surfaces {
		list = append(list, s)
	}
	r.mu.Unlock()

	n := 0
	for _, s := range list {
		if s.ctrl.Teardown() {
			n++
		}
	}
	return n
}
