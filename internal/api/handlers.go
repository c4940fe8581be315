// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/ManuGH/preroll/internal/api/problem"
	"github.com/ManuGH/preroll/internal/domain/preroll/controller"
	"github.com/ManuGH/preroll/internal/log"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 4 << 10

type startSessionRequest struct {
	Category string `json:"category"`
}

type positionRequest struct {
	Seconds *float64 `json:"seconds"`
}

type startSessionResponse struct {
	SessionID string   `json:"sessionId"`
	View      viewJSON `json:"view"`
}

type actionResponse struct {
	Applied bool     `json:"applied"`
	OpenURL string   `json:"openUrl,omitempty"`
	View    viewJSON `json:"view"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.L().Error().Err(err).Int(log.FieldStatus, status).Msg("failed to encode response")
	}
}

func writeProblem(w http.ResponseWriter, r *http.Request, status int, problemType, title, code, detail string) {
	problem.Write(w, r, status, problemType, title, code, detail, nil)
}

// decodeBody decodes an optional JSON body. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// existing resolves the {surface} of an action route; actions never create
// surfaces.
func (s *Server) existing(w http.ResponseWriter, r *http.Request) (*Surface, bool) {
	id := chi.URLParam(r, "surface")
	sf, ok := s.surfaces.Get(id)
	if !ok {
		writeProblem(w, r, http.StatusNotFound, "surface/not_found", "Not Found", "SURFACE_NOT_FOUND", "no session was ever started on this surface")
		return nil, false
	}
	return sf, true
}

func (s *Server) handleGetSurface(w http.ResponseWriter, r *http.Request) {
	sf, ok := s.existing(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toViewJSON(sf.Controller().View()))
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "request/invalid_body", "Bad Request", "INVALID_BODY", err.Error())
		return
	}

	sf, err := s.surfaces.Acquire(chi.URLParam(r, "surface"))
	switch {
	case errors.Is(err, ErrInvalidSurface):
		writeProblem(w, r, http.StatusBadRequest, "surface/invalid", "Bad Request", "INVALID_SURFACE", err.Error())
		return
	case errors.Is(err, ErrTooManySurfaces):
		writeProblem(w, r, http.StatusServiceUnavailable, "surface/capacity", "Service Unavailable", "TOO_MANY_SURFACES", err.Error())
		return
	case err != nil:
		writeProblem(w, r, http.StatusInternalServerError, "system/internal", "Internal Server Error", "INTERNAL", "")
		return
	}

	// The session outlives the request; only trace values are carried over.
	ctx := log.ContextWithSurfaceID(context.WithoutCancel(r.Context()), sf.ID)
	id, err := sf.Controller().StartSession(ctx, req.Category)
	switch {
	case errors.Is(err, controller.ErrSessionActive):
		writeProblem(w, r, http.StatusConflict, "surface/session_active", "Conflict", "SESSION_ACTIVE", "an ad session is already active on this surface")
		return
	case errors.Is(err, controller.ErrSessionAborted):
		writeProblem(w, r, http.StatusConflict, "surface/session_aborted", "Conflict", "SESSION_ABORTED", "the session was torn down before its ad resolved")
		return
	case err != nil:
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Str(log.FieldSurfaceID, sf.ID).Msg("start session failed")
		writeProblem(w, r, http.StatusInternalServerError, "system/internal", "Internal Server Error", "INTERNAL", "")
		return
	}
	writeJSON(w, http.StatusCreated, startSessionResponse{SessionID: id, View: toViewJSON(sf.Controller().View())})
}

func (s *Server) action(op func(*controller.Controller) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sf, ok := s.existing(w, r)
		if !ok {
			return
		}
		applied := op(sf.Controller())
		writeJSON(w, http.StatusOK, actionResponse{Applied: applied, View: toViewJSON(sf.Controller().View())})
	}
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	s.action((*controller.Controller).Skip)(w, r)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.action((*controller.Controller).Pause)(w, r)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.action((*controller.Controller).Resume)(w, r)
}

func (s *Server) handleMediaFailed(w http.ResponseWriter, r *http.Request) {
	s.action((*controller.Controller).MediaFailed)(w, r)
}

func (s *Server) handleTeardown(w http.ResponseWriter, r *http.Request) {
	s.action((*controller.Controller).Teardown)(w, r)
}

func (s *Server) handleCTA(w http.ResponseWriter, r *http.Request) {
	sf, ok := s.existing(w, r)
	if !ok {
		return
	}
	applied := sf.Controller().ClickCTAShopNow()
	resp := actionResponse{Applied: applied, View: toViewJSON(sf.Controller().View())}
	if applied {
		resp.OpenURL = sf.takeCTA()
	}
	writeJSON(w, http.StatusOK, resp)
}

// maxPositionMillis is the largest millisecond count a Duration holds.
const maxPositionMillis = math.MaxInt64 / int64(time.Millisecond)

// positionDuration converts non-negative seconds to a Duration, saturating
// far past any ad length; the controller clamps to the ad duration.
func positionDuration(sec float64) time.Duration {
	ms := math.Round(sec * 1000)
	if ms >= float64(maxPositionMillis) {
		return time.Duration(maxPositionMillis) * time.Millisecond
	}
	return time.Duration(ms) * time.Millisecond
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decodeBody(r, &req); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "request/invalid_body", "Bad Request", "INVALID_BODY", err.Error())
		return
	}
	if req.Seconds == nil || *req.Seconds < 0 || math.IsNaN(*req.Seconds) || math.IsInf(*req.Seconds, 0) {
		writeProblem(w, r, http.StatusBadRequest, "request/invalid_position", "Bad Request", "INVALID_POSITION", "seconds must be a non-negative number")
		return
	}
	pos := positionDuration(*req.Seconds)
	s.action(func(c *controller.Controller) bool { return c.ReportMediaPosition(pos) })(w, r)
}
