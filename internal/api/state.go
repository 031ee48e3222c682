package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/gray-logic-node/internal/controller"
	"github.com/nerrad567/gray-logic-node/internal/device"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// stateResponse is the body of GET /api/v1/state.
type stateResponse struct {
	ClientID string         `json:"client_id"`
	Variant  device.Variant `json:"variant"`
	Power    string         `json:"power"`

	// Relay is set for relay nodes.
	Relay string `json:"relay,omitempty"`

	// Color is set for LED nodes.
	Color *controller.ColorState `json:"color,omitempty"`
}

// handleGetState returns the last applied state.
func (s *Server) handleGetState(w http.ResponseWriter, _ *http.Request) {
	snap := s.state.Current()
	variant := s.state.Variant()

	resp := stateResponse{
		ClientID: s.clientID,
		Variant:  variant,
		Power:    snap.PowerPayload(),
	}
	if variant == device.VariantRelay {
		resp.Relay = device.OnOff(snap.RelayPosition)
	} else {
		c := controller.ColorStateOf(snap)
		resp.Color = &c
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleGetHistory returns recent state history, newest first.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := parseHistoryLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	since, err := parseSinceParam(r.URL.Query().Get("since"))
	if err != nil {
		writeBadRequest(w, "invalid since timestamp")
		return
	}

	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "state history unavailable")
		return
	}

	entries, err := s.history.GetHistory(r.Context(), s.clientID, since, limit)
	if err != nil {
		s.logger.Error("loading state history", "error", err)
		writeInternalError(w, "failed to load state history")
		return
	}

	if entries == nil {
		entries = []device.StateHistoryEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"client_id": s.clientID,
		"history":   entries,
		"count":     len(entries),
	})
}

// parseHistoryLimit parses the limit parameter with a default and ceiling.
func parseHistoryLimit(raw string) (int, error) {
	if raw == "" {
		return defaultHistoryLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("invalid limit")
	}
	if limit > maxHistoryLimit {
		return 0, fmt.Errorf("limit exceeds maximum")
	}

	return limit, nil
}

// parseSinceParam parses the since parameter as RFC3339/RFC3339Nano.
func parseSinceParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, raw)
}
