package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"waitboard/internal/board"
	"waitboard/internal/store"
)

// Refresher re-fetches the backend snapshot on demand. Satisfied by the
// poller.
type Refresher interface {
	Refresh(ctx context.Context) (board.Frame, error)
}

type Handler struct {
	board     *board.Board
	refresher Refresher
}

func NewHandler(b *board.Board, refresher Refresher) *Handler {
	return &Handler{board: b, refresher: refresher}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/api/board/frame", h.handleFrame)
	mux.HandleFunc("/api/board/refresh", h.handleRefresh)
	mux.HandleFunc("/api/board/viewport", h.handleViewport)
	mux.HandleFunc("/api/board/scroll", h.handleScroll)
	mux.HandleFunc("/api/board/scroll-to-active", h.handleScrollToActive)
	mux.HandleFunc("/api/entries/", h.handleEntry)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.board.Frame())
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	frame, err := h.refresher.Refresh(r.Context())
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, frame)
}

type viewportRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (h *Handler) handleViewport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req viewportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "width and height must be positive")
		return
	}
	writeJSON(w, http.StatusOK, h.board.SetViewport(req.Width, req.Height))
}

type scrollRequest struct {
	Offset int `json:"offset"`
}

func (h *Handler) handleScroll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req scrollRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.board.SetScrollOffset(req.Offset))
}

func (h *Handler) handleScrollToActive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.board.ScrollToActive(false))
}

type readyRequest struct {
	HeldMs     int       `json:"held_ms"`
	MovementPx float64   `json:"movement_px"`
	PathX      []float64 `json:"path_x,omitempty"`
	PathY      []float64 `json:"path_y,omitempty"`
}

type partySizeRequest struct {
	PartySize int `json:"party_size"`
}

type callResponse struct {
	Dial string `json:"dial,omitempty"`
}

// handleEntry dispatches /api/entries/{id}/actions/{action} and
// /api/entries/{id}/questions/{qid}.
func (h *Handler) handleEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/entries/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 3 {
		writeError(w, http.StatusNotFound, "not_found", "unknown entry route")
		return
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "entry id must be a positive integer")
		return
	}

	switch parts[1] {
	case "actions":
		h.handleAction(w, r, id, parts[2])
	case "questions":
		qid, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || qid <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "question id must be a positive integer")
			return
		}
		h.respond(w, h.board.AskQuestion(r.Context(), id, qid))
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown entry route")
	}
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request, id int64, action string) {
	switch action {
	case board.ActionReady:
		var req readyRequest
		if !decodeBody(w, r, &req) {
			return
		}
		gesture := board.Gesture{Held: time.Duration(req.HeldMs) * time.Millisecond, Movement: req.MovementPx}
		if len(req.PathX) > 0 {
			gesture = board.GestureFromPath(gesture.Held, req.PathX, req.PathY)
		}
		h.respond(w, h.board.Ready(r.Context(), id, gesture))
	case board.ActionAsk:
		h.respond(w, h.board.Ask(id))
	case board.ActionArrive:
		h.respond(w, h.board.Arrive(r.Context(), id))
	case board.ActionCancel:
		h.respond(w, h.board.Cancel(r.Context(), id))
	case board.ActionUndo:
		h.respond(w, h.board.Undo(r.Context(), id))
	case board.ActionCall:
		dial, err := h.board.Call(id)
		if err != nil {
			status, code, msg := mapError(err)
			writeError(w, status, code, msg)
			return
		}
		writeJSON(w, http.StatusOK, callResponse{Dial: dial})
	case "select":
		writeJSON(w, http.StatusOK, h.board.SelectRow(id))
	case "expand":
		writeJSON(w, http.StatusOK, h.board.ExpandRow(id))
	case "next-page":
		writeJSON(w, http.StatusOK, h.board.NextQuestionPage(id))
	case "exit-ask":
		writeJSON(w, http.StatusOK, h.board.ExitAskMode(id))
	case "party-size":
		var req partySizeRequest
		if !decodeBody(w, r, &req) {
			return
		}
		h.respond(w, h.board.SetPartySize(r.Context(), id, req.PartySize))
	default:
		writeError(w, http.StatusNotFound, "unknown_action", "unknown action")
	}
}

// respond finishes a board action: errors map to their status code, success
// returns the freshly rendered frame.
func (h *Handler) respond(w http.ResponseWriter, err error) {
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, h.board.Frame())
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return false
	}
	return true
}

func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, store.ErrInvalidState):
		return http.StatusConflict, "invalid_state", "entry state does not allow this action"
	case errors.Is(err, store.ErrWriteRejected):
		return http.StatusConflict, "write_rejected", "backend rejected the write"
	case errors.Is(err, store.ErrValidation):
		return http.StatusBadRequest, "invalid_request", "request failed validation"
	default:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	}
}

type errorResponse struct {
	Error responseError `json:"error"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: responseError{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
