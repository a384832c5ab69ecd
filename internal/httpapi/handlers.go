package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/planning-poker-backend/internal/hub"
	"github.com/DoyleJ11/planning-poker-backend/internal/markup"
	"github.com/DoyleJ11/planning-poker-backend/internal/session"
	"github.com/DoyleJ11/planning-poker-backend/internal/tracker"
)

// Room codes skip 0, O, 1 and I so they can be read out loud.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

func GenerateCode(n int) (string, error) {
	code := make([]byte, n)
	limit := big.NewInt(int64(len(codeAlphabet)))
	for i := range code {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[idx.Int64()]
	}
	return string(code), nil
}

const maxCodeAttempts = 10

func CreateRoom(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for range maxCodeAttempts {
			code, err := GenerateCode(codeLength)
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			if h.Create(r.Context(), code) != nil {
				writeJSON(w, http.StatusCreated, struct {
					Code string `json:"code"`
				}{Code: code})
				return
			}
			log.Debug("collision on code, regenerating", zap.String("room", code))
		}
		http.Error(w, "failed to create room", http.StatusInternalServerError)
	}
}

func ListRooms(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, struct {
			Rooms []string `json:"rooms"`
		}{Rooms: h.List(r.Context())})
	}
}

type roomView struct {
	Code    string           `json:"code"`
	Clients int              `json:"clients"`
	State   session.Snapshot `json:"state"`
}

func GetRoom(h *hub.Hub, maskVotes bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm := h.Get(r.Context(), chi.URLParam(r, "code"))
		if rm == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		v, ok := rm.View(r.Context())
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		snap := v.Snapshot
		if maskVotes && !snap.Revealed {
			snap.Votes = nil
		}
		writeJSON(w, http.StatusOK, roomView{Code: v.Code, Clients: v.NumClients, State: snap})
	}
}

func DeleteRoom(h *hub.Hub, defaultRoom string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if code == defaultRoom {
			http.Error(w, "the default room cannot be removed", http.StatusConflict)
			return
		}
		if !h.Remove(r.Context(), code) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type renderedText struct {
	Raw  string `json:"raw"`
	HTML string `json:"html"`
	Text string `json:"text"`
}

type itemView struct {
	ItemID             string        `json:"itemId"`
	Summary            *string       `json:"summary"`
	AcceptanceCriteria *renderedText `json:"acceptanceCriteria"`
	Description        *renderedText `json:"description"`
}

func render(s *string) *renderedText {
	if s == nil {
		return nil
	}
	res := markup.Convert(*s)
	return &renderedText{Raw: *s, HTML: res.HTML, Text: res.Text}
}

// GetItem returns a tracker item with its markup fields rendered.
func GetItem(t session.Tracker, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "itemID")
		details, err := t.Details(r.Context(), id)
		switch {
		case err == nil:
		case errors.Is(err, session.ErrNoTracker):
			http.Error(w, "no issue tracker configured", http.StatusServiceUnavailable)
			return
		case tracker.IsNotFound(err):
			http.Error(w, "item not found", http.StatusNotFound)
			return
		default:
			log.Warn("tracker: fetch details failed", zap.String("item", id), zap.Error(err))
			http.Error(w, "issue tracker unavailable", http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, itemView{
			ItemID:             id,
			Summary:            details.Summary,
			AcceptanceCriteria: render(details.AcceptanceCriteria),
			Description:        render(details.Description),
		})
	}
}

// Healthz answers 503 once the hub has stopped, otherwise it reports how
// many rooms are open.
func Healthz(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-h.Done():
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
			return
		default:
		}
		writeJSON(w, http.StatusOK, struct {
			Status string `json:"status"`
			Rooms  int    `json:"rooms"`
		}{Status: "ok", Rooms: len(h.List(r.Context()))})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger writes one line per request.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("took", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
