package server

import (
	"encoding/json"
	"net/http"

	"github.com/hyperjump/arka/internal/models"
	"github.com/hyperjump/arka/pkg/utils"
	"go.uber.org/zap"
)

// User-facing error messages.
const (
	MsgNotInitialized = "Layanan belum terinisialisasi"
	MsgEmptyMessage   = "Pesan tidak boleh kosong."
	MsgGeneration     = "Maaf, terjadi kesalahan saat menghasilkan jawaban."
	MsgStatus         = "Status layanan tidak dapat dibaca."
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		s.respondError(w, http.StatusServiceUnavailable, MsgNotInitialized)
		return
	}
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, MsgEmptyMessage)
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, MsgEmptyMessage)
		return
	}
	s.logger.Debug("chat request", zap.String("message", utils.Truncate(req.Message, 120)))

	turn, err := s.chat.Answer(r.Context(), req.Message)
	if err != nil {
		s.logger.Error("chat failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, MsgGeneration)
		return
	}
	s.logger.Debug("chat answered",
		zap.Bool("grounded", turn.Grounded),
		zap.Int("context_documents", len(turn.RetrievedChunks)),
	)
	s.respondJSON(w, http.StatusOK, models.ChatResponse{Response: turn.GeneratedAnswer})
}

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		s.respondError(w, http.StatusServiceUnavailable, MsgNotInitialized)
		return
	}
	st, err := s.status.Status(r.Context())
	if err != nil {
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, MsgStatus)
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
