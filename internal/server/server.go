// Package server exposes the synthesis pipeline over HTTP with a
// uniform JSON envelope.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/speechfoundry/chorus/internal/config"
	"github.com/speechfoundry/chorus/internal/speech"
)

// Version is stamped at build time.
var Version = "dev"

// Server routes API requests to the speech service.
type Server struct {
	cfg config.Config
	svc *speech.Service
	log *slog.Logger
}

// New builds the API handler. The returned router carries CORS, rate
// limiting, and metrics middleware.
func New(cfg config.Config, svc *speech.Service, log *slog.Logger) http.Handler {
	s := &Server{
		cfg: cfg,
		svc: svc,
		log: log.With(slog.String("component", "server")),
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	if cfg.HTTP.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(cfg.HTTP.RateLimitPerMinute, time.Minute))
	}
	r.Use(newAPIMetrics().middleware)

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1/tts", func(r chi.Router) {
		r.Post("/synthesize", s.handleSynthesize)
		r.Post("/synthesize-ssml", s.handleSynthesizeSSML)
		r.Post("/document", s.handleDocument)
		r.Post("/batch", s.handleBatch)
		r.Get("/voices", s.handleVoices)
		r.Get("/languages", s.handleLanguages)
		r.Get("/history/{user_id}", s.handleHistory)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": s.cfg.ServiceName,
		"version": Version,
	})
}

// synthesizeRequest is the JSON body shared by the synthesize endpoints.
type synthesizeRequest struct {
	Text         string  `json:"text"`
	SSML         string  `json:"ssml"`
	LanguageCode string  `json:"language_code"`
	VoiceName    string  `json:"voice_name"`
	SSMLGender   string  `json:"ssml_gender"`
	Encoding     string  `json:"audio_encoding"`
	SpeakingRate float64 `json:"speaking_rate"`
	Pitch        float64 `json:"pitch"`
	UserID       string  `json:"user_id"`
}

func (r synthesizeRequest) input() speech.Input {
	return speech.Input{
		UserID:       r.UserID,
		Text:         r.Text,
		SSML:         r.SSML,
		LanguageCode: r.LanguageCode,
		VoiceName:    r.VoiceName,
		Gender:       r.SSMLGender,
		Encoding:     r.Encoding,
		SpeakingRate: r.SpeakingRate,
		Pitch:        r.Pitch,
	}
}

func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var body synthesizeRequest
	if !decodeBody(w, r, &body) {
		return
	}
	res, err := s.svc.SynthesizeText(r.Context(), body.input())
	if err != nil {
		s.logError(r, err)
		writeKindError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Text-to-speech synthesis completed successfully", res)
}

func (s *Server) handleSynthesizeSSML(w http.ResponseWriter, r *http.Request) {
	var body synthesizeRequest
	if !decodeBody(w, r, &body) {
		return
	}
	res, err := s.svc.SynthesizeSSML(r.Context(), body.input())
	if err != nil {
		s.logError(r, err)
		writeKindError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Text-to-speech synthesis completed successfully", res)
}

type documentRequest struct {
	synthesizeRequest
	Name    string `json:"name"`
	Combine bool   `json:"combine"`
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	var body documentRequest
	if !decodeBody(w, r, &body) {
		return
	}
	res, err := s.svc.ProcessDocument(r.Context(), speech.DocumentInput{
		Input:   body.input(),
		Name:    body.Name,
		Combine: body.Combine,
	})
	if err != nil {
		s.logError(r, err)
		writeKindError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Document synthesis completed", res)
}

type batchRequest struct {
	synthesizeRequest
	Items []speech.BatchItem `json:"items"`
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var body batchRequest
	if !decodeBody(w, r, &body) {
		return
	}
	res, err := s.svc.ProcessBatch(r.Context(), speech.BatchInput{
		Input: body.input(),
		Items: body.Items,
	})
	if err != nil {
		s.logError(r, err)
		writeKindError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Batch synthesis completed", res)
}

func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	voices, catalog, err := s.svc.Voices(r.Context(), r.URL.Query().Get("language_code"))
	if err != nil {
		s.logError(r, err)
		writeKindError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Available voices retrieved successfully", map[string]any{
		"total_voices": catalog.Total,
		"voices":       voices,
		"categories":   catalog,
	})
}

func (s *Server) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	langs := speech.Languages()
	writeSuccess(w, http.StatusOK, "Supported languages retrieved successfully", map[string]any{
		"languages": langs,
		"total":     len(langs),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "ValidationError", "limit must be an integer between 1 and 100")
			return
		}
		limit = n
	}
	reqs, err := s.svc.History(r.Context(), userID, limit)
	if err != nil {
		s.logError(r, err)
		writeKindError(w, err)
		return
	}
	records := make([]map[string]any, 0, len(reqs))
	for _, h := range reqs {
		records = append(records, map[string]any{
			"request_id":       h.RequestID,
			"type":             h.Kind,
			"text_length":      h.TextLength,
			"voice_name":       h.VoiceName,
			"language_code":    h.Language,
			"audio_encoding":   h.Encoding,
			"status":           h.Status,
			"error_kind":       h.ErrorKind,
			"audio_url":        h.Locator,
			"duration_seconds": h.DurationSec,
			"created_at":       h.CreatedAt.Format(time.RFC3339),
		})
	}
	writeSuccess(w, http.StatusOK, "User history retrieved successfully", map[string]any{
		"user_id": userID,
		"history": records,
		"count":   len(records),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "request body must be valid JSON")
		return false
	}
	return true
}

func (s *Server) logError(r *http.Request, err error) {
	s.log.Error("request failed",
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.String("error", err.Error()))
}
