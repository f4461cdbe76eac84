package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/spacesedan/sentiscope/config"
	"github.com/spacesedan/sentiscope/internal/analysis"
)

const MAX_BODY_BYTES = 64 << 10

type TextAnalyzer interface {
	Analyze(ctx context.Context, text string) (*analysis.Result, error)
}

type Handler struct {
	analyzer       TextAnalyzer
	ready          *atomic.Bool
	hateSpeechNote string
}

type HandlerOption func(*Handler)

// WithHateSpeechAggregation tells the page how hate speech scores were
// produced. Softmax scores compete for one total, so the page says so.
func WithHateSpeechAggregation(aggregation string) HandlerOption {
	return func(h *Handler) {
		if aggregation == config.AGGREGATION_SOFTMAX {
			h.hateSpeechNote = SOFTMAX_NOTE
		} else {
			h.hateSpeechNote = ""
		}
	}
}

// NewHandler serves analyses from analyzer. ready gates the readiness probe and
// is flipped by the health monitor.
func NewHandler(analyzer TextAnalyzer, ready *atomic.Bool, opts ...HandlerOption) *Handler {
	h := &Handler{
		analyzer: analyzer,
		ready:    ready,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type AnalyzeRequest struct {
	Text string `json:"text"`
}

func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, newPageView(""))
}

// HandleAnalyze handles the form submission and re-renders the page with the
// results below the form.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MAX_BODY_BYTES)
	if err := r.ParseForm(); err != nil {
		view := newPageView("")
		view.Error = "The submitted text could not be read."
		h.renderPage(w, r, http.StatusBadRequest, view)
		return
	}

	text := r.PostFormValue("text")
	view := newPageView(text)

	result, err := h.analyzer.Analyze(r.Context(), text)
	switch {
	case errors.Is(err, analysis.ErrEmptyInput):
		view.Warning = EMPTY_WARNING
		h.renderPage(w, r, http.StatusOK, view)
		return
	case err != nil:
		slog.Error("[Web] Analysis failed",
			slog.String("request_id", RequestIDFromContext(r.Context())),
			slog.String("error", err.Error()))
		view.Error = FAILED_ERROR
		h.renderPage(w, r, http.StatusInternalServerError, view)
		return
	}

	view.Result, err = newResultView(result, h.hateSpeechNote)
	if err != nil {
		slog.Error("[Web] Failed to render charts",
			slog.String("request_id", RequestIDFromContext(r.Context())),
			slog.String("error", err.Error()))
		view.Error = FAILED_ERROR
		h.renderPage(w, r, http.StatusInternalServerError, view)
		return
	}
	h.renderPage(w, r, http.StatusOK, view)
}

// HandleAPIAnalyze is the JSON variant of HandleAnalyze.
func (h *Handler) HandleAPIAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	r.Body = http.MaxBytesReader(w, r.Body, MAX_BODY_BYTES)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, CODE_INVALID_REQUEST, "invalid request body: "+err.Error())
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), req.Text)
	switch {
	case errors.Is(err, analysis.ErrEmptyInput):
		respondError(w, r, http.StatusBadRequest, CODE_INVALID_REQUEST, EMPTY_WARNING)
		return
	case err != nil:
		slog.Error("[Web] Analysis failed",
			slog.String("request_id", RequestIDFromContext(r.Context())),
			slog.String("error", err.Error()))
		respondError(w, r, http.StatusInternalServerError, CODE_INTERNAL_ERROR, "analysis failed")
		return
	}

	respondSuccess(w, r, http.StatusOK, result)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if h.ready == nil || !h.ready.Load() {
		respondError(w, r, http.StatusServiceUnavailable, CODE_NOT_READY, "predictors are not ready")
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, view pageView) {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, view); err != nil {
		slog.Error("[Web] Failed to render page",
			slog.String("request_id", RequestIDFromContext(r.Context())),
			slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
