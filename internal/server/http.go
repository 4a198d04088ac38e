package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/oauth2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/deadline-extractor/constants"
	"github.com/joseph-ayodele/deadline-extractor/internal/calendar"
	"github.com/joseph-ayodele/deadline-extractor/internal/common"
	"github.com/joseph-ayodele/deadline-extractor/internal/metrics"
)

const stateCookie = "oauth_state"

// HTTPConfig holds the optional collaborators of the HTTP surface.
type HTTPConfig struct {
	Gatherer  prometheus.Gatherer         // serves /metrics when set
	OAuth     *oauth2.Config              // enables /connect and /callback
	TokenFile string                      // where /callback stores the token
	Health    func(context.Context) error // extra readiness check for /healthz
}

type httpHandler struct {
	svc    *DeadlinesService
	cfg    HTTPConfig
	logger *slog.Logger
}

// NewHTTPHandler exposes the upload endpoint, run lookup, exports, the Google
// consent flow, health and metrics.
func NewHTTPHandler(svc *DeadlinesService, cfg HTTPConfig, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &httpHandler{svc: svc, cfg: cfg, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.root)
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.HandleFunc("POST /process-document", h.processDocument)
	mux.HandleFunc("GET /runs/{id}", h.getRun)
	mux.HandleFunc("GET /export/deadlines.xlsx", h.exportFile("xlsx"))
	mux.HandleFunc("GET /export/deadlines.ics", h.exportFile("ics"))
	mux.HandleFunc("GET /connect", h.connect)
	mux.HandleFunc("GET /callback", h.callback)
	if cfg.Gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(cfg.Gatherer))
	}
	return h.withRequestLog(mux)
}

func (h *httpHandler) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Legal Document Extraction API"})
}

func (h *httpHandler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Health != nil {
		if err := h.cfg.Health(r.Context()); err != nil {
			h.logger.Warn("http.healthz.failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "detail": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *httpHandler) processDocument(w http.ResponseWriter, r *http.Request) {
	// multipart framing gets 1 MB on top of the document cap
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadBytes+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("File exceeds maximum size of %d MB", constants.MaxUploadBytes>>20))
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, constants.MaxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	res, err := h.svc.proc.ProcessUpload(r.Context(), header.Filename, content)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *httpHandler) getRun(w http.ResponseWriter, r *http.Request) {
	if h.svc.runs == nil || h.svc.deadlines == nil {
		writeError(w, http.StatusNotImplemented, "run storage is not configured")
		return
	}
	id, err := parseRunID(r.PathValue("id"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	run, deadlines, err := h.svc.lookupRun(r.Context(), id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runView{Run: run, Deadlines: deadlines})
}

func (h *httpHandler) exportFile(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.svc.exporter == nil {
			writeError(w, http.StatusNotImplemented, "export is not configured")
			return
		}
		qv := r.URL.Query()
		limit := 0
		if raw := qv.Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "limit must be an integer")
				return
			}
			limit = n
		}
		q, err := exportQuery(qv.Get("run_id"), qv.Get("from"), limit)
		if err != nil {
			h.writeErr(w, err)
			return
		}
		file, err := h.svc.render(r.Context(), format, q)
		if err != nil {
			h.writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", file.contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.name))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(file.body)
	}
}

func (h *httpHandler) connect(w http.ResponseWriter, r *http.Request) {
	if h.cfg.OAuth == nil {
		writeError(w, http.StatusServiceUnavailable, "Google Calendar credentials are not configured")
		return
	}
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, calendar.AuthCodeURL(h.cfg.OAuth, state), http.StatusFound)
}

func (h *httpHandler) callback(w http.ResponseWriter, r *http.Request) {
	if h.cfg.OAuth == nil {
		writeError(w, http.StatusServiceUnavailable, "Google Calendar credentials are not configured")
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	if c, err := r.Cookie(stateCookie); err == nil && c.Value != r.URL.Query().Get("state") {
		writeError(w, http.StatusBadRequest, "state mismatch")
		return
	}
	if err := calendar.Exchange(r.Context(), h.cfg.OAuth, code, h.cfg.TokenFile); err != nil {
		h.logger.Error("http.oauth.exchange_failed", "error", err)
		writeError(w, http.StatusBadGateway, "token exchange failed: "+err.Error())
		return
	}
	h.logger.Info("http.oauth.connected", "token_file", h.cfg.TokenFile)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Google Calendar connected!"})
}

// writeErr maps application and gRPC status errors onto HTTP codes.
func (h *httpHandler) writeErr(w http.ResponseWriter, err error) {
	code := common.GRPCCode(err)
	msg := err.Error()
	if st, ok := status.FromError(err); ok {
		code = st.Code()
		msg = st.Message()
	}
	switch code {
	case codes.InvalidArgument:
		writeError(w, http.StatusBadRequest, msg)
	case codes.NotFound:
		writeError(w, http.StatusNotFound, msg)
	case codes.Unimplemented:
		writeError(w, http.StatusNotImplemented, msg)
	default:
		h.logger.Error("http.request.error", "error", err)
		writeError(w, http.StatusInternalServerError, "Processing error: "+msg)
	}
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *httpHandler) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(common.WithRequestID(r.Context(), id)))
		h.logger.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"request_id", id,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}
