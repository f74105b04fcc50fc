package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/keycausa/internal/application"
	"github.com/ericfisherdev/keycausa/internal/domain/model"
)

// maxBodyBytes bounds request bodies; icons travel inline as data URIs.
const maxBodyBytes = 8 << 20

// integrityFailureMessage is the only detail a caller sees when stored
// ciphertext fails authentication.
const integrityFailureMessage = "stored credential failed integrity check"

// Handler is the HTTP driving adapter that serves the vault API.
type Handler struct {
	vault     *application.VaultService
	questions *application.QuestionService
	backup    *application.BackupService
	gate      *application.Gate
	sessions  *Sessions
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	vault *application.VaultService,
	questions *application.QuestionService,
	backup *application.BackupService,
	gate *application.Gate,
	sessions *Sessions,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		vault:     vault,
		questions: questions,
		backup:    backup,
		gate:      gate,
		sessions:  sessions,
		logger:    logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with request-id, logging, local-origin and recovery middleware. listenAddr
// is accepted as a Host in addition to loopback names.
func NewServeMux(h *Handler, listenAddr string, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Challenge endpoints reachable while locked.
	mux.HandleFunc("GET /api/v1/questions/random", h.gated(h.RandomQuestion))
	mux.HandleFunc("POST /api/v1/questions/validate", h.gated(h.ValidateAnswer))
	mux.HandleFunc("GET /api/v1/questions/count", h.gated(h.CountQuestions))
	// AddQuestion checks the session itself: first-run setup is open.
	mux.HandleFunc("POST /api/v1/questions", h.gated(h.AddQuestion))

	mux.HandleFunc("GET /api/v1/questions", h.unlocked(h.ListQuestions))
	mux.HandleFunc("DELETE /api/v1/questions", h.unlocked(h.DeleteQuestion))

	mux.HandleFunc("GET /api/v1/passwords", h.unlocked(h.ListCredentials))
	mux.HandleFunc("GET /api/v1/passwords/{id}", h.unlocked(h.GetCredential))
	mux.HandleFunc("POST /api/v1/passwords", h.unlocked(h.AddCredential))
	mux.HandleFunc("PATCH /api/v1/passwords/{id}", h.unlocked(h.UpdateCredential))
	mux.HandleFunc("DELETE /api/v1/passwords/{id}", h.unlocked(h.DeleteCredential))
	mux.HandleFunc("GET /api/v1/categories", h.unlocked(h.ListCategories))

	// Backup coordinates with the gate on its own.
	mux.HandleFunc("POST /api/v1/backup/export", h.authenticated(h.ExportBackup))
	mux.HandleFunc("POST /api/v1/backup/import", h.authenticated(h.ImportBackup))

	mux.HandleFunc("DELETE /api/v1/session", h.Lock)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = localOriginMiddleware(listenAddr, wrapped)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = requestIDMiddleware(wrapped)

	return wrapped
}

// gated rejects the request with 503 while a restore holds the gate.
func (h *Handler) gated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		release, err := h.gate.Enter()
		if err != nil {
			h.writeServiceError(w, r, err, "vault gate")
			return
		}
		defer release()
		next(w, r)
	}
}

// authenticated rejects the request with 401 unless it carries a session.
func (h *Handler) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.sessions.Valid(r) {
			writeError(w, http.StatusUnauthorized, "vault is locked")
			return
		}
		next(w, r)
	}
}

// unlocked combines gated and authenticated.
func (h *Handler) unlocked(next http.HandlerFunc) http.HandlerFunc {
	return h.gated(h.authenticated(next))
}

// ListCredentials returns credential summaries, optionally filtered by ?query=.
func (h *Handler) ListCredentials(w http.ResponseWriter, r *http.Request) {
	creds, err := h.vault.List(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		h.writeServiceError(w, r, err, "list credentials")
		return
	}

	resp := make([]CredentialSummaryResponse, 0, len(creds))
	for _, c := range creds {
		resp = append(resp, toCredentialSummaryResponse(c))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetCredential returns a single credential with its decrypted password.
func (h *Handler) GetCredential(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	cred, err := h.vault.Reveal(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "reveal credential")
		return
	}

	writeJSON(w, http.StatusOK, toCredentialResponse(cred))
}

// AddCredential stores a new credential.
func (h *Handler) AddCredential(w http.ResponseWriter, r *http.Request) {
	var req AddCredentialRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := h.vault.Add(r.Context(), model.NewCredential{
		Service:  req.Service,
		Username: req.Username,
		Password: req.Password,
		Category: req.Category,
		IconData: req.IconData,
	})
	if err != nil {
		h.writeServiceError(w, r, err, "add credential")
		return
	}

	writeJSON(w, http.StatusCreated, IDResponse{ID: id})
}

// UpdateCredential applies a partial update.
func (h *Handler) UpdateCredential(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req UpdateCredentialRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.vault.Update(r.Context(), model.CredentialPatch{
		ID:       id,
		Service:  req.Service,
		Username: req.Username,
		Password: req.Password,
		Category: req.Category,
		IconData: req.IconData,
	})
	if err != nil {
		h.writeServiceError(w, r, err, "update credential")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteCredential removes a credential. Missing ids succeed.
func (h *Handler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.vault.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err, "delete credential")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListCategories returns every category name.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.vault.Categories(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "list categories")
		return
	}

	resp := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, toCategoryResponse(c))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Lock ends the caller's session.
func (h *Handler) Lock(w http.ResponseWriter, r *http.Request) {
	h.sessions.Revoke(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	if h.gate.IsClosed() {
		status = "restarting"
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: status,
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeServiceError maps domain errors onto HTTP status codes. Integrity
// failures and unexpected errors are logged and reported generically.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, model.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, model.ErrDuplicate):
		writeError(w, http.StatusConflict, "question already exists")
	case errors.Is(err, model.ErrLastQuestion):
		writeError(w, http.StatusConflict, model.ErrLastQuestion.Error())
	case errors.Is(err, model.ErrVaultUnavailable):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, model.ErrVaultUnavailable.Error())
	case errors.Is(err, model.ErrAuthentication):
		h.logger.Error("integrity check failed", "op", op, "error", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, integrityFailureMessage)
	default:
		h.logger.Error("request failed", "op", op, "error", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads a JSON body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// parseID reads the {id} path value, writing a 400 when it is not a positive integer.
func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid credential id")
		return 0, false
	}
	return id, true
}
