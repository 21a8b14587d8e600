package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/synthgen/internal/api/shared"
	"github.com/phrazzld/synthgen/internal/domain"
	"github.com/phrazzld/synthgen/internal/platform/logger"
	"github.com/phrazzld/synthgen/internal/store"
)

// IdentifyRequest is the payload for POST /identify.
type IdentifyRequest struct {
	Payload   string `json:"payload" validate:"required"`
	Auxiliary string `json:"auxiliary"`
}

// IdentifyResponse reports the identifier of a payload and whether a
// record is already cached for it.
type IdentifyResponse struct {
	ID     string `json:"id"`
	Cached bool   `json:"cached"`
}

// RecordHandler serves cache record lookups.
type RecordHandler struct {
	cache  store.CacheStore
	logger *slog.Logger
}

// NewRecordHandler creates a RecordHandler over the given cache store.
func NewRecordHandler(cache store.CacheStore, logger *slog.Logger) *RecordHandler {
	return &RecordHandler{cache: cache, logger: logger}
}

// GetRecord handles GET /records/{id}, returning the stored record.
func (h *RecordHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	record, err := h.cache.Read(r.Context(), id)
	if err != nil {
		if store.IsNotFoundError(err) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Record not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to read record", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, record)
}

// HeadRecord handles HEAD /records/{id} using only an existence check.
func (h *RecordHandler) HeadRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	exists, err := h.cache.Exists(r.Context(), id)
	if err != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).Error("failed to check record",
			"id", id, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !exists {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Identify handles POST /identify, computing the identifier for a payload
// and optional auxiliary text without running the pipeline.
func (h *RecordHandler) Identify(w http.ResponseWriter, r *http.Request) {
	var req IdentifyRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Payload is required", err)
		return
	}

	item, err := domain.NewWorkItem(req.Payload, req.Auxiliary)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid payload", err)
		return
	}

	exists, err := h.cache.Exists(r.Context(), item.ID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to check record", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, IdentifyResponse{
		ID:     item.ID.String(),
		Cached: exists,
	})
}

func (h *RecordHandler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid record ID")
		return uuid.Nil, false
	}
	return id, true
}
