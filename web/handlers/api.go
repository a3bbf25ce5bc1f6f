package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/snagasawa/tubuyaki/internal/config"
	"github.com/snagasawa/tubuyaki/internal/engine"
	"github.com/snagasawa/tubuyaki/internal/storage"
	"github.com/snagasawa/tubuyaki/pkg/types"
)

// APIHandlers contains HTTP handlers for the REST API.
type APIHandlers struct {
	lifecycle *engine.Manager
	query     *engine.QueryService
	feedback  *engine.FeedbackService
	related   *engine.RelatedService
	config    *config.Config
}

// NewAPIHandlers creates a new APIHandlers instance. The related service may
// be nil when the storage backend has no vector support.
func NewAPIHandlers(lifecycle *engine.Manager, query *engine.QueryService, feedback *engine.FeedbackService, related *engine.RelatedService, cfg *config.Config) *APIHandlers {
	return &APIHandlers{
		lifecycle: lifecycle,
		query:     query,
		feedback:  feedback,
		related:   related,
		config:    cfg,
	}
}

// CreateRecord handles POST /api/tubuyaki - capture a new note.
// Returns 201 even when the transform failed or credentials are missing: the
// record write itself succeeded and the response carries a warning.
func (h *APIHandlers) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	outcome, err := h.lifecycle.Create(r.Context(), req.RawText)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, "rawText is required", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to create record", err)
		return
	}

	respondJSON(w, http.StatusCreated, RecordResponse{
		Record:          outcome.Record,
		Warning:         outcome.Warning,
		ConfirmQuestion: outcome.ConfirmQuestion,
	})
}

// GetRecord handles GET /api/tubuyaki/{id} - get a single record by ID.
func (h *APIHandlers) GetRecord(w http.ResponseWriter, r *http.Request) {
	id := extractID(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "record ID is required", nil)
		return
	}

	record, err := h.query.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "record not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get record", err)
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// UpdateRecord handles PATCH /api/tubuyaki/{id} - feedback or reprocess,
// disambiguated by the reprocess flag in the request body.
func (h *APIHandlers) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	id := extractID(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "record ID is required", nil)
		return
	}

	var req UpdateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	if req.Reprocess {
		h.reprocessRecord(w, r, id, req)
		return
	}
	h.setFeedback(w, r, id, req)
}

func (h *APIHandlers) reprocessRecord(w http.ResponseWriter, r *http.Request, id string, req UpdateRecordRequest) {
	outcome, err := h.lifecycle.Reprocess(r.Context(), id, req.RawText)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidInput):
			respondError(w, http.StatusBadRequest, "rawText is required for reprocessing", err)
		case errors.Is(err, storage.ErrNotFound):
			respondError(w, http.StatusNotFound, "record not found", err)
		default:
			respondError(w, http.StatusInternalServerError, "failed to reprocess record", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, RecordResponse{
		Record:          outcome.Record,
		Warning:         outcome.Warning,
		ConfirmQuestion: outcome.ConfirmQuestion,
	})
}

func (h *APIHandlers) setFeedback(w http.ResponseWriter, r *http.Request, id string, req UpdateRecordRequest) {
	if req.Feedback == nil {
		respondError(w, http.StatusBadRequest, "feedback is required unless reprocess is set", nil)
		return
	}

	var detail *types.FeedbackDetail
	if req.FeedbackDetail != nil {
		d := types.FeedbackDetail(*req.FeedbackDetail)
		detail = &d
	}

	record, err := h.feedback.SetFeedback(r.Context(), id, types.Feedback(*req.Feedback), detail)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidInput):
			respondError(w, http.StatusBadRequest, "invalid feedback value", err)
		case errors.Is(err, storage.ErrNotFound):
			respondError(w, http.StatusNotFound, "record not found", err)
		default:
			respondError(w, http.StatusInternalServerError, "failed to set feedback", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// DeleteRecord handles DELETE /api/tubuyaki/{id}.
func (h *APIHandlers) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := extractID(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "record ID is required", nil)
		return
	}

	if err := h.lifecycle.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "record not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete record", err)
		return
	}

	respondJSON(w, http.StatusOK, DeleteResponse{Deleted: true, ID: id})
}

// ListRecords handles GET /api/tubuyaki - list records, newest first.
// The scope query parameter selects "today" (default) or "all".
func (h *APIHandlers) ListRecords(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")

	var records []*types.Record
	var err error
	switch scope {
	case "", "today":
		records, err = h.query.ListToday(r.Context())
	case "all":
		records, err = h.query.ListAll(r.Context())
	default:
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown scope %q", scope), nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list records", err)
		return
	}

	respondJSON(w, http.StatusOK, ListResponse{Records: records, Total: len(records)})
}

// SearchRecords handles GET /api/tubuyaki/search - filtered search over records.
// Query params: q (substring), intent (tag), from and to (YYYY-MM-DD, to is
// inclusive through end-of-day). All supplied filters must match.
func (h *APIHandlers) SearchRecords(w http.ResponseWriter, r *http.Request) {
	params := engine.SearchParams{
		Query:  r.URL.Query().Get("q"),
		Intent: r.URL.Query().Get("intent"),
	}
	if params.Intent != "" && !types.IsKnownIntentTag(params.Intent) {
		respondError(w, http.StatusBadRequest, "unknown intent tag", nil)
		return
	}

	if from := r.URL.Query().Get("from"); from != "" {
		t, err := time.ParseInLocation("2006-01-02", from, time.Local)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD", err)
			return
		}
		params.From = t
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := time.ParseInLocation("2006-01-02", to, time.Local)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD", err)
			return
		}
		params.To = t
	}

	records, err := h.query.Search(r.Context(), params)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "search failed", err)
		return
	}

	respondJSON(w, http.StatusOK, ListResponse{Records: records, Total: len(records)})
}

// RelatedRecords handles GET /api/tubuyaki/{id}/related - embedding-based
// similar records. Returns 503 when the storage backend has no vector support.
func (h *APIHandlers) RelatedRecords(w http.ResponseWriter, r *http.Request) {
	id := extractID(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "record ID is required", nil)
		return
	}

	if h.related == nil || !h.related.Available() {
		respondError(w, http.StatusServiceUnavailable, "related records require a vector-capable storage backend", nil)
		return
	}

	limit := parseInt(r.URL.Query().Get("limit"), 0)
	records, err := h.related.Related(r.Context(), id, limit)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "record not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to find related records", err)
		return
	}

	respondJSON(w, http.StatusOK, ListResponse{Records: records, Total: len(records)})
}

// GetConfig handles GET /api/config - current configuration with masked keys.
func (h *APIHandlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ToConfigResponse(h.config))
}

// Helper functions

// extractID extracts a path parameter from the request.
func extractID(r *http.Request, key string) string {
	return r.PathValue(key)
}

// parseInt parses an integer from a string, returning defaultValue if parsing fails.
func parseInt(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return val
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers already sent; nothing to do but note it.
		log.Printf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}

	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}

	respondJSON(w, statusCode, errResp)
}
