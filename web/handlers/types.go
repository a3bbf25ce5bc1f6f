package handlers

import (
	"github.com/snagasawa/tubuyaki/internal/config"
	"github.com/snagasawa/tubuyaki/pkg/types"
)

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// CreateRecordRequest is the request body for POST /api/tubuyaki.
type CreateRecordRequest struct {
	RawText string `json:"rawText"`
}

// UpdateRecordRequest is the request body for PATCH /api/tubuyaki/{id}.
// Reprocess true selects reprocess mode (RawText required); otherwise the
// request is feedback mode (Feedback required).
type UpdateRecordRequest struct {
	Reprocess      bool    `json:"reprocess,omitempty"`
	RawText        string  `json:"rawText,omitempty"`
	Feedback       *string `json:"feedback,omitempty"`
	FeedbackDetail *string `json:"feedbackDetail,omitempty"`
}

// RecordResponse wraps a record with the transient outcome of a
// create/reprocess call. Warning is set when the record was stored without a
// completed transform; confirmQuestion is the model's clarifying question for
// a low-confidence result and is never persisted.
type RecordResponse struct {
	Record          *types.Record `json:"record"`
	Warning         string        `json:"warning,omitempty"`
	ConfirmQuestion string        `json:"confirmQuestion,omitempty"`
}

// ListResponse is the response format for record list and search endpoints.
type ListResponse struct {
	Records []*types.Record `json:"records"`
	Total   int             `json:"total"`
}

// DeleteResponse is the response format for DELETE /api/tubuyaki/{id}.
type DeleteResponse struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// ConfigResponse is the response format for GET /api/config.
// The API key is masked for display.
type ConfigResponse struct {
	Provider      string `json:"provider"`
	Model         string `json:"model"`
	APIKey        string `json:"api_key"` // Masked
	SummaryPolicy string `json:"summary_policy"`
	StorageEngine string `json:"storage_engine"`
}

// MaskAPIKey masks an API key for safe display.
// Shows first 7 chars and last 4 chars, hides the middle.
func MaskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) < 8 {
		return "***"
	}
	return key[:7] + "..." + key[len(key)-4:]
}

// ToConfigResponse converts a config.Config to ConfigResponse with a masked key.
func ToConfigResponse(cfg *config.Config) ConfigResponse {
	return ConfigResponse{
		Provider:      cfg.LLM.LLMProvider,
		Model:         cfg.LLM.Model(),
		APIKey:        MaskAPIKey(cfg.LLM.APIKey()),
		SummaryPolicy: cfg.Transform.SummaryPolicy,
		StorageEngine: cfg.Storage.StorageEngine,
	}
}
