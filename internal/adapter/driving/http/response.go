package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/keycausa/internal/application"
	"github.com/ericfisherdev/keycausa/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// CredentialSummaryResponse is the list view of a credential. It has no
// password field.
type CredentialSummaryResponse struct {
	ID       int64  `json:"id"`
	Service  string `json:"service"`
	Username string `json:"username"`
	Category string `json:"category"`
	IconData string `json:"icon_data"`
}

// CredentialResponse is a single credential with its decrypted password.
type CredentialResponse struct {
	ID        int64  `json:"id"`
	Service   string `json:"service"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Category  string `json:"category"`
	IconData  string `json:"icon_data"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// AddCredentialRequest is the JSON body for the add credential endpoint.
type AddCredentialRequest struct {
	Service  string `json:"service"`
	Username string `json:"username"`
	Password string `json:"password"`
	Category string `json:"category"`
	IconData string `json:"icon_data"`
}

// UpdateCredentialRequest is the JSON body for the update endpoint. Omitted
// fields keep their stored value.
type UpdateCredentialRequest struct {
	Service  *string `json:"service"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	Category *string `json:"category"`
	IconData *string `json:"icon_data"`
}

// IDResponse carries the id of a newly created credential.
type IDResponse struct {
	ID int64 `json:"id"`
}

// CategoryResponse is the JSON representation of a category.
type CategoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RandomQuestionResponse holds a question text, or null when none exist.
type RandomQuestionResponse struct {
	Question *string `json:"question"`
}

// ValidateAnswerRequest is the JSON body for the answer validation endpoint.
type ValidateAnswerRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ValidateAnswerResponse reports whether the answer was accepted.
type ValidateAnswerResponse struct {
	Valid bool `json:"valid"`
}

// CountResponse carries the number of configured questions.
type CountResponse struct {
	Count int `json:"count"`
}

// QuestionListResponse lists question texts.
type QuestionListResponse struct {
	Questions []string `json:"questions"`
}

// AddQuestionRequest is the JSON body for the add question endpoint.
type AddQuestionRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// DeleteQuestionRequest is the JSON body for the delete question endpoint.
type DeleteQuestionRequest struct {
	Question string `json:"question"`
}

// ExportRequest is the JSON body for the backup export endpoint.
type ExportRequest struct {
	Directory string `json:"directory"`
}

// ImportRequest is the JSON body for the backup import endpoint.
type ImportRequest struct {
	Files []string `json:"files"`
}

// BackupResponse lists the vault files that were copied or restored.
type BackupResponse struct {
	Files      []string `json:"files"`
	Restarting bool     `json:"restarting,omitempty"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toCredentialSummaryResponse converts a domain summary to its JSON representation.
func toCredentialSummaryResponse(c model.CredentialSummary) CredentialSummaryResponse {
	return CredentialSummaryResponse{
		ID:       c.ID,
		Service:  c.Service,
		Username: c.Username,
		Category: c.Category,
		IconData: c.IconData,
	}
}

// toCredentialResponse converts a revealed credential to its JSON representation.
func toCredentialResponse(c *application.RevealedCredential) CredentialResponse {
	return CredentialResponse{
		ID:        c.ID,
		Service:   c.Service,
		Username:  c.Username,
		Password:  c.Password,
		Category:  c.Category,
		IconData:  c.IconData,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// toCategoryResponse converts a domain Category to its JSON representation.
func toCategoryResponse(c model.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name}
}
