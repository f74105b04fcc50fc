package httphandler

import (
	"net/http"
)

// RandomQuestion returns one question text, or null when none are configured.
func (h *Handler) RandomQuestion(w http.ResponseWriter, r *http.Request) {
	q, ok, err := h.questions.Random(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "random question")
		return
	}

	var resp RandomQuestionResponse
	if ok {
		resp.Question = &q
	}
	writeJSON(w, http.StatusOK, resp)
}

// ValidateAnswer checks an answer and issues a session cookie when it matches.
func (h *Handler) ValidateAnswer(w http.ResponseWriter, r *http.Request) {
	var req ValidateAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	valid, err := h.questions.Validate(r.Context(), req.Question, req.Answer)
	if err != nil {
		h.writeServiceError(w, r, err, "validate answer")
		return
	}

	if valid {
		h.sessions.Issue(w)
	} else {
		h.logger.Warn("security answer rejected", "request_id", RequestID(r.Context()))
	}
	writeJSON(w, http.StatusOK, ValidateAnswerResponse{Valid: valid})
}

// CountQuestions returns how many questions are configured.
func (h *Handler) CountQuestions(w http.ResponseWriter, r *http.Request) {
	n, err := h.questions.Count(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "count questions")
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// ListQuestions returns the question texts without their answer hashes.
func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	texts, err := h.questions.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "list questions")
		return
	}
	writeJSON(w, http.StatusOK, QuestionListResponse{Questions: texts})
}

// AddQuestion adds a question. Without a session it is only allowed while no
// question exists, which is how the first question gets set up.
func (h *Handler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Valid(r) {
		n, err := h.questions.Count(r.Context())
		if err != nil {
			h.writeServiceError(w, r, err, "count questions")
			return
		}
		if n > 0 {
			writeError(w, http.StatusUnauthorized, "vault is locked")
			return
		}
	}

	var req AddQuestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.questions.Add(r.Context(), req.Question, req.Answer); err != nil {
		h.writeServiceError(w, r, err, "add question")
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// DeleteQuestion removes a question, refusing to remove the last one.
func (h *Handler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	var req DeleteQuestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.questions.DeleteKeepingOne(r.Context(), req.Question); err != nil {
		h.writeServiceError(w, r, err, "delete question")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
