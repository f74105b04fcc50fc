package model

// SecurityQuestion is one challenge of the entry gate. AnswerHash is the hex
// SHA-256 of the normalized answer; the raw answer is never stored.
type SecurityQuestion struct {
	Question   string `json:"question"`
	AnswerHash string `json:"answer_hash"`
}
