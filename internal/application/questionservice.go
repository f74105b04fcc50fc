package application

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/ericfisherdev/keycausa/internal/domain/answer"
	"github.com/ericfisherdev/keycausa/internal/domain/model"
	"github.com/ericfisherdev/keycausa/internal/domain/port/driven"
)

// QuestionService manages the security questions that gate access to the
// vault. Answers are only ever held as hashes of their normalized form.
type QuestionService struct {
	store driven.QuestionStore
	pick  func(n int) int
}

// NewQuestionService creates a QuestionService. pick returns an index in
// [0, n); nil selects uniformly at random.
func NewQuestionService(store driven.QuestionStore, pick func(n int) int) *QuestionService {
	if pick == nil {
		pick = rand.IntN
	}
	return &QuestionService{
		store: store,
		pick:  pick,
	}
}

// Random returns the text of one question. ok is false when no question has
// been configured yet.
func (s *QuestionService) Random(ctx context.Context) (question string, ok bool, err error) {
	questions, err := s.store.Load(ctx)
	if err != nil {
		return "", false, err
	}
	if len(questions) == 0 {
		return "", false, nil
	}
	return questions[s.pick(len(questions))].Question, true, nil
}

// Validate reports whether rawAnswer answers question. An unknown question and
// a wrong answer are indistinguishable to the caller.
func (s *QuestionService) Validate(ctx context.Context, question, rawAnswer string) (bool, error) {
	questions, err := s.store.Load(ctx)
	if err != nil {
		return false, err
	}

	i := slices.IndexFunc(questions, func(q model.SecurityQuestion) bool {
		return q.Question == question
	})
	if i < 0 {
		return false, nil
	}
	return answer.Matches(questions[i].AnswerHash, rawAnswer), nil
}

// Count returns the number of configured questions.
func (s *QuestionService) Count(ctx context.Context) (int, error) {
	questions, err := s.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	return len(questions), nil
}

// List returns the question texts in stored order. Hashes are never exposed.
func (s *QuestionService) List(ctx context.Context) ([]string, error) {
	questions, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(questions))
	for _, q := range questions {
		texts = append(texts, q.Question)
	}
	return texts, nil
}

// Add stores a new question with the hash of its answer. Questions that match
// an existing one after trimming and lowercasing are rejected.
func (s *QuestionService) Add(ctx context.Context, question, rawAnswer string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return fmt.Errorf("question is required: %w", model.ErrValidation)
	}
	if strings.TrimSpace(rawAnswer) == "" {
		return fmt.Errorf("answer is required: %w", model.ErrValidation)
	}

	key := strings.ToLower(question)
	return s.store.Update(ctx, func(questions []model.SecurityQuestion) ([]model.SecurityQuestion, error) {
		for _, q := range questions {
			if strings.ToLower(strings.TrimSpace(q.Question)) == key {
				return nil, fmt.Errorf("question %q: %w", question, model.ErrDuplicate)
			}
		}
		return append(questions, model.SecurityQuestion{
			Question:   question,
			AnswerHash: answer.Hash(rawAnswer),
		}), nil
	})
}

// Delete removes the question whose text matches exactly. The set may become
// empty.
func (s *QuestionService) Delete(ctx context.Context, question string) error {
	return s.remove(ctx, question, 0)
}

// DeleteKeepingOne removes a question but refuses to remove the last one, so
// the entry gate always has a challenge to ask.
func (s *QuestionService) DeleteKeepingOne(ctx context.Context, question string) error {
	return s.remove(ctx, question, 1)
}

func (s *QuestionService) remove(ctx context.Context, question string, floor int) error {
	return s.store.Update(ctx, func(questions []model.SecurityQuestion) ([]model.SecurityQuestion, error) {
		i := slices.IndexFunc(questions, func(q model.SecurityQuestion) bool {
			return q.Question == question
		})
		if i < 0 {
			return nil, fmt.Errorf("question %q: %w", question, model.ErrNotFound)
		}
		if len(questions)-1 < floor {
			return nil, model.ErrLastQuestion
		}
		return slices.Delete(questions, i, i+1), nil
	})
}
