package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/keycausa/internal/domain/answer"
	"github.com/ericfisherdev/keycausa/internal/domain/model"
)

func seededQuestions(pairs ...string) *mockQuestionStore {
	store := &mockQuestionStore{}
	for i := 0; i+1 < len(pairs); i += 2 {
		store.questions = append(store.questions, model.SecurityQuestion{
			Question:   pairs[i],
			AnswerHash: answer.Hash(pairs[i+1]),
		})
	}
	return store
}

func TestQuestionService_FreshStore(t *testing.T) {
	svc := NewQuestionService(&mockQuestionStore{}, nil)
	ctx := context.Background()

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, ok, err := svc.Random(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.Add(ctx, "Pet?", "Rex"))

	q, ok, err := svc.Random(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Pet?", q)

	valid, err := svc.Validate(ctx, "Pet?", " rex ")
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestQuestionService_RandomUsesPicker(t *testing.T) {
	store := seededQuestions("a", "1", "b", "2", "c", "3")
	var gotN int
	svc := NewQuestionService(store, func(n int) int {
		gotN = n
		return 2
	})

	q, ok, err := svc.Random(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, gotN)
	assert.Equal(t, "c", q)
}

func TestQuestionService_Validate(t *testing.T) {
	svc := NewQuestionService(seededQuestions("City of birth?", "São Paulo"), nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		question string
		answer   string
		want     bool
	}{
		{name: "exact", question: "City of birth?", answer: "São Paulo", want: true},
		{name: "case and accents folded", question: "City of birth?", answer: "SAO   paulo", want: true},
		{name: "wrong answer", question: "City of birth?", answer: "Rio", want: false},
		{name: "unknown question", question: "Pet?", answer: "São Paulo", want: false},
		{name: "empty answer", question: "City of birth?", answer: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Validate(ctx, tt.question, tt.answer)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuestionService_AddTrimsAndHashes(t *testing.T) {
	store := &mockQuestionStore{}
	svc := NewQuestionService(store, nil)

	require.NoError(t, svc.Add(context.Background(), "  First car?  ", "Beetle"))

	require.Len(t, store.questions, 1)
	assert.Equal(t, "First car?", store.questions[0].Question)
	assert.Equal(t, answer.Hash("beetle"), store.questions[0].AnswerHash)
	assert.NotContains(t, store.questions[0].AnswerHash, "Beetle")
}

func TestQuestionService_AddRejects(t *testing.T) {
	store := seededQuestions("Pet?", "Rex")
	svc := NewQuestionService(store, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		question string
		answer   string
		wantErr  error
	}{
		{name: "empty question", question: "   ", answer: "x", wantErr: model.ErrValidation},
		{name: "empty answer", question: "Color?", answer: "  ", wantErr: model.ErrValidation},
		{name: "duplicate ignoring case and padding", question: "  pet? ", answer: "x", wantErr: model.ErrDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, svc.Add(ctx, tt.question, tt.answer), tt.wantErr)
		})
	}
	assert.Len(t, store.questions, 1)
	assert.Zero(t, store.writes)
}

func TestQuestionService_ListOmitsHashes(t *testing.T) {
	svc := NewQuestionService(seededQuestions("a", "1", "b", "2"), nil)

	texts, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, texts)
}

func TestQuestionService_DeleteCanReachZero(t *testing.T) {
	store := seededQuestions("Pet?", "Rex")
	svc := NewQuestionService(store, nil)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, "Pet?"))

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.ErrorIs(t, svc.Delete(ctx, "Pet?"), model.ErrNotFound)
}

func TestQuestionService_DeleteKeepingOne(t *testing.T) {
	store := seededQuestions("a", "1", "b", "2")
	svc := NewQuestionService(store, nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.DeleteKeepingOne(ctx, "missing"), model.ErrNotFound)
	require.NoError(t, svc.DeleteKeepingOne(ctx, "a"))
	assert.ErrorIs(t, svc.DeleteKeepingOne(ctx, "b"), model.ErrLastQuestion)

	texts, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, texts)
}

func TestQuestionService_DeleteIsExactMatch(t *testing.T) {
	svc := NewQuestionService(seededQuestions("Pet?", "Rex"), nil)

	assert.ErrorIs(t, svc.Delete(context.Background(), "pet?"), model.ErrNotFound)
}

func TestQuestionService_StoreErrorsPropagate(t *testing.T) {
	boom := errors.New("disk gone")
	svc := NewQuestionService(&mockQuestionStore{loadErr: boom}, nil)
	ctx := context.Background()

	_, _, err := svc.Random(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = svc.Validate(ctx, "q", "a")
	assert.ErrorIs(t, err, boom)
	_, err = svc.Count(ctx)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, svc.Add(ctx, "q", "a"), boom)
}
