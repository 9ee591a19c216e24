package exam_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-assess/internal/exam"
)

func TestMemoryStore_WithTx(t *testing.T) {
	ctx := context.Background()
	s := exam.NewMemoryStore()
	seedCatalog(t, s)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx exam.Tx) error {
		require.NoError(t, tx.PutTest(ctx, exam.Test{ID: "G", TenantID: "t1", Type: exam.TestGenerated}))
		require.NoError(t, tx.AddTestQuestions(ctx, []exam.TestQuestion{{TestID: "G", QuestionID: "q1", Ordering: 1}}))
		_, err := tx.GetTest(ctx, "G")
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)
	_, err = s.GetTest(ctx, "G")
	assert.ErrorIs(t, err, exam.ErrNotFound)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = s.WithTx(cancelled, func(tx exam.Tx) error {
		return tx.PutTest(ctx, exam.Test{ID: "G"})
	})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.GetTest(ctx, "G")
	assert.ErrorIs(t, err, exam.ErrNotFound)
}

func TestMemoryStore_Constraints(t *testing.T) {
	ctx := context.Background()
	s := exam.NewMemoryStore()
	seedCatalog(t, s)

	require.NoError(t, s.AddTestQuestions(ctx, []exam.TestQuestion{{TestID: "T", QuestionID: "q1", Ordering: 1}}))
	assert.ErrorIs(t, s.AddTestQuestions(ctx, []exam.TestQuestion{{TestID: "T", QuestionID: "q1", Ordering: 2}}), exam.ErrConflict)

	a := exam.Attempt{ID: "a1", TestID: "T", UserID: "u1", Seq: 1}
	require.NoError(t, s.CreateAttempt(ctx, a))
	assert.ErrorIs(t, s.CreateAttempt(ctx, exam.Attempt{ID: "a2", TestID: "T", UserID: "u1", Seq: 1}), exam.ErrConflict)
	assert.ErrorIs(t, s.UpdateAttempt(ctx, exam.Attempt{ID: "ghost"}), exam.ErrNotFound)

	rules, err := s.ListActiveRules(ctx, "T")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "r0", rules[0].ID)

	pub, err := s.ListPublishedQuestions(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, pub, 2)
	assert.Equal(t, "q1", pub[0].ID)
}
