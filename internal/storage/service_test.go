package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screening-bot/internal/evaluator"
	"screening-bot/internal/session"
)

func TestSaveAndLoadEvaluation(t *testing.T) {
	svc := New(t.TempDir())

	eval := &evaluator.Evaluation{
		SessionID:       "s1",
		CandidateName:   "Jane Doe",
		WeightedAverage: 4.0,
		Recommendation:  "strong_yes",
	}
	require.NoError(t, svc.SaveEvaluation(eval))

	loaded, err := svc.LoadEvaluation("s1")
	require.NoError(t, err)
	assert.Equal(t, eval.CandidateName, loaded.CandidateName)
	assert.Equal(t, eval.WeightedAverage, loaded.WeightedAverage)
}

func TestLoadEvaluationMissing(t *testing.T) {
	svc := New(t.TempDir())

	_, err := svc.LoadEvaluation("missing")
	assert.Error(t, err)
}

func TestListInterviews(t *testing.T) {
	svc := New(t.TempDir())

	ids, err := svc.ListInterviews()
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, svc.SaveInterview(session.Snapshot{SessionID: "s1", StartedAt: time.Now()}))
	require.NoError(t, svc.SaveInterview(session.Snapshot{SessionID: "s2", StartedAt: time.Now()}))
	// Оценки не попадают в список интервью
	require.NoError(t, svc.SaveEvaluation(&evaluator.Evaluation{SessionID: "s1"}))

	ids, err = svc.ListInterviews()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s1", "s2"}, ids)
}

func TestListInterviewsMissingDir(t *testing.T) {
	svc := New(t.TempDir() + "/never-created")

	ids, err := svc.ListInterviews()
	require.NoError(t, err)
	assert.Empty(t, ids)
}
