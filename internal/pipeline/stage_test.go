package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageStateLifecycle(t *testing.T) {
	s := NewStageState("join", "Join auxiliary tables")
	assert.Equal(t, StageStatusPending, s.Status)
	assert.Nil(t, s.StartTime)
	assert.Equal(t, time.Duration(0), s.Duration())

	s.Start()
	assert.Equal(t, StageStatusActive, s.Status)
	require.NotNil(t, s.StartTime)

	s.Complete()
	assert.Equal(t, StageStatusCompleted, s.Status)
	require.NotNil(t, s.EndTime)
	assert.GreaterOrEqual(t, s.Duration(), time.Duration(0))
	assert.NoError(t, s.Err)
}

func TestStageStateFail(t *testing.T) {
	s := NewStageState("load", "Load source tables")
	s.Start()

	fail := errors.New("missing table")
	s.Fail(fail)
	assert.Equal(t, StageStatusFailed, s.Status)
	assert.Equal(t, fail, s.Err)
	require.NotNil(t, s.EndTime)
}
