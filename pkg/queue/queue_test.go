package queue

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobEnvelope(t *testing.T) {
	payload := GradeFinalizePayload{QuizID: uuid.New(), UserID: uuid.New(), RequestedBy: uuid.New()}

	job, err := NewJob(JobTypeGradeFinalize, payload)
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, JobTypeGradeFinalize, job.Type)
	assert.Zero(t, job.Attempt)

	var decoded GradeFinalizePayload
	require.NoError(t, json.Unmarshal(job.Payload, &decoded))
	assert.Equal(t, payload, decoded)
}
