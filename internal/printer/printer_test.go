package printer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMissingJobName(t *testing.T) {
	err := MissingJobName("status")
	require.Error(t, err)
	require.Equal(t, "Missing job name", err.Error())
}

func TestInvalidRedisURL(t *testing.T) {
	err := InvalidRedisURL(errors.New("parse error"))
	require.Error(t, err)
	require.Equal(t, "Invalid --redis-url", err.Error())
}

func TestJobNotFound(t *testing.T) {
	err := JobNotFound("job1")
	require.Error(t, err)
	require.Equal(t, "Job not found", err.Error())
}

func TestRedisUnreachable(t *testing.T) {
	err := RedisUnreachable(errors.New("connection refused"))
	require.Error(t, err)
	require.Equal(t, "Failed to reach Redis", err.Error())
}

func TestCorruptGroupSize(t *testing.T) {
	err := CorruptGroupSize(errors.New("strconv.Atoi: parsing \"x\": invalid syntax"))
	require.Error(t, err)
	require.Equal(t, "Corrupt group size", err.Error())
}

func TestStatusRenderFailed(t *testing.T) {
	err := StatusRenderFailed(errors.New("write failed"))
	require.Error(t, err)
	require.Equal(t, "Failed to render status table", err.Error())
}

// Note: fail (and the exported wrappers built on it) prints formatted
// output to stderr with colors. The error object returned only carries
// the title for Cobra's error handling, avoiding duplicate output while
// still giving a rich formatted message on the terminal.
