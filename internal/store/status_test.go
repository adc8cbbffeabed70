package store

import (
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashRoundTrip(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Minute)
	in := Status{Kind: "translate", Status: StateSuccess, Progress: 100, Total: 3, Succeeded: 2, Failed: 1, Message: "done", Start: &start, End: &end}

	h := toHash(in)
	strs := map[string]string{}
	for k, v := range h {
		switch x := v.(type) {
		case string:
			strs[k] = x
		case int:
			strs[k] = strconv.Itoa(x)
		}
	}
	out := fromHash(strs)
	assert.Equal(t, in.Kind, out.Kind)
	assert.Equal(t, in.Status, out.Status)
	assert.Equal(t, 2, out.Succeeded)
	assert.Equal(t, 1, out.Failed)
	require.NotNil(t, out.End)
	assert.True(t, end.Equal(*out.End))
}

func TestFromHash_Partial(t *testing.T) {
	st := fromHash(map[string]string{"status": StateQueued, "progress": "oops"})
	assert.Equal(t, StateQueued, st.Status)
	assert.Zero(t, st.Progress)
	assert.Nil(t, st.Start)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 100, Percent(0, 0))
	assert.Equal(t, 33, Percent(1, 3))
	assert.Equal(t, 100, Percent(3, 3))
}

func TestNewRunID(t *testing.T) {
	id := NewRunID()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, NewRunID())
}

func TestNewRunStatus_BadURL(t *testing.T) {
	_, err := NewRunStatus("not-a-redis-url")
	assert.Error(t, err)
}
