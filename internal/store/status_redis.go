package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// Run states.
const (
	StateQueued     = "queued"
	StateProcessing = "processing"
	StateSuccess    = "success"
	StateFailed     = "failed"
)

// Status is the last recorded state of one extraction or translation run.
type Status struct {
	RunID     string
	Kind      string // "extract"|"translate"
	Status    string
	Progress  int // percent
	Total     int
	Succeeded int
	Failed    int
	Message   string
	Start     *time.Time
	End       *time.Time
}

// Recorder persists run status. A nil Recorder is valid and records nothing.
type Recorder interface {
	Set(ctx context.Context, st Status) error
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.NewString() }

type RunStatus struct {
	client *redis.Client
	keyNS  string
}

func NewRunStatus(redisURL string) (*RunStatus, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opt)
	if err := c.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RunStatus{client: c, keyNS: "run"}, nil
}

func (s *RunStatus) key(runID string) string { return fmt.Sprintf("%s:%s:status", s.keyNS, runID) }
func (s *RunStatus) latestKey() string       { return s.keyNS + ":latest" }

// Set writes the status hash and points run:latest at it.
func (s *RunStatus) Set(ctx context.Context, st Status) error {
	if st.RunID == "" {
		return errors.New("run id required")
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, s.key(st.RunID), toHash(st))
		p.Expire(ctx, s.key(st.RunID), 30*24*time.Hour)
		p.Set(ctx, s.latestKey(), st.RunID, 0)
		return nil
	})
	return err
}

func (s *RunStatus) Get(ctx context.Context, runID string) (Status, bool, error) {
	res, err := s.client.HGetAll(ctx, s.key(runID)).Result()
	if err != nil {
		return Status{}, false, err
	}
	if len(res) == 0 {
		return Status{}, false, nil
	}
	st := fromHash(res)
	st.RunID = runID
	return st, true, nil
}

// Latest returns the most recently written run.
func (s *RunStatus) Latest(ctx context.Context) (Status, bool, error) {
	runID, err := s.client.Get(ctx, s.latestKey()).Result()
	if err == redis.Nil {
		return Status{}, false, nil
	}
	if err != nil {
		return Status{}, false, err
	}
	return s.Get(ctx, runID)
}

func (s *RunStatus) Close() error { return s.client.Close() }

func toHash(st Status) map[string]interface{} {
	m := map[string]interface{}{
		"kind":      st.Kind,
		"status":    st.Status,
		"progress":  st.Progress,
		"total":     st.Total,
		"succeeded": st.Succeeded,
		"failed":    st.Failed,
		"message":   st.Message,
	}
	if st.Start != nil {
		m["start"] = st.Start.Format(time.RFC3339Nano)
	}
	if st.End != nil {
		m["end"] = st.End.Format(time.RFC3339Nano)
	}
	return m
}

func fromHash(res map[string]string) Status {
	st := Status{Kind: res["kind"], Status: res["status"], Message: res["message"]}
	// parse errors leave the zero value
	st.Progress, _ = strconv.Atoi(res["progress"])
	st.Total, _ = strconv.Atoi(res["total"])
	st.Succeeded, _ = strconv.Atoi(res["succeeded"])
	st.Failed, _ = strconv.Atoi(res["failed"])
	if v := res["start"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			st.Start = &t
		}
	}
	if v := res["end"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			st.End = &t
		}
	}
	return st
}

// Percent returns done/total as a whole percentage; an empty run is complete.
func Percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return done * 100 / total
}
