package statuscheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"time"
)

// Check tests one external dependency. Optional checks never fail a run.
type Check struct {
	Name     string
	Optional bool
	Run      func(ctx context.Context) (string, error)
}

// Status represents the readiness of a subsystem.
type Status struct {
	Name     string
	OK       bool
	Optional bool
	Message  string
}

// Checker runs checks sequentially, each under its own timeout.
type Checker struct {
	checks  []Check
	timeout time.Duration
}

func New(timeout time.Duration, checks ...Check) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{checks: checks, timeout: timeout}
}

// Summary returns the status of every check in registration order.
func (c *Checker) Summary(ctx context.Context) []Status {
	out := make([]Status, 0, len(c.checks))
	for _, ch := range c.checks {
		cctx, cancel := context.WithTimeout(ctx, c.timeout)
		msg, err := ch.Run(cctx)
		cancel()
		st := Status{Name: ch.Name, Optional: ch.Optional, OK: err == nil, Message: msg}
		if err != nil {
			st.Message = trimError(err)
		}
		out = append(out, st)
	}
	return out
}

// Healthy reports whether every required check passed.
func Healthy(statuses []Status) bool {
	for _, s := range statuses {
		if !s.OK && !s.Optional {
			return false
		}
	}
	return true
}

// Binary checks that name resolves on PATH.
func Binary(name string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		p, err := exec.LookPath(name)
		if err != nil {
			return "", fmt.Errorf("binary %q not found", name)
		}
		return p, nil
	}
}

// HTTPGet checks that url answers below 400 with the given headers.
func HTTPGet(client *http.Client, url string, headers map[string]string) func(context.Context) (string, error) {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return func(ctx context.Context) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		resp, err := client.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return "", fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		return "Available", nil
	}
}

// Ping adapts a Ping(ctx) error method into a check.
func Ping(p interface{ Ping(context.Context) error }) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		if err := p.Ping(ctx); err != nil {
			return "", err
		}
		return "Connected", nil
	}
}

func trimError(err error) string {
	if err == nil {
		return ""
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	msg := err.Error()
	if len(msg) > 120 {
		return msg[:120]
	}
	return msg
}
