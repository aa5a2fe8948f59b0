// Package exttooltest provides a scripted exttool.Runner for tests.
package exttooltest

import (
	"context"
	"strings"
	"sync"

	"github.com/victorarias/claude-guard/internal/exttool"
)

// Call records one Run invocation.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// Line renders the call as a shell-like command line.
func (c Call) Line() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

type response struct {
	res exttool.Result
	err error
}

// Runner answers Run calls from a table keyed by program name. Programs with
// no scripted response are reported as unavailable.
type Runner struct {
	mu        sync.Mutex
	responses map[string]response
	calls     []Call
}

// New returns an empty fake runner.
func New() *Runner {
	return &Runner{responses: make(map[string]response)}
}

// On scripts the result for every invocation of name.
func (r *Runner) On(name string, res exttool.Result) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[name] = response{res: res}
	return r
}

// Fail scripts an error for every invocation of name.
func (r *Runner) Fail(name string, err error) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[name] = response{err: err}
	return r
}

func (r *Runner) Run(_ context.Context, dir, name string, args ...string) (exttool.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Dir: dir, Name: name, Args: append([]string(nil), args...)})
	resp, ok := r.responses[name]
	if !ok {
		return exttool.Result{}, exttool.ErrUnavailable
	}
	return resp.res, resp.err
}

// Calls returns every recorded invocation in order.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}
