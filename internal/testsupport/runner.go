package testsupport

import (
	"context"
	"slices"
	"sync"

	"dccpipe/internal/services/command"
)

// Call records one invocation seen by StubRunner.
type Call struct {
	Binary string
	Args   []string
}

// Flag returns the value following name in the call's arguments.
func (c Call) Flag(name string) (string, bool) {
	idx := slices.Index(c.Args, name)
	if idx < 0 || idx+1 >= len(c.Args) {
		return "", false
	}
	return c.Args[idx+1], true
}

// StubRunner is a command.Runner that records calls instead of launching
// processes. Handle, when set, decides the result of each call; otherwise
// every call succeeds with Stdout.
type StubRunner struct {
	Stdout string
	Handle func(call Call) (command.Result, error)

	mu    sync.Mutex
	calls []Call
}

// Run implements command.Runner.
func (s *StubRunner) Run(_ context.Context, binary string, args []string) (command.Result, error) {
	call := Call{Binary: binary, Args: slices.Clone(args)}
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
	if s.Handle != nil {
		return s.Handle(call)
	}
	return command.Result{Stdout: s.Stdout}, nil
}

// Calls returns a copy of the recorded invocations.
func (s *StubRunner) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}
