package chat

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/utils/logging"
)

// State is the session's position in the input loop
type State int

const (
	StateAwaitingInput State = iota
	StateProcessing
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateAwaitingInput:
		return "awaiting_input"
	case StateProcessing:
		return "processing"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Asker is the capability surface consumed from the memory engine
type Asker interface {
	Ask(ctx context.Context, question string) (*model.Answer, error)
}

// Indicator shows progress while a question is in flight
type Indicator interface {
	Start()
	Stop()
}

type noIndicator struct{}

func (noIndicator) Start() {}
func (noIndicator) Stop()  {}

// Session runs the question loop: one line in, one rendered answer or one
// rendered failure out. Per-question failures never terminate the session.
type Session struct {
	memory    Asker
	out       io.Writer
	indicator Indicator
	state     State
}

// NewInput contains parameters for creating a chat session
type NewInput struct {
	Memory    Asker
	Output    io.Writer
	Indicator Indicator // optional
}

func New(input NewInput) *Session {
	indicator := input.Indicator
	if indicator == nil {
		indicator = noIndicator{}
	}
	return &Session{
		memory:    input.Memory,
		out:       input.Output,
		indicator: indicator,
		state:     StateAwaitingInput,
	}
}

// State returns the session's current state
func (s *Session) State() State {
	return s.state
}

// HandleLine processes one line of operator input and returns the state
// the session settles in. Empty input never reaches the memory engine;
// "exit" and "quit" terminate the session.
func (s *Session) HandleLine(ctx context.Context, line string) State {
	if s.state == StateTerminated {
		return s.state
	}

	message := strings.TrimSpace(line)
	if message == "" {
		fmt.Fprintln(s.out, "Please enter a question.")
		s.state = StateAwaitingInput
		return s.state
	}

	switch strings.ToLower(message) {
	case "exit", "quit":
		s.state = StateTerminated
		return s.state
	}

	s.state = StateProcessing
	s.indicator.Start()
	answer, err := s.memory.Ask(ctx, message)
	s.indicator.Stop()
	if err != nil {
		logging.From(ctx).Error("failed to answer question",
			"question", message, "error", err)
		fmt.Fprintln(s.out, "Sorry, something went wrong while answering. Please try again.")
		s.state = StateAwaitingInput
		return s.state
	}

	Render(s.out, answer)
	s.state = StateAwaitingInput
	return s.state
}
