package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/moviechat/server/internal/agent"
	logx "github.com/moviechat/server/pkg/logger"
)

// Config carries the chat loop knobs.
type Config struct {
	MaxActionRounds int `split_words:"true" default:"5"`
}

// Session ties an agent engine to the tool registry and drives prompts to
// completion. A turn that requires actions dispatches every request, submits
// each result keyed by its tool id, and resumes the engine; the loop repeats
// until the engine answers or the round cap is hit. Talk is serialized so a
// session is safe to share, though the demo only ever has one caller.
type Session struct {
	mu        sync.Mutex
	engine    agent.Engine
	registry  *Registry
	maxRounds int
}

const defaultMaxActionRounds = 5

func NewSession(engine agent.Engine, registry *Registry, maxRounds int) (*Session, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if maxRounds <= 0 {
		maxRounds = defaultMaxActionRounds
	}
	return &Session{engine: engine, registry: registry, maxRounds: maxRounds}, nil
}

// Talk sends the prompt and runs the action loop until a final answer.
// Exceeding the round cap fails the turn rather than letting a looping
// model mutate the database indefinitely.
func (s *Session) Talk(ctx context.Context, prompt string) (*agent.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn, err := s.engine.SubmitPrompt(ctx, prompt)
	if err != nil {
		return nil, err
	}

	for round := 0; turn.Status == agent.ActionRequired; round++ {
		if round >= s.maxRounds {
			return nil, fmt.Errorf("conversation exceeded %d action rounds without an answer", s.maxRounds)
		}
		if len(turn.Requests) == 0 {
			return nil, fmt.Errorf("turn requires actions but carries no requests")
		}

		for _, request := range turn.Requests {
			result := Dispatch(ctx, s.registry, request)
			logx.Debug().
				Str("tool", request.Name).
				Str("tool_id", request.ToolID).
				Bool("successful", result.IsSuccessful).
				Msg("action dispatched")
			if err := s.engine.SubmitActionResult(ctx, request.ToolID, result); err != nil {
				return nil, err
			}
		}

		turn, err = s.engine.ContinueTurn(ctx)
		if err != nil {
			return nil, err
		}
	}

	return turn.Answer, nil
}
