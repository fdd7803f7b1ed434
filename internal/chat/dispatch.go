package chat

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/moviechat/server/internal/agent"
	logx "github.com/moviechat/server/pkg/logger"
)

// maxFailureMessageLen caps the message reported for infrastructure
// failures so a raw driver error never floods the conversation.
const maxFailureMessageLen = 100

// Dispatch maps one ActionRequest to exactly one ActionResult. It is the
// failure boundary of the loop: an unknown tool, malformed arguments, a
// data error, or a panicking handler all come back as unsuccessful results
// so one bad call never aborts the turn or its sibling requests.
func Dispatch(ctx context.Context, registry *Registry, request agent.ActionRequest) agent.ActionResult {
	handler, ok := registry.Lookup(request.Name)
	if !ok {
		return agent.ActionResult{
			IsSuccessful: false,
			Message:      fmt.Sprintf("Tool '%s' is unrecognized", request.Name),
		}
	}

	result, err := invoke(ctx, handler, request)
	if err != nil {
		logx.Warn().Err(err).Str("tool", request.Name).Str("toolID", request.ToolID).Msg("action tool failed")
		return agent.ActionResult{
			IsSuccessful: false,
			Message:      truncate("database error: "+err.Error(), maxFailureMessageLen),
		}
	}
	return result
}

// invoke runs the handler with panic containment.
func invoke(ctx context.Context, handler Handler, request agent.ActionRequest) (result agent.ActionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s panicked: %v", request.Name, r)
		}
	}()
	return handler(ctx, request.Arguments)
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
