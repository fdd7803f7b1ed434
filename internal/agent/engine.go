package agent

import (
	"context"
	"encoding/json"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	logx "github.com/moviechat/server/pkg/logger"
)

// Engine is the conversational agent capability the chat loop drives. A
// turn either carries a final answer or a set of pending action requests;
// in the latter case every request's result must be submitted before
// ContinueTurn.
type Engine interface {
	SubmitPrompt(ctx context.Context, prompt string) (*Turn, error)
	SubmitActionResult(ctx context.Context, toolID string, result ActionResult) error
	ContinueTurn(ctx context.Context) (*Turn, error)
}

// ChatModel is the slice of eino's chat-model surface the engine needs.
// The concrete model (gemini) is bound with tool infos at wiring time.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error)
}

// ModelEngine implements Engine on a tool-calling chat model. Query tool
// calls are executed inline against the catalog; anything else becomes an
// ActionRequest for the dispatch loop. History lives in the conversation
// repository so a chat id can be resumed across process runs.
type ModelEngine struct {
	model          ChatModel
	repo           ConversationRepository
	catalog        *Catalog
	chatID         string
	userID         string
	systemPrompt   string
	maxQueryRounds int
	historyWindow  int
}

const (
	defaultMaxQueryRounds = 8
	defaultHistoryWindow  = 60
)

type EngineConfig struct {
	Model          ChatModel
	Repo           ConversationRepository
	Catalog        *Catalog
	ChatID         string
	UserID         string
	SystemPrompt   string
	MaxQueryRounds int

	// HistoryWindow caps how many stored messages are replayed to the
	// model per call, so long-lived chats keep fitting in the model's
	// context. Zero means the default; negative disables the cap.
	HistoryWindow int
}

func NewModelEngine(cfg EngineConfig) (*ModelEngine, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("chat model is required")
	}
	if cfg.Repo == nil {
		return nil, fmt.Errorf("conversation repository is required")
	}
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("query catalog is required")
	}
	if cfg.ChatID == "" || cfg.UserID == "" {
		return nil, fmt.Errorf("chat id and user id are required")
	}
	if cfg.MaxQueryRounds <= 0 {
		cfg.MaxQueryRounds = defaultMaxQueryRounds
	}
	if cfg.HistoryWindow == 0 {
		cfg.HistoryWindow = defaultHistoryWindow
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = BuildSystemPrompt(cfg.UserID)
	}
	return &ModelEngine{
		model:          cfg.Model,
		repo:           cfg.Repo,
		catalog:        cfg.Catalog,
		chatID:         cfg.ChatID,
		userID:         cfg.UserID,
		systemPrompt:   cfg.SystemPrompt,
		maxQueryRounds: cfg.MaxQueryRounds,
		historyWindow:  cfg.HistoryWindow,
	}, nil
}

func (e *ModelEngine) SubmitPrompt(ctx context.Context, prompt string) (*Turn, error) {
	if err := e.repo.AddMessage(ctx, e.chatID, schema.UserMessage(prompt)); err != nil {
		return nil, err
	}
	return e.run(ctx)
}

func (e *ModelEngine) SubmitActionResult(ctx context.Context, toolID string, result ActionResult) error {
	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal action result: %w", err)
	}
	return e.repo.AddMessage(ctx, e.chatID, schema.ToolMessage(string(b), toolID))
}

func (e *ModelEngine) ContinueTurn(ctx context.Context) (*Turn, error) {
	return e.run(ctx)
}

// ClearChat deletes the persisted conversation.
func (e *ModelEngine) ClearChat(ctx context.Context) error {
	return e.repo.ClearHistory(ctx, e.chatID)
}

// run invokes the model until it either answers or asks for actions. Rounds
// that only contain query tool calls are resolved inline and the model is
// re-invoked; the round cap stops a model stuck querying forever.
func (e *ModelEngine) run(ctx context.Context) (*Turn, error) {
	for round := 0; round < e.maxQueryRounds; round++ {
		stored, err := e.repo.MessageCount(ctx, e.chatID)
		if err != nil {
			return nil, err
		}
		history, err := e.repo.LoadHistory(ctx, e.chatID)
		if err != nil {
			return nil, err
		}
		window := history.Messages
		if e.historyWindow > 0 && stored > e.historyWindow {
			window = trimHistory(history.Messages, e.historyWindow)
			logx.Debug().Int("stored", stored).Int("window", len(window)).Msg("history trimmed for model input")
		}
		messages := make([]*schema.Message, 0, len(window)+1)
		messages = append(messages, schema.SystemMessage(e.systemPrompt))
		messages = append(messages, window...)

		response, err := e.model.Generate(ctx, messages)
		if err != nil {
			return nil, fmt.Errorf("chat model: %w", err)
		}
		if err := e.repo.AddMessage(ctx, e.chatID, response); err != nil {
			return nil, err
		}

		if len(response.ToolCalls) == 0 {
			return &Turn{Status: Answered, Answer: ParseAnswer(response.Content)}, nil
		}

		var pending []ActionRequest
		for _, call := range response.ToolCalls {
			name := call.Function.Name
			if !e.catalog.Has(name) {
				pending = append(pending, ActionRequest{
					ToolID:    call.ID,
					Name:      name,
					Arguments: json.RawMessage(call.Function.Arguments),
				})
				continue
			}

			content, err := e.catalog.Execute(ctx, name, call.Function.Arguments, e.userID)
			if err != nil {
				// A failed read is reported to the model rather than
				// aborting the turn, so it can retry with fixed arguments.
				logx.Warn().Err(err).Str("tool", name).Msg("query tool failed")
				content = fmt.Sprintf(`{"error":%q}`, err.Error())
			}
			if err := e.repo.AddMessage(ctx, e.chatID, schema.ToolMessage(content, call.ID)); err != nil {
				return nil, err
			}
			logx.Debug().Str("tool", name).Int("round", round).Msg("query tool executed")
		}

		if len(pending) > 0 {
			return &Turn{Status: ActionRequired, Requests: pending}, nil
		}
	}
	return nil, fmt.Errorf("conversation exceeded %d query rounds without an answer", e.maxQueryRounds)
}

// trimHistory keeps the newest max messages, then drops leading tool
// results whose assistant tool calls fell outside the window, so the model
// never sees an orphaned tool message.
func trimHistory(messages []*schema.Message, max int) []*schema.Message {
	if len(messages) > max {
		messages = messages[len(messages)-max:]
	}
	for len(messages) > 0 && messages[0].Role == schema.Tool {
		messages = messages[1:]
	}
	return messages
}

var _ Engine = (*ModelEngine)(nil)
