package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/schema"

	"github.com/moviechat/server/internal/agent"
)

// Handler executes one action tool call from raw arguments.
type Handler func(ctx context.Context, arguments json.RawMessage) (agent.ActionResult, error)

// Registry maps action tool names to their handlers and schema
// descriptions. Tools are registered once at agent-configuration time and
// the registry is treated as immutable afterwards; only action tools live
// here — query tools are executed by the store directly.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]registeredTool
}

type registeredTool struct {
	info    *schema.ToolInfo
	handler Handler
}

func NewRegistry() *Registry {
	return &Registry{tools: map[string]registeredTool{}}
}

func (r *Registry) Register(info *schema.ToolInfo, handler Handler) error {
	if info == nil || info.Name == "" {
		return fmt.Errorf("tool info with a name is required")
	}
	if handler == nil {
		return fmt.Errorf("tool %q: handler is nil", info.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[info.Name]; exists {
		return fmt.Errorf("tool %q is already registered", info.Name)
	}
	r.tools[info.Name] = registeredTool{info: info, handler: handler}
	return nil
}

// Lookup returns the handler for name, if registered.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return t.handler, true
}

// ToolInfos returns the schema descriptions for binding to the chat model.
func (r *Registry) ToolInfos() []*schema.ToolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]*schema.ToolInfo, 0, len(r.tools))
	for _, t := range r.tools {
		infos = append(infos, t.info)
	}
	return infos
}
