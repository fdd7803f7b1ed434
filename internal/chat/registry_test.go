package chat

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/moviechat/server/internal/agent"
)

func noopHandler(ctx context.Context, args json.RawMessage) (agent.ActionResult, error) {
	return agent.ActionResult{IsSuccessful: true}, nil
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(&schema.ToolInfo{Name: "RateMovie"}, noopHandler); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, ok := registry.Lookup("RateMovie"); !ok {
		t.Fatal("registered tool not found")
	}
	if _, ok := registry.Lookup("rateMovie"); ok {
		t.Fatal("lookup is not case-sensitive")
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(&schema.ToolInfo{Name: "AddTags"}, noopHandler); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := registry.Register(&schema.ToolInfo{Name: "AddTags"}, noopHandler); err == nil {
		t.Fatal("duplicate registration accepted")
	}
}

func TestRegistryRejectsInvalid(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(nil, noopHandler); err == nil {
		t.Fatal("nil info accepted")
	}
	if err := registry.Register(&schema.ToolInfo{}, noopHandler); err == nil {
		t.Fatal("empty name accepted")
	}
	if err := registry.Register(&schema.ToolInfo{Name: "X"}, nil); err == nil {
		t.Fatal("nil handler accepted")
	}
}

func TestRegistryToolInfos(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"RateMovie", "AddTags", "ChangeUserName"} {
		if err := registry.Register(&schema.ToolInfo{Name: name}, noopHandler); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	infos := registry.ToolInfos()
	if len(infos) != 3 {
		t.Fatalf("got %d tool infos, want 3", len(infos))
	}
	seen := map[string]bool{}
	for _, info := range infos {
		seen[info.Name] = true
	}
	for _, name := range []string{"RateMovie", "AddTags", "ChangeUserName"} {
		if !seen[name] {
			t.Fatalf("tool %s missing from infos", name)
		}
	}
}
