// Package model builds the gemini chat model the agent engine talks to.
package model

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	logx "github.com/moviechat/server/pkg/logger"
)

// Config holds the chat model parameters, sourced from the environment.
type Config struct {
	Model       string  `envconfig:"CHAT_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"CHAT_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"CHAT_TEMPERATURE" default:"0.2"`
}

// New creates a gemini chat model with the given tools bound.
func New(ctx context.Context, apiKey, baseURL string, cfg Config, tools []*schema.ToolInfo) (*gemini.ChatModel, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions.BaseURL = baseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &cfg.Temperature,
		MaxTokens:   &cfg.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating chat model")
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}

	if err := chatModel.BindTools(tools); err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools")
		return nil, fmt.Errorf("failed to bind tools: %w", err)
	}
	logx.Debug().Int("tools", len(tools)).Str("model", cfg.Model).Msg("chat model ready")

	return chatModel, nil
}
