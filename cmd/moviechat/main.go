package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/moviechat/server/internal/agent"
	"github.com/moviechat/server/internal/agent/model"
	"github.com/moviechat/server/internal/agent/repo"
	"github.com/moviechat/server/internal/chat"
	"github.com/moviechat/server/internal/core"
	"github.com/moviechat/server/internal/movies"
	logx "github.com/moviechat/server/pkg/logger"
	"github.com/moviechat/server/pkg/mongox"
	pkgredis "github.com/moviechat/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the movie chat demo,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `default:"development"`

	// Infrastructure
	Mongo mongox.Config
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Model           model.Config
	Chat            chat.Config
	ConversationTTL string `split_words:"true" default:"720h"`
	HistoryWindow   int    `split_words:"true" default:"60"`

	// Seed data
	DataDir string `split_words:"true" default:"data"`
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}
	logx.Init(core.ParseEnvironment(cfg.Environment))

	client, err := cfg.Mongo.New(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	store, err := movies.NewStore(client, cfg.Mongo.Database)
	if err != nil {
		log.Fatalf("Failed to open movie store: %v", err)
	}
	defer store.Close()

	seeded, err := ensureDatabase(ctx, store, cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	if seeded {
		fmt.Printf("Database '%s' is ready, run again for chat\n", cfg.Mongo.Database)
		return
	}

	if err := runChat(ctx, cfg, store); err != nil {
		log.Fatalf("Chat session failed: %v", err)
	}
}

// ensureDatabase seeds the movie collections from the CSV data directory
// when they are empty. It reports whether a seed run happened, in which
// case the process should exit and be started again for chatting.
func ensureDatabase(ctx context.Context, store *movies.Store, dataDir string) (bool, error) {
	count, err := store.MovieCount(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	logx.Info().Str("dir", dataDir).Msg("empty database, seeding from CSV files")
	seeder := movies.NewSeeder(store, nil)
	if err := seeder.Run(ctx, dataDir); err != nil {
		return false, err
	}
	return true, nil
}

func runChat(ctx context.Context, cfg AppConfig, store *movies.Store) error {
	rdb, err := cfg.Redis.New()
	if err != nil {
		return fmt.Errorf("initialise redis client: %w", err)
	}
	defer rdb.Close()

	ttl, err := time.ParseDuration(cfg.ConversationTTL)
	if err != nil {
		return fmt.Errorf("invalid CONVERSATION_TTL '%s': %w", cfg.ConversationTTL, err)
	}

	reader := newHistoryReader(os.Stdin, os.Stdout)
	chatID, err := promptOrDefault(reader, os.Stdout, "Enter ChatId", "Chats/"+uuid.NewString())
	if err != nil {
		return err
	}
	userID, err := promptOrDefault(reader, os.Stdout, "Enter UserId", "Users/1")
	if err != nil {
		return err
	}

	registry := chat.NewRegistry()
	handlers := chat.NewHandlers(chat.NewStoreAccess(store), userID, nil)
	if err := handlers.RegisterAll(registry); err != nil {
		return err
	}

	catalog := agent.NewCatalog(store)
	tools := append(catalog.ToolInfos(), registry.ToolInfos()...)
	chatModel, err := model.New(ctx, cfg.APIKey, cfg.BaseURL, cfg.Model, tools)
	if err != nil {
		return err
	}

	engine, err := agent.NewModelEngine(agent.EngineConfig{
		Model:         chatModel,
		Repo:          repo.NewRedisConversationRepository(rdb, ttl),
		Catalog:       catalog,
		ChatID:        chatID,
		UserID:        userID,
		HistoryWindow: cfg.HistoryWindow,
	})
	if err != nil {
		return err
	}

	session, err := chat.NewSession(engine, registry, cfg.Chat.MaxActionRounds)
	if err != nil {
		return err
	}

	fmt.Println("Conversation started (write something to the agent):")
	for {
		input, err := reader.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if input == "" {
			fmt.Println("Prompt cannot be empty, try again")
			continue
		}

		switch parseExitCommand(input) {
		case exitKeep:
			fmt.Println("Goodbye!")
			return nil
		case exitRemoveChat:
			if err := engine.ClearChat(ctx); err != nil {
				logx.Warn().Err(err).Msg("failed to remove chat history")
			}
			fmt.Println("Goodbye!")
			return nil
		}

		answer, err := session.Talk(ctx, input)
		if err != nil {
			logx.Error().Err(err).Msg("turn failed")
			fmt.Printf("Something went wrong: %v\n", err)
			continue
		}
		printAnswer(answer)
	}
	fmt.Println("Goodbye!")
	return nil
}

func printAnswer(a *agent.Answer) {
	if a == nil {
		fmt.Println("Answer: (empty)")
		return
	}
	fmt.Printf("Answer: %s\n", a.Answer)
	if len(a.MovieIDs) > 0 {
		fmt.Printf("Movies ids: [%s]\n", strings.Join(a.MovieIDs, ", "))
	}
	if len(a.MovieNames) > 0 {
		fmt.Printf("Movies names: [%s]\n", strings.Join(a.MovieNames, ", "))
	}
}
