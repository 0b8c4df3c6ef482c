// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/ragkit"
	"github.com/poiesic/ragkit/ai"
	"github.com/poiesic/ragkit/core"
	"github.com/poiesic/ragkit/vecstore/qdrant"
	"github.com/poiesic/ragkit/workflow"
)

func main() {
	app := &cli.App{
		Name:  "ragkit",
		Usage: "Retrieval-augmented chat over a local knowledge base",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   "ragkit-data",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "API key for the model provider",
				EnvVars: []string{"RAGKIT_API_KEY"},
			},
			&cli.StringFlag{
				Name:  "qdrant-host",
				Usage: "Qdrant server host (uses in-process index when unset)",
			},
			&cli.IntFlag{
				Name:  "qdrant-port",
				Usage: "Qdrant server gRPC port",
				Value: 6334,
			},
			&cli.IntFlag{
				Name:  "dimension",
				Usage: "Embedding vector dimension",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest files into a collection",
				ArgsUsage: "FILE [FILE...]",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "collection",
						Aliases:  []string{"c"},
						Usage:    "Logical collection to ingest into",
						Required: true,
					},
				},
			},
			{
				Name:      "chat",
				Usage:     "Ask a question against the knowledge base",
				ArgsUsage: "QUESTION",
				Action:    chatCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "collection",
						Aliases: []string{"c"},
						Usage:   "Collections to search (all when unset)",
					},
					&cli.StringFlag{
						Name:    "thread",
						Aliases: []string{"t"},
						Usage:   "Conversation thread id",
					},
					&cli.StringFlag{
						Name:  "provider",
						Usage: "Chat model provider (openai, gemini)",
					},
					&cli.StringFlag{
						Name:  "system-prompt",
						Usage: "Override the default system prompt",
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of documents to retrieve",
						Value: workflow.DefaultTopK,
					},
					&cli.BoolFlag{
						Name:  "no-history",
						Usage: "Skip conversation memory for this question",
					},
					&cli.BoolFlag{
						Name:  "new-thread",
						Usage: "Start a fresh conversation thread with a generated id",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Similarity search without the chat workflow",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "collection",
						Aliases: []string{"c"},
						Usage:   "Collections to search (all when unset)",
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of documents to retrieve",
						Value: workflow.DefaultTopK,
					},
				},
			},
			{
				Name:      "history",
				Usage:     "Show the conversation history of a thread",
				ArgsUsage: "THREAD",
				Action:    historyCommand,
			},
			{
				Name:      "drop",
				Usage:     "Delete a logical collection",
				ArgsUsage: "COLLECTION",
				Action:    dropCommand,
			},
			{
				Name:   "stats",
				Usage:  "Show chunk counts per collection",
				Action: statsCommand,
			},
			{
				Name:   "events",
				Usage:  "Show recent engine events from the journal",
				Action: eventsCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum events to show",
						Value: 20,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openEngine builds an engine from the global flags.
func openEngine(c *cli.Context) (*ragkit.Engine, error) {
	var configOpts []ai.ConfigOption
	if host := c.String("embedding-host"); host != "" {
		configOpts = append(configOpts, ai.WithEmbeddingHost(host))
	}
	if model := c.String("embedding-model"); model != "" {
		configOpts = append(configOpts, ai.WithEmbeddingModel(model))
	}
	if key := c.String("api-key"); key != "" {
		configOpts = append(configOpts, ai.WithAPIKey(key))
	}
	if dim := c.Int("dimension"); dim > 0 {
		configOpts = append(configOpts, ai.WithDimension(dim))
	}
	config := ai.NewConfig(configOpts...)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	engineOpts := []ragkit.EngineOption{ragkit.WithAIConfig(config)}

	if host := c.String("qdrant-host"); host != "" {
		index, err := qdrant.New(host, c.Int("qdrant-port"), config.Dimension)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
		}
		engineOpts = append(engineOpts, ragkit.WithIndex(index))
	}

	return ragkit.NewEngine(c.String("db"), engineOpts...)
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	sources := make([]core.Source, c.NArg())
	for i, path := range c.Args().Slice() {
		sources[i] = core.Source{Kind: core.SourceDocument, Location: path}
	}

	result, err := engine.Ingest(context.Background(), c.String("collection"), sources)
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %d chunks\n", result.TotalChunks)
	for _, s := range result.Succeeded {
		fmt.Printf("  ok   %s (%d chunks)\n", s.Label, s.Chunks)
	}
	for _, f := range result.Failed {
		fmt.Printf("  fail %s: %s\n", f.Label, f.Err)
	}
	return nil
}

func chatCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a question is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	threadID := c.String("thread")
	if c.Bool("new-thread") {
		threadID = uuid.NewString()
		fmt.Fprintf(os.Stderr, "Thread: %s\n", threadID)
	}

	result, err := engine.RunChat(context.Background(), workflow.ChatRequest{
		Query:        query,
		Collections:  c.StringSlice("collection"),
		TopK:         c.Int("top-k"),
		ThreadId:     threadID,
		SystemPrompt: c.String("system-prompt"),
		Provider:     c.String("provider"),
		APIKey:       c.String("api-key"),
		SkipHistory:  c.Bool("no-history"),
	})
	if err != nil {
		return err
	}

	fmt.Println(result.Answer)
	if len(result.Retrieved) > 0 {
		fmt.Fprintf(os.Stderr, "\n(%d documents retrieved, thread %s)\n", len(result.Retrieved), result.ThreadId)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a query is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	docs, err := engine.Search(context.Background(), query, c.StringSlice("collection"), c.Int("top-k"))
	if err != nil {
		return err
	}

	if len(docs) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, doc := range docs {
		fmt.Printf("%d. [%s #%d] score=%.3f\n%s\n\n", i+1, doc.Collection, doc.ChunkIndex, doc.Score, doc.Text)
	}
	return nil
}

func historyCommand(c *cli.Context) error {
	threadID := c.Args().First()
	if threadID == "" {
		threadID = workflow.DefaultThreadID
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	turns, err := engine.History(context.Background(), threadID)
	if err != nil {
		return err
	}

	if len(turns) == 0 {
		fmt.Printf("No history for thread %q.\n", threadID)
		return nil
	}
	for _, turn := range turns {
		fmt.Printf("User: %s\nAssistant: %s\n\n", turn.Query, turn.Answer)
	}
	return nil
}

func dropCommand(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("a collection name is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.DropCollection(context.Background(), name); err != nil {
		return err
	}
	fmt.Printf("Dropped collection %q.\n", name)
	return nil
}

func statsCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	stats, err := engine.Stats(context.Background())
	if err != nil {
		return err
	}

	if len(stats) == 0 {
		fmt.Println("Index is empty.")
		return nil
	}
	for name, count := range stats {
		fmt.Printf("%-30s %d chunks\n", name, count)
	}
	return nil
}

func eventsCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	events, err := engine.RecentEvents(context.Background(), c.Int("limit"))
	if err != nil {
		return err
	}

	for _, event := range events {
		fmt.Printf("%s  %-22s thread=%s  %s\n",
			event.Timestamp.Format("2006-01-02 15:04:05"), event.Kind, event.ThreadId, event.Detail)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
