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
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/slidevault"
	"github.com/poiesic/slidevault/ai"
	"github.com/poiesic/slidevault/core"
	"github.com/poiesic/slidevault/ingestion"
	"github.com/urfave/cli/v2"
)

func main() {
	// Values from a .env file become flag defaults via EnvVars below.
	godotenv.Load()

	app := &cli.App{
		Name:  "slidevault",
		Usage: "Searchable, governed catalog of presentation slides",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:     "db",
				Aliases:  []string{"d"},
				Usage:    "Path to BadgerDB database directory",
				EnvVars:  []string{"SLIDEVAULT_DB"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "ai-host",
				Usage:   "OpenAI-compatible service host URL",
				EnvVars: []string{"SLIDEVAULT_AI_HOST"},
				Value:   "http://localhost:11434/v1",
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				EnvVars: []string{"SLIDEVAULT_EMBEDDING_MODEL"},
				Value:   "embeddinggemma",
			},
			&cli.StringFlag{
				Name:    "summary-model",
				Usage:   "Summary model name",
				EnvVars: []string{"SLIDEVAULT_SUMMARY_MODEL"},
				Value:   "qwen2.5:3b",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest an extracted deck JSON file",
				ArgsUsage: "<extractor-output.json>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "uploader",
						Usage:    "Identity of the uploading user",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "classification",
						Usage: "Deck classification (public, internal, confidential)",
						Value: "internal",
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Tag to attach to every slide (repeatable)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search slides and print redacted results",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "caller",
						Usage:    "Identity of the searching user",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 10,
					},
					&cli.Float64Flag{
						Name:  "weight",
						Usage: "Keyword weight in [0,1]; higher favors exact terms",
						Value: 0.5,
					},
					&cli.StringSliceFlag{
						Name:  "uploader",
						Usage: "Restrict to slides from this uploader (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Restrict to slides carrying this tag (repeatable)",
					},
				},
			},
			{
				Name:      "request",
				Usage:     "Request access to a slide's original content",
				ArgsUsage: "<slide-id>",
				Action:    requestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "requester",
						Usage:    "Identity of the requesting user",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "reason",
						Usage:    "Why access is needed",
						Required: true,
					},
				},
			},
			{
				Name:      "approve",
				Usage:     "Approve a pending access request",
				ArgsUsage: "<request-id>",
				Action:    approveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "approver",
						Usage:    "Identity of the approving user",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "scope",
						Usage: "Grant scope (slide or deck)",
						Value: "slide",
					},
					&cli.DurationFlag{
						Name:  "ttl",
						Usage: "Grant lifetime",
						Value: time.Hour,
					},
				},
			},
			{
				Name:      "deny",
				Usage:     "Deny a pending access request",
				ArgsUsage: "<request-id>",
				Action:    denyCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "approver",
						Usage:    "Identity of the denying user",
						Required: true,
					},
				},
			},
			{
				Name:      "revoke",
				Usage:     "Revoke an active grant",
				ArgsUsage: "<grant-id>",
				Action:    revokeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "revoker",
						Usage:    "Identity of the revoking user",
						Required: true,
					},
				},
			},
			{
				Name:      "view",
				Usage:     "View a slide (redacted by default; --full requires an active grant)",
				ArgsUsage: "<slide-id>",
				Action:    viewCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "caller",
						Usage:    "Identity of the viewing user",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "full",
						Usage: "Show the original content instead of the redacted view",
					},
				},
			},
			{
				Name:   "audit",
				Usage:  "Print the audit trail",
				Action: auditCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of entries (0 for all)",
						Value: 0,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openService opens the vault at the --db path and assembles the service.
func openService(c *cli.Context, opts ...slidevault.ServiceOption) (*slidevault.Service, func(), error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("ai-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithSummaryModel(c.String("summary-model")),
	)

	vault, err := slidevault.Open(c.String("db"), slidevault.WithAIConfig(aiConfig))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open vault: %w", err)
	}

	service, err := slidevault.NewService(vault, opts...)
	if err != nil {
		vault.Close()
		return nil, nil, err
	}

	cleanup := func() {
		service.Release()
		vault.Close()
	}
	return service, cleanup, nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one extractor JSON file argument")
	}

	classification, err := core.ParseClassification(c.String("classification"))
	if err != nil {
		return err
	}

	file, err := os.Open(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to open extractor output: %w", err)
	}
	defer file.Close()

	service, cleanup, err := openService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := service.IngestExtractedDeck(context.Background(), file, ingestion.DeckInput{
		Uploader:       c.String("uploader"),
		Tags:           c.StringSlice("tag"),
		Classification: classification,
	})
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("stored %d, indexed %d, skipped %d\n",
		len(report.Stored), len(report.Indexed), len(report.Skipped))
	for _, skipped := range report.Skipped {
		fmt.Printf("  skipped: %v\n", skipped)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one query argument")
	}

	service, cleanup, err := openService(c, slidevault.WithSearchWeight(c.Float64("weight")))
	if err != nil {
		return err
	}
	defer cleanup()

	var filters *core.Filters
	if len(c.StringSlice("uploader")) > 0 || len(c.StringSlice("tag")) > 0 {
		filters = &core.Filters{
			Uploaders: c.StringSlice("uploader"),
			Tags:      c.StringSlice("tag"),
		}
	}

	results, err := service.Search(context.Background(), c.Args().First(), filters, c.String("caller"), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("no results")
		return nil
	}
	for i, result := range results {
		view := result.View
		fmt.Printf("%2d. [%.4f] slide %d of deck %d (slide id %d)\n",
			i+1, result.Score, view.SlideNumber, view.DeckId, result.SlideId)
		fmt.Printf("    %s\n", view.Summary)
	}
	return nil
}

func requestCommand(c *cli.Context) error {
	slideId, err := parseSlideID(c)
	if err != nil {
		return err
	}

	service, cleanup, err := openService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	requestId, err := service.RequestOriginal(context.Background(), slideId, c.String("requester"), c.String("reason"))
	if err != nil {
		return err
	}
	fmt.Printf("request %s\n", requestId)
	return nil
}

func approveCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one request-id argument")
	}

	scope := core.ScopeSlide
	if strings.EqualFold(c.String("scope"), "deck") {
		scope = core.ScopeDeck
	}

	service, cleanup, err := openService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	grant, err := service.Approve(context.Background(), c.Args().First(), c.String("approver"), scope, c.Duration("ttl"))
	if err != nil {
		return err
	}
	fmt.Printf("grant %s expires %s\n", grant.Id, grant.ExpiresAt.Format(time.RFC3339))
	return nil
}

func denyCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one request-id argument")
	}

	service, cleanup, err := openService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	return service.Deny(context.Background(), c.Args().First(), c.String("approver"))
}

func revokeCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one grant-id argument")
	}

	service, cleanup, err := openService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	return service.Revoke(context.Background(), c.Args().First(), c.String("revoker"))
}

func viewCommand(c *cli.Context) error {
	slideId, err := parseSlideID(c)
	if err != nil {
		return err
	}

	service, cleanup, err := openService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	caller := c.String("caller")

	if !c.Bool("full") {
		view, err := service.RedactedView(ctx, slideId, caller)
		if err != nil {
			return err
		}
		fmt.Printf("slide %d of deck %d (redacted)\n", view.SlideNumber, view.DeckId)
		fmt.Printf("  %s\n", view.Summary)
		fmt.Printf("  layout=%s shapes=%d images=%t\n", view.LayoutName, view.ShapeCount, view.HasImages)
		return nil
	}

	record, err := service.FullView(ctx, slideId, caller)
	if err != nil {
		return err
	}

	fmt.Printf("slide %d of deck %d: %s\n", record.SlideNumber, record.DeckId, record.Title)
	for _, fragment := range record.RawText {
		fmt.Printf("  %s\n", fragment)
	}
	if record.Notes != "" {
		fmt.Printf("notes: %s\n", record.Notes)
	}
	return nil
}

func auditCommand(c *cli.Context) error {
	service, cleanup, err := openService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	entries, err := service.AuditEntries(context.Background(), c.Int("limit"))
	if err != nil {
		return err
	}

	for _, entry := range entries {
		fmt.Printf("%d %s %s %s slide=%d outcome=%s\n",
			entry.Seq,
			entry.Timestamp.Format(time.RFC3339),
			entry.ActorId,
			entry.Action,
			entry.SlideId,
			entry.Outcome)
	}
	return nil
}

func parseSlideID(c *cli.Context) (core.ID, error) {
	if c.NArg() != 1 {
		return 0, fmt.Errorf("expected exactly one slide-id argument")
	}
	raw, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid slide id %q: %w", c.Args().First(), err)
	}
	return core.ID(raw), nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
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

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
