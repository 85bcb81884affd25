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
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	archivist "github.com/poiesic/archivist"
	"github.com/poiesic/archivist/ai"
	"github.com/poiesic/archivist/config"
	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/search"
	"github.com/poiesic/archivist/storage"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "archivist",
		Usage: "Legal document archive with AI-assisted analysis and semantic search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				Value:   "archivist.yaml",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "upload",
				Usage:     "Upload a document into the archive",
				ArgsUsage: "<file>",
				Action:    uploadCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Usage:   "Document type (decree, injunction, judgment, expert-report, other)",
						Value:   string(core.TypeOther),
					},
					&cli.BoolFlag{
						Name:  "analyze",
						Usage: "Start analysis immediately after upload",
					},
				},
			},
			{
				Name:      "analyze",
				Usage:     "Start background analysis for one or more documents",
				ArgsUsage: "<id> [<id>...]",
				Action:    analyzeCommand,
			},
			{
				Name:      "status",
				Usage:     "Show a document and its processing state",
				ArgsUsage: "<id>",
				Action:    statusCommand,
			},
			{
				Name:   "list",
				Usage:  "List documents in upload order",
				Action: listCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Usage:   "Only documents of this type",
					},
					&cli.StringFlag{
						Name:  "state",
						Usage: "Only documents in this state (pending, processing, completed, error)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Semantic search over processed documents",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags:     searchFlags(),
			},
			{
				Name:      "ask",
				Usage:     "Natural-language search; filters are inferred from the phrasing",
				ArgsUsage: "<query>",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   search.DefaultLimit,
					},
				},
			},
			{
				Name:      "aggregate",
				Usage:     "Group documents and compute monetary totals",
				ArgsUsage: "<group-by>",
				Action:    aggregateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Aggregate the hits of this search instead of the whole corpus",
					},
				},
			},
			{
				Name:      "timeline",
				Usage:     "Bucket documents by upload period",
				ArgsUsage: "<day|week|month|year>",
				Action:    timelineCommand,
			},
			{
				Name:      "entities",
				Usage:     "Show the entities extracted from a document",
				ArgsUsage: "<id>",
				Action:    entitiesCommand,
			},
			{
				Name:      "export",
				Usage:     "Export a document as text or JSON",
				ArgsUsage: "<id>",
				Action:    exportCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (txt, json)",
						Value:   archivist.ExportText,
					},
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a document and its stored file",
				ArgsUsage: "<id>",
				Action:    deleteCommand,
			},
			{
				Name:   "sweep-cache",
				Usage:  "Remove expired memoized AI results",
				Action: sweepCacheCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openArchive builds an Archive from the configuration file named by
// the --config flag.
func openArchive(c *cli.Context) (*archivist.Archive, *config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(cfg.AI.EmbeddingHost),
		ai.WithEmbeddingModel(cfg.AI.EmbeddingModel),
		ai.WithLLMHost(cfg.AI.LLMHost),
		ai.WithLLMModel(cfg.AI.LLMModel),
		ai.WithAPIToken(cfg.AI.APIToken),
		ai.WithMaxPromptChars(cfg.AI.MaxPromptChars),
	)

	opts := []archivist.ArchiveOption{
		archivist.WithAIConfig(aiConfig),
		archivist.WithOCRLanguage(cfg.OCRLanguage),
		archivist.WithCacheTTL(cfg.CacheTTL),
	}
	if cfg.PoolSize > 0 {
		opts = append(opts, archivist.WithPoolSize(cfg.PoolSize))
	}

	archive, err := archivist.NewArchive(cfg.DataDir, cfg.FilesDir, opts...)
	if err != nil {
		return nil, nil, err
	}
	return archive, cfg, nil
}

func parseID(arg string) (core.ID, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid document id %q", arg)
	}
	return core.ID(id), nil
}

func uploadCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	path := c.Args().First()

	docType, err := core.ParseDocumentType(c.String("type"))
	if err != nil {
		return fmt.Errorf("invalid document type %q", c.String("type"))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	archive, _, err := openArchive(c)
	if err != nil {
		return err
	}
	defer archive.Close()

	ctx := context.Background()
	doc, err := archive.UploadDocument(ctx, filepath.Base(path), content, docType)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	fmt.Printf("Uploaded %s as document %d (sha256 %s)\n", doc.Filename, doc.Id, doc.File.SHA256)

	if c.Bool("analyze") {
		if _, err := archive.TriggerAnalysis(ctx, doc.Id); err != nil {
			return fmt.Errorf("failed to start analysis: %w", err)
		}
		fmt.Printf("Analysis started for document %d\n", doc.Id)
		return waitForDocument(ctx, archive, doc.Id)
	}
	return nil
}

func analyzeCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("expected at least one document id")
	}

	ids := make([]core.ID, 0, c.NArg())
	for _, arg := range c.Args().Slice() {
		id, err := parseID(arg)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	archive, _, err := openArchive(c)
	if err != nil {
		return err
	}
	defer archive.Close()

	ctx := context.Background()
	if len(ids) == 1 {
		if _, err := archive.TriggerAnalysis(ctx, ids[0]); err != nil {
			return fmt.Errorf("failed to start analysis: %w", err)
		}
	} else {
		if _, err := archive.TriggerBatchAnalysis(ctx, ids...); err != nil {
			return fmt.Errorf("failed to start batch analysis: %w", err)
		}
	}

	fmt.Printf("Analysis started for %d document(s)\n", len(ids))
	for _, id := range ids {
		if err := waitForDocument(ctx, archive, id); err != nil {
			return err
		}
	}
	return nil
}

// waitForDocument polls until the document leaves PROCESSING, then
// reports the outcome.
func waitForDocument(ctx context.Context, archive *archivist.Archive, id core.ID) error {
	for {
		doc, err := archive.GetDocument(ctx, id)
		if err != nil {
			return err
		}
		switch doc.State {
		case core.StateCompleted:
			fmt.Printf("Document %d completed: type=%s summary=%q\n", id, doc.Type, doc.Metadata.Summary)
			return nil
		case core.StateError:
			fmt.Printf("Document %d failed: %s\n", id, doc.ErrorDetail)
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func statusCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one document id")
	}
	id, err := parseID(c.Args().First())
	if err != nil {
		return err
	}

	archive, _, err := openArchive(c)
	if err != nil {
		return err
	}
	defer archive.Close()

	doc, err := archive.GetDocument(context.Background(), id)
	if err != nil {
		return err
	}

	fmt.Printf("Document %d: %s\n", doc.Id, doc.Filename)
	fmt.Printf("  Type:     %s\n", doc.Type)
	fmt.Printf("  State:    %s\n", doc.State)
	fmt.Printf("  Uploaded: %s\n", doc.UploadedAt.Format(time.RFC3339))
	if !doc.ProcessedAt.IsZero() {
		fmt.Printf("  Processed: %s\n", doc.ProcessedAt.Format(time.RFC3339))
	}
	if doc.Metadata.Summary != "" {
		fmt.Printf("  Summary:  %s\n", doc.Metadata.Summary)
	}
	if doc.ErrorDetail != "" {
		fmt.Printf("  Error:    %s\n", doc.ErrorDetail)
	}
	return nil
}

func listCommand(c *cli.Context) error {
	filter := &storage.DocumentFilter{}
	if t := c.String("type"); t != "" {
		docType, err := core.ParseDocumentType(t)
		if err != nil {
			return fmt.Errorf("invalid document type %q", t)
		}
		filter.Type = docType
	}
	if s := c.String("state"); s != "" {
		state, err := core.ParseProcessingState(strings.ToLower(s))
		if err != nil {
			return fmt.Errorf("invalid state %q", s)
		}
		filter.State = state
	}

	archive, _, err := openArchive(c)
	if err != nil {
		return err
	}
	defer archive.Close()

	docs, err := archive.ListDocuments(context.Background(), filter)
	if err != nil {
		return err
	}

	fmt.Printf("%d document(s)\n", len(docs))
	for _, doc := range docs {
		fmt.Printf("%6d  %-10s  %-14s  %s\n", doc.Id, doc.State, doc.Type, doc.Filename)
	}
	return nil
}

func searchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "type",
			Aliases: []string{"t"},
			Usage:   "Only documents of this type",
		},
		&cli.TimestampFlag{
			Name:   "from",
			Usage:  "Only documents uploaded on or after this date",
			Layout: "2006-01-02",
		},
		&cli.TimestampFlag{
			Name:   "to",
			Usage:  "Only documents uploaded before this date",
			Layout: "2006-01-02",
		},
		&cli.StringSliceFlag{
			Name:  "entity",
			Usage: "Required entity as category=value (repeatable)",
		},
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"n"},
			Usage:   "Maximum number of results",
			Value:   search.DefaultLimit,
		},
		&cli.Float64Flag{
			Name:  "min-similarity",
			Usage: "Similarity threshold (0 for the default)",
		},
	}
}

func searchCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("expected a query")
	}
	query := strings.Join(c.Args().Slice(), " ")

	filters := &search.Filters{}
	if t := c.String("type"); t != "" {
		docType, err := core.ParseDocumentType(t)
		if err != nil {
			return fmt.Errorf("invalid document type %q", t)
		}
		filters.Type = docType
	}
	if from := c.Timestamp("from"); from != nil {
		filters.DateFrom = *from
	}
	if to := c.Timestamp("to"); to != nil {
		filters.DateTo = *to
	}
	for _, pair := range c.StringSlice("entity") {
		category, value, found := strings.Cut(pair, "=")
		if !found {
			return fmt.Errorf("invalid entity filter %q: expected category=value", pair)
		}
		if filters.Entities == nil {
			filters.Entities = make(map[string][]string)
		}
		filters.Entities[category] = append(filters.Entities[category], value)
	}

	archive, cfg, err := openArchive(c)
	if err != nil {
		return err
	}
	defer archive.Close()

	minSimilarity := float32(c.Float64("min-similarity"))
	if minSimilarity == 0 {
		minSimilarity = cfg.MinSimilarity
	}

	results, err := archive.Search(context.Background(), query, filters, &search.Options{
		Limit:          c.Int("limit"),
		MinSimilarity:  minSimilarity,
		IncludeContent: true,
	})
	if err != nil {
		return err
	}

	printResults(results)
	return nil
}

func askCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("expected a query")
	}
	query := strings.Join(c.Args().Slice(), " ")

	archive, _, err := openArchive(c)
	if err != nil {
		return err
	}
	defer archive.Close()

	results, err := archive.SearchNatural(context.Background(), query, &search.Options{
		Limit:          c.Int("limit"),
		IncludeContent: true,
	})
	if err != nil {
		return err
	}

	printResults(results)
	return nil
}

func printResults(results *search.Results) {
	fmt.Printf("Found %d hit(s)\n", results.Total)
	for i, hit := range results.Hits {
		fmt.Printf("%d: %s (%d) [%0.3f]\n", i+1, hit.Document.Filename, hit.Document.Id, hit.Score)
		for _, highlight := range hit.Highlights {
			fmt.Printf("   %s\n", highlight)
		}
	}
}

func aggregateCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected a grouping: type, month, or an entity category")
	}
	groupBy := c.Args().First()

	archive, _, err := openArchive(c)
	if err != nil {
		return err
	}
	defer archive.Close()

	ctx := context.Background()
	var groups []*search.AggregateGroup
	if query := c.String("query"); query != "" {
		results, err := archive.Search(ctx, query, nil, nil)
		if err != nil {
			return err
		}
		groups, err = search.AggregateResults(results.Hits, groupBy)
		if err != nil {
			return err
		}
	} else {
		groups, err = archive.Aggregate(ctx, groupBy, nil)
		if err != nil {
			return err
		}
	}

	for _, group := range groups {
		fmt.Printf("%-30s %5d", group.Key, group.Count)
		if group.AmountTotal > 0 {
			fmt.Printf("  total EUR %.2f  avg EUR %.2f", group.AmountTotal, group.AmountAvg)
		}
		if group.ScoreAvg > 0 {
			fmt.Printf("  avg score %.3f", group.ScoreAvg)
		}
		fmt.Println()
	}
	return nil
}

func timelineCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected a granularity: day, week, month, or year")
	}

	archive, _, err := openArchive(c)
	if err != nil {
		return err
	}
	defer archive.Close()

	buckets, err := archive.Timeline(context.Background(), search.Granularity(c.Args().First()), nil)
	if err != nil {
		return err
	}

	for _, bucket := range buckets {
		fmt.Printf("%-10s %5d", bucket.Period, bucket.Count)
		for docType, count := range bucket.TypeCounts {
			fmt.Printf("  %s=%d", docType, count)
		}
		fmt.Println()
	}
	return nil
}

func entitiesCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one document id")
	}
	id, err := parseID(c.Args().First())
	if err != nil {
		return err
	}

	archive, _, err := openArchive(c)
	if err != nil {
		return err
	}
	defer archive.Close()

	entities, err := archive.GetEntities(context.Background(), id)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func exportCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one document id")
	}
	id, err := parseID(c.Args().First())
	if err != nil {
		return err
	}

	archive, _, err := openArchive(c)
	if err != nil {
		return err
	}
	defer archive.Close()

	data, err := archive.ExportDocument(context.Background(), id, c.String("format"))
	if err != nil {
		return err
	}

	os.Stdout.Write(data)
	return nil
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one document id")
	}
	id, err := parseID(c.Args().First())
	if err != nil {
		return err
	}

	archive, _, err := openArchive(c)
	if err != nil {
		return err
	}
	defer archive.Close()

	if err := archive.DeleteDocument(context.Background(), id); err != nil {
		return err
	}
	fmt.Printf("Deleted document %d\n", id)
	return nil
}

func sweepCacheCommand(c *cli.Context) error {
	archive, _, err := openArchive(c)
	if err != nil {
		return err
	}
	defer archive.Close()

	removed, err := archive.SweepCache(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d expired cache entr%s\n", removed, pluralY(removed))
	return nil
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

func setupLogger(c *cli.Context) error {
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
