package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"reglex/internal/models"
	"reglex/internal/types"
	cfgPkg "reglex/pkg/config"
	"reglex/pkg/llm"
	"reglex/pkg/pipeline"
	"reglex/pkg/retrieval"
	"reglex/pkg/store"
	"reglex/server"
)

type Config struct {
	BaseURL           string
	DBUrl             string
	Model             string
	Dimension         int
	BatchSize         int
	RateLimit         float64
	TableName         string
	CacheTable        string
	Backend           string
	TargetWords       int
	MaxWords          int
	OverlapSentences  int
	SemanticThreshold float64
	UseSemantic       bool
	Port              string

	IngestPath   string
	DocID        string
	Jurisdiction string
	Region       string
	Query         string
	TopK          int
	MinRelevance  float64
	Jurisdictions bool
	Serve         bool
}

func main() {
	config := parseFlags()

	if err := run(config); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() Config {
	var config Config
	var configPath string

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&config.BaseURL, "ollama-url", os.Getenv("OLLAMA_BASE_URL"), "Ollama server URL")
	flag.StringVar(&config.DBUrl, "db-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	flag.StringVar(&config.Model, "model", "nomic-embed-text", "Embedding model to use")
	flag.IntVar(&config.Dimension, "vector-dim", 768, "Vector dimension")
	flag.IntVar(&config.BatchSize, "batch-size", 32, "Batch size for embedding calls")
	flag.Float64Var(&config.RateLimit, "rate-limit", 0, "Embedding calls per second (0 = unlimited)")
	flag.StringVar(&config.TableName, "table", "chunks", "PostgreSQL table name")
	flag.StringVar(&config.Backend, "backend", "postgres", "Index backend: postgres or memory")
	flag.IntVar(&config.TargetWords, "target-words", 300, "Target chunk size in words")
	flag.IntVar(&config.MaxWords, "max-words", 500, "Maximum chunk size in words")
	flag.IntVar(&config.OverlapSentences, "overlap", 2, "Sentences of overlap between chunks")
	flag.BoolVar(&config.UseSemantic, "semantic", false, "Use embedding-based boundary detection")
	flag.StringVar(&config.IngestPath, "ingest", "", "File or directory of documents to ingest")
	flag.StringVar(&config.DocID, "doc-id", "", "Document ID for ingestion (default: derived from filename)")
	flag.StringVar(&config.Jurisdiction, "jurisdiction", "", "Jurisdiction for ingested documents or search filter")
	flag.StringVar(&config.Region, "region", "", "Region for ingestion or search")
	flag.StringVar(&config.Query, "query", "", "Run a single search query and exit")
	flag.IntVar(&config.TopK, "top-k", 5, "Number of search results")
	flag.Float64Var(&config.MinRelevance, "min-relevance", 0, "Minimum relevance score for results")
	flag.BoolVar(&config.Jurisdictions, "jurisdictions", false, "List jurisdiction chunk counts for the region and exit")
	flag.BoolVar(&config.Serve, "serve", false, "Start the HTTP/WebSocket server")
	flag.Parse()

	// Load config file if specified
	if cfg, err := cfgPkg.LoadConfig(configPath); err == nil {
		// Override config with command line flags if provided
		if flag.Lookup("ollama-url").Value.String() != "" {
			cfg.Embedding.BaseURL = config.BaseURL
		}

		// Update config struct
		config.BaseURL = cfg.Embedding.BaseURL
		config.Model = cfg.Embedding.Model
		config.Dimension = cfg.Embedding.Dimension
		config.BatchSize = cfg.Embedding.BatchSize
		config.RateLimit = cfg.Embedding.RateLimit
		config.DBUrl = cfg.Database.URL
		config.TableName = cfg.Database.TableName
		config.CacheTable = cfg.Database.CacheTable
		config.Backend = cfg.Database.Backend
		config.TargetWords = cfg.Chunking.TargetWords
		config.MaxWords = cfg.Chunking.MaxWords
		config.OverlapSentences = cfg.Chunking.OverlapSentences
		config.SemanticThreshold = cfg.Chunking.SemanticThreshold
		config.UseSemantic = cfg.Chunking.UseSemanticBoundaries
		config.Port = cfg.Server.Port
	}

	if config.CacheTable == "" {
		config.CacheTable = "embedding_cache"
	}
	if config.Port == "" {
		config.Port = "8080"
	}

	return config
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(config Config) error {
	// Initialize components
	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:     config.Model,
		BaseURL:   config.BaseURL,
		Dimension: config.Dimension,
		BatchSize: config.BatchSize,
		RateLimit: config.RateLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %v", err)
	}

	var index types.VectorIndex
	var cache types.EmbeddingCache

	if config.Backend == "memory" {
		index = store.NewMemoryIndex()
		cache = store.NewMemoryCache()
	} else {
		vectorStore, err := store.NewWithConfig(store.VectorStoreConfig{
			ConnString: config.DBUrl,
			TableName:  config.TableName,
			CacheTable: config.CacheTable,
			VectorDim:  config.Dimension,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize vector store: %v", err)
		}
		index = vectorStore
		cache = store.NewEmbeddingCache(vectorStore)
	}
	defer index.Close()

	encoder := llm.NewCachedEncoder(embedder, cache)
	ingestor := pipeline.NewIngestor(encoder, index)
	search := retrieval.New(encoder, index)

	chunking := pipeline.Config{
		TargetWords:           config.TargetWords,
		MaxWords:              config.MaxWords,
		OverlapSentences:      config.OverlapSentences,
		SemanticThreshold:     config.SemanticThreshold,
		UseSemanticBoundaries: config.UseSemantic,
	}

	if config.IngestPath != "" {
		return runIngest(config, ingestor, chunking)
	}

	if config.Serve {
		srv := server.New(ingestor, search, index, chunking)
		return srv.Start(config.Port)
	}

	if config.Jurisdictions {
		counts, err := search.ListJurisdictions(context.Background(), config.Region)
		if err != nil {
			return err
		}
		if len(counts) == 0 {
			color.Yellow("No chunks stored for region %q\n", config.Region)
			return nil
		}
		for _, jc := range counts {
			fmt.Printf("%-30s %d chunks\n", jc.Jurisdiction, jc.ChunkCount)
		}
		return nil
	}

	if config.Query != "" {
		return runQuery(context.Background(), config, search, config.Query)
	}

	// Interactive query loop with colored output
	color.Cyan("\nSearch your ordinance corpus (type 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()

	for {
		userPrompt("\nQuery: ")
		if !scanner.Scan() {
			break
		}

		query := scanner.Text()
		if strings.ToLower(query) == "exit" {
			break
		}
		if strings.TrimSpace(query) == "" {
			continue
		}

		if err := runQuery(context.Background(), config, search, query); err != nil {
			color.Red("Error: %v\n", err)
		}
	}

	return nil
}

func runIngest(config Config, ingestor *pipeline.Ingestor, chunking pipeline.Config) error {
	if config.Region == "" {
		return fmt.Errorf("ingestion requires -region")
	}

	files, err := collectFiles(config.IngestPath)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no documents found at %s", config.IngestPath)
	}

	color.Blue("\nStarting ingestion pipeline for %s\n", config.IngestPath)

	ingestBar := getProgressBar(len(files), "Ingesting documents...")
	startTime := time.Now()
	totalChunks := 0

	for i, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %v", path, err)
		}

		docID := config.DocID
		if docID == "" || len(files) > 1 {
			docID = documentID(path)
		}

		doc := models.Document{
			ID:           docID,
			Jurisdiction: config.Jurisdiction,
			Region:       config.Region,
			Title:        strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Content:      string(content),
		}

		count, err := ingestor.Ingest(context.Background(), doc, chunking)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %v", path, err)
		}
		totalChunks += count
		ingestBar.Add(1)

		// Update rate
		elapsed := time.Since(startTime).Seconds()
		rate := float64(i+1) / elapsed
		ingestBar.Describe(color.BlueString(
			"Ingesting documents... (%.1f docs/sec)", rate))
	}
	ingestBar.Finish()
	color.Green("\n✓ Ingested %d documents into %d chunks\n", len(files), totalChunks)

	return nil
}

func runQuery(ctx context.Context, config Config, search *retrieval.Service, query string) error {
	querySpinner := getSpinner("Searching ordinances...")

	results, err := search.Search(ctx, models.SearchRequest{
		Query:        query,
		Region:       config.Region,
		Jurisdiction: config.Jurisdiction,
		TopK:         config.TopK,
		MinRelevance: config.MinRelevance,
	})
	querySpinner.Finish()
	fmt.Print("\r")

	if err != nil {
		return err
	}

	if len(results) == 0 {
		color.Yellow("No matching chunks found\n")
		return nil
	}

	for i, result := range results {
		color.Cyan("\n%d. [%.3f] %s · %s · chunk %d\n",
			i+1, result.RelevanceScore, result.Jurisdiction,
			result.SourceDocumentID, result.ChunkNumber)
		fmt.Println(snippet(result.Content, 300))
	}

	return nil
}

func collectFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot stat %s: %v", path, err)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".txt", ".html", ".htm", ".md":
			files = append(files, p)
		}
		return nil
	})
	return files, err
}

// documentID derives a stable ID from the filename so re-ingesting the
// same file replaces its chunks. Unnamed sources get a random one.
func documentID(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	base = strings.TrimSpace(base)
	if base == "" {
		return uuid.NewString()
	}
	return strings.ToLower(strings.ReplaceAll(base, " ", "-"))
}

func snippet(text string, max int) string {
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	cut := strings.LastIndex(text[:max], " ")
	if cut <= 0 {
		cut = max
	}
	return text[:cut] + "…"
}
