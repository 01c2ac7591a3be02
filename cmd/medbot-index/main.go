package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/app"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/config"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/indexdb"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var rebuild bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional)")
	flag.BoolVar(&rebuild, "rebuild", false, "Delete the existing index and build it again")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := app.NewLogger(cfg.Log, os.Stderr)

	if rebuild {
		if err := removeIndex(cfg.Index.Path); err != nil {
			log.Fatalf("rebuild: %v", err)
		}
		logger.Info("removed index", "path", cfg.Index.Path)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	builder, err := app.NewIndexBuilder(cfg, logger)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer builder.Close()

	idx, err := builder.EnsureIndex(ctx, cfg.Document.Path, cfg.Index.Path)
	if err != nil {
		log.Fatalf("index: %v", err)
	}

	m := idx.Meta()
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "index\t%s\n", cfg.Index.Path)
	fmt.Fprintf(tw, "source\t%s\n", m.Source)
	fmt.Fprintf(tw, "chunks\t%d\n", idx.Len())
	fmt.Fprintf(tw, "chunker\t%s (size %d, overlap %d)\n", m.Chunker, m.ChunkSize, m.ChunkOverlap)
	fmt.Fprintf(tw, "embedder\t%s/%s (%d dims)\n", m.Embedder, m.Model, m.Dimension)
	fmt.Fprintf(tw, "built\t%s\n", m.CreatedAt.Local().Format(time.RFC1123))
	if m.Summary != "" {
		fmt.Fprintf(tw, "summary\t%s\n", m.Summary)
	}
	_ = tw.Flush()
}

// removeIndex deletes path only when it holds a persisted index or is empty.
func removeIndex(path string) error {
	entries, err := os.ReadDir(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(entries) > 0 && !indexdb.Exists(path) {
		return fmt.Errorf("%s is not an index directory; refusing to delete it", filepath.Clean(path))
	}
	return os.RemoveAll(path)
}
