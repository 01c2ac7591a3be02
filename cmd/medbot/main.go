package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/app"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/config"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/service"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/tui"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/web"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, ui, addr string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ./config.yaml or ~/.config/medbot/config.yaml if not provided)")
	flag.StringVar(&ui, "ui", "web", "User interface: web or tui")
	flag.StringVar(&addr, "addr", "", "Listen address for the web UI (overrides server.addr)")
	flag.Parse()

	if ui != "web" && ui != "tui" {
		fmt.Fprintf(os.Stderr, "unknown --ui %q (want web or tui)\n", ui)
		os.Exit(2)
	}

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
	if addr != "" {
		cfg.Server.Addr = addr
	}

	logOut := os.Stderr
	if ui == "tui" {
		// The terminal belongs to the TUI; logs go to a file.
		f, err := os.OpenFile("medbot.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("open log file: %v", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := app.NewLogger(cfg.Log, logOut)
	slog.SetDefault(logger)

	if err := run(cfg, ui, logger); err != nil {
		logger.Error("medbot failed", "err", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, ui string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	completer, err := app.NewCompleter(cfg.LLM, logger)
	if err != nil {
		return err
	}
	builder, err := app.NewIndexBuilder(cfg, logger)
	if err != nil {
		return err
	}
	defer builder.Close()

	idx, err := builder.EnsureIndex(ctx, cfg.Document.Path, cfg.Index.Path)
	if err != nil {
		return err
	}
	pipeline := service.NewPipeline(idx, completer, cfg.Retrieval.TopK, logger)

	switch ui {
	case "tui":
		m := tui.New(pipeline, idx.Meta().Summary, time.Duration(cfg.LLM.TimeoutSecs)*time.Second)
		_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	default:
		handler := web.NewHandler(pipeline, idx.Meta(), logger)
		return web.Serve(ctx, cfg.Server.Addr, web.NewRouter(handler, cfg.Server.ServiceName, logger), logger)
	}
}
