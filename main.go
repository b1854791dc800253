package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/bodul/crossgen/internal/puzzle"
)

//go:embed puzzles
var puzzlesFS embed.FS

func main() {
	cfg, err := LoadConfig(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, _ := newLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	var fsys fs.FS = puzzlesFS
	dir := "puzzles"
	if cfg.PuzzlesDir != "" {
		fsys, dir = os.DirFS(cfg.PuzzlesDir), "."
	}
	repo, err := puzzle.Load(fsys, dir, logger)
	if err != nil {
		logger.Error("load puzzles", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var clues clueWriter
	if cfg.GCP.ProjectID != "" {
		gemini, err := NewGeminiClient(ctx, cfg.GCP.ProjectID, cfg.GCP.Region)
		if err != nil {
			logger.Error("init gemini", "err", err)
			os.Exit(1)
		}
		defer gemini.Close()
		clues = gemini
		logger.Info("gemini client ready", "project", cfg.GCP.ProjectID)
	} else {
		logger.Info("GCP_PROJECT_ID not set, clue writing disabled")
	}

	srv := NewServer(repo, NewStore(), clues, logger)

	logger.Info("server listening", "addr", "http://localhost:"+cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, srv); err != nil {
		logger.Error("serve", "err", err)
		os.Exit(1)
	}
}
