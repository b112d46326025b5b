package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"whiteboard-studio/internal/boardsync"
	"whiteboard-studio/internal/canvas"
	"whiteboard-studio/internal/client"
	"whiteboard-studio/internal/config"
	"whiteboard-studio/internal/render"
	"whiteboard-studio/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	cfg := config.Load()

	project := flag.String("project", cfg.ProjectID, "project whose whiteboard to open")
	snapshot := flag.String("snapshot", "", "render the board to this PNG file and exit")
	width := flag.Int("width", 1280, "snapshot width in pixels")
	height := flag.Int("height", 800, "snapshot height in pixels")
	publish := flag.Bool("publish", false, "upload the snapshot and set it as the board thumbnail")
	logFile := flag.String("log", "boardterm.log", "log file used while the terminal UI is running")
	flag.Parse()

	if *project == "" {
		log.Fatal("no project: set PROJECT_ID or pass -project")
	}

	ctx := context.Background()
	api, err := client.New(ctx, cfg.APIURL, cfg.APIToken)
	if err != nil {
		log.Fatal("Failed to create API client:", err)
	}

	var ui *tui.Model
	board := canvas.NewBoard()
	adapter := boardsync.New(api, board, boardsync.WithErrorHandler(func(err error) {
		log.Printf("sync: %v", err)
		if ui != nil {
			ui.ReportError(err)
		}
	}))

	snap, err := adapter.Load(ctx, *project)
	if err != nil {
		log.Fatal("Failed to load whiteboard:", err)
	}

	if *snapshot != "" {
		if err := writeSnapshot(ctx, api, adapter, board, *snapshot, *width, *height, *publish); err != nil {
			log.Fatal(err)
		}
		return
	}

	f, err := tea.LogToFile(*logFile, "boardterm")
	if err != nil {
		log.Fatal("Failed to open log file:", err)
	}
	defer f.Close()

	engine := canvas.NewEngine(board, adapter.Handle)
	engine.SetViewport(snap.Viewport)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	adapter.Start(ctx)

	ui = tui.New(engine, adapter, api, snap.Title)
	p := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}

	// flush whatever the last gestures queued
	adapter.Close()
	adapter.Reconcile()
}

func writeSnapshot(ctx context.Context, api *client.Client, adapter *boardsync.Adapter, board *canvas.Board, out string, w, h int, publish bool) error {
	var buf bytes.Buffer
	if err := render.PNG(&buf, render.Snapshot(board, w, h, 24), w, h); err != nil {
		return fmt.Errorf("render snapshot: %w", err)
	}
	if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	log.Printf("wrote %s", out)

	if !publish {
		return nil
	}
	url, err := adapter.UploadImage(ctx, filepath.Base(out), buf.Bytes())
	if err != nil {
		return err
	}
	if err := api.SetThumbnail(ctx, adapter.BoardID(), url); err != nil {
		return fmt.Errorf("set thumbnail: %w", err)
	}
	log.Printf("thumbnail set to %s", url)
	return nil
}
