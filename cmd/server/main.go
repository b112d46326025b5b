package main

import (
	"context"
	"io"
	"log"

	"whiteboard-studio/internal/api"
	"whiteboard-studio/internal/api/routes"
	v1 "whiteboard-studio/internal/api/routes/v1"
	"whiteboard-studio/internal/assistant"
	"whiteboard-studio/internal/config"
	"whiteboard-studio/internal/libraries"
	llmHandlers "whiteboard-studio/internal/llm_handlers"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	cfg := config.Load()
	ctx := context.Background()

	// Connect to database
	if err := config.ConnectDB(cfg.DBURL); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer config.CloseDB()

	// Run migrations
	if err := config.MigrateAllModels(cfg.DBMigrate); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	images, err := libraries.NewImageStore(ctx, cfg.GCSBucket, cfg.GCPCredentials, cfg.ImageDir)
	if err != nil {
		log.Fatal("Failed to init image store:", err)
	}

	deps := v1.Deps{DB: config.DB, Images: images}
	if llm, err := llmHandlers.NewLLMClient(ctx, cfg); err != nil {
		log.Printf("Warning: AI assistant disabled: %v", err)
	} else {
		if c, ok := llm.(io.Closer); ok {
			defer c.Close()
		}
		deps.Agent = assistant.NewAgent(llm)
	}

	// Create and configure Fiber app
	app := api.NewServer(cfg)

	// Register routes
	routes.Register(app, deps)

	// Start server
	if err := api.StartServer(app, cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
