package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"plugin-hub/internal/db"
	"plugin-hub/internal/server"
)

func main() {
	// Local development convenience; production sets real env vars.
	_ = godotenv.Load()

	addr := ":" + getenvDefault("PORT", "8000")

	ownerKey := getenvDefault("OWNER_KEY", server.DefaultOwnerKey)
	if ownerKey == server.DefaultOwnerKey {
		log.Printf("service=backend msg=%q", "OWNER_KEY not set, using insecure default")
	}

	// Database
	dbConn, err := server.OpenDB(os.Getenv("DATABASE_URL"), os.Getenv("DATABASE_NAME"))
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "db_connect_failed", err)
		os.Exit(1)
	}
	defer func() { _ = dbConn.Close() }()

	// Run migrations
	log.Printf("service=backend msg=%q", "running_migrations")
	if err := db.RunMigrations(dbConn); err != nil {
		log.Printf("service=backend msg=%q err=%v", "migration_failed", err)
		os.Exit(1)
	}
	log.Printf("service=backend msg=%q", "migrations_complete")

	blobs, err := server.NewBlobStore(getenvDefault("HUB_UPLOAD_DIR", "uploads"))
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "blob_store_init_failed", err)
		os.Exit(1)
	}

	// Optional off-site mirror of the uploads directory.
	var mirror *server.MirrorManager
	mirrorCfg := server.LoadMirrorConfig()
	if mirrorCfg.Enabled {
		client, err := server.NewMirrorClient()
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "mirror_init_failed", err)
			os.Exit(1)
		}
		mirror = server.NewMirrorManager(mirrorCfg, blobs, client)
		mirror.Start()
	}

	srv := server.New(server.Config{
		Addr:     addr,
		OwnerKey: ownerKey,
		Store:    server.NewPostgresStore(dbConn),
		Blobs:    blobs,
	})

	// Start the HTTP server in a background goroutine so we can listen for
	// OS signals while the server runs.
	errCh := make(chan error, 1)
	go func() {
		log.Printf("service=backend msg=%q addr=%s", "starting", addr)
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("service=backend msg=%q signal=%s", "shutting_down", sig.String())
		if mirror != nil {
			mirror.Stop()
		}
		// Give the server 5 seconds to finish in-flight requests.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("service=backend msg=%q err=%v", "shutdown_error", err)
			os.Exit(1)
		}
		log.Printf("service=backend msg=%q", "shutdown_complete")
	case err := <-errCh:
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "server_error", err)
			os.Exit(1)
		}
	}
}

// getenvDefault reads an environment variable and returns a default value
// if not set.
func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
