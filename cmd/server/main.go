package main // Entry point package

import (
    "context"
    "log" // Logging library
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/panaview/reservation-engine/internal/catalog"  // Showtime catalog collaborator
    "github.com/panaview/reservation-engine/internal/config"   // Internal config loader
    "github.com/panaview/reservation-engine/internal/database" // MySQL connection pool
    "github.com/panaview/reservation-engine/internal/handler"  // HTTP handlers
    "github.com/panaview/reservation-engine/internal/middleware"
    "github.com/panaview/reservation-engine/internal/queue"  // Booking event consumer
    "github.com/panaview/reservation-engine/internal/router" // Internal router setup
    service "github.com/panaview/reservation-engine/internal/service" // Booking event publisher
    "github.com/panaview/reservation-engine/internal/session" // Reservation session manager
    "github.com/panaview/reservation-engine/internal/store"   // Seat store backends
)

func main() {
    cfg := config.Load() // Load environment config

    holdTTL := time.Duration(cfg.HoldTTLMin) * time.Minute

    // Select the seat store backend and its catalog collaborator.  The
    // mysql backend is authoritative for production; the memory backend
    // serves local development and can persist across restarts through an
    // optional JSON snapshot file.
    var (
        st  store.Store
        cat handler.ShowtimeCatalog
    )
    var saveSnapshot func()
    switch cfg.StoreBackend {
    case "memory":
        mem := store.NewMemory(store.WithMemoryHoldTTL(holdTTL))
        fix := catalog.NewFixture()
        if cfg.SnapshotFile != "" {
            restoreSnapshot(mem, cfg.SnapshotFile)
            saveSnapshot = func() { writeSnapshot(mem, cfg.SnapshotFile) }
        }
        st, cat = mem, fix
    default:
        db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
        if err != nil {
            log.Fatalf("database connection failed: %v", err)
        }
        defer db.Close()
        st = store.NewMySQL(db, store.WithHoldTTL(holdTTL))
        cat = catalog.NewRepo(db)
    }

    sessions := session.NewManager(st)

    e := echo.New()          // Create Echo instance
    router.RegisterRoutes(e) // Register health routes

    // Redis is optional: without it the API simply runs without rate
    // limiting and response caching.
    var limiter, cache echo.MiddlewareFunc
    if rdb := config.NewRedisClient(); rdb != nil {
        limiter = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
        cache = middleware.NewSnapshotCache(config.LoadCacheConfig(), rdb)
    }

    browse := handler.NewBrowseHandler(cat, st)
    engine := handler.NewSessionHandler(cat, st, sessions, service.New(), cfg.SessionSecret, cfg.SessionTTLMin)

    router.RegisterBrowse(e, browse, cache)
    router.RegisterEngine(e, engine, cfg.SessionSecret, limiter)
    router.RegisterAdmin(e, browse)

    // Consume booking.confirmed events in the background.  The consumer
    // reconnects on broker failures and never blocks request handling.
    go func() {
        if err := queue.StartBookingConsumer(); err != nil {
            log.Printf("booking consumer stopped: %v", err)
        }
    }()

    addr := ":" + cfg.Port                                // Address string with port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

    go func() {
        if err := e.Start(addr); err != nil { // Start HTTP server
            log.Printf("server stopped: %v", err)
        }
    }()

    // Wait for an interrupt, then drain in-flight requests and persist the
    // memory snapshot if one is configured.
    quit := make(chan os.Signal, 1)
    signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
    <-quit

    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := e.Shutdown(ctx); err != nil {
        log.Printf("shutdown: %v", err)
    }
    if saveSnapshot != nil {
        saveSnapshot()
    }
}

// restoreSnapshot loads a previous memory-store snapshot if the file
// exists.  A missing file is not an error on first run.
func restoreSnapshot(mem *store.Memory, path string) {
    f, err := os.Open(path)
    if err != nil {
        if !os.IsNotExist(err) {
            log.Printf("snapshot open failed: %v", err)
        }
        return
    }
    defer f.Close()
    if err := mem.Restore(f); err != nil {
        log.Fatalf("snapshot restore failed: %v", err)
    }
    log.Printf("restored seat snapshot from %s", path)
}

// writeSnapshot persists the memory store to disk on shutdown.
func writeSnapshot(mem *store.Memory, path string) {
    f, err := os.Create(path)
    if err != nil {
        log.Printf("snapshot create failed: %v", err)
        return
    }
    defer f.Close()
    if err := mem.Snapshot(f); err != nil {
        log.Printf("snapshot write failed: %v", err)
        return
    }
    log.Printf("saved seat snapshot to %s", path)
}
