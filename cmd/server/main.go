package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/careline/go-careline/internal/api"
	"github.com/careline/go-careline/internal/config"
	"github.com/careline/go-careline/internal/database"
	"github.com/careline/go-careline/internal/messaging"
	"github.com/careline/go-careline/internal/push"
	"github.com/careline/go-careline/internal/scheduling"
	"github.com/careline/go-careline/internal/stats"
	_ "github.com/lib/pq"
)

const defaultSigningKey = "5mJZ2hU0Wf0kq3mX1bZ8yQxGqD4sVrTnJc9uK2eHhPA="

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	dsn            string
	signingKey     string
	migrationsDir  string
	allowedOrigins stringSliceFlag
)

func main() {
	flag.StringVar(&addr, "addr", "localhost:8000", "server address")
	flag.StringVar(&dsn, "dsn", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable", "database connection string")
	flag.StringVar(&signingKey, "signing-key", defaultSigningKey, "base64 encoded signing key")
	flag.StringVar(&migrationsDir, "migrations-dir", "migrations", "directory containing schema migrations")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	logger := log.New(os.Stderr, "[careline] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, dsn, signingKey, allowedOrigins)
	if err != nil {
		logger.Fatal("config:", err)
	}
	cfg.MigrationsDir = migrationsDir

	dbConn, err := database.NewPgCarelineRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	if err := dbConn.Migrate(cfg.MigrationsDir); err != nil {
		logger.Fatal("migrate:", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)
	statsUpdater.RegisterMetric(stats.ActiveConnections)
	statsUpdater.RegisterMetric(stats.MessagesSent)
	statsUpdater.RegisterMetric(stats.ConsultationsRequested)

	scheduler := scheduling.NewService(logger, dbConn)
	messages := messaging.NewService(logger, dbConn)

	pushServer := push.NewPushServer(logger, messages, statsUpdater)
	mailer := api.NewLogMailer(logger)

	srv := api.NewCarelineApp(mux, logger, pushServer, dbConn, scheduler, messages, statsUpdater, mailer, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go pushServer.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down push server...")
	if err := pushServer.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("push server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
