package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kpauljoseph/listingpacket/internal/capability"
	"github.com/kpauljoseph/listingpacket/internal/config"
	"github.com/kpauljoseph/listingpacket/internal/web"
	"github.com/kpauljoseph/listingpacket/internal/workflow"
	"github.com/kpauljoseph/listingpacket/pkg/logger"
	"github.com/kpauljoseph/listingpacket/pkg/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	listenAddr := flag.String("listen", "", "listen address (overrides config)")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	debug := flag.Bool("debug", false, "enable debug mode with trace logging")
	flag.Parse()

	log := logger.New(logger.WithPrefix("[listingpacket-web] "))
	log.SetVerbose(*verbose || *debug)
	if *debug {
		log.SetLevel(logger.LevelTrace)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal("Error loading config: %v", err)
		}
		cfg = loaded
	}
	if *listenAddr != "" {
		cfg.Web.ListenAddr = *listenAddr
	}

	caps := capability.Detect(cfg, log)
	if !caps.Cover() {
		log.Warn("Cover page feature unavailable")
	}
	if !caps.Social() {
		log.Warn("Social posts unavailable: no post templates found in %s", cfg.AssetsDir)
	}

	service := workflow.NewService(cfg, caps, log)
	srv := &http.Server{
		Addr:              cfg.Web.ListenAddr,
		Handler:           web.NewServer(service, caps, cfg.Web.MaxUploadMB, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("%s listening on %s", version.GetVersionInfo(), cfg.Web.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Server error: %v", err)
	}
}
