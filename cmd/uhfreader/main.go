// cmd/uhfreader/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/uhf-inventory/internal/config"
	"github.com/tamzrod/uhf-inventory/internal/device"
	"github.com/tamzrod/uhf-inventory/internal/httpapi"
	"github.com/tamzrod/uhf-inventory/internal/writer"
)

func main() {
	log := logrus.New()

	if len(os.Args) < 2 {
		log.Fatal("usage: uhfreader <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	setupLogger(log, cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Reader facade
	// --------------------

	dev, closeDevice, err := device.Build(cfg, log)
	if err != nil {
		log.Fatalf("device build failed: %v", err)
	}

	// --------------------
	// Status export (optional)
	// --------------------

	statusWriter, closeWriter, err := writer.Build(cfg.Status)
	if err != nil {
		log.Fatalf("status writer build failed: %v", err)
	}
	defer closeWriter()

	tr := newTracker(dev, statusWriter, log)
	dev.OnRound(tr.round)
	dev.OnScanFinished(tr.finished)
	go tr.run(ctx)

	// --------------------
	// Connect (fail fast at startup)
	// --------------------

	info, err := device.Bootstrap(dev, cfg)
	if err != nil {
		_ = closeDevice()
		log.Fatalf("reader bootstrap failed (device=%s): %v", cfg.Serial.Device, err)
	}
	tr.connected()

	log.WithFields(logrus.Fields{
		"device":   cfg.Serial.Device,
		"firmware": info.VersionString(),
		"type":     info.ReaderType,
		"power":    info.Power,
	}).Info("reader ready")

	// --------------------
	// HTTP control surface
	// --------------------

	var api *httpapi.Server
	if cfg.HTTP.Listen != "" {
		api = httpapi.New(dev, tr.Snapshot, log)
		go func() {
			if err := api.ListenAndServe(cfg.HTTP.Listen); err != nil {
				log.WithError(err).Error("http api stopped")
				stop()
			}
		}()
	}

	// --------------------
	// Block until signalled
	// --------------------

	<-ctx.Done()
	log.Info("shutting down")

	if api != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := api.Shutdown(sctx); err != nil {
			log.WithError(err).Warn("http shutdown")
		}
		cancel()
	}

	if err := closeDevice(); err != nil {
		log.WithError(err).Warn("device close")
	}
}

func setupLogger(log *logrus.Logger, c config.LogConfig) {
	if lvl, err := logrus.ParseLevel(c.Level); err == nil {
		log.SetLevel(lvl)
	}
	if c.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
