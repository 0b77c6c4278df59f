//go:build darwin

package main

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa

#import <Cocoa/Cocoa.h>

// We need to ensure we're on the main thread for all AppKit operations
static void ensureMainThread() {
    if (![NSThread isMainThread]) {
        dispatch_sync(dispatch_get_main_queue(), ^{});
    }
}
*/
import "C"

import (
	"fmt"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/aayushbajaj/japcount/internal/config"
	"github.com/aayushbajaj/japcount/internal/counter"
	"github.com/aayushbajaj/japcount/internal/menubar"
	"github.com/aayushbajaj/japcount/internal/storage"
	"go.uber.org/zap"
)

func init() {
	// Ensure main goroutine runs on the main OS thread (required for macOS UI)
	runtime.LockOSThread()
}

func main() {
	C.ensureMainThread()

	// Ensure HOME is set (needed when launched via launchctl/open)
	if os.Getenv("HOME") == "" {
		if u, err := user.Current(); err == nil {
			os.Setenv("HOME", u.HomeDir)
		}
	}

	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(fileCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting japcount menu bar app")

	dbPath := config.DefaultDBPath()
	if fileCfg.Storage.Path != nil {
		dbPath = *fileCfg.Storage.Path
	}
	store, err := storage.Open(dbPath)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.String("path", dbPath), zap.Error(err))
	}

	opts, err := config.CounterOptions(fileCfg, logger)
	if err != nil {
		logger.Fatal("Invalid counter config", zap.Error(err))
	}
	c := counter.New(store, opts...)

	shutdown := func() {
		logger.Info("Shutting down")
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close storage", zap.Error(err))
		}
		_ = logger.Sync()
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		shutdown()
		os.Exit(0)
	}()

	// This blocks and runs the macOS event loop
	menubar.New(c, logger, shutdown).Run()
}

func newLogger(fileCfg config.FileConfig) (*zap.Logger, error) {
	dir := config.DefaultLogDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "menubar.log")

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	if fileCfg.Log.Level != nil {
		level, err := zap.ParseAtomicLevel(*fileCfg.Log.Level)
		if err != nil {
			return nil, err
		}
		cfg.Level = level
	}
	return cfg.Build()
}
