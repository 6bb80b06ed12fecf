package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dougsko/trx8/pkg/config"
	"github.com/dougsko/trx8/pkg/engine"
	"github.com/dougsko/trx8/pkg/logging"
	"github.com/dougsko/trx8/pkg/verbose"
	"github.com/pborman/getopt"
)

const Build = "development"

func main() {
	help := getopt.BoolLong("help", 'h', "display help")
	configPath := getopt.StringLong("config", 'c', "config.yaml", "Configuration file path")
	version := getopt.BoolLong("version", 'V', "Show version information")
	verboseFrames := getopt.BoolLong("verbose", 'v', "Dump every bus frame to stderr")
	keyboardInput := getopt.BoolLong("keyboard", 'k', "Read keys and tuning from the terminal")

	getopt.Parse()

	if *help {
		getopt.Usage()
		os.Exit(0)
	}

	if *version {
		fmt.Printf("trxd version %s (%s)\n", engine.Version, Build)
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *keyboardInput {
		cfg.Display.Keyboard = true
	}
	if *verboseFrames {
		cfg.Logging.Verbose = true
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := logging.InitGlobalLogger(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseGlobalLogger()

	verbose.SetEnabled(cfg.Logging.Verbose)

	logging.Info("main", fmt.Sprintf("trxd version %s starting...", engine.Version))
	logging.Info("main", "hardware", logging.Fields{
		"mock":    cfg.Hardware.Mock,
		"i2c":     cfg.Hardware.I2CBus,
		"storage": cfg.Storage.Backend,
	})
	if cfg.Web.Enabled {
		logging.Info("main", fmt.Sprintf("Web interface: http://%s:%d", cfg.Web.BindAddress, cfg.Web.Port))
	}

	daemon, err := NewTRXDaemon(cfg, *configPath)
	if err != nil {
		logging.Error("main", fmt.Sprintf("Failed to create daemon: %v", err))
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := daemon.Start(); err != nil {
		logging.Error("main", fmt.Sprintf("Failed to start daemon: %v", err))
		os.Exit(1)
	}

	logging.Info("main", "trxd started successfully")

	exitCode := 0
	select {
	case <-sigChan:
		logging.Info("main", "Shutting down...")
	case <-daemon.Done():
		logging.Info("main", "Quit requested from keyboard")
	case err := <-daemon.Fatal():
		// A stuck bus leaves the synthesizers in an unknown state
		logging.Error("main", fmt.Sprintf("Hardware fault, halting: %v", err))
		exitCode = 2
	}

	if err := daemon.Stop(); err != nil {
		logging.Error("main", fmt.Sprintf("Error during shutdown: %v", err))
	}

	logging.Info("main", "trxd stopped")
	if exitCode != 0 {
		logging.CloseGlobalLogger()
		os.Exit(exitCode)
	}
}
