package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dougsko/trx8/pkg/client"
	"github.com/dougsko/trx8/pkg/config"
	"github.com/dougsko/trx8/pkg/display"
	"github.com/dougsko/trx8/pkg/engine"
	"github.com/dougsko/trx8/pkg/logging"
	"github.com/gin-gonic/gin"
)

// TRXDaemon ties the core engine to its outer surfaces: the web API, the
// websocket feed, the terminal console and keyboard
type TRXDaemon struct {
	config     *config.Config
	configPath string
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	coreEngine   *engine.CoreEngine
	socketClient *client.SocketClient
	hub          *display.Hub
	webServer    *http.Server

	socketPath string
	quit       chan struct{}
	quitOnce   sync.Once
}

// NewTRXDaemon creates a new daemon instance
func NewTRXDaemon(cfg *config.Config, configPath string) (*TRXDaemon, error) {
	ctx, cancel := context.WithCancel(context.Background())

	socketPath := cfg.API.UnixSocket
	if socketPath == "" {
		socketPath = "/tmp/trxd.sock"
	}

	daemon := &TRXDaemon{
		config:       cfg,
		configPath:   configPath,
		ctx:          ctx,
		cancel:       cancel,
		socketPath:   socketPath,
		socketClient: client.NewSocketClient(socketPath),
		hub:          display.NewHub(),
		quit:         make(chan struct{}),
	}

	outputs := []display.Display{daemon.hub}
	if cfg.Display.Console {
		outputs = append(outputs, display.NewConsole(cfg.Display.NoColor))
	}
	daemon.coreEngine = engine.NewCoreEngine(cfg, socketPath, outputs...)

	if err := daemon.setupWebServer(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to setup web server: %w", err)
	}

	return daemon, nil
}

// Start starts the daemon
func (d *TRXDaemon) Start() error {
	logging.Info("daemon", "Starting trxd daemon...")

	if err := d.coreEngine.Start(); err != nil {
		return fmt.Errorf("failed to start core engine: %w", err)
	}

	// Wait a moment for socket to be ready
	time.Sleep(100 * time.Millisecond)

	if !d.socketClient.IsConnected() {
		return fmt.Errorf("failed to connect to core engine socket")
	}

	if d.config.Web.Enabled {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			logging.Infof("daemon", "Starting web server on %s", d.webServer.Addr)
			if err := d.webServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logging.Errorf("daemon", "Web server error: %v", err)
			}
		}()
	}

	if d.config.Display.Keyboard {
		if err := d.startKeyboard(); err != nil {
			logging.Warnf("daemon", "keyboard input disabled: %v", err)
		}
	}

	return nil
}

// Stop stops the daemon gracefully
func (d *TRXDaemon) Stop() error {
	logging.Info("daemon", "Stopping daemon...")

	d.cancel()

	if d.webServer != nil && d.config.Web.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.webServer.Shutdown(ctx); err != nil {
			logging.Warnf("daemon", "Web server shutdown error: %v", err)
		}
	}

	if d.coreEngine != nil {
		if err := d.coreEngine.Stop(); err != nil {
			logging.Warnf("daemon", "Core engine shutdown error: %v", err)
		}
	}

	d.wg.Wait()

	logging.Info("daemon", "Daemon stopped")
	return nil
}

// Done is closed when the operator asks to quit from the keyboard
func (d *TRXDaemon) Done() <-chan struct{} {
	return d.quit
}

// Fatal delivers the hardware fault that stopped the engine
func (d *TRXDaemon) Fatal() <-chan error {
	return d.coreEngine.Fatal()
}

func (d *TRXDaemon) requestQuit() {
	d.quitOnce.Do(func() { close(d.quit) })
}

// setupWebServer initializes the web server and routes
func (d *TRXDaemon) setupWebServer() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/", d.handleHome)
	router.GET("/ws", gin.WrapH(d.hub))

	api := router.Group("/api/v1")
	{
		api.GET("/status", d.handleGetStatus)
		api.GET("/bands", d.handleGetBands)
		api.POST("/key", d.handlePressKey)
		api.POST("/tune", d.handleTune)
		api.POST("/save", d.handleSave)
		api.GET("/codec", d.handleCodec)
		api.GET("/config", d.handleGetConfig)
	}

	addr := fmt.Sprintf("%s:%d", d.config.Web.BindAddress, d.config.Web.Port)
	d.webServer = &http.Server{
		Addr:    addr,
		Handler: router,
	}

	return nil
}

// requestLogger sends gin's access log through the component logger
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Debug("web", "request", logging.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
	}
}
