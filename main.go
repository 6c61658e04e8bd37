// Command unblock serves the Unblock sliding-block puzzle.
//
// Commands:
//  1. "serve" (default) runs the HTTP server exposing the REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "play" plays a level pack in the terminal
//  4. "validate" parses level files and reports errors
//
// Settings come from an optional YAML file (--config), overridden by flags
// and environment variables. A .env file in the working directory is loaded first.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/unblock/api"
	"github.com/wricardo/unblock/game/config"
	"github.com/wricardo/unblock/game/engine"
	"github.com/wricardo/unblock/game/service"
	"github.com/wricardo/unblock/game/session"
	"github.com/wricardo/unblock/transport/mcp"
	"github.com/wricardo/unblock/transport/terminal"
	"github.com/wricardo/unblock/transport/websocket"
	"github.com/wricardo/unblock/validate"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Unblock"
)

var errValidationFailed = errors.New("validation failed")

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "unblock",
		Usage:   "sliding-block puzzle server",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML settings file",
				Sources: cli.EnvVars("UNBLOCK_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "levels-dir",
				Usage:   "directory containing level packs",
				Sources: cli.EnvVars("LEVELS_DIR"),
			},
			&cli.StringFlag{
				Name:    "pack",
				Usage:   "default level pack",
				Sources: cli.EnvVars("UNBLOCK_PACK"),
			},
			&cli.StringFlag{
				Name:    "wrap",
				Usage:   "level navigation at the ends of a pack: saturate or wrap",
				Sources: cli.EnvVars("UNBLOCK_WRAP"),
			},
			&cli.BoolFlag{
				Name:    "auto-advance",
				Usage:   "advance to the next level when a level is completed",
				Sources: cli.EnvVars("UNBLOCK_AUTO_ADVANCE"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.StringFlag{
				Name:    "host",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API, WebSocket and /mcp endpoint",
				Action: serveAction,
			},
			{
				Name:   "mcp",
				Usage:  "run an MCP stdio server",
				Action: mcpAction,
			},
			{
				Name:  "play",
				Usage: "play a level pack in the terminal",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "level",
						Usage: "level number to start on",
						Value: 1,
					},
				},
				Action: playAction,
			},
			{
				Name:      "validate",
				Usage:     "parse level files and report errors",
				ArgsUsage: "FILE...",
				Action:    validateAction,
			},
		},
		Action: serveAction,
	}
}

// loadSettings reads the settings file and applies flag overrides
func loadSettings(cmd *cli.Command) (config.Settings, error) {
	s, err := config.LoadSettings(cmd.String("config"))
	if err != nil {
		return s, err
	}

	if cmd.IsSet("levels-dir") {
		s.Levels.Dir = cmd.String("levels-dir")
	}
	if cmd.IsSet("pack") {
		s.Levels.DefaultPack = cmd.String("pack")
	}
	if cmd.IsSet("wrap") {
		s.Game.Wrap = cmd.String("wrap")
	}
	if cmd.IsSet("auto-advance") {
		s.Game.AutoAdvance = cmd.Bool("auto-advance")
	}
	if cmd.IsSet("host") {
		s.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		s.Server.Port = cmd.Int("port")
	}
	if cmd.Bool("debug") {
		s.Log.Level = "debug"
	}

	if err := config.ConfigureLogging(s.Log); err != nil {
		return s, err
	}
	return s, nil
}

// services holds the wired managers behind the game service
type services struct {
	packs    *config.Manager
	sessions *session.Manager
	game     service.GameService
}

// initializeServices wires the pack and session managers into the game service
func initializeServices(s config.Settings) (*services, error) {
	opts, err := s.EngineOptions()
	if err != nil {
		return nil, err
	}

	packs, err := config.NewManager(s.Levels.Dir, config.Options{DefaultPack: s.Levels.DefaultPack})
	if err != nil {
		return nil, fmt.Errorf("failed to create pack manager: %w", err)
	}

	sessions := session.NewManagerWithOptions(opts)

	return &services{
		packs:    packs,
		sessions: sessions,
		game:     service.NewGameService(sessions, packs),
	}, nil
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	svc, err := initializeServices(s)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runHTTPServer(ctx, s, svc, ngrokOptions{
		enabled: cmd.Bool("ngrok"),
		token:   cmd.String("ngrok-auth"),
		domain:  cmd.String("ngrok-domain"),
	})
}

type ngrokOptions struct {
	enabled bool
	token   string
	domain  string
}

// newRouter mounts the API at the root and the MCP endpoint at /mcp
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))
	return mainRouter
}

// mcpHandler answers one JSON-RPC MCP message per POST
func mcpHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

func runHTTPServer(ctx context.Context, s config.Settings, svc *services, ngrokOpts ngrokOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	apiServer := api.NewServer(svc.game, hub)

	addr := s.Addr()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	// The MCP endpoint proxies to the API on the bound address
	mcpClient := mcp.NewClient("http://" + loopbackAddr(listener.Addr()))
	router := newRouter(apiServer, mcpClient)

	httpServer := &http.Server{
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup

	startBackgroundRoutines(ctx, &wg, s, svc)

	serveErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()

		log.WithField("addr", listener.Addr().String()).Info("HTTP server listening")
		log.Infof("REST API: http://%s/api", listener.Addr())
		log.Infof("WebSocket: ws://%s/ws?session=<session_id>", listener.Addr())
		log.Infof("MCP endpoint: http://%s/mcp", listener.Addr())

		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	if ngrokOpts.enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, router, ngrokOpts)
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
	case err := <-serveErr:
		cancel()
		wg.Wait()
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info("Server stopped")
	return nil
}

// loopbackAddr rewrites wildcard listen addresses so a local client can dial them
func loopbackAddr(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return addr.String()
	}
	host := tcp.IP.String()
	if tcp.IP == nil || tcp.IP.IsUnspecified() {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, fmt.Sprint(tcp.Port))
}

// startBackgroundRoutines starts level directory watching and session expiry
func startBackgroundRoutines(ctx context.Context, wg *sync.WaitGroup, s config.Settings, svc *services) {
	if s.Levels.Watch {
		changed, err := svc.packs.Watch(ctx)
		if err != nil {
			log.WithError(err).Warn("Failed to watch levels directory")
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for name := range changed {
					log.WithField("pack", name).Info("level pack changed on disk")
				}
			}()
		}
	}

	ttl, err := s.SessionTTL()
	if err != nil || ttl <= 0 {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		sessionCleanupRoutine(ctx, svc.sessions, ttl)
	}()
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within ttl.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, ttl time.Duration) {
	interval := ttl / 4
	if interval > time.Hour {
		interval = time.Hour
	}
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				log.WithField("removed", removed).Info("Cleaned up expired sessions")
			}
		}
	}
}

// runNgrok serves the router through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, handler http.Handler, opts ngrokOptions) {
	if opts.token == "" {
		log.Warn("Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Info("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if opts.domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.domain))
		log.WithField("domain", opts.domain).Info("Using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.token))
	if err != nil {
		log.WithError(err).Error("Failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.WithError(err).Warn("Failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	log.WithField("url", ngrokURL).Info("Ngrok tunnel established")
	log.Infof("  REST API (ngrok): %s/api", ngrokURL)
	log.Infof("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Infof("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.WithError(err).Warn("Ngrok server error")
	}
	log.Info("Ngrok tunnel closed")
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	// Stdout carries the MCP protocol
	log.SetOutput(os.Stderr)

	svc, err := initializeServices(s)
	if err != nil {
		return err
	}
	return runStdioMCP(ctx, s, svc)
}

// runStdioMCP serves MCP over stdio. It reuses an API already listening on
// the configured address; otherwise it starts an internal HTTP API bound to
// a random loopback port.
func runStdioMCP(ctx context.Context, s config.Settings, svc *services) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	externalURL := "http://" + loopbackHost(s.Addr())
	baseURL := externalURL

	log.WithField("url", externalURL).Info("Checking for external API server")
	if !apiAvailable(externalURL) {
		log.Info("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		hub := websocket.NewHub()
		go hub.Run(ctx)

		httpServer := &http.Server{Handler: api.NewServer(svc.game, hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("Internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
	}

	log.WithField("api", baseURL).Info("MCP stdio server ready")

	mcpClient := mcp.NewClient(baseURL)
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

func loopbackHost(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

// apiAvailable probes the health endpoint of an API server
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func playAction(ctx context.Context, cmd *cli.Command) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	opts, err := s.EngineOptions()
	if err != nil {
		return err
	}

	packs, err := config.NewManager(s.Levels.Dir, config.Options{DefaultPack: s.Levels.DefaultPack})
	if err != nil {
		return fmt.Errorf("failed to create pack manager: %w", err)
	}
	levels, err := packs.LoadPack(packs.GetDefault())
	if err != nil {
		return err
	}

	eng, err := engine.NewEngine(levels, opts)
	if err != nil {
		return err
	}
	if level := cmd.Int("level"); level > 1 && !eng.Goto(level-1) {
		return fmt.Errorf("%w: level %d (pack has %d levels)", engine.ErrLevelRange, level, eng.LevelCount())
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	// Log lines would corrupt the screen
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	return terminal.NewGame(screen, eng).Run(ctx)
}

func validateAction(ctx context.Context, cmd *cli.Command) error {
	files := cmd.Args().Slice()
	if len(files) == 0 {
		return fmt.Errorf("validate: no files given")
	}
	return validateFiles(cmd.Root().Writer, files)
}

// validateFiles checks each level file and writes a report. It fails if
// any file does not parse.
func validateFiles(w io.Writer, files []string) error {
	results, allValid := validate.ValidateFiles(files)

	failed := 0
	for i, result := range results {
		fmt.Fprintf(w, "%s %s\n", strings.Repeat("=", 20), files[i])
		if result.Valid {
			fmt.Fprintf(w, "✅ VALID (%d levels)\n", result.Levels)
		} else {
			failed++
			fmt.Fprintln(w, "❌ INVALID")
			for _, msg := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+msg)
			}
		}
		for _, msg := range result.Warnings {
			fmt.Fprintln(w, "  ⚠️  "+msg)
		}
	}

	if !allValid {
		return fmt.Errorf("%w: %d of %d files", errValidationFailed, failed, len(files))
	}
	fmt.Fprintln(w, "✅ All level files are valid!")
	return nil
}
