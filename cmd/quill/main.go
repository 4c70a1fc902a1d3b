package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/quillcms/quill/internal/collection"
	"github.com/quillcms/quill/internal/config"
	"github.com/quillcms/quill/internal/eventbus"
	"github.com/quillcms/quill/internal/logging"
	"github.com/quillcms/quill/internal/otel"
	"github.com/quillcms/quill/internal/server"
	"github.com/quillcms/quill/internal/store"
)

const rootUsage = `quill — headless content engine

USAGE:
  quill <command> [flags]

COMMANDS:
  serve            Run the HTTP read API over the configured collections
  check-config     Validate a config file and print its collections
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -config <file>           YAML config file (required)
  -data <file>             JSON seed data: {"<collection>": [docs...]}
  -server.addr <addr>      HTTP listen address (overrides config)
  -server.pretty           Pretty-print JSON responses
  -otel.endpoint <addr>    OTLP collector endpoint (overrides config)
  -otel.service <name>     OpenTelemetry service name (overrides config)
  -log.level <level>       Log level: debug, info, warn, error
`

const checkConfigUsage = `check-config FLAGS:
  -config <file>           YAML config file (required)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := args[0]
	cmdArgs := args[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs)
	case "check-config":
		return cmdCheckConfig(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Print(serveUsage)
	case "check-config":
		fmt.Print(checkConfigUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

func cmdServe(args []string) error {
	configPath := ""
	dataPath := ""
	addr := ""
	pretty := false
	otelEndpoint := ""
	otelService := ""
	logLevel := ""

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&configPath, "config", configPath, "YAML config file")
	fs.StringVar(&dataPath, "data", dataPath, "JSON seed data file")
	fs.StringVar(&addr, "server.addr", addr, "HTTP listen address")
	fs.BoolVar(&pretty, "server.pretty", pretty, "Pretty-print JSON responses")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	fs.StringVar(&logLevel, "log.level", logLevel, "Log level")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}
	if configPath == "" {
		fmt.Fprint(os.Stderr, serveUsage)
		return fmt.Errorf("-config is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if pretty {
		cfg.Server.Pretty = true
	}
	if otelEndpoint != "" {
		cfg.Otel.Endpoint = otelEndpoint
	}
	if otelService != "" {
		cfg.Otel.Service = otelService
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	eventbus.Use(eventbus.New())
	detach := logging.Attach(logger)
	defer detach()

	shutdown, err := otel.Setup(cfg.Otel.Endpoint, cfg.Otel.Service)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(ctx)
	}()

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	mem := store.NewMemory()
	if dataPath != "" {
		n, err := seed(mem, dataPath)
		if err != nil {
			return fmt.Errorf("seed data: %w", err)
		}
		logger.Info("seeded store", zap.String("file", dataPath), zap.Int("documents", n))
	}

	api := collection.NewAPI(registry, mem, cfg.Locale())
	handler := server.New(api,
		server.WithTimeout(time.Duration(cfg.Server.Timeout)),
		serverPretty(cfg.Server.Pretty),
		server.WithCORS(cfg.Server.CORSOrigins...),
	)

	logger.Info("listening", zap.String("addr", cfg.Server.Addr), zap.Int("collections", len(registry.All())))
	return http.ListenAndServe(cfg.Server.Addr, handler)
}

func cmdCheckConfig(args []string) error {
	configPath := ""
	fs := flag.NewFlagSet("check-config", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&configPath, "config", configPath, "YAML config file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, checkConfigUsage)
		return err
	}
	if configPath == "" {
		fmt.Fprint(os.Stderr, checkConfigUsage)
		return fmt.Errorf("-config is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	for _, col := range registry.All() {
		fmt.Printf("%s\t%d fields\n", col.Slug, len(col.Fields))
	}
	return nil
}

func buildRegistry(cfg *config.Config) (*collection.Registry, error) {
	collections := make([]*collection.Collection, 0, len(cfg.Collections))
	for _, cc := range cfg.Collections {
		collections = append(collections, &collection.Collection{
			Slug:   cc.Slug,
			Fields: config.BuildFields(cc.Fields),
		})
	}
	return collection.NewRegistry(collections...)
}

// seed loads a JSON file shaped {"<collection>": [doc, ...]} into the
// store. Documents carrying "_draft": true are stored as drafts.
func seed(mem *store.Memory, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var byCollection map[string][]map[string]any
	if err := json.Unmarshal(raw, &byCollection); err != nil {
		return 0, err
	}
	n := 0
	for slug, docs := range byCollection {
		for _, doc := range docs {
			draft, _ := doc["_draft"].(bool)
			delete(doc, "_draft")
			if _, err := mem.Insert(context.Background(), slug, doc, draft); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

func serverPretty(pretty bool) server.Option {
	if pretty {
		return server.WithPretty()
	}
	return func(*server.Options) {}
}
