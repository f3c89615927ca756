package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/hanpama/gqlengine/internal/config"
	"github.com/hanpama/gqlengine/internal/eventbus"
	"github.com/hanpama/gqlengine/internal/executor"
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/metrics"
	"github.com/hanpama/gqlengine/internal/otel"
	"github.com/hanpama/gqlengine/internal/schema"
	"github.com/hanpama/gqlengine/internal/server"
	"github.com/hanpama/gqlengine/internal/starwars"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "gqlengine"
	app.Usage = "GraphQL execution engine serving the Star Wars example schema"
	app.Commands = []*cli.Command{serveCommand(), queryCommand(), schemaCommand()}
	return app
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP GraphQL endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML configuration file", EnvVars: []string{"GQLENGINE_CONFIG"}},
			&cli.StringFlag{Name: "addr", Usage: "HTTP listen address", EnvVars: []string{"GQLENGINE_ADDR"}},
			&cli.DurationFlag{Name: "timeout", Usage: "Per-request timeout"},
			&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print JSON responses"},
			&cli.StringSliceFlag{Name: "cors-origin", Usage: "Allowed CORS origin. Repeatable"},
			&cli.IntFlag{Name: "concurrency-limit", Usage: "Max concurrently resolved siblings, 0 for unlimited"},
			&cli.StringFlag{Name: "otel-endpoint", Usage: "OTLP collector endpoint", EnvVars: []string{"OTEL_EXPORTER_OTLP_ENDPOINT"}},
			&cli.StringFlag{Name: "otel-service", Usage: "OpenTelemetry service name"},
			&cli.StringFlag{Name: "log-level", Usage: "Log level", EnvVars: []string{"GQLENGINE_LOG_LEVEL"}},
		},
		Action: runServe,
	}
}

// loadConfig reads the configuration file and applies the flags that were
// set explicitly.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}
	if c.IsSet("timeout") {
		cfg.Server.Timeout = c.Duration("timeout")
	}
	if c.IsSet("pretty") {
		cfg.Server.Pretty = c.Bool("pretty")
	}
	if c.IsSet("cors-origin") {
		cfg.Server.CORSOrigins = c.StringSlice("cors-origin")
	}
	if c.IsSet("concurrency-limit") {
		cfg.Executor.ConcurrencyLimit = c.Int("concurrency-limit")
	}
	if c.IsSet("otel-endpoint") {
		cfg.Telemetry.OTLPEndpoint = c.String("otel-endpoint")
	}
	if c.IsSet("otel-service") {
		cfg.Telemetry.ServiceName = c.String("otel-service")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	return cfg, cfg.Validate()
}

func serverOptions(cfg config.Config, logger logrus.FieldLogger) []server.Option {
	opts := []server.Option{
		server.WithTimeout(cfg.Server.Timeout),
		server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		server.WithGraphiQL(cfg.Server.GraphiQL),
		server.WithDocumentCache(cfg.Server.DocumentCacheSize),
		server.WithLogger(logger),
	}
	if cfg.Server.Pretty {
		opts = append(opts, server.WithPretty())
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		opts = append(opts, server.WithCORS(cfg.Server.CORSOrigins...))
	}
	return opts
}

// newMux wires the GraphQL endpoint and, when enabled, /metrics. The
// returned function detaches the metrics subscribers.
func newMux(cfg config.Config, logger *logrus.Logger) (*http.ServeMux, func(), error) {
	s, err := starwars.New(starwars.NewStore())
	if err != nil {
		return nil, nil, err
	}
	exec := executor.NewExecutor(s,
		executor.WithLogger(logger),
		executor.WithConcurrencyLimit(cfg.Executor.ConcurrencyLimit))
	h, err := server.New(exec, serverOptions(cfg, logger)...)
	if err != nil {
		return nil, nil, fmt.Errorf("server init: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", h)
	detach := func() {}
	if cfg.Telemetry.Metrics {
		m := metrics.New()
		detach = m.Register()
		mux.Handle("/metrics", m.Handler())
	}
	return mux, detach, nil
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := logrus.New()
	if err := cfg.Log.Apply(logger); err != nil {
		return err
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	mux, detach, err := newMux(cfg, logger)
	if err != nil {
		return err
	}
	defer detach()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.WithField("addr", cfg.Server.Addr).Info("GraphQL server listening")

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Execute one GraphQL request against the example schema",
		ArgsUsage: "<document>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "variables", Usage: "Variables as a JSON object"},
			&cli.StringFlag{Name: "operation", Usage: "Operation name"},
			&cli.BoolFlag{Name: "pretty", Usage: "Indent the JSON result"},
		},
		Action: runQuery,
	}
}

func runQuery(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("query: exactly one document argument is required", 2)
	}
	vars := map[string]any{}
	if v := c.String("variables"); v != "" {
		if err := json.Unmarshal([]byte(v), &vars); err != nil {
			return fmt.Errorf("invalid variables: %w", err)
		}
	}
	s, err := starwars.New(starwars.NewStore())
	if err != nil {
		return err
	}

	var res *executor.ExecutionResult
	doc, err := language.ParseQuery(c.Args().First())
	if err != nil {
		res = &executor.ExecutionResult{}
		res.Errors = append(res.Errors, toGQLError(err))
	} else {
		res = executor.Execute(c.Context, s, executor.Params{
			Document:      doc,
			OperationName: c.String("operation"),
			Variables:     vars,
		})
	}

	var b []byte
	if c.Bool("pretty") {
		b, err = json.MarshalIndent(res, "", "  ")
	} else {
		b, err = json.Marshal(res)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(b))
	return err
}

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the example schema as SDL",
		Action: func(c *cli.Context) error {
			s, err := starwars.New(starwars.NewStore())
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(c.App.Writer, schema.Render(s))
			return err
		},
	}
}

func toGQLError(err error) *gqlerror.Error {
	var gerr *gqlerror.Error
	if errors.As(err, &gerr) {
		return gerr
	}
	return &gqlerror.Error{Message: err.Error(), Err: err}
}
