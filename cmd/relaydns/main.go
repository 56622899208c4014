package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mstock/relaydns/internal/config"
	"github.com/mstock/relaydns/internal/logging"
	"github.com/mstock/relaydns/internal/server"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to JSON configuration file (or set RELAYDNS_CONFIG)")
		host       = flag.String("host", "", "Override bind host")
		port       = flag.Int("port", 0, "Override bind port")
		upstream   = flag.String("upstream", "", "Override upstream server (HOST or HOST:PORT)")
		reusePort  = flag.Bool("reuse-port", false, "Enable SO_REUSEPORT on the listening socket")
		jsonLogs   = flag.Bool("json-logs", false, "Enable JSON structured logging")
		debug      = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	cfg, err := config.Load(config.ResolveConfigPath(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *upstream != "" {
		cfg.Upstream.Address = *upstream
	}
	if *reusePort {
		cfg.Server.ReusePort = true
	}
	if *jsonLogs {
		cfg.Logging.Structured = true
		cfg.Logging.StructuredFormat = "json"
	}
	if *debug {
		cfg.Logging.Level = "DEBUG"
	}

	logger := logging.Configure(logging.Config{
		Level:            cfg.Logging.Level,
		Structured:       cfg.Logging.Structured,
		StructuredFormat: cfg.Logging.StructuredFormat,
		IncludePID:       cfg.Logging.IncludePID,
		ExtraFields:      cfg.Logging.ExtraFields,
	})
	logger.Info("relaydns starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"upstream", cfg.Upstream.Address,
		"api", cfg.API.Enabled,
		"query_log", cfg.QueryLog.Enabled,
	)

	runner := server.NewRunner(logger)
	if err := runner.Run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "server exited with error: %v\n", err)
		os.Exit(1)
	}
}
