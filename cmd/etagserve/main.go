package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/etagserve/etagserve"
	"github.com/etagserve/etagserve/fingerprint"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// CLI flags
	configFilenameFlag string
	rootFlag           string
	portFlag           int
	providerFlag       string
	dbFilenameFlag     string
	verbosityTraceFlag bool
	logFilenameFlag    string

	// this is set by goreleaser
	version string
)

func init() {
	flag.StringVar(&configFilenameFlag, "config", "", "Path to config file")
	flag.StringVar(&rootFlag, "root", "", "Directory to serve files from (overrides config)")
	flag.IntVar(&portFlag, "port", 8080, "Port to listen on")
	flag.StringVar(&providerFlag, "provider", "", "Fingerprint store to use: memory or sqlite")
	flag.StringVar(&dbFilenameFlag, "db", "fingerprints.db", "Fingerprint DB file name for the sqlite provider (use 'memory' for in-memory db)")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	// set log level
	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// set up log output to stdout
	// also output to logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stdout})
	if logFilenameFlag != "" {
		if logFileOutput, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644); err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		} else {
			logOutputs = append(logOutputs, logFileOutput)
		}
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()

	root := rootFlag
	port := portFlag
	provider := providerFlag
	dbFilename := dbFilenameFlag

	if configFilenameFlag != "" {
		config, err := getConfig(configFilenameFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not read config file")
		}
		if root == "" {
			root = config.Root
		}
		if config.Port > 0 && portFlag == 8080 {
			port = config.Port
		}
		if provider == "" {
			provider = config.Provider
		}
		if config.DB != "" {
			dbFilename = config.DB
		}
	}

	if root == "" {
		log.Fatal().Msg("Please specify a root directory to serve")
	}

	// use configured provider, default to memory
	var store fingerprint.Store
	switch provider {
	case "", "memory":
		store = fingerprint.NewMemStore()
	case "sqlite":
		if dbFilename == "memory" {
			dbFilename = ""
		}
		store = fingerprint.NewSQLiteStore(dbFilename)
	default:
		log.Fatal().Msgf("Unsupported fingerprint store: %s", provider)
	}

	responder := etagserve.New(etagserve.Config{
		Store:  store,
		Logger: &log.Logger,
	})
	handler := responder.Handler(root)

	r := chi.NewRouter()
	r.Get("/*", handler.ServeHTTP)
	r.Head("/*", handler.ServeHTTP)

	log.Info().Msgf("Serving %s on port %v", root, port)
	err := http.ListenAndServe(fmt.Sprintf(":%d", port), r)

	if err != nil {
		panic(err)
	}
}
