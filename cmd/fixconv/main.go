package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/fixconv/internal/config"
	"github.com/danmuck/fixconv/internal/converter"
	"github.com/danmuck/fixconv/internal/logging"
	"github.com/danmuck/fixconv/internal/observability"
	"github.com/danmuck/fixconv/internal/protocol"
	"github.com/danmuck/fixconv/internal/protocol/engine"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const usage = `usage: fixconv <command> [flags]

commands:
  convert    convert FIX messages to Avro (json, avro or ocf output)
  validate   check FIX messages against a version and field criteria
  decode     print Avro records as JSON
  versions   list the known FIX versions and their dictionaries
  serve      run the HTTP API
  config     print the effective configuration
`

func main() {
	// .env values win over the inherited environment.
	envErr := godotenv.Overload()
	logging.ConfigureRuntime()
	observability.InitLogger("fixconv")
	if envErr == nil {
		log.Debug().Msg("loaded .env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout)
	stop()
	os.Exit(code)
}

// run dispatches one subcommand and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "convert":
		err = runConvert(ctx, args[1:], stdin, stdout)
	case "validate":
		err = runValidate(args[1:], stdin, stdout)
	case "decode":
		err = runDecode(args[1:], stdin, stdout)
	case "versions":
		err = runVersions(args[1:], stdout)
	case "serve":
		err = runServe(ctx, args[1:])
	case "config":
		err = runConfig(args[1:], stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "fixconv: unknown command %q\n\n%s", args[0], usage)
		return 2
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixconv %s: %v\n", args[0], err)
		return 1
	}
	return 0
}

// loadConfig reads path (or defaults) and applies environment overrides.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return config.Config{}, err
	}
	config.ApplyEnv(&cfg)
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, fmt.Errorf("config invalid: %w", err)
	}
	return cfg, nil
}

func newConverter(cfg config.Config) (*converter.Converter, error) {
	eng := engine.New(
		engine.WithVerifyChecksum(cfg.VerifyChecksum),
		engine.WithVerifyBodyLength(cfg.VerifyBodyLength),
		engine.WithVerifyMsgType(cfg.VerifyMsgType),
	)
	return converter.New(converter.WithEngine(eng))
}

// resolveVersion looks id up in the configured registry, falling back to the
// configured default.
func resolveVersion(cfg config.Config, id string) (*protocol.Registry, protocol.Version, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, protocol.Version{}, err
	}
	if id == "" {
		id = cfg.DefaultVersion
	}
	v, err := reg.Version(id)
	if err != nil {
		return nil, protocol.Version{}, err
	}
	return reg, v, nil
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
