package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"smpctl/config"
	"smpctl/logger"
)

var (
	envFile    string
	libraryArg string
	bufferSize int
	logLevel   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "smpctl",
	Short: "smpctl drives the SoundMexPro audio engine.",
	Long: `smpctl loads the SoundMexPro engine library and talks to it through its
single text command function: a fixed demo sequence, single commands,
YAML scripts, and a remote control server.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// exitError ends the process with code after its message was already shown.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&envFile, "env", "", "env file to load instead of ./.env")
	flags.StringVar(&libraryArg, "library", "", "path of the engine library (overrides SMP_LIBRARY_PATH)")
	flags.IntVar(&bufferSize, "buffer-size", 0, "response buffer size in bytes (overrides SMP_BUFFER_SIZE)")
	flags.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	if envFile != "" {
		if cfg, err = config.LoadFrom(envFile); err != nil {
			return err
		}
	} else {
		cfg = config.Load()
	}

	flags := cmd.Flags()
	if flags.Changed("library") {
		cfg.LibraryPath = libraryArg
	}
	if flags.Changed("buffer-size") {
		cfg.BufferSize = bufferSize
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	if err := logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogFile,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   cfg.LogCompress,
		Console:    cmd.ErrOrStderr(),
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg.Validate()
}

// Execute executes the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Sync()

	if err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
