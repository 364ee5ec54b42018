package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/regionkit/pkg/codec"
	"github.com/joshuapare/regionkit/pkg/region"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	configPath string
	logLevel   string

	cfg    = defaultConfig()
	logger = zerolog.Nop()

	// numbers formats counts with digit grouping.
	numbers = message.NewPrinter(language.English)
)

var rootCmd = &cobra.Command{
	Use:   "regionctl",
	Short: "Inspect and edit region files",
	Long: `regionctl reads, writes and optimizes region files: a 32×32 grid of
compressed chunks stored in 4096-byte sectors behind a two-table header.

Configuration is read from --config, $REGIONCTL_CONFIG, or defaults.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = os.Getenv("REGIONCTL_CONFIG")
		}
		if path != "" {
			c, err := loadConfig(path)
			if err != nil {
				return err
			}
			cfg = c
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		setupLogging()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging() {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	if verbose && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}
	if cfg.LogFormat == "json" {
		logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
		return
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

// openOptions builds region options from the loaded config.
func openOptions(readOnly bool) (*region.OpenOptions, error) {
	mode, err := cfg.flushMode()
	if err != nil {
		return nil, err
	}
	c, err := codec.New(&codec.Options{Level: cfg.CompressionLevel})
	if err != nil {
		return nil, err
	}
	return &region.OpenOptions{
		ReadOnly:  readOnly,
		Strict:    cfg.Strict,
		FlushMode: mode,
		Codec:     c,
		Logger:    &logger,
	}, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
