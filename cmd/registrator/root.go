package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"image-registrator/internal/config"
)

var (
	cfgPath  string
	logLevel string

	// cfg is resolved before any subcommand runs.
	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "registrator",
	Short: "Registrator aligns images of a shared subject using control points",
	Long: `Registrator estimates a perspective transform from manually picked
control point pairs and warps images onto a reference canvas so features
line up across photos taken from different angles. It also converts
grayscale data maps to color-tinted alphascale images and merges them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgPath != "" {
			loaded, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		setupLogging(cfg.LogLevel)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

func setupLogging(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

func formatTint(tint [3]uint8) string {
	return fmt.Sprintf("%d,%d,%d", tint[0], tint[1], tint[2])
}

// parseTint parses an "R,G,B" flag value into a color triple.
func parseTint(s string) ([3]uint8, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return [3]uint8{}, fmt.Errorf("tint must be R,G,B with values 0..255, got %q", s)
	}
	var tint [3]uint8
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return [3]uint8{}, fmt.Errorf("tint component %q out of range 0..255", p)
		}
		tint[i] = uint8(v)
	}
	return tint, nil
}
