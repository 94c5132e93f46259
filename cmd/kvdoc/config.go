package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// wrap is the number of characters to wrap the help text at
	wrap int = 50
)

// wrapString wraps a string at wrap characters
func wrapString(text string) string {
	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && line.Len()+1+len(word) > wrap {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

func setupFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("db", "", wrapString("Path to the database file (or set KVDOC_DB)"))
	cmd.PersistentFlags().StringP("format", "f", "text", wrapString("Output format: text|json|yaml"))
	cmd.PersistentFlags().BoolP("verbose", "v", false, wrapString("Log every engine access to stderr"))
	cmd.PersistentFlags().Bool("metrics", false, wrapString("Print the database metrics in Prometheus format to stderr when done"))
}

// initConfig loads .env files and binds KVDOC_* environment variables.
func initConfig(v *viper.Viper, cmd *cobra.Command) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	v.SetEnvPrefix("kvdoc")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v.BindPFlags(cmd.Flags())
}

type config struct {
	Path    string
	Format  string
	Verbose bool
	Metrics bool
}

func readConfig(v *viper.Viper) (*config, error) {
	conf := &config{
		Path:    v.GetString("db"),
		Format:  v.GetString("format"),
		Verbose: v.GetBool("verbose"),
		Metrics: v.GetBool("metrics"),
	}
	if conf.Path == "" {
		return nil, fmt.Errorf("no database given, use --db or KVDOC_DB")
	}
	switch conf.Format {
	case "text", "json", "yaml":
	default:
		return nil, fmt.Errorf("invalid format %q", conf.Format)
	}
	return conf, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
