package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/andreyvit/kvdoc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type cli struct {
	v    *viper.Viper
	conf *config
	db   *kvdoc.DB
	conn *kvdoc.Connection
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}
	root := &cobra.Command{
		Use:   "kvdoc",
		Short: "Inspect kvdoc databases",
		Long: `kvdoc reads a kvdoc Bolt database and prints its collections, keys and
stored objects. Objects are decoded by their stored type names, so no Go
types are needed.`,
		SilenceUsage:       true,
		PersistentPreRunE:  c.open,
		PersistentPostRunE: c.close,
	}
	setupFlags(root)

	root.AddCommand(
		c.collectionsCmd(),
		c.keysCmd(),
		c.getCmd(),
		c.dumpCmd(),
		c.statsCmd(),
		c.digestCmd(),
	)
	return root
}

func (c *cli) open(cmd *cobra.Command, _ []string) error {
	if err := initConfig(c.v, cmd); err != nil {
		return err
	}
	conf, err := readConfig(c.v)
	if err != nil {
		return err
	}
	c.conf = conf

	logger := newLogger(conf.Verbose)
	db, err := kvdoc.Open(conf.Path, kvdoc.NewSchema(), kvdoc.Options{
		ReadOnly: true,
		MmapSize: 1024 * 1024,
		Verbose:  conf.Verbose,
		Logf: func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		},
		MetricsName: conf.Path,
	})
	if err != nil {
		return err
	}
	c.db = db
	c.conn = db.NewConnection()
	return nil
}

func (c *cli) close(cmd *cobra.Command, _ []string) error {
	if c.db == nil {
		return nil
	}
	if c.conf.Metrics {
		c.db.Metrics().WritePrometheus(cmd.ErrOrStderr())
	}
	c.db.Close()
	c.db = nil
	return nil
}

func (c *cli) read(f func(tx *kvdoc.Tx) error) error {
	return c.conn.Tx(false, f)
}

// render writes v as JSON or YAML, or calls text for the text format.
func (c *cli) render(w io.Writer, v any, text func(w io.Writer)) error {
	switch c.conf.Format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		text(w)
		return nil
	}
}
