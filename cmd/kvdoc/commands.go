package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/andreyvit/kvdoc"
	"github.com/spf13/cobra"
)

type collectionInfo struct {
	Name  string `json:"name" yaml:"name"`
	Items int    `json:"items" yaml:"items"`
}

type itemInfo struct {
	Index    string           `json:"index" yaml:"index"`
	Object   *kvdoc.RawObject `json:"object,omitempty" yaml:"object,omitempty"`
	Metadata *kvdoc.RawObject `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Error    string           `json:"error,omitempty" yaml:"error,omitempty"`
}

type statsInfo struct {
	Collection string `json:"collection" yaml:"collection"`
	Items      int    `json:"items" yaml:"items"`
	Metadatas  int    `json:"metadatas" yaml:"metadatas"`
	TotalSize  int64  `json:"total_size" yaml:"total_size"`
	TotalAlloc int64  `json:"total_alloc" yaml:"total_alloc"`
}

type digestInfo struct {
	Collection string `json:"collection" yaml:"collection"`
	Digest     string `json:"digest" yaml:"digest"`
}

func (c *cli) collectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "Lists the collections and their item counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []collectionInfo
			err := c.read(func(tx *kvdoc.Tx) error {
				for _, name := range tx.Collections() {
					result = append(result, collectionInfo{name, len(tx.KeysInCollection(name))})
				}
				return nil
			})
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), result, func(w io.Writer) {
				for _, ci := range result {
					fmt.Fprintf(w, "%s\t%d\n", ci.Name, ci.Items)
				}
			})
		},
	}
}

func (c *cli) keysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys [collection]",
		Short: "Lists the keys of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var keys []string
			err := c.read(func(tx *kvdoc.Tx) error {
				keys = tx.KeysInCollection(args[0])
				return nil
			})
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), keys, func(w io.Writer) {
				for _, k := range keys {
					fmt.Fprintln(w, k)
				}
			})
		},
	}
}

func (c *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [collection:key]...",
		Short: "Prints the objects and metadata stored at the given indexes",
		Args:  cobra.MatchAll(cobra.MinimumNArgs(1), validIndexes),
		RunE: func(cmd *cobra.Command, args []string) error {
			var indexes []kvdoc.Index
			for _, arg := range args {
				idx, _ := kvdoc.ParseIndex(arg)
				indexes = append(indexes, idx)
			}

			var result []itemInfo
			err := c.read(func(tx *kvdoc.Tx) error {
				for _, idx := range indexes {
					obj, meta := tx.Describe(idx)
					info := itemInfo{Index: idx.String(), Object: obj, Metadata: meta}
					if obj == nil {
						info.Error = "not found"
					} else if obj.Err != nil {
						info.Error = obj.Err.Error()
					}
					result = append(result, info)
				}
				return nil
			})
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), result, func(w io.Writer) {
				for _, info := range result {
					switch {
					case info.Object == nil:
						fmt.Fprintf(w, "%s: not found\n", info.Index)
					case info.Metadata != nil:
						fmt.Fprintf(w, "%s = %s\n%s.meta = %s\n", info.Index, info.Object, info.Index, info.Metadata)
					default:
						fmt.Fprintf(w, "%s = %s\n", info.Index, info.Object)
					}
				}
			})
		},
	}
}

func validIndexes(_ *cobra.Command, args []string) error {
	for _, arg := range args {
		if _, ok := kvdoc.ParseIndex(arg); !ok {
			return fmt.Errorf("invalid index %q, wanted collection:key", arg)
		}
	}
	return nil
}

func (c *cli) dumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump [collection]...",
		Short: "Dumps collections in a human-readable form",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := kvdoc.DumpCollectionHeaders | kvdoc.DumpItems | kvdoc.DumpMetadata
			if stats, _ := cmd.Flags().GetBool("stats"); stats {
				flags |= kvdoc.DumpStats
			}
			return c.read(func(tx *kvdoc.Tx) error {
				w := cmd.OutOrStdout()
				if len(args) == 0 {
					_, err := io.WriteString(w, tx.Dump(flags))
					return err
				}
				for _, coll := range args {
					if _, err := io.WriteString(w, tx.DumpCollection(flags, coll)); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().Bool("stats", false, wrapString("Include storage statistics of every collection"))
	return cmd
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [collection]...",
		Short: "Prints storage statistics of collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []statsInfo
			err := c.read(func(tx *kvdoc.Tx) error {
				colls := args
				if len(colls) == 0 {
					colls = tx.Collections()
				}
				for _, coll := range colls {
					cs := tx.CollectionStats(coll)
					result = append(result, statsInfo{coll, cs.Items, cs.Metadatas, cs.TotalSize(), cs.TotalAlloc()})
				}
				return nil
			})
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), result, func(w io.Writer) {
				for _, si := range result {
					fmt.Fprintf(w, "%s\titems=%d metadatas=%d size=%d alloc=%d\n", si.Collection, si.Items, si.Metadatas, si.TotalSize, si.TotalAlloc)
				}
			})
		},
	}
}

func (c *cli) digestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest [collection]...",
		Short: "Prints a hash of the raw contents of collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []digestInfo
			err := c.read(func(tx *kvdoc.Tx) error {
				colls := args
				if len(colls) == 0 {
					colls = tx.Collections()
				}
				for _, coll := range colls {
					result = append(result, digestInfo{coll, strconv.FormatUint(tx.Digest(coll), 16)})
				}
				return nil
			})
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), result, func(w io.Writer) {
				for _, di := range result {
					fmt.Fprintf(w, "%s\t%s\n", di.Digest, di.Collection)
				}
			})
		},
	}
}
