package main

import (
	"fmt"
	"strings"

	"github.com/hupe1980/xref"
	"github.com/hupe1980/xref/codec"
	"github.com/hupe1980/xref/config"
	"github.com/hupe1980/xref/recordio"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newBuildCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [inputs...]",
		Short: "Build a cross reference from record files",
		Long: `Build reads frames from record files in the blob store, folds their
identifiers into clusters and writes one canonical record per cluster.

Inputs are blob names; --input-prefix adds every blob under a prefix.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bind(v, cmd); err != nil {
				return err
			}
			return runBuild(cmd, v, args)
		},
	}

	f := cmd.Flags()
	f.String("config", "xref.yaml", "cross-reference configuration (yaml, json or toml)")
	f.String("output", "xrefs.rec", "output record file")
	f.String("input-prefix", "", "read every blob with this prefix")
	f.Bool("snapshot", false, "also write a snapshot next to the output")
	f.Int("workers", 4, "ingestion workers")
	f.Int64("limit", -1, "maximum number of input records (-1 for all)")
	f.Int64("memory-limit", 256<<20, "bytes of queued records (0 for unlimited)")
	f.Int64("io-limit", 0, "input bytes per second (0 for unlimited)")
	f.String("compression", "none", "output compression: none, lz4 or zstd")
	f.String("codec", codec.Default.Name(), "frame codec: "+strings.Join(codec.Names(), " or "))
	f.Bool("strict", false, "refuse merges between clusters that both hold a primary id")
	f.Bool("skip-singletons", false, "leave single-identifier clusters out of the output")
	return cmd
}

func runBuild(cmd *cobra.Command, v *viper.Viper, inputs []string) error {
	ctx := cmd.Context()

	logger, err := newLogger(v)
	if err != nil {
		return err
	}
	compression, err := recordio.ParseCompression(v.GetString("compression"))
	if err != nil {
		return err
	}
	c, err := codec.Lookup(v.GetString("codec"))
	if err != nil {
		return err
	}
	cfg, err := config.Load(v.GetString("config"))
	if err != nil {
		return err
	}

	store, err := openStore(ctx, v)
	if err != nil {
		return err
	}
	if prefix := v.GetString("input-prefix"); prefix != "" {
		names, err := store.List(ctx, prefix)
		if err != nil {
			return err
		}
		inputs = append(inputs, names...)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no inputs")
	}

	b := xref.NewBuilder(
		xref.WithLogger(logger),
		xref.WithCodec(c),
		xref.WithWorkers(v.GetInt("workers")),
		xref.WithLimit(v.GetInt64("limit")),
		xref.WithMemoryLimit(v.GetInt64("memory-limit")),
		xref.WithIOLimit(v.GetInt64("io-limit")),
		xref.WithCompression(compression),
		xref.WithSnapshot(v.GetBool("snapshot")),
		xref.WithStrictPrimaryIDs(v.GetBool("strict")),
		xref.WithSkipSingletons(v.GetBool("skip-singletons")),
	)
	if err := b.Startup(ctx, cfg); err != nil {
		return err
	}
	if err := b.Run(ctx, store, inputs...); err != nil {
		return err
	}
	if err := b.Flush(ctx, store, v.GetString("output")); err != nil {
		return err
	}

	st := b.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "%d identifiers in %d clusters written to %s\n",
		st.Identifiers, st.Clusters, v.GetString("output"))
	return nil
}
