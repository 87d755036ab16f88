package main

import (
	"fmt"
	"strings"

	"github.com/hupe1980/xref"
	"github.com/hupe1980/xref/codec"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newLookupCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup ids...",
		Short: "Map identifiers to their canonical ids",
		Long: `Lookup prints one line per id: the id, a tab and its canonical id, or "-"
when the id is unknown. Ids may use a mnemonic domain such as viaf:113230702.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bind(v, cmd); err != nil {
				return err
			}
			return runLookup(cmd, v, args)
		},
	}

	f := cmd.Flags()
	f.String("input", "xrefs.rec", "cross-reference record file")
	f.String("snapshot-file", "", "local snapshot file; used instead of --input")
	f.String("codec", codec.Default.Name(), "frame codec: "+strings.Join(codec.Names(), " or "))
	f.Bool("members", false, "print all members of each cluster")
	return cmd
}

func runLookup(cmd *cobra.Command, v *viper.Viper, ids []string) error {
	ctx := cmd.Context()

	var (
		m   *xref.Mapping
		err error
	)
	if path := v.GetString("snapshot-file"); path != "" {
		m, err = xref.LoadSnapshotMapping(path)
	} else {
		c, cerr := codec.Lookup(v.GetString("codec"))
		if cerr != nil {
			return cerr
		}
		store, serr := openStore(ctx, v)
		if serr != nil {
			return serr
		}
		m, err = xref.LoadMapping(ctx, store, v.GetString("input"), xref.WithCodec(c))
	}
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	out := cmd.OutOrStdout()
	for _, id := range ids {
		canonical, ok := m.Map(id)
		if !ok {
			fmt.Fprintf(out, "%s\t-\n", id)
			continue
		}
		if !v.GetBool("members") {
			fmt.Fprintf(out, "%s\t%s\n", id, canonical)
			continue
		}
		members, err := m.Members(canonical)
		if err != nil {
			fmt.Fprintf(out, "%s\t%s\n", id, canonical)
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", id, strings.Join(members, " "))
	}
	return nil
}
