// Package xref builds an identifier cross reference.
//
// Knowledge-base records carry identifiers: their own ids, redirect targets
// and property-qualified external references such as P214/113230702. The
// Builder folds the identifiers of every record into clusters, one per
// real-world entity, and writes one canonical record per cluster.
//
// # Building
//
//	cfg, _ := config.Load("xref.yaml")
//	b := xref.NewBuilder(xref.WithWorkers(8), xref.WithSnapshot(true))
//	if err := b.Startup(ctx, cfg); err != nil { ... }
//	if err := b.Run(ctx, inputs, "items-00000.rec", "items-00001.rec"); err != nil { ... }
//	if err := b.Flush(ctx, output, "xrefs.rec"); err != nil { ... }
//
// Startup registers the tracked properties in priority order and installs the
// configured mappings as pinned clusters. A pinned cluster never grows after
// startup: ingestion merges against it are counted as skips.
//
// # Resolving
//
//	m, _ := xref.LoadSnapshotMapping("/data/xrefs.rec.snap")
//	defer m.Close()
//	id, ok := m.Map("viaf:113230702")
//
// # Output
//
// Flush writes a record file with one frame per cluster. The first id of a
// frame is its canonical id: the first primary id of the cluster, else the
// first redirect, else a synthetic "xref:" id. A final frame with id
// /w/mnemonics maps short names to properties. WithSnapshot adds a snapshot
// blob with the same content that loads without decoding.
package xref
