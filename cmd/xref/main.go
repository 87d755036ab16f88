// Command xref builds and queries identifier cross references.
//
//	xref build --config xref.yaml --root /data --output xrefs.rec --snapshot items-*.rec
//	xref lookup --root /data --input xrefs.rec Q42 viaf:113230702
//
// Every flag can also be set through an XREF_ environment variable, e.g.
// XREF_S3_BUCKET or XREF_WORKERS.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
