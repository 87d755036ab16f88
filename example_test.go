package xref_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/xref"
	"github.com/hupe1980/xref/blobstore"
	"github.com/hupe1980/xref/config"
	"github.com/hupe1980/xref/frame"
)

// Example_builder builds a cross reference from two records and resolves an
// external id through a mnemonic.
func Example_builder() {
	ctx := context.Background()

	cfg, err := config.Parse([]byte(`
properties: [P214, P227]
mnemonics:
  viaf: P214
`), config.FormatYAML)
	if err != nil {
		log.Fatal(err)
	}

	b := xref.NewBuilder()
	if err := b.Startup(ctx, cfg); err != nil {
		log.Fatal(err)
	}
	_, _ = b.Process(ctx, frame.New().AddID("Q42").Add("P214", frame.String("113230702")))
	_, _ = b.Process(ctx, frame.New().AddID("Q5").AddID("Q6"))

	store := blobstore.NewMemoryStore()
	if err := b.Flush(ctx, store, "xrefs.rec"); err != nil {
		log.Fatal(err)
	}

	m, err := xref.LoadMapping(ctx, store, "xrefs.rec")
	if err != nil {
		log.Fatal(err)
	}
	id, _ := m.Map("viaf:113230702")
	fmt.Println(id)
	id, _ = m.Map("Q6")
	fmt.Println(id)
	// Output:
	// Q42
	// Q5
}
