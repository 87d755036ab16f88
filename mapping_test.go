package xref

import (
	"context"
	"testing"

	"github.com/hupe1980/xref/blobstore"
	"github.com/hupe1980/xref/config"
	"github.com/hupe1980/xref/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildMappings(t *testing.T) []*Mapping {
	t.Helper()
	ctx := context.Background()
	store := blobstore.NewLocalStore(t.TempDir())

	b := newStartedBuilder(t, testConfig(), WithSnapshot(true))
	process(t, b,
		item("Q42").Add("P214", frame.String("113230702")).Add("P227", frame.String("119033364")),
		item("Q5", "Q6"),
	)
	require.NoError(t, b.Flush(ctx, store, "xrefs.rec"))

	seq, err := LoadMapping(ctx, store, "xrefs.rec")
	require.NoError(t, err)
	snap, err := LoadSnapshotMapping(store.Path("xrefs.rec" + SnapshotSuffix))
	require.NoError(t, err)
	t.Cleanup(func() { _ = snap.Close() })
	return []*Mapping{seq, snap}
}

func TestMapping_Map(t *testing.T) {
	tests := []struct {
		id   string
		want string
		ok   bool
	}{
		{"Q42", "Q42", true},
		{"Q6", "Q5", true},
		{"P214/113230702", "Q42", true},
		{"viaf/113230702", "Q42", true},
		{"viaf:113230702", "Q42", true},
		{"gnd: 119033364 ", "Q42", true},
		{"viaf:1", "P214/1", true},
		{"isni:0000", "isni/0000", true},
		{"Q7", "", false},
		{":x", "", false},
		{"viaf:", "", false},
	}
	for i, m := range buildMappings(t) {
		for _, tt := range tests {
			got, ok := m.Map(tt.id)
			assert.Equal(t, tt.ok, ok, "mapping %d: %q", i, tt.id)
			assert.Equal(t, tt.want, got, "mapping %d: %q", i, tt.id)
		}
	}
}

func TestMapping_Members(t *testing.T) {
	for _, m := range buildMappings(t) {
		members, err := m.Members("P227/119033364")
		require.NoError(t, err)
		assert.Equal(t, []string{"Q42", "P214/113230702", "P227/119033364"}, members)

		_, err = m.Members("Q404")
		assert.ErrorIs(t, err, ErrNotFound)

		assert.Equal(t, 2, m.Len())
		require.NoError(t, m.Close())
		require.NoError(t, m.Close())
		_, ok := m.Lookup("Q42")
		assert.False(t, ok)
		_, err = m.Members("Q42")
		assert.ErrorIs(t, err, ErrClosed)
	}
}

func TestLoadMapping_Errors(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	_, err := LoadMapping(ctx, store, "missing.rec")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, store.Put(ctx, "junk.rec", []byte("junk")))
	_, err = LoadMapping(ctx, store, "junk.rec")
	assert.Error(t, err)

	_, err = LoadSnapshotMapping(t.TempDir() + "/none.snap")
	assert.Error(t, err)
}

func TestMapping_MnemonicsWithoutClusters(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	b := newStartedBuilder(t, &config.Config{
		Properties: []string{"P214"},
		Mnemonics:  []config.Mnemonic{{Name: "viaf", Property: "P214"}},
	})
	require.NoError(t, b.Flush(ctx, store, "x.rec"))

	m, err := LoadMapping(ctx, store, "x.rec")
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
	p, ok := m.Mnemonic("viaf")
	assert.True(t, ok)
	assert.Equal(t, "P214", p)
}
