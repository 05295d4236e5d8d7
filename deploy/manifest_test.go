package deploy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest_SaveLoad(t *testing.T) {
	c := newChain()
	sys, err := Deploy(context.Background(), c, testActors(t), DefaultParams())
	require.NoError(t, err)

	m := NewManifest(sys, "development")
	_, err = uuid.Parse(m.RunID)
	require.NoError(t, err)
	assert.Equal(t, c.ChainID(), m.ChainID)
	assert.Equal(t, c.Height(), m.Block)
	assert.Len(t, m.Contracts, len(sys.Deployments))

	path := filepath.Join(t.TempDir(), "nested", ManifestFileName)
	require.NoError(t, m.Save(path))

	loaded, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, m, loaded)

	addr, err := loaded.Lookup(NameVault)
	require.NoError(t, err)
	assert.Equal(t, sys.Vault.Address(), addr)

	_, err = loaded.Lookup("missing")
	assert.ErrorIs(t, err, ErrUnknownContract)
}

func TestManifest_RunIDsDiffer(t *testing.T) {
	sys, err := Deploy(context.Background(), newChain(), testActors(t), FixtureParams())
	require.NoError(t, err)
	assert.NotEqual(t, NewManifest(sys, "development").RunID, NewManifest(sys, "development").RunID)
}

func TestLoadManifest_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadManifest(filepath.Join(dir, "absent.yaml"))
	assert.ErrorIs(t, err, ErrManifestNotFound)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("contracts: [{address: nothex}]\n"), 0600))
	_, err = LoadManifest(bad)
	assert.Error(t, err)
}
