package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/citadelfi/libcitadel-go/chain"
	"github.com/citadelfi/libcitadel-go/deploy"
	"github.com/citadelfi/libcitadel-go/wallet"
)

// setup points the global flags at a fresh data directory.
func setup(t *testing.T) string {
	t.Helper()
	logger = zap.NewNop()
	dir := t.TempDir()
	dataDir = dir
	password = ""
	verbose = false
	timeout = time.Minute
	singleActor = false
	showReceipts = false
	methodFilter = ""
	showEvents = false
	contractName = ""
	forceInit = false
	newMnemonic = false
	accountCount = 0
	flowAmount = "1"
	t.Cleanup(func() { dataDir = "" })
	return dir
}

func newCmd() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	return cmd, buf
}

func TestConfigInitAndShow(t *testing.T) {
	dir := setup(t)

	cmd, buf := newCmd()
	require.NoError(t, runConfigInit(cmd, nil))
	assert.Contains(t, buf.String(), filepath.Join(dir, "config"))

	// A second init refuses to clobber the file.
	err := runConfigInit(cmd, nil)
	assert.Error(t, err)
	forceInit = true
	require.NoError(t, runConfigInit(cmd, nil))

	cmd, buf = newCmd()
	require.NoError(t, runConfigShow(cmd, nil))
	out := buf.String()
	assert.Contains(t, out, "network = development")
	assert.Contains(t, out, "datadir = "+dir)
	assert.Contains(t, out, "mnemonic = "+wallet.DevMnemonic)
	assert.NotContains(t, out, "# invalid")
}

func TestConfigShow_Defaults(t *testing.T) {
	setup(t)
	cmd, buf := newCmd()
	require.NoError(t, runConfigShow(cmd, nil))
	assert.Contains(t, buf.String(), "# source: defaults")
}

func TestConfigInit_NewMnemonic(t *testing.T) {
	setup(t)
	newMnemonic = true
	cmd, _ := newCmd()
	require.NoError(t, runConfigInit(cmd, nil))

	cmd, buf := newCmd()
	require.NoError(t, runConfigShow(cmd, nil))
	assert.Contains(t, buf.String(), "mnemonic = <redacted>")
}

func TestDeployCmd(t *testing.T) {
	dir := setup(t)

	cmd, buf := newCmd()
	require.NoError(t, runDeploy(cmd, nil))
	out := buf.String()
	for _, name := range []string{deploy.NameRegistry, deploy.NameVault, deploy.NameLocker, deploy.NameMinter, deploy.NameSale} {
		assert.Contains(t, out, name)
	}

	m, err := deploy.LoadManifest(filepath.Join(dir, deploy.ManifestFileName))
	require.NoError(t, err)
	assert.Equal(t, wallet.Development.ChainID, m.ChainID)
	assert.Equal(t, "development", m.Network)

	_, err = os.Stat(filepath.Join(dir, "chain.db"))
	require.NoError(t, err)

	// Redeploying replaces the chain database.
	cmd, _ = newCmd()
	require.NoError(t, runDeploy(cmd, nil))
	m2, err := deploy.LoadManifest(filepath.Join(dir, deploy.ManifestFileName))
	require.NoError(t, err)
	assert.NotEqual(t, m.RunID, m2.RunID)
	assert.Equal(t, m.Contracts, m2.Contracts)
}

func TestDeployCmd_Locked(t *testing.T) {
	dir := setup(t)
	lock, err := deploy.LockDataDir(dir)
	require.NoError(t, err)
	defer lock.Unlock()

	cmd, _ := newCmd()
	assert.ErrorIs(t, runDeploy(cmd, nil), deploy.ErrLocked)
}

func TestInspectCmd(t *testing.T) {
	setup(t)

	cmd, _ := newCmd()
	assert.Error(t, runInspect(cmd, nil), "nothing deployed yet")

	require.NoError(t, runDeploy(cmd, nil))

	cmd, buf := newCmd()
	require.NoError(t, runInspect(cmd, nil))
	assert.Contains(t, buf.String(), deploy.NameCitadel)
	assert.Contains(t, buf.String(), "Run ")
	assert.NotContains(t, buf.String(), "receipts")

	showReceipts = true
	methodFilter = "addReward"
	showEvents = true
	cmd, buf = newCmd()
	require.NoError(t, runInspect(cmd, nil))
	out := buf.String()
	assert.Contains(t, out, "addReward CVX")
	assert.Contains(t, out, "RewardTokenAdded")
	assert.NotContains(t, out, "deploy "+deploy.NameMinter)
	assert.Contains(t, out, "3 of ")
}

func TestInspectCmd_Contract(t *testing.T) {
	dir := setup(t)
	contractName = deploy.NameMinter

	cmd, _ := newCmd()
	assert.ErrorIs(t, runInspect(cmd, nil), deploy.ErrManifestNotFound)

	contractName = ""
	require.NoError(t, runDeploy(cmd, nil))
	m, err := deploy.LoadManifest(filepath.Join(dir, deploy.ManifestFileName))
	require.NoError(t, err)

	contractName = deploy.NameMinter
	cmd, buf := newCmd()
	require.NoError(t, runInspect(cmd, nil))
	want, err := m.Lookup(deploy.NameMinter)
	require.NoError(t, err)
	assert.Equal(t, want.Hex()+"\n", buf.String())

	contractName = "Nope"
	assert.ErrorIs(t, runInspect(cmd, nil), deploy.ErrUnknownContract)
}

func TestFlowCmd(t *testing.T) {
	setup(t)

	cmd, buf := newCmd()
	require.NoError(t, runFlow(cmd, []string{"minting", "staking"}))
	out := buf.String()
	assert.Contains(t, out, "minting: PASS")
	assert.Contains(t, out, "staking: PASS")
	assert.NotContains(t, out, "locking")
	assert.Contains(t, out, "policy_shares")

	flowAmount = "zero"
	cmd, _ = newCmd()
	assert.Error(t, runFlow(cmd, nil))
}

func TestFlowCmd_All(t *testing.T) {
	setup(t)
	flowAmount = "2.5"

	cmd, buf := newCmd()
	require.NoError(t, runFlow(cmd, []string{"all"}))
	out := buf.String()
	for _, name := range []string{"locking", "minting", "staking"} {
		assert.Contains(t, out, name+": PASS")
	}
	assert.Contains(t, out, "2.5")
}

func TestAccountsCmd(t *testing.T) {
	setup(t)
	accountCount = 5

	cmd, buf := newCmd()
	require.NoError(t, runAccounts(cmd, nil))
	out := buf.String()
	assert.Contains(t, out, "m/44'/60'/0'/0/4")
	assert.Contains(t, out, "policy_operator")
	assert.Contains(t, out, "user")
	assert.Equal(t, 1+1+1+5, strings.Count(out, "\n"))
}

func TestAccountsCmd_Keystore(t *testing.T) {
	setup(t)

	cmd, want := newCmd()
	require.NoError(t, runAccounts(cmd, nil))

	password = "correct horse"
	cmd, _ = newCmd()
	require.NoError(t, runConfigInit(cmd, nil))

	cmd, got := newCmd()
	require.NoError(t, runAccounts(cmd, nil))
	assert.Equal(t, want.String(), got.String())

	password = "wrong"
	cmd, _ = newCmd()
	assert.ErrorIs(t, runAccounts(cmd, nil), wallet.ErrDecryptionFailed)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs uint64
		want string
	}{
		{0, "0s"},
		{59, "59s"},
		{3600, "1h"},
		{chain.Day + 3600 + 5, "1d1h5s"},
		{40 * chain.Day, "40d"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.secs))
	}
}
