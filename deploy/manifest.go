package deploy

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/citadelfi/libcitadel-go/chain"
)

// ManifestFileName is the manifest's file name inside a data directory.
const ManifestFileName = "deployments.yaml"

// ContractEntry is one deployed contract in a manifest.
type ContractEntry struct {
	Name    string        `yaml:"name"`
	Address chain.Address `yaml:"address"`
	TxHash  string        `yaml:"tx_hash"`
	Block   uint64        `yaml:"block"`
}

// Manifest is the human-readable record of one deployment run.
type Manifest struct {
	RunID     string            `yaml:"run_id"`
	Network   string            `yaml:"network"`
	ChainID   uint64            `yaml:"chain_id"`
	Block     uint64            `yaml:"block"`
	Timestamp uint64            `yaml:"timestamp"`
	Contracts []ContractEntry   `yaml:"contracts"`
	Actors    map[string]string `yaml:"actors"`
}

// NewManifest snapshots sys at the current chain head.
func NewManifest(sys *System, network string) *Manifest {
	head := sys.Chain.Head()
	m := &Manifest{
		RunID:     uuid.NewString(),
		Network:   network,
		ChainID:   head.ChainID,
		Block:     head.Height,
		Timestamp: head.Timestamp,
		Actors:    sys.Actors.Map(),
	}
	for _, d := range sys.Deployments {
		m.Contracts = append(m.Contracts, ContractEntry{
			Name:    d.Name,
			Address: d.Address,
			TxHash:  d.TxHash.Hex(),
			Block:   d.Block,
		})
	}
	return m
}

// Lookup returns the address of the named contract.
func (m *Manifest) Lookup(name string) (chain.Address, error) {
	for _, c := range m.Contracts {
		if c.Name == name {
			return c.Address, nil
		}
	}
	return chain.ZeroAddress, fmt.Errorf("%w: %s", ErrUnknownContract, name)
}

// Save writes the manifest as YAML, creating parent directories.
func (m *Manifest) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("deploy: create manifest dir: %w", err)
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("deploy: encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("deploy: write manifest: %w", err)
	}
	return nil
}

// LoadManifest reads a manifest written by Save.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("deploy: read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("deploy: decode manifest: %w", err)
	}
	return &m, nil
}
