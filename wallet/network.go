package wallet

import "fmt"

// NetworkConfig names a deployment network and the chain id its
// transactions are signed for.
type NetworkConfig struct {
	Name    string `json:"name"`
	ChainID uint64 `json:"chain_id"`
}

// Predefined network configurations.
var (
	Development = NetworkConfig{Name: "development", ChainID: 1337}
	TestNet     = NetworkConfig{Name: "testnet", ChainID: 11155111}
	MainNet     = NetworkConfig{Name: "mainnet", ChainID: 1}
)

// predefined maps network names to their configs.
var predefined = map[string]*NetworkConfig{
	"development": &Development,
	"testnet":     &TestNet,
	"mainnet":     &MainNet,
}

// GetNetwork returns a predefined network by name.
// If the name is not predefined, it returns ErrInvalidNetwork.
func GetNetwork(name string) (*NetworkConfig, error) {
	if net, ok := predefined[name]; ok {
		return net, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidNetwork, name)
}
