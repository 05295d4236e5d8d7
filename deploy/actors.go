package deploy

import (
	"fmt"

	"github.com/citadelfi/libcitadel-go/chain"
)

// Actors are the accounts that deploy and operate the system.
type Actors struct {
	Deployer          chain.Address `yaml:"deployer"`
	PolicyOperator    chain.Address `yaml:"policy_operator"`
	PolicyDestination chain.Address `yaml:"policy_destination"`
	Governance        chain.Address `yaml:"governance"`
	Keeper            chain.Address `yaml:"keeper"`
	Guardian          chain.Address `yaml:"guardian"`
	Treasury          chain.Address `yaml:"treasury"`
	Strategist        chain.Address `yaml:"strategist"`
	RewardsDest       chain.Address `yaml:"rewards_dest"`
	RewardDistributor chain.Address `yaml:"reward_distributor"`

	// User is the unprivileged account the flows act as.
	User chain.Address `yaml:"user"`
}

// SingleActor assigns every role to one account.
func SingleActor(a chain.Address) Actors {
	return Actors{
		Deployer:          a,
		PolicyOperator:    a,
		PolicyDestination: a,
		Governance:        a,
		Keeper:            a,
		Guardian:          a,
		Treasury:          a,
		Strategist:        a,
		RewardsDest:       a,
		RewardDistributor: a,
		User:              a,
	}
}

// TestActors maps accounts onto roles the way the integration fixtures do:
// 0 deploys and holds every governance role, 1 is the policy operator,
// 2 the policy destination and 3 the flow user.
func TestActors(accounts []chain.Address) (Actors, error) {
	if len(accounts) < 4 {
		return Actors{}, fmt.Errorf("%w: have %d, need 4", ErrTooFewAccounts, len(accounts))
	}
	a := SingleActor(accounts[0])
	a.PolicyOperator = accounts[1]
	a.PolicyDestination = accounts[2]
	a.User = accounts[3]
	return a, nil
}

// Validate reports the first unset actor.
func (a Actors) Validate() error {
	for _, r := range a.roles() {
		if r.addr.IsZero() {
			return fmt.Errorf("%w: %s", ErrMissingActor, r.name)
		}
	}
	return nil
}

type namedActor struct {
	name string
	addr chain.Address
}

func (a Actors) roles() []namedActor {
	return []namedActor{
		{"deployer", a.Deployer},
		{"policy_operator", a.PolicyOperator},
		{"policy_destination", a.PolicyDestination},
		{"governance", a.Governance},
		{"keeper", a.Keeper},
		{"guardian", a.Guardian},
		{"treasury", a.Treasury},
		{"strategist", a.Strategist},
		{"rewards_dest", a.RewardsDest},
		{"reward_distributor", a.RewardDistributor},
		{"user", a.User},
	}
}

// Map returns role name to hex address.
func (a Actors) Map() map[string]string {
	out := make(map[string]string)
	for _, r := range a.roles() {
		out[r.name] = r.addr.Hex()
	}
	return out
}
