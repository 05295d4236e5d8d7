// Package deploy stands up the full Citadel topology on a chain in
// dependency order: access registry, token, vesting, vault and strategy,
// locker, minter and sale. Every step is a transaction, and every created
// contract is recorded as a named deployment.
package deploy

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/citadelfi/libcitadel-go/access"
	"github.com/citadelfi/libcitadel-go/chain"
	"github.com/citadelfi/libcitadel-go/locker"
	"github.com/citadelfi/libcitadel-go/minter"
	"github.com/citadelfi/libcitadel-go/sale"
	"github.com/citadelfi/libcitadel-go/token"
	"github.com/citadelfi/libcitadel-go/vault"
	"github.com/citadelfi/libcitadel-go/vesting"
)

// Deployment names.
const (
	NameRegistry = "GlobalAccessControl"
	NameCitadel  = "CitadelToken"
	NameVesting  = "Vesting"
	NameVault    = "xCitadel"
	NameStrategy = "Strategy"
	NameLocker   = "xCitadelLocker"
	NameMinter   = "CitadelMinter"
	NameSale     = "TokenSale"
)

// System is a deployed topology.
type System struct {
	Chain    *chain.Chain
	Actors   Actors
	Registry *access.Registry
	Citadel  *token.Citadel
	Vesting  *vesting.Holder
	Vault    *vault.Vault
	Strategy *vault.BasicStrategy
	Locker   *locker.Locker
	Minter   *minter.Minter
	Sale     *sale.Sale

	// SaleToken is the sale's payment token, nil without a sale.
	SaleToken *token.Mock

	// Mocks are the deployed mock tokens keyed by symbol.
	Mocks map[string]*token.Mock

	Deployments []*chain.Deployment
}

// Address returns the address of the named deployment.
func (s *System) Address(name string) (chain.Address, error) {
	for _, d := range s.Deployments {
		if d.Name == name {
			return d.Address, nil
		}
	}
	return chain.ZeroAddress, fmt.Errorf("%w: %s", ErrUnknownContract, name)
}

type options struct {
	logger *zap.Logger
}

// Option configures Deploy.
type Option func(*options)

// WithLogger logs each step to l.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// runner executes deployment steps as transactions.
type runner struct {
	ctx context.Context
	c   *chain.Chain
	sys *System
	log *zap.Logger
}

// create runs fn as a contract-creation transaction from the deployer and
// records the returned address under name.
func (r *runner) create(name string, fn func() (chain.Address, error)) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	var addr chain.Address
	rcpt, err := r.c.Exec(r.sys.Actors.Deployer, chain.ZeroAddress, "deploy "+name, func() error {
		var err error
		addr, err = fn()
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: deploy %s: %w", ErrStep, name, err)
	}
	d := &chain.Deployment{
		Name:      name,
		Address:   addr,
		Deployer:  r.sys.Actors.Deployer,
		Block:     rcpt.Block,
		Timestamp: rcpt.Timestamp,
		TxHash:    rcpt.TxHash,
	}
	if st := r.c.Store(); st != nil {
		if err := st.PutDeployment(d); err != nil {
			return fmt.Errorf("deploy: persist %s: %w", name, err)
		}
	}
	r.sys.Deployments = append(r.sys.Deployments, d)
	r.log.Info("deployed", zap.String("contract", name), zap.String("address", addr.Hex()), zap.Uint64("block", rcpt.Block))
	return nil
}

// call runs fn as a transaction from `from` to `to`.
func (r *runner) call(from, to chain.Address, method string, fn func() error) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	if _, err := r.c.Exec(from, to, method, fn); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStep, method, err)
	}
	r.log.Debug("configured", zap.String("method", method), zap.String("to", to.Hex()))
	return nil
}

// Deploy deploys and wires the full system. ctx is checked between steps;
// a cancelled deploy returns ctx.Err() and leaves what was already
// deployed on the chain.
func Deploy(ctx context.Context, c *chain.Chain, actors Actors, p Params, opts ...Option) (*System, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if c == nil {
		return nil, fmt.Errorf("deploy: %w", chain.ErrNilParam)
	}
	if err := actors.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	sys := &System{Chain: c, Actors: actors, Mocks: make(map[string]*token.Mock)}
	r := &runner{ctx: ctx, c: c, sys: sys, log: o.logger}
	a := actors

	steps := []func(*runner, Actors, Params) error{
		deployRegistry,
		deployCitadel,
		deployVesting,
		deployVault,
		deployLocker,
		deployMinter,
		deploySale,
	}
	for _, step := range steps {
		if err := step(r, a, p); err != nil {
			return sys, err
		}
	}
	o.logger.Info("deployment complete",
		zap.Int("contracts", len(sys.Deployments)),
		zap.Uint64("block", c.Height()),
	)
	return sys, nil
}

func deployRegistry(r *runner, a Actors, _ Params) error {
	gac := access.New(r.c, a.Deployer)
	if err := r.create(NameRegistry, func() (chain.Address, error) {
		return gac.Address(), gac.Initialize(a.Governance)
	}); err != nil {
		return err
	}
	r.sys.Registry = gac
	return r.call(a.Governance, gac.Address(), "grantRole POLICY_OPERATIONS_ROLE", func() error {
		return gac.GrantRole(a.Governance, access.PolicyOperationsRole, a.PolicyOperator)
	})
}

func deployCitadel(r *runner, a Actors, _ Params) error {
	ctdl := token.NewCitadel(r.c, a.Deployer)
	if err := r.create(NameCitadel, func() (chain.Address, error) {
		return ctdl.Address(), ctdl.Initialize("Citadel", "CTDL", r.sys.Registry)
	}); err != nil {
		return err
	}
	r.sys.Citadel = ctdl
	return nil
}

func deployVesting(r *runner, a Actors, p Params) error {
	h := vesting.New(r.c, a.Deployer)
	if err := r.create(NameVesting, func() (chain.Address, error) {
		return h.Address(), h.Initialize(r.sys.Citadel)
	}); err != nil {
		return err
	}
	r.sys.Vesting = h
	if p.VestingDuration != h.VestingDuration() {
		return r.call(a.Deployer, h.Address(), "setVestingDuration", func() error {
			return h.SetVestingDuration(a.Deployer, p.VestingDuration)
		})
	}
	return nil
}

func deployVault(r *runner, a Actors, p Params) error {
	v := vault.New(r.c, a.Deployer)
	if err := r.create(NameVault, func() (chain.Address, error) {
		return v.Address(), v.Initialize(vault.InitParams{
			Token:       r.sys.Citadel,
			Governance:  a.Governance,
			Keeper:      a.Keeper,
			Guardian:    a.Guardian,
			Treasury:    a.Treasury,
			Strategist:  a.Strategist,
			RewardsDest: a.RewardsDest,
			Vesting:     r.sys.Vesting,
			Name:        "xCitadel",
			Symbol:      "xCTDL",
			Fees:        p.Fees,
		})
	}); err != nil {
		return err
	}
	r.sys.Vault = v

	strat := vault.NewBasicStrategy(r.c, a.Deployer)
	if err := r.create(NameStrategy, func() (chain.Address, error) {
		return strat.Address(), strat.Initialize(v, r.sys.Citadel)
	}); err != nil {
		return err
	}
	r.sys.Strategy = strat

	if err := r.call(a.Governance, v.Address(), "setStrategy", func() error {
		return v.SetStrategy(a.Governance, strat)
	}); err != nil {
		return err
	}
	h := r.sys.Vesting
	if err := r.call(a.Deployer, h.Address(), "setVault", func() error {
		return h.SetVault(a.Deployer, v.Address())
	}); err != nil {
		return err
	}
	if p.TransferOwnership && a.Governance != a.Deployer {
		return r.call(a.Deployer, h.Address(), "transferOwnership", func() error {
			return h.TransferOwnership(a.Deployer, a.Governance)
		})
	}
	return nil
}

// mock deploys (or reuses) the mock token for spec.
func (r *runner) mock(spec TokenSpec) (*token.Mock, error) {
	if m, ok := r.sys.Mocks[spec.Symbol]; ok {
		return m, nil
	}
	m := token.NewMock(r.c, r.sys.Actors.Deployer, spec.Name, spec.Symbol, spec.Decimals)
	if err := r.create(spec.Symbol, func() (chain.Address, error) {
		return m.Address(), nil
	}); err != nil {
		return nil, err
	}
	r.sys.Mocks[spec.Symbol] = m
	return m, nil
}

func deployLocker(r *runner, a Actors, p Params) error {
	l := locker.New(r.c, a.Deployer)
	if err := r.create(NameLocker, func() (chain.Address, error) {
		return l.Address(), l.Initialize(r.sys.Vault, "veCitadel", "veCTDL")
	}); err != nil {
		return err
	}
	r.sys.Locker = l

	rewards := make([]token.ERC20, 0, len(p.ExternalRewards)+1)
	for _, spec := range p.ExternalRewards {
		m, err := r.mock(spec)
		if err != nil {
			return err
		}
		rewards = append(rewards, m)
	}
	if p.RegisterVaultReward {
		rewards = append(rewards, r.sys.Vault)
	}
	for _, tok := range rewards {
		if err := r.call(a.Deployer, l.Address(), "addReward "+tok.Symbol(), func() error {
			return l.AddReward(a.Deployer, tok, a.RewardDistributor)
		}); err != nil {
			return err
		}
	}
	if p.TransferOwnership && a.Governance != a.Deployer {
		return r.call(a.Deployer, l.Address(), "transferOwnership", func() error {
			return l.TransferOwnership(a.Deployer, a.Governance)
		})
	}
	return nil
}

func deployMinter(r *runner, a Actors, p Params) error {
	m := minter.New(r.c, a.Deployer)
	if err := r.create(NameMinter, func() (chain.Address, error) {
		return m.Address(), m.Initialize(r.sys.Registry, r.sys.Citadel, r.sys.Vault, r.sys.Locker, a.PolicyDestination)
	}); err != nil {
		return err
	}
	r.sys.Minter = m

	gac := r.sys.Registry
	if err := r.call(a.Governance, gac.Address(), "grantRole CITADEL_MINTER_ROLE", func() error {
		return gac.GrantRole(a.Governance, access.CitadelMinterRole, m.Address())
	}); err != nil {
		return err
	}
	if p.GrantDeployerMinter {
		return r.call(a.Governance, gac.Address(), "grantRole CITADEL_MINTER_ROLE", func() error {
			return gac.GrantRole(a.Governance, access.CitadelMinterRole, a.Deployer)
		})
	}
	return nil
}

func deploySale(r *runner, a Actors, p Params) error {
	sp := p.Sale
	if sp == nil {
		return nil
	}
	tokenIn, err := r.mock(sp.TokenIn)
	if err != nil {
		return err
	}
	r.sys.SaleToken = tokenIn

	s := sale.New(r.c, a.Deployer)
	if err := r.create(NameSale, func() (chain.Address, error) {
		return s.Address(), s.Initialize(sale.Params{
			TokenOut:      r.sys.Citadel,
			TokenIn:       tokenIn,
			SaleStart:     r.c.Now() + sp.StartDelay,
			Duration:      sp.Duration,
			Price:         sp.Price,
			Recipient:     a.Treasury,
			RefundAddress: sp.Refund,
			Cap:           sp.Cap,
		})
	}); err != nil {
		return err
	}
	r.sys.Sale = s
	return nil
}
