// Package flow runs scripted end-to-end scenarios against a deployed
// system and checks their post-conditions. Every step is a transaction on
// the system's chain, so a run leaves a full receipt trail.
package flow

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/citadelfi/libcitadel-go/access"
	"github.com/citadelfi/libcitadel-go/chain"
	"github.com/citadelfi/libcitadel-go/deploy"
)

// Flow names.
const (
	Staking = "staking"
	Locking = "locking"
	Minting = "minting"
)

// Observation is one value a flow measured.
type Observation struct {
	Name  string
	Value *big.Int
}

// Report is the outcome of one flow run.
type Report struct {
	Flow         string
	StartBlock   uint64
	EndBlock     uint64
	StartTime    uint64
	EndTime      uint64
	Observations []Observation
}

// Value returns the named observation, or nil.
func (r *Report) Value(name string) *big.Int {
	for _, o := range r.Observations {
		if o.Name == name {
			return chain.Clone(o.Value)
		}
	}
	return nil
}

// Func runs one flow against sys.
type Func func(ctx context.Context, sys *deploy.System, opts ...Option) (*Report, error)

var flows = map[string]Func{
	Staking: StakeWithdraw,
	Locking: LockAndClaim,
	Minting: MintAndDistribute,
}

// Names returns the registered flow names in sorted order.
func Names() []string {
	out := make([]string, 0, len(flows))
	for name := range flows {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the named flow.
func Lookup(name string) (Func, error) {
	f, ok := flows[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFlow, name)
	}
	return f, nil
}

type options struct {
	logger *zap.Logger
	amount *big.Int
}

// Option configures a flow run.
type Option func(*options)

// WithLogger logs each step to l.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithAmount sets the base amount a flow moves. Defaults to one token.
func WithAmount(a *big.Int) Option {
	return func(o *options) {
		if a != nil && a.Sign() > 0 {
			o.amount = chain.Clone(a)
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop(), amount: chain.Ether(1)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// runner executes flow steps as transactions and collects observations.
type runner struct {
	ctx context.Context
	sys *deploy.System
	c   *chain.Chain
	log *zap.Logger
	rep *Report
}

func newRunner(ctx context.Context, name string, sys *deploy.System, o options) *runner {
	head := sys.Chain.Head()
	return &runner{
		ctx: ctx,
		sys: sys,
		c:   sys.Chain,
		log: o.logger.With(zap.String("flow", name)),
		rep: &Report{Flow: name, StartBlock: head.Height, StartTime: head.Timestamp},
	}
}

// tx runs fn as a transaction from `from` to `to`.
func (r *runner) tx(from, to chain.Address, method string, fn func() error) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	rcpt, err := r.c.Exec(from, to, method, fn)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStep, method, err)
	}
	r.log.Debug("step", zap.String("method", method), zap.Uint64("block", rcpt.Block))
	return nil
}

// sleep advances the clock and mines a block.
func (r *runner) sleep(seconds uint64) {
	r.c.Sleep(seconds)
	r.c.Mine()
}

func (r *runner) observe(name string, v *big.Int) {
	r.rep.Observations = append(r.rep.Observations, Observation{Name: name, Value: chain.Clone(v)})
}

// expect fails the flow with ErrOracle when ok is false.
func (r *runner) expect(ok bool, format string, args ...any) error {
	if ok {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrOracle, fmt.Sprintf(format, args...))
}

func (r *runner) done() *Report {
	head := r.c.Head()
	r.rep.EndBlock = head.Height
	r.rep.EndTime = head.Timestamp
	r.log.Info("flow passed",
		zap.Uint64("blocks", r.rep.EndBlock-r.rep.StartBlock),
		zap.Int("observations", len(r.rep.Observations)),
	)
	return r.rep
}

// ensureMinter lets the deployer mint Citadel, granting the role from
// governance when it is missing.
func (r *runner) ensureMinter() error {
	a := r.sys.Actors
	gac := r.sys.Registry
	if gac.HasRole(access.CitadelMinterRole, a.Deployer) {
		return nil
	}
	return r.tx(a.Governance, gac.Address(), "grantRole CITADEL_MINTER_ROLE", func() error {
		return gac.GrantRole(a.Governance, access.CitadelMinterRole, a.Deployer)
	})
}

// ensureDistributor makes distributor an approved notifier of the xCitadel
// reward, registering the reward when the locker does not have it yet.
func (r *runner) ensureDistributor(distributor chain.Address) error {
	l := r.sys.Locker
	v := r.sys.Vault
	owner := l.Owner()
	for _, t := range l.RewardTokens() {
		if t != v.Address() {
			continue
		}
		if l.IsRewardDistributor(t, distributor) {
			return nil
		}
		return r.tx(owner, l.Address(), "approveRewardDistributor", func() error {
			return l.ApproveRewardDistributor(owner, t, distributor, true)
		})
	}
	return r.tx(owner, l.Address(), "addReward", func() error {
		return l.AddReward(owner, v, distributor)
	})
}

// NewSystemFunc builds a freshly deployed system on its own chain.
type NewSystemFunc func(ctx context.Context) (*deploy.System, error)

// RunAll runs the named flows concurrently, each against its own system
// from newSystem. With no names every registered flow runs. Reports are
// returned in the order of names; the first failure cancels the rest.
func RunAll(ctx context.Context, newSystem NewSystemFunc, names []string, opts ...Option) ([]*Report, error) {
	if len(names) == 0 {
		names = Names()
	}
	funcs := make([]Func, len(names))
	for i, name := range names {
		f, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		funcs[i] = f
	}

	reports := make([]*Report, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i := range funcs {
		g.Go(func() error {
			sys, err := newSystem(gctx)
			if err != nil {
				return fmt.Errorf("flow %s: deploy: %w", names[i], err)
			}
			rep, err := funcs[i](gctx, sys, opts...)
			if err != nil {
				return fmt.Errorf("flow %s: %w", names[i], err)
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
