package chain

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultChainID is the chain id used when none is configured.
const DefaultChainID uint64 = 1337

// Chain is a single simulated ledger. Contracts read the clock from it and
// emit events into it; Exec submits a call as a transaction.
//
// Exec calls are serialized. Contract state is not otherwise locked, so
// contracts bound to one Chain must be driven from one goroutine at a time.
type Chain struct {
	txMu sync.Mutex // serializes Exec

	mu       sync.RWMutex
	chainID  uint64
	now      uint64
	height   uint64
	nonces   map[Address]uint64
	creates  map[Address]uint64
	events   []Event
	receipts []*Receipt
	current  *Receipt // receipt being built by an in-flight Exec

	store  Store
	logger *zap.Logger
}

// Option configures a Chain.
type Option func(*Chain)

// WithGenesisTime sets the starting timestamp (unix seconds).
func WithGenesisTime(ts uint64) Option {
	return func(c *Chain) { c.now = ts }
}

// WithChainID sets the chain id mixed into transaction hashes.
func WithChainID(id uint64) Option {
	return func(c *Chain) { c.chainID = id }
}

// WithLogger sets the logger used for transaction tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Chain) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStore persists every receipt produced by Exec into s.
func WithStore(s Store) Option {
	return func(c *Chain) { c.store = s }
}

// New creates a chain at height 0. Without WithGenesisTime the clock starts
// at the current wall-clock second.
func New(opts ...Option) *Chain {
	c := &Chain{
		chainID: DefaultChainID,
		now:     uint64(time.Now().Unix()),
		nonces:  make(map[Address]uint64),
		creates: make(map[Address]uint64),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChainID returns the configured chain id.
func (c *Chain) ChainID() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chainID
}

// Now returns the current block timestamp.
func (c *Chain) Now() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Height returns the current block height.
func (c *Chain) Height() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.height
}

// Sleep advances the clock by seconds without producing a block.
func (c *Chain) Sleep(seconds uint64) {
	c.mu.Lock()
	c.now += seconds
	c.mu.Unlock()
	c.logger.Debug("chain sleep", zap.Uint64("seconds", seconds), zap.Uint64("time", c.Now()))
}

// Mine produces one empty block at the current timestamp and returns its height.
func (c *Chain) Mine() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height++
	return c.height
}

// Logger returns the chain's logger.
func (c *Chain) Logger() *zap.Logger { return c.logger }

// Store returns the receipt store, or nil when none is configured.
func (c *Chain) Store() Store { return c.store }

// NewContractAddress derives the address of the next contract deployed by
// deployer. Each call consumes one creation nonce.
func (c *Chain) NewContractAddress(deployer Address) Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.creates[deployer]
	c.creates[deployer] = n + 1
	return createAddress(deployer, n)
}

// Nonce returns the number of transactions sent by addr through Exec.
func (c *Chain) Nonce(addr Address) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nonces[addr]
}

// Emit records a contract event. Inside Exec the event is attached to the
// in-flight receipt and kept only if the call succeeds.
func (c *Chain) Emit(addr Address, name string, kv ...string) {
	args := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		args[kv[i]] = kv[i+1]
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	ev := Event{Address: addr, Name: name, Args: args, Block: c.height}
	if c.current != nil {
		ev.Block = c.current.Block
		c.current.Events = append(c.current.Events, ev)
		return
	}
	c.events = append(c.events, ev)
}

// Events returns every retained event in emission order.
func (c *Chain) Events() []Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Receipts returns every receipt produced by Exec, oldest first.
func (c *Chain) Receipts() []*Receipt {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Receipt, len(c.receipts))
	copy(out, c.receipts)
	return out
}

// Exec submits fn as a transaction from `from` to `to`. One block is mined
// at the current timestamp. If fn returns an error the receipt is marked
// reverted, its events are dropped and the error is returned alongside the
// receipt. Exec must not be called from within fn.
func (c *Chain) Exec(from, to Address, method string, fn func() error) (*Receipt, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: call", ErrNilParam)
	}

	c.txMu.Lock()
	defer c.txMu.Unlock()

	c.mu.Lock()
	nonce := c.nonces[from]
	c.nonces[from] = nonce + 1
	c.height++
	rcpt := &Receipt{
		TxHash:    txHash(c.chainID, from, nonce, to, method),
		From:      from,
		To:        to,
		Method:    method,
		Nonce:     nonce,
		Block:     c.height,
		Timestamp: c.now,
	}
	c.current = rcpt
	c.mu.Unlock()

	callErr := fn()

	c.mu.Lock()
	c.current = nil
	if callErr != nil {
		rcpt.Status = StatusReverted
		rcpt.Error = callErr.Error()
		rcpt.Events = nil
	} else {
		rcpt.Status = StatusSuccess
		c.events = append(c.events, rcpt.Events...)
	}
	c.receipts = append(c.receipts, rcpt)
	c.mu.Unlock()

	c.logger.Debug("tx",
		zap.String("hash", rcpt.TxHash.Hex()),
		zap.String("from", from.Hex()),
		zap.String("to", to.Hex()),
		zap.String("method", method),
		zap.Uint64("block", rcpt.Block),
		zap.Stringer("status", rcpt.Status),
	)

	if c.store != nil {
		if err := c.store.PutReceipt(rcpt); err != nil {
			return rcpt, fmt.Errorf("chain: persist receipt: %w", err)
		}
	}
	return rcpt, callErr
}

// Snapshot is a read-only view of the chain head.
type Snapshot struct {
	ChainID   uint64
	Height    uint64
	Timestamp uint64
	TxCount   int
}

// Head returns the current chain head.
func (c *Chain) Head() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{ChainID: c.chainID, Height: c.height, Timestamp: c.now, TxCount: len(c.receipts)}
}

// sortReceipts orders receipts by block, then nonce.
func sortReceipts(rs []*Receipt) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Block != rs[j].Block {
			return rs[i].Block < rs[j].Block
		}
		return rs[i].Nonce < rs[j].Nonce
	})
}
