// Package sale implements a capped, time-boxed token sale. Buyers pay
// tokenIn, which is forwarded to the sale recipient immediately, and claim
// the tokenOut they bought once the owner finalizes the sale.
package sale

import (
	"fmt"
	"math/big"

	"github.com/citadelfi/libcitadel-go/chain"
	"github.com/citadelfi/libcitadel-go/token"
)

// Params configures Initialize.
type Params struct {
	TokenOut  token.ERC20
	TokenIn   token.ERC20
	SaleStart uint64
	Duration  uint64

	// Price is tokenOut base units per one whole tokenIn.
	Price *big.Int

	Recipient chain.Address

	// RefundAddress receives unsold tokenOut on Sweep. Zero means the owner.
	RefundAddress chain.Address

	// Cap bounds the total tokenIn raised.
	Cap *big.Int
}

// Sale is the token sale contract.
type Sale struct {
	chain *chain.Chain
	addr  chain.Address
	owner chain.Address

	initialized bool
	tokenOut    token.ERC20
	tokenIn     token.ERC20
	saleStart   uint64
	duration    uint64
	price       *big.Int
	recipient   chain.Address
	refund      chain.Address
	cap         *big.Int
	guestRoot   chain.Hash
	paused      bool
	finalized   bool

	totalIn         *big.Int
	totalOutBought  *big.Int
	totalOutClaimed *big.Int
	bought          map[chain.Address]*big.Int
	claimed         map[chain.Address]bool
	daoOf           map[chain.Address]uint8
	daoCommitments  map[uint8]*big.Int
}

// New deploys an uninitialized sale owned by deployer.
func New(c *chain.Chain, deployer chain.Address) *Sale {
	return &Sale{
		chain:           c,
		addr:            c.NewContractAddress(deployer),
		owner:           deployer,
		totalIn:         new(big.Int),
		totalOutBought:  new(big.Int),
		totalOutClaimed: new(big.Int),
		bought:          make(map[chain.Address]*big.Int),
		claimed:         make(map[chain.Address]bool),
		daoOf:           make(map[chain.Address]uint8),
		daoCommitments:  make(map[uint8]*big.Int),
	}
}

// Initialize configures the sale. The start may not be in the past.
func (s *Sale) Initialize(p Params) error {
	if s.initialized {
		return ErrAlreadyInitialized
	}
	if p.TokenOut == nil || p.TokenIn == nil {
		return fmt.Errorf("%w: token", ErrZeroAddress)
	}
	if p.Recipient.IsZero() {
		return fmt.Errorf("%w: recipient", ErrZeroAddress)
	}
	if p.SaleStart < s.chain.Now() {
		return fmt.Errorf("%w: sale start %d is in the past", ErrInvalidParam, p.SaleStart)
	}
	if p.Duration == 0 {
		return fmt.Errorf("%w: duration", ErrInvalidParam)
	}
	if p.Price == nil || p.Price.Sign() <= 0 {
		return fmt.Errorf("%w: price", ErrInvalidParam)
	}
	if p.Cap == nil || p.Cap.Sign() <= 0 {
		return fmt.Errorf("%w: cap", ErrInvalidParam)
	}
	s.initialized = true
	s.tokenOut = p.TokenOut
	s.tokenIn = p.TokenIn
	s.saleStart = p.SaleStart
	s.duration = p.Duration
	s.price = chain.Clone(p.Price)
	s.recipient = p.Recipient
	s.refund = p.RefundAddress
	s.cap = chain.Clone(p.Cap)
	return nil
}

func (s *Sale) Address() chain.Address         { return s.addr }
func (s *Sale) Owner() chain.Address           { return s.owner }
func (s *Sale) TokenOut() token.ERC20          { return s.tokenOut }
func (s *Sale) TokenIn() token.ERC20           { return s.tokenIn }
func (s *Sale) SaleStart() uint64              { return s.saleStart }
func (s *Sale) SaleDuration() uint64           { return s.duration }
func (s *Sale) Price() *big.Int                { return chain.Clone(s.price) }
func (s *Sale) Recipient() chain.Address       { return s.recipient }
func (s *Sale) Cap() *big.Int                  { return chain.Clone(s.cap) }
func (s *Sale) GuestlistRoot() chain.Hash      { return s.guestRoot }
func (s *Sale) Paused() bool                   { return s.paused }
func (s *Sale) Finalized() bool                { return s.finalized }
func (s *Sale) TotalTokenIn() *big.Int         { return chain.Clone(s.totalIn) }
func (s *Sale) TotalTokenOutBought() *big.Int  { return chain.Clone(s.totalOutBought) }
func (s *Sale) TotalTokenOutClaimed() *big.Int { return chain.Clone(s.totalOutClaimed) }

// RefundAddress returns where unsold tokenOut goes on Sweep.
func (s *Sale) RefundAddress() chain.Address {
	if s.refund.IsZero() {
		return s.owner
	}
	return s.refund
}

// BoughtAmount returns the tokenOut buyer has bought.
func (s *Sale) BoughtAmount(buyer chain.Address) *big.Int {
	return chain.Clone(s.bought[buyer])
}

// HasClaimed reports whether buyer has claimed.
func (s *Sale) HasClaimed(buyer chain.Address) bool { return s.claimed[buyer] }

// DaoCommitment returns the tokenIn committed to dao id.
func (s *Sale) DaoCommitment(id uint8) *big.Int {
	return chain.Clone(s.daoCommitments[id])
}

// BuyerDao returns the dao buyer committed to and whether it has bought.
func (s *Sale) BuyerDao(buyer chain.Address) (uint8, bool) {
	id, ok := s.daoOf[buyer]
	return id, ok
}

// GetAmountOut converts amountIn to tokenOut at the sale price.
func (s *Sale) GetAmountOut(amountIn *big.Int) *big.Int {
	if !s.initialized || amountIn == nil || amountIn.Sign() <= 0 {
		return new(big.Int)
	}
	out := new(big.Int).Mul(amountIn, s.price)
	return out.Quo(out, chain.Pow10(s.tokenIn.Decimals()))
}

// SaleEnded reports whether the window has closed or the cap is reached.
func (s *Sale) SaleEnded() bool {
	if !s.initialized {
		return false
	}
	return s.chain.Now() >= s.saleStart+s.duration || s.totalIn.Cmp(s.cap) >= 0
}

// Buy spends amountIn of tokenIn for the sender, committing it to daoID.
// proof is checked only when a guestlist root is set. It returns the
// tokenOut bought.
func (s *Sale) Buy(from chain.Address, amountIn *big.Int, daoID uint8, proof []chain.Hash) (*big.Int, error) {
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	if s.paused {
		return nil, ErrPaused
	}
	if s.finalized {
		return nil, ErrFinalized
	}
	now := s.chain.Now()
	if now < s.saleStart {
		return nil, ErrNotStarted
	}
	if now >= s.saleStart+s.duration {
		return nil, ErrEnded
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	if s.guestRoot != chain.ZeroHash && !VerifyGuest(s.guestRoot, from, proof) {
		return nil, fmt.Errorf("%w: %s", ErrNotGuest, from.Hex())
	}
	if id, ok := s.daoOf[from]; ok && id != daoID {
		return nil, fmt.Errorf("%w: committed to %d", ErrDaoMismatch, id)
	}
	totalIn := new(big.Int).Add(s.totalIn, amountIn)
	if totalIn.Cmp(s.cap) > 0 {
		return nil, fmt.Errorf("%w: %s > %s", ErrCapExceeded, totalIn, s.cap)
	}
	out := s.GetAmountOut(amountIn)
	if out.Sign() == 0 {
		return nil, fmt.Errorf("%w: amount out rounds to zero", ErrZeroAmount)
	}
	if err := s.tokenIn.TransferFrom(s.addr, from, s.recipient, amountIn); err != nil {
		return nil, fmt.Errorf("sale: pay: %w", err)
	}

	s.totalIn = totalIn
	s.totalOutBought.Add(s.totalOutBought, out)
	b := chain.Clone(s.bought[from])
	s.bought[from] = b.Add(b, out)
	s.daoOf[from] = daoID
	d := chain.Clone(s.daoCommitments[daoID])
	s.daoCommitments[daoID] = d.Add(d, amountIn)
	s.chain.Emit(s.addr, "Sale", "buyer", from.Hex(), "daoId", fmt.Sprint(daoID),
		"amountIn", amountIn.String(), "amountOut", out.String())
	return out, nil
}

// Finalize closes the sale once it has ended and the contract holds enough
// tokenOut for every purchase.
func (s *Sale) Finalize(from chain.Address) error {
	if err := s.onlyOwner(from); err != nil {
		return err
	}
	if s.finalized {
		return ErrFinalized
	}
	if !s.SaleEnded() {
		return ErrNotEnded
	}
	if s.tokenOut.BalanceOf(s.addr).Cmp(s.totalOutBought) < 0 {
		return fmt.Errorf("%w: have %s, owe %s", ErrInsufficientOut, s.tokenOut.BalanceOf(s.addr), s.totalOutBought)
	}
	s.finalized = true
	s.chain.Emit(s.addr, "Finalized")
	return nil
}

// Claim pays the sender its bought tokenOut. Each buyer claims once.
func (s *Sale) Claim(from chain.Address) (*big.Int, error) {
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	if !s.finalized {
		return nil, ErrNotFinalized
	}
	if s.claimed[from] {
		return nil, ErrAlreadyClaimed
	}
	amount := s.bought[from]
	if amount == nil || amount.Sign() == 0 {
		return nil, ErrNothingToClaim
	}
	if err := s.tokenOut.Transfer(s.addr, from, amount); err != nil {
		return nil, fmt.Errorf("sale: claim: %w", err)
	}
	s.claimed[from] = true
	s.totalOutClaimed.Add(s.totalOutClaimed, amount)
	s.chain.Emit(s.addr, "Claim", "claimer", from.Hex(), "amount", amount.String())
	return chain.Clone(amount), nil
}

// Sweep moves stray balances out of the sale. tokenOut can only be swept
// after Finalize, keeps what buyers are still owed and goes to the refund
// address; any other token goes to the owner in full.
func (s *Sale) Sweep(from chain.Address, tok token.ERC20) (*big.Int, error) {
	if err := s.onlyOwner(from); err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, fmt.Errorf("%w: token", ErrZeroAddress)
	}
	amount := tok.BalanceOf(s.addr)
	dest := s.owner
	if tok.Address() == s.tokenOut.Address() {
		if !s.finalized {
			return nil, ErrNotFinalized
		}
		owed := new(big.Int).Sub(s.totalOutBought, s.totalOutClaimed)
		amount.Sub(amount, owed)
		dest = s.RefundAddress()
	}
	if amount.Sign() <= 0 {
		return nil, ErrNothingToSweep
	}
	if err := tok.Transfer(s.addr, dest, amount); err != nil {
		return nil, fmt.Errorf("sale: sweep: %w", err)
	}
	s.chain.Emit(s.addr, "Sweep", "token", tok.Address().Hex(), "to", dest.Hex(), "amount", amount.String())
	return amount, nil
}

func (s *Sale) onlyOwner(from chain.Address) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	if from != s.owner {
		return fmt.Errorf("%w: %s", ErrNotOwner, from.Hex())
	}
	return nil
}

func (s *Sale) onlyOwnerOpen(from chain.Address) error {
	if err := s.onlyOwner(from); err != nil {
		return err
	}
	if s.finalized {
		return ErrFinalized
	}
	return nil
}

// SetSaleStart moves the start. It may not be in the past.
func (s *Sale) SetSaleStart(from chain.Address, start uint64) error {
	if err := s.onlyOwnerOpen(from); err != nil {
		return err
	}
	if start < s.chain.Now() {
		return fmt.Errorf("%w: sale start %d is in the past", ErrInvalidParam, start)
	}
	s.saleStart = start
	s.chain.Emit(s.addr, "SaleStartUpdated", "start", fmt.Sprint(start))
	return nil
}

// SetSaleDuration changes the window length.
func (s *Sale) SetSaleDuration(from chain.Address, duration uint64) error {
	if err := s.onlyOwnerOpen(from); err != nil {
		return err
	}
	if duration == 0 {
		return fmt.Errorf("%w: duration", ErrInvalidParam)
	}
	s.duration = duration
	s.chain.Emit(s.addr, "SaleDurationUpdated", "duration", fmt.Sprint(duration))
	return nil
}

// SetPrice changes the tokenOut price for future purchases.
func (s *Sale) SetPrice(from chain.Address, price *big.Int) error {
	if err := s.onlyOwnerOpen(from); err != nil {
		return err
	}
	if price == nil || price.Sign() <= 0 {
		return fmt.Errorf("%w: price", ErrInvalidParam)
	}
	s.price = chain.Clone(price)
	s.chain.Emit(s.addr, "TokenOutPriceUpdated", "price", price.String())
	return nil
}

// SetRecipient changes where tokenIn is forwarded.
func (s *Sale) SetRecipient(from, recipient chain.Address) error {
	if err := s.onlyOwnerOpen(from); err != nil {
		return err
	}
	if recipient.IsZero() {
		return fmt.Errorf("%w: recipient", ErrZeroAddress)
	}
	s.recipient = recipient
	s.chain.Emit(s.addr, "SaleRecipientUpdated", "recipient", recipient.Hex())
	return nil
}

// SetCap changes the tokenIn limit. It may be set below what was raised,
// which ends the sale.
func (s *Sale) SetCap(from chain.Address, c *big.Int) error {
	if err := s.onlyOwnerOpen(from); err != nil {
		return err
	}
	if c == nil || c.Sign() <= 0 {
		return fmt.Errorf("%w: cap", ErrInvalidParam)
	}
	s.cap = chain.Clone(c)
	s.chain.Emit(s.addr, "TokenInLimitUpdated", "limit", c.String())
	return nil
}

// SetGuestlistRoot restricts purchases to the guestlist. ZeroHash opens
// the sale to everyone.
func (s *Sale) SetGuestlistRoot(from chain.Address, root chain.Hash) error {
	if err := s.onlyOwnerOpen(from); err != nil {
		return err
	}
	s.guestRoot = root
	s.chain.Emit(s.addr, "GuestlistUpdated", "root", root.Hex())
	return nil
}

// Pause stops purchases.
func (s *Sale) Pause(from chain.Address) error {
	if err := s.onlyOwner(from); err != nil {
		return err
	}
	if s.paused {
		return ErrPaused
	}
	s.paused = true
	s.chain.Emit(s.addr, "Paused", "account", from.Hex())
	return nil
}

// Unpause resumes purchases.
func (s *Sale) Unpause(from chain.Address) error {
	if err := s.onlyOwner(from); err != nil {
		return err
	}
	if !s.paused {
		return ErrNotPaused
	}
	s.paused = false
	s.chain.Emit(s.addr, "Unpaused", "account", from.Hex())
	return nil
}
