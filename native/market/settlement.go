package market

import (
	"math/big"
	"time"

	"rackledger/observability"
)

// Sale is the settlement receipt for one purchase. It is returned to the
// caller and emitted as an audit event; it is not stored.
type Sale struct {
	DesignID            [32]byte `json:"designId"`
	Buyer               [20]byte `json:"buyer"`
	Quantity            uint32   `json:"quantity"`
	TotalCost           *big.Int `json:"totalCost"`
	PlatformFee         *big.Int `json:"platformFee"`
	RevenueToDistribute *big.Int `json:"revenueToDistribute"`
}

// Clone returns a deep copy of the sale receipt.
func (s *Sale) Clone() *Sale {
	if s == nil {
		return nil
	}
	clone := *s
	if s.TotalCost != nil {
		clone.TotalCost = new(big.Int).Set(s.TotalCost)
	}
	if s.PlatformFee != nil {
		clone.PlatformFee = new(big.Int).Set(s.PlatformFee)
	}
	if s.RevenueToDistribute != nil {
		clone.RevenueToDistribute = new(big.Int).Set(s.RevenueToDistribute)
	}
	return &clone
}

// Buy settles a purchase: the full cost moves from the buyer into the
// design's escrow, the platform fee moves onward from escrow to the
// treasury, and the inventory and sales counters update. The distributable
// remainder stays in escrow until paid out per holder.
//
// All validation and arithmetic happen before the first write, so a rejected
// purchase never touches state.
func (e *Engine) Buy(designID [32]byte, buyer [20]byte, quantity uint32) (sale *Sale, err error) {
	defer func(start time.Time) {
		observability.Market().Observe("buy", time.Since(start), err)
	}(time.Now())
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if quantity == 0 {
		return nil, ErrInvalidQuantity
	}
	design, err := e.loadDesign(designID)
	if err != nil {
		return nil, err
	}
	if design.Inventory < quantity {
		return nil, ErrInsufficientInventory
	}
	platform, err := e.loadPlatform()
	if err != nil {
		return nil, err
	}
	cost, err := totalCost(design.Price, quantity)
	if err != nil {
		return nil, err
	}
	fee, revenue := splitFee(cost, platform.FeeBps)
	buyerAcc, err := e.state.GetAccount(buyer[:])
	if err != nil {
		return nil, err
	}
	if ensureAccount(buyerAcc).Balance.Cmp(cost) < 0 {
		return nil, ErrInsufficientFunds
	}
	profile, ok, err := e.state.DesignerGet(design.Owner)
	if err != nil {
		return nil, err
	}
	if !ok || profile == nil {
		return nil, ErrDesignerNotFound
	}

	escrow := EscrowAddress(designID)
	if err := e.transferBalance(buyer, escrow, cost); err != nil {
		return nil, err
	}
	if err := e.transferBalance(escrow, platform.Treasury, fee); err != nil {
		return nil, err
	}
	design.Inventory -= quantity
	design.UnitsSold += quantity
	if err := e.state.DesignPut(design); err != nil {
		return nil, err
	}
	profile.UnitsSold += uint64(quantity)
	if err := e.state.DesignerPut(profile); err != nil {
		return nil, err
	}
	sale = &Sale{
		DesignID:            designID,
		Buyer:               buyer,
		Quantity:            quantity,
		TotalCost:           cost,
		PlatformFee:         fee,
		RevenueToDistribute: revenue,
	}
	e.emit(SaleEvent(sale))
	return sale.Clone(), nil
}

// WithdrawFee moves accumulated fees out of the platform treasury to an
// arbitrary destination. The configured authorization policy gates the call;
// the balance-transfer primitive provides the underflow protection.
func (e *Engine) WithdrawFee(caller [20]byte, amount *big.Int, destination [20]byte) (err error) {
	defer func(start time.Time) {
		observability.Market().Observe("withdraw_fee", time.Since(start), err)
	}(time.Now())
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.authority == nil {
		return errAuthorityNotSet
	}
	if err := e.authority.Authorize(ActionWithdrawFee, caller); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	platform, err := e.loadPlatform()
	if err != nil {
		return err
	}
	if err := e.transferBalance(platform.Treasury, destination, amount); err != nil {
		return err
	}
	e.emit(FeeWithdrawnEvent(amount, destination))
	return nil
}

// SweepEscrow drains whatever remains in a design's escrow account to the
// destination. Rounding dust from proportional payouts accumulates in escrow
// with no other way out; deciding when a distribution round is closed and
// the residue may be swept is the orchestrator's responsibility. The same
// authorization policy that gates fee withdrawal gates the sweep.
func (e *Engine) SweepEscrow(designID [32]byte, caller [20]byte, destination [20]byte) (swept *big.Int, err error) {
	defer func(start time.Time) {
		observability.Market().Observe("sweep_escrow", time.Since(start), err)
	}(time.Now())
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.authority == nil {
		return nil, errAuthorityNotSet
	}
	if err := e.authority.Authorize(ActionSweepEscrow, caller); err != nil {
		return nil, err
	}
	if _, err := e.loadDesign(designID); err != nil {
		return nil, err
	}
	escrow := EscrowAddress(designID)
	escrowAcc, err := e.state.GetAccount(escrow[:])
	if err != nil {
		return nil, err
	}
	balance := ensureAccount(escrowAcc).Balance
	amount := new(big.Int).Set(balance)
	if amount.Sign() == 0 {
		return amount, nil
	}
	if err := e.transferBalance(escrow, destination, amount); err != nil {
		return nil, err
	}
	e.emit(EscrowSweptEvent(designID, destination, amount))
	return amount, nil
}
