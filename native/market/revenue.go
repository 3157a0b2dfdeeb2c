package market

import (
	"math/big"
	"time"

	"rackledger/observability"
)

// DistributeToHolder pays one token holder their proportional share of a
// design's escrowed sale revenue. The caller is an external orchestrator
// that enumerated the holder set itself and invokes this once per holder;
// there is no atomicity across the set. The epoch identifies the
// distribution round: each (design, epoch, holder) triple can be paid at
// most once, which is what stops a naive retry from draining escrow twice.
//
// A holder whose share rounds down to zero receives no transfer and no
// event. The dust stays in escrow until swept.
func (e *Engine) DistributeToHolder(designID [32]byte, epoch uint64, holder [20]byte, totalRevenue, holderBalance, totalSupply *big.Int) (record *DistributionRecord, err error) {
	defer func(start time.Time) {
		observability.Market().Observe("distribute_to_holder", time.Since(start), err)
	}(time.Now())
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if totalSupply == nil || totalSupply.Sign() <= 0 {
		return nil, ErrInvalidQuantity
	}
	if holderBalance == nil || holderBalance.Sign() <= 0 {
		return nil, ErrInvalidQuantity
	}
	if _, err := e.loadDesign(designID); err != nil {
		return nil, err
	}
	if _, ok, err := e.state.DistributionGet(designID, epoch, holder); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyDistributed
	}
	share, err := proportionalShare(totalRevenue, holderBalance, totalSupply)
	if err != nil {
		return nil, err
	}
	record = &DistributionRecord{
		DesignID:      designID,
		Epoch:         epoch,
		Holder:        holder,
		Amount:        share,
		HolderBalance: new(big.Int).Set(holderBalance),
		TotalSupply:   new(big.Int).Set(totalSupply),
		PaidAt:        e.now(),
	}
	if share.Sign() == 0 {
		return record, nil
	}
	escrow := EscrowAddress(designID)
	if err := e.transferBalance(escrow, holder, share); err != nil {
		return nil, err
	}
	if err := e.state.DistributionPut(record); err != nil {
		return nil, err
	}
	e.emit(RevenueDistributedEvent(record))
	return record.Clone(), nil
}

// CalculateDistribution computes a holder's share without moving funds, for
// previewing payouts before submission. Unlike DistributeToHolder it treats
// a zero holder balance as a zero share rather than an error.
func CalculateDistribution(totalRevenue, holderBalance, totalSupply *big.Int) (*big.Int, error) {
	if totalSupply == nil || totalSupply.Sign() <= 0 {
		return nil, ErrInvalidQuantity
	}
	if holderBalance == nil || holderBalance.Sign() == 0 {
		return big.NewInt(0), nil
	}
	return proportionalShare(totalRevenue, holderBalance, totalSupply)
}
