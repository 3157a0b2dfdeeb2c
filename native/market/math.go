package market

import (
	"math"
	"math/big"
)

var (
	maxUint64      = new(big.Int).SetUint64(math.MaxUint64)
	bpsDenominator = big.NewInt(10_000)
)

// allocationSplit returns the designer and pool portions of the fixed token
// supply. The two always sum to the supply exactly; the floor from the 90%
// multiplication lands in the pool share.
func allocationSplit() (designer, pool *big.Int) {
	supply := big.NewInt(TokenSupplyMinorUnits)
	designer = new(big.Int).Mul(supply, big.NewInt(DesignerSharePercent))
	designer.Div(designer, big.NewInt(100))
	pool = new(big.Int).Sub(supply, designer)
	return designer, pool
}

// totalCost multiplies price by quantity, rejecting results that leave the
// unsigned 64-bit payment domain.
func totalCost(price *big.Int, quantity uint32) (*big.Int, error) {
	if price == nil || price.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	if price.Cmp(maxUint64) > 0 {
		return nil, ErrOverflow
	}
	cost := new(big.Int).Mul(price, new(big.Int).SetUint64(uint64(quantity)))
	if cost.Cmp(maxUint64) > 0 {
		return nil, ErrOverflow
	}
	return cost, nil
}

// splitFee computes the platform fee and the distributable remainder for a
// sale total. feeBps is trusted to be at most 10000 (enforced at platform
// initialization), so the remainder can never go negative.
func splitFee(total *big.Int, feeBps uint32) (fee, revenue *big.Int) {
	fee = new(big.Int).Mul(total, new(big.Int).SetUint64(uint64(feeBps)))
	fee.Div(fee, bpsDenominator)
	revenue = new(big.Int).Sub(total, fee)
	return fee, revenue
}

// proportionalShare computes floor(revenue * balance / supply). The product
// is taken at arbitrary precision before the division, so two full 64-bit
// operands cannot overflow; operands beyond the 64-bit domain are rejected.
func proportionalShare(revenue, balance, supply *big.Int) (*big.Int, error) {
	if supply == nil || supply.Sign() <= 0 {
		return nil, ErrInvalidQuantity
	}
	if revenue == nil || revenue.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if revenue.Sign() < 0 || (balance != nil && balance.Sign() < 0) {
		return nil, ErrInvalidQuantity
	}
	if balance == nil || balance.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if revenue.Cmp(maxUint64) > 0 || balance.Cmp(maxUint64) > 0 || supply.Cmp(maxUint64) > 0 {
		return nil, ErrOverflow
	}
	share := new(big.Int).Mul(revenue, balance)
	share.Div(share, supply)
	return share, nil
}
