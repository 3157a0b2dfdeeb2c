package market

import "math/big"

// Token allocation constants. Every designer token class is created with the
// same fixed supply of one million whole tokens at six decimals; 90% is
// allocated to the designer and the remainder to the platform pool.
const (
	TokenDecimals         = 6
	TokenSupplyMinorUnits = 1_000_000_000_000
	DesignerSharePercent  = 90
)

// PlatformState is the process-wide singleton configuration. FeeBps is fixed
// at initialization; the counters only ever increase.
type PlatformState struct {
	Treasury      [20]byte `json:"treasury"`
	FeeBps        uint32   `json:"feeBps"`
	DesignerCount uint64   `json:"designerCount"`
	DesignCount   uint64   `json:"designCount"`
}

// Clone returns a copy of the platform state.
func (p *PlatformState) Clone() *PlatformState {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// DesignerProfile records a registered creator and their token class linkage.
// Profiles are keyed by owner address, so at most one exists per identity.
// Everything except the counters is immutable after registration.
type DesignerProfile struct {
	Owner        [20]byte `json:"owner"`
	DisplayName  string   `json:"displayName"`
	BioURI       string   `json:"bioUri"`
	TokenClassID [32]byte `json:"tokenClassId"`
	DesignCount  uint32   `json:"designCount"`
	UnitsSold    uint64   `json:"unitsSold"`
	CreatedAt    int64    `json:"createdAt"`
}

// Clone returns a copy of the profile.
func (d *DesignerProfile) Clone() *DesignerProfile {
	if d == nil {
		return nil
	}
	clone := *d
	return &clone
}

// Design is a priced, inventoried catalog listing. The token class is copied
// from the owning designer at creation time and never changes afterwards;
// sold-out designs stay in state as queryable history.
type Design struct {
	ID               [32]byte `json:"id"`
	Owner            [20]byte `json:"owner"`
	ContentHash      [32]byte `json:"contentHash"`
	ListedAt         int64    `json:"listedAt"`
	Price            *big.Int `json:"price"`
	Inventory        uint32   `json:"inventory"`
	InitialInventory uint32   `json:"initialInventory"`
	TokenClassID     [32]byte `json:"tokenClassId"`
	UnitsSold        uint32   `json:"unitsSold"`
}

// Clone returns a deep copy of the design.
func (d *Design) Clone() *Design {
	if d == nil {
		return nil
	}
	clone := *d
	if d.Price != nil {
		clone.Price = new(big.Int).Set(d.Price)
	} else {
		clone.Price = big.NewInt(0)
	}
	return &clone
}

// DistributionRecord marks a completed per-holder payout for a distribution
// epoch. Its presence in state is what blocks a second payout to the same
// holder against the same revenue.
type DistributionRecord struct {
	DesignID      [32]byte `json:"designId"`
	Epoch         uint64   `json:"epoch"`
	Holder        [20]byte `json:"holder"`
	Amount        *big.Int `json:"amount"`
	HolderBalance *big.Int `json:"holderBalance"`
	TotalSupply   *big.Int `json:"totalSupply"`
	PaidAt        int64    `json:"paidAt"`
}

// Clone returns a deep copy of the distribution record.
func (r *DistributionRecord) Clone() *DistributionRecord {
	if r == nil {
		return nil
	}
	clone := *r
	if r.Amount != nil {
		clone.Amount = new(big.Int).Set(r.Amount)
	}
	if r.HolderBalance != nil {
		clone.HolderBalance = new(big.Int).Set(r.HolderBalance)
	}
	if r.TotalSupply != nil {
		clone.TotalSupply = new(big.Int).Set(r.TotalSupply)
	}
	return &clone
}
