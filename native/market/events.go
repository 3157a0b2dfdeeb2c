package market

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"rackledger/core/events"
	"rackledger/core/types"
	"rackledger/crypto"
)

const (
	// EventTypeDesignerRegistered is emitted when a creator registers and
	// receives their token allocation.
	EventTypeDesignerRegistered = "market.designer.registered"
	// EventTypeDesignUploaded is emitted when a design is listed.
	EventTypeDesignUploaded = "market.design.uploaded"
	// EventTypePriceUpdated is emitted when a design's price changes.
	EventTypePriceUpdated = "market.design.price_updated"
	// EventTypeSale is emitted when a purchase settles.
	EventTypeSale = "market.sale"
	// EventTypeRevenueDistributed is emitted per holder payout.
	EventTypeRevenueDistributed = "market.revenue.distributed"
	// EventTypeFeeWithdrawn is emitted when treasury fees are withdrawn.
	EventTypeFeeWithdrawn = "market.fee.withdrawn"
	// EventTypeEscrowSwept is emitted when residual escrow is swept.
	EventTypeEscrowSwept = "market.escrow.swept"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func addrString(addr [20]byte) string {
	return crypto.NewAddress(crypto.RackPrefix, addr[:]).String()
}

func hashString(h [32]byte) string {
	return "0x" + hex.EncodeToString(h[:])
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// DesignerRegisteredEvent returns the payload announcing a new designer and
// their token class.
func DesignerRegisteredEvent(profile *DesignerProfile) *types.Event {
	return &types.Event{
		Type: EventTypeDesignerRegistered,
		Attributes: map[string]string{
			"designer":   addrString(profile.Owner),
			"tokenClass": hashString(profile.TokenClassID),
			"name":       profile.DisplayName,
		},
	}
}

// DesignUploadedEvent returns the payload for a new catalog listing.
func DesignUploadedEvent(design *Design) *types.Event {
	return &types.Event{
		Type: EventTypeDesignUploaded,
		Attributes: map[string]string{
			"designer":    addrString(design.Owner),
			"designId":    hashString(design.ID),
			"contentHash": hashString(design.ContentHash),
			"price":       bigString(design.Price),
			"inventory":   strconv.FormatUint(uint64(design.Inventory), 10),
		},
	}
}

// PriceUpdatedEvent returns the payload for a price change.
func PriceUpdatedEvent(designID [32]byte, oldPrice, newPrice *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypePriceUpdated,
		Attributes: map[string]string{
			"designId": hashString(designID),
			"oldPrice": bigString(oldPrice),
			"newPrice": bigString(newPrice),
		},
	}
}

// SaleEvent returns the payload for a settled purchase.
func SaleEvent(sale *Sale) *types.Event {
	return &types.Event{
		Type: EventTypeSale,
		Attributes: map[string]string{
			"designId":            hashString(sale.DesignID),
			"buyer":               addrString(sale.Buyer),
			"quantity":            strconv.FormatUint(uint64(sale.Quantity), 10),
			"totalCost":           bigString(sale.TotalCost),
			"platformFee":         bigString(sale.PlatformFee),
			"revenueToDistribute": bigString(sale.RevenueToDistribute),
		},
	}
}

// RevenueDistributedEvent returns the payload for a completed holder payout.
func RevenueDistributedEvent(record *DistributionRecord) *types.Event {
	return &types.Event{
		Type: EventTypeRevenueDistributed,
		Attributes: map[string]string{
			"designId":      hashString(record.DesignID),
			"epoch":         strconv.FormatUint(record.Epoch, 10),
			"holder":        addrString(record.Holder),
			"amount":        bigString(record.Amount),
			"holderBalance": bigString(record.HolderBalance),
			"totalSupply":   bigString(record.TotalSupply),
		},
	}
}

// FeeWithdrawnEvent returns the payload for a treasury withdrawal.
func FeeWithdrawnEvent(amount *big.Int, destination [20]byte) *types.Event {
	return &types.Event{
		Type: EventTypeFeeWithdrawn,
		Attributes: map[string]string{
			"amount":      bigString(amount),
			"destination": addrString(destination),
		},
	}
}

// EscrowSweptEvent returns the payload for a residual escrow sweep.
func EscrowSweptEvent(designID [32]byte, destination [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeEscrowSwept,
		Attributes: map[string]string{
			"designId":    hashString(designID),
			"destination": addrString(destination),
			"amount":      bigString(amount),
		},
	}
}
