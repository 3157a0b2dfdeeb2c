package market

import "math/big"

// UploadDesign lists a new priced, inventoried design for the registered
// designer. The design identifier is derived from the owner and the
// platform-wide design sequence number, so catalog entries are stably
// addressable by sequence.
func (e *Engine) UploadDesign(owner [20]byte, contentHash [32]byte, price *big.Int, inventory uint32) (*Design, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if price == nil || price.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	if inventory == 0 {
		return nil, ErrInvalidInventory
	}
	platform, err := e.loadPlatform()
	if err != nil {
		return nil, err
	}
	profile, ok, err := e.state.DesignerGet(owner)
	if err != nil {
		return nil, err
	}
	if !ok || profile == nil {
		return nil, ErrDesignerNotFound
	}
	design := &Design{
		ID:               DeriveDesignID(owner, platform.DesignCount),
		Owner:            owner,
		ContentHash:      contentHash,
		ListedAt:         e.now(),
		Price:            new(big.Int).Set(price),
		Inventory:        inventory,
		InitialInventory: inventory,
		TokenClassID:     profile.TokenClassID,
	}
	if err := e.state.DesignPut(design); err != nil {
		return nil, err
	}
	profile.DesignCount++
	if err := e.state.DesignerPut(profile); err != nil {
		return nil, err
	}
	platform.DesignCount++
	if err := e.state.PlatformPut(platform); err != nil {
		return nil, err
	}
	e.emit(DesignUploadedEvent(design))
	return design.Clone(), nil
}

// UpdatePrice changes a design's listing price. Only the design owner may
// call it; inventory, escrow and token binding are untouched.
func (e *Engine) UpdatePrice(designID [32]byte, caller [20]byte, newPrice *big.Int) (*Design, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	design, err := e.loadDesign(designID)
	if err != nil {
		return nil, err
	}
	if design.Owner != caller {
		return nil, ErrNotOwner
	}
	if newPrice == nil || newPrice.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	oldPrice := new(big.Int).Set(design.Price)
	design.Price = new(big.Int).Set(newPrice)
	if err := e.state.DesignPut(design); err != nil {
		return nil, err
	}
	e.emit(PriceUpdatedEvent(designID, oldPrice, newPrice))
	return design.Clone(), nil
}
