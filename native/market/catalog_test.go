package market

import (
	"errors"
	"math/big"
	"testing"
)

func registerTestDesigner(t *testing.T, engine *Engine, owner [20]byte) *DesignerProfile {
	t.Helper()
	profile, err := engine.RegisterDesigner(owner, "ada", "ipfs://bio")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return profile
}

func TestUploadDesignValidation(t *testing.T) {
	state := newMockState()
	engine, _, _ := newTestEngine(state)
	if _, err := engine.InitializePlatform(addr(0x01), 500); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	owner := addr(0x10)
	registerTestDesigner(t, engine, owner)

	var hash [32]byte
	hash[0] = 0xAB
	if _, err := engine.UploadDesign(owner, hash, big.NewInt(0), 5); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	if len(state.designs) != 0 {
		t.Fatalf("rejected upload must not create a design")
	}
	if _, err := engine.UploadDesign(owner, hash, big.NewInt(100), 0); !errors.Is(err, ErrInvalidInventory) {
		t.Fatalf("expected ErrInvalidInventory, got %v", err)
	}
	if state.platform.DesignCount != 0 {
		t.Fatalf("rejected upload must not bump the design counter")
	}
}

func TestUploadDesignDeterministicIdentity(t *testing.T) {
	state := newMockState()
	engine, _, recorder := newTestEngine(state)
	if _, err := engine.InitializePlatform(addr(0x01), 500); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	owner := addr(0x10)
	profile := registerTestDesigner(t, engine, owner)

	var hash [32]byte
	hash[0] = 0xAB
	first, err := engine.UploadDesign(owner, hash, big.NewInt(1_000), 10)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if first.ID != DeriveDesignID(owner, 0) {
		t.Fatalf("design id must derive from (owner, sequence 0)")
	}
	if first.TokenClassID != profile.TokenClassID {
		t.Fatalf("design must bind the owner's token class")
	}
	if first.Inventory != first.InitialInventory {
		t.Fatalf("inventory must equal initial inventory at creation")
	}
	second, err := engine.UploadDesign(owner, hash, big.NewInt(2_000), 3)
	if err != nil {
		t.Fatalf("second upload failed: %v", err)
	}
	if second.ID != DeriveDesignID(owner, 1) {
		t.Fatalf("second design id must derive from sequence 1")
	}
	if second.ID == first.ID {
		t.Fatalf("design ids must be unique per sequence")
	}
	if state.platform.DesignCount != 2 {
		t.Fatalf("platform design counter: want 2 got %d", state.platform.DesignCount)
	}
	updated, _, _ := state.DesignerGet(owner)
	if updated.DesignCount != 2 {
		t.Fatalf("designer design counter: want 2 got %d", updated.DesignCount)
	}
	if recorder.lastType() != EventTypeDesignUploaded {
		t.Fatalf("expected upload event, got %q", recorder.lastType())
	}
}

func TestUploadDesignRequiresRegistration(t *testing.T) {
	state := newMockState()
	engine, _, _ := newTestEngine(state)
	if _, err := engine.InitializePlatform(addr(0x01), 500); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	var hash [32]byte
	if _, err := engine.UploadDesign(addr(0x10), hash, big.NewInt(100), 5); !errors.Is(err, ErrDesignerNotFound) {
		t.Fatalf("expected ErrDesignerNotFound, got %v", err)
	}
}

func TestUpdatePrice(t *testing.T) {
	state := newMockState()
	engine, _, recorder := newTestEngine(state)
	if _, err := engine.InitializePlatform(addr(0x01), 500); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	owner := addr(0x10)
	registerTestDesigner(t, engine, owner)
	var hash [32]byte
	design, err := engine.UploadDesign(owner, hash, big.NewInt(1_000), 10)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if _, err := engine.UpdatePrice(design.ID, addr(0x99), big.NewInt(2_000)); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if _, err := engine.UpdatePrice(design.ID, owner, big.NewInt(0)); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	updated, err := engine.UpdatePrice(design.ID, owner, big.NewInt(2_000))
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Price.Cmp(big.NewInt(2_000)) != 0 {
		t.Fatalf("price not updated: %s", updated.Price)
	}
	if updated.Inventory != design.Inventory || updated.TokenClassID != design.TokenClassID {
		t.Fatalf("price update must not touch inventory or token binding")
	}
	if recorder.lastType() != EventTypePriceUpdated {
		t.Fatalf("expected price event, got %q", recorder.lastType())
	}
	attrs := recorder.lastAttributes()
	if attrs["oldPrice"] != "1000" || attrs["newPrice"] != "2000" {
		t.Fatalf("unexpected price attributes: %v", attrs)
	}
}

func TestUpdatePriceUnknownDesign(t *testing.T) {
	state := newMockState()
	engine, _, _ := newTestEngine(state)
	var id [32]byte
	id[0] = 0x01
	if _, err := engine.UpdatePrice(id, addr(0x10), big.NewInt(100)); !errors.Is(err, ErrDesignNotFound) {
		t.Fatalf("expected ErrDesignNotFound, got %v", err)
	}
}
