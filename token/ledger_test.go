package token

import (
	"errors"
	"math/big"
	"testing"
)

type mockLedgerState struct {
	classes  map[[32]byte]*Class
	balances map[string]*big.Int
}

func newMockLedgerState() *mockLedgerState {
	return &mockLedgerState{
		classes:  make(map[[32]byte]*Class),
		balances: make(map[string]*big.Int),
	}
}

func balanceKey(class [32]byte, holder [20]byte) string {
	return string(class[:]) + string(holder[:])
}

func (m *mockLedgerState) TokenClassGet(id [32]byte) (*Class, bool, error) {
	class, ok := m.classes[id]
	if !ok {
		return nil, false, nil
	}
	return class.Clone(), true, nil
}

func (m *mockLedgerState) TokenClassPut(class *Class) error {
	m.classes[class.ID] = class.Clone()
	return nil
}

func (m *mockLedgerState) TokenBalanceGet(class [32]byte, holder [20]byte) (*big.Int, error) {
	balance, ok := m.balances[balanceKey(class, holder)]
	if !ok {
		return nil, nil
	}
	return new(big.Int).Set(balance), nil
}

func (m *mockLedgerState) TokenBalancePut(class [32]byte, holder [20]byte, amount *big.Int) error {
	m.balances[balanceKey(class, holder)] = new(big.Int).Set(amount)
	return nil
}

func holderAddr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

func newTestLedger() (*Ledger, *mockLedgerState) {
	ledger := NewLedger()
	state := newMockLedgerState()
	ledger.SetState(state)
	ledger.SetNowFunc(func() int64 { return 1_700_000_000 })
	return ledger, state
}

func TestCreateClass(t *testing.T) {
	ledger, state := newTestLedger()
	owner := holderAddr(0x10)

	id, err := ledger.CreateClass(owner)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if id != DeriveClassID(owner) {
		t.Fatalf("class id must derive from the owner")
	}
	class := state.classes[id]
	if class == nil {
		t.Fatalf("class not persisted")
	}
	if class.Owner != owner || class.Decimals != 6 {
		t.Fatalf("unexpected class record: %+v", class)
	}
	if class.TotalMinted.Sign() != 0 {
		t.Fatalf("new class must start with zero minted, got %s", class.TotalMinted)
	}
	if _, err := ledger.CreateClass(owner); !errors.Is(err, ErrClassExists) {
		t.Fatalf("expected ErrClassExists, got %v", err)
	}
}

func TestMint(t *testing.T) {
	ledger, state := newTestLedger()
	owner := holderAddr(0x10)
	id, err := ledger.CreateClass(owner)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := ledger.Mint(id, owner, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	var unknown [32]byte
	unknown[0] = 0x55
	if err := ledger.Mint(unknown, owner, big.NewInt(100)); !errors.Is(err, ErrClassNotFound) {
		t.Fatalf("expected ErrClassNotFound, got %v", err)
	}

	if err := ledger.Mint(id, owner, big.NewInt(900)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if err := ledger.Mint(id, holderAddr(0x20), big.NewInt(100)); err != nil {
		t.Fatalf("second mint failed: %v", err)
	}
	balance, err := ledger.BalanceOf(id, owner)
	if err != nil || balance.Cmp(big.NewInt(900)) != 0 {
		t.Fatalf("owner balance: want 900 got %s / %v", balance, err)
	}
	if state.classes[id].TotalMinted.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("total minted: want 1000 got %s", state.classes[id].TotalMinted)
	}
}

func TestTransfer(t *testing.T) {
	ledger, _ := newTestLedger()
	owner := holderAddr(0x10)
	recipient := holderAddr(0x20)
	id, err := ledger.CreateClass(owner)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := ledger.Mint(id, owner, big.NewInt(500)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	if err := ledger.Transfer(id, owner, recipient, big.NewInt(501)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := ledger.Transfer(id, recipient, owner, big.NewInt(1)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance for empty sender, got %v", err)
	}
	if err := ledger.Transfer(id, owner, recipient, big.NewInt(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := ledger.Transfer(id, owner, recipient, big.NewInt(200)); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	fromBalance, _ := ledger.BalanceOf(id, owner)
	toBalance, _ := ledger.BalanceOf(id, recipient)
	if fromBalance.Cmp(big.NewInt(300)) != 0 || toBalance.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("balances after transfer: %s / %s", fromBalance, toBalance)
	}
}

func TestBalanceOfUnknownHolder(t *testing.T) {
	ledger, _ := newTestLedger()
	owner := holderAddr(0x10)
	id, err := ledger.CreateClass(owner)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	balance, err := ledger.BalanceOf(id, holderAddr(0x99))
	if err != nil {
		t.Fatalf("balance lookup failed: %v", err)
	}
	if balance.Sign() != 0 {
		t.Fatalf("unknown holder must have a zero balance, got %s", balance)
	}
}
