package token

import (
	"errors"
	"math/big"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	errNilState = errors.New("token ledger: state not configured")

	// ErrClassExists indicates the owner already has a token class.
	ErrClassExists = errors.New("token: class already exists")
	// ErrClassNotFound indicates the class identifier is unknown.
	ErrClassNotFound = errors.New("token: class not found")
	// ErrInvalidAmount indicates a non-positive mint or transfer amount.
	ErrInvalidAmount = errors.New("token: amount must be positive")
	// ErrInsufficientBalance indicates the sender cannot cover a transfer.
	ErrInsufficientBalance = errors.New("token: insufficient balance")
)

// Class describes a fungible token class issued for a single owner. The
// identifier is derived deterministically from the owner address, which is
// what enforces one class per owner.
type Class struct {
	ID          [32]byte `json:"id"`
	Owner       [20]byte `json:"owner"`
	Decimals    uint8    `json:"decimals"`
	TotalMinted *big.Int `json:"totalMinted"`
	CreatedAt   int64    `json:"createdAt"`
}

// Clone returns a deep copy of the class record.
func (c *Class) Clone() *Class {
	if c == nil {
		return nil
	}
	clone := *c
	if c.TotalMinted != nil {
		clone.TotalMinted = new(big.Int).Set(c.TotalMinted)
	} else {
		clone.TotalMinted = big.NewInt(0)
	}
	return &clone
}

type ledgerState interface {
	TokenClassGet(id [32]byte) (*Class, bool, error)
	TokenClassPut(*Class) error
	TokenBalanceGet(class [32]byte, holder [20]byte) (*big.Int, error)
	TokenBalancePut(class [32]byte, holder [20]byte, amount *big.Int) error
}

// Ledger implements token-class issuance and balance bookkeeping. The market
// engine consumes it through its TokenLedger interface; holder enumeration
// remains the job of external indexers reading the emitted facts.
type Ledger struct {
	state ledgerState
	nowFn func() int64
}

// NewLedger constructs a token ledger with default dependencies.
func NewLedger() *Ledger {
	return &Ledger{
		nowFn: func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the ledger.
func (l *Ledger) SetState(state ledgerState) { l.state = state }

// SetNowFunc overrides the time source used for deterministic testing.
func (l *Ledger) SetNowFunc(now func() int64) {
	if now == nil {
		l.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	l.nowFn = now
}

func (l *Ledger) now() int64 {
	if l == nil || l.nowFn == nil {
		return time.Now().Unix()
	}
	return l.nowFn()
}

// DeriveClassID computes the deterministic class identifier for an owner.
func DeriveClassID(owner [20]byte) [32]byte {
	return ethcrypto.Keccak256Hash([]byte("token/class"), owner[:])
}

// CreateClass issues a new token class for the owner. At most one class can
// exist per owner address.
func (l *Ledger) CreateClass(owner [20]byte) ([32]byte, error) {
	if l == nil || l.state == nil {
		return [32]byte{}, errNilState
	}
	id := DeriveClassID(owner)
	if _, ok, err := l.state.TokenClassGet(id); err != nil {
		return [32]byte{}, err
	} else if ok {
		return [32]byte{}, ErrClassExists
	}
	class := &Class{
		ID:          id,
		Owner:       owner,
		Decimals:    6,
		TotalMinted: big.NewInt(0),
		CreatedAt:   l.now(),
	}
	if err := l.state.TokenClassPut(class); err != nil {
		return [32]byte{}, err
	}
	return id, nil
}

// Mint credits newly issued units of the class to the recipient.
func (l *Ledger) Mint(class [32]byte, to [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	record, ok, err := l.state.TokenClassGet(class)
	if err != nil {
		return err
	}
	if !ok || record == nil {
		return ErrClassNotFound
	}
	balance, err := l.state.TokenBalanceGet(class, to)
	if err != nil {
		return err
	}
	if balance == nil {
		balance = big.NewInt(0)
	}
	if err := l.state.TokenBalancePut(class, to, new(big.Int).Add(balance, amount)); err != nil {
		return err
	}
	record.TotalMinted = new(big.Int).Add(record.TotalMinted, amount)
	return l.state.TokenClassPut(record)
}

// Transfer moves units of the class between holders.
func (l *Ledger) Transfer(class [32]byte, from, to [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if _, ok, err := l.state.TokenClassGet(class); err != nil {
		return err
	} else if !ok {
		return ErrClassNotFound
	}
	fromBalance, err := l.state.TokenBalanceGet(class, from)
	if err != nil {
		return err
	}
	if fromBalance == nil || fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toBalance, err := l.state.TokenBalanceGet(class, to)
	if err != nil {
		return err
	}
	if toBalance == nil {
		toBalance = big.NewInt(0)
	}
	if err := l.state.TokenBalancePut(class, from, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	return l.state.TokenBalancePut(class, to, new(big.Int).Add(toBalance, amount))
}

// BalanceOf reports the holder's balance for the class. Unknown holders have
// a zero balance.
func (l *Ledger) BalanceOf(class [32]byte, holder [20]byte) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	balance, err := l.state.TokenBalanceGet(class, holder)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(balance), nil
}
