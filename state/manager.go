package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"rackledger/core/types"
	"rackledger/native/market"
	"rackledger/storage"
	"rackledger/token"
)

// Manager persists marketplace and token records in a key-value store using
// RLP encoding under prefixed keys. It satisfies the state interfaces of
// both the market engine and the token ledger.
type Manager struct {
	db storage.Database
}

// NewManager binds a manager to the supplied database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// KVPut stores the provided value under the supplied key using RLP encoding.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the
// key existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func prefixedKey(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, part := range parts {
		size += len(part)
	}
	key := make([]byte, 0, size)
	key = append(key, prefix...)
	for _, part := range parts {
		key = append(key, part...)
	}
	return key
}

func nonNil(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

// --- Platform singleton ---

type storedPlatform struct {
	Treasury      [20]byte
	FeeBps        uint32
	DesignerCount uint64
	DesignCount   uint64
}

// PlatformGet loads the platform singleton.
func (m *Manager) PlatformGet() (*market.PlatformState, bool, error) {
	var stored storedPlatform
	ok, err := m.KVGet(platformKeyBytes, &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &market.PlatformState{
		Treasury:      stored.Treasury,
		FeeBps:        stored.FeeBps,
		DesignerCount: stored.DesignerCount,
		DesignCount:   stored.DesignCount,
	}, true, nil
}

// PlatformPut stores the platform singleton.
func (m *Manager) PlatformPut(platform *market.PlatformState) error {
	if platform == nil {
		return fmt.Errorf("state: nil platform")
	}
	return m.KVPut(platformKeyBytes, &storedPlatform{
		Treasury:      platform.Treasury,
		FeeBps:        platform.FeeBps,
		DesignerCount: platform.DesignerCount,
		DesignCount:   platform.DesignCount,
	})
}

// --- Designer profiles ---

type storedDesigner struct {
	Owner        [20]byte
	DisplayName  string
	BioURI       string
	TokenClassID [32]byte
	DesignCount  uint32
	UnitsSold    uint64
	CreatedAt    uint64
}

// DesignerGet loads the profile keyed by the owner address.
func (m *Manager) DesignerGet(owner [20]byte) (*market.DesignerProfile, bool, error) {
	var stored storedDesigner
	ok, err := m.KVGet(prefixedKey(designerPrefix, owner[:]), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &market.DesignerProfile{
		Owner:        stored.Owner,
		DisplayName:  stored.DisplayName,
		BioURI:       stored.BioURI,
		TokenClassID: stored.TokenClassID,
		DesignCount:  stored.DesignCount,
		UnitsSold:    stored.UnitsSold,
		CreatedAt:    int64(stored.CreatedAt),
	}, true, nil
}

// DesignerPut stores the profile keyed by the owner address.
func (m *Manager) DesignerPut(profile *market.DesignerProfile) error {
	if profile == nil {
		return fmt.Errorf("state: nil designer profile")
	}
	return m.KVPut(prefixedKey(designerPrefix, profile.Owner[:]), &storedDesigner{
		Owner:        profile.Owner,
		DisplayName:  profile.DisplayName,
		BioURI:       profile.BioURI,
		TokenClassID: profile.TokenClassID,
		DesignCount:  profile.DesignCount,
		UnitsSold:    profile.UnitsSold,
		CreatedAt:    uint64(profile.CreatedAt),
	})
}

// --- Designs ---

type storedDesign struct {
	ID               [32]byte
	Owner            [20]byte
	ContentHash      [32]byte
	ListedAt         uint64
	Price            *big.Int
	Inventory        uint32
	InitialInventory uint32
	TokenClassID     [32]byte
	UnitsSold        uint32
}

// DesignGet loads a design by its identifier.
func (m *Manager) DesignGet(id [32]byte) (*market.Design, bool, error) {
	var stored storedDesign
	ok, err := m.KVGet(prefixedKey(designPrefix, id[:]), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &market.Design{
		ID:               stored.ID,
		Owner:            stored.Owner,
		ContentHash:      stored.ContentHash,
		ListedAt:         int64(stored.ListedAt),
		Price:            nonNil(stored.Price),
		Inventory:        stored.Inventory,
		InitialInventory: stored.InitialInventory,
		TokenClassID:     stored.TokenClassID,
		UnitsSold:        stored.UnitsSold,
	}, true, nil
}

// DesignPut stores a design under its identifier.
func (m *Manager) DesignPut(design *market.Design) error {
	if design == nil {
		return fmt.Errorf("state: nil design")
	}
	return m.KVPut(prefixedKey(designPrefix, design.ID[:]), &storedDesign{
		ID:               design.ID,
		Owner:            design.Owner,
		ContentHash:      design.ContentHash,
		ListedAt:         uint64(design.ListedAt),
		Price:            nonNil(design.Price),
		Inventory:        design.Inventory,
		InitialInventory: design.InitialInventory,
		TokenClassID:     design.TokenClassID,
		UnitsSold:        design.UnitsSold,
	})
}

// --- Distribution ledger ---

type storedDistribution struct {
	DesignID      [32]byte
	Epoch         uint64
	Holder        [20]byte
	Amount        *big.Int
	HolderBalance *big.Int
	TotalSupply   *big.Int
	PaidAt        uint64
}

func distributionKey(design [32]byte, epoch uint64, holder [20]byte) []byte {
	var epochBytes [8]byte
	binary.BigEndian.PutUint64(epochBytes[:], epoch)
	return prefixedKey(distributionPrefix, design[:], epochBytes[:], holder[:])
}

// DistributionGet loads the payout record for a (design, epoch, holder)
// triple if one exists.
func (m *Manager) DistributionGet(design [32]byte, epoch uint64, holder [20]byte) (*market.DistributionRecord, bool, error) {
	var stored storedDistribution
	ok, err := m.KVGet(distributionKey(design, epoch, holder), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &market.DistributionRecord{
		DesignID:      stored.DesignID,
		Epoch:         stored.Epoch,
		Holder:        stored.Holder,
		Amount:        nonNil(stored.Amount),
		HolderBalance: nonNil(stored.HolderBalance),
		TotalSupply:   nonNil(stored.TotalSupply),
		PaidAt:        int64(stored.PaidAt),
	}, true, nil
}

// DistributionPut stores the payout record that blocks repeat payouts for
// the same triple.
func (m *Manager) DistributionPut(record *market.DistributionRecord) error {
	if record == nil {
		return fmt.Errorf("state: nil distribution record")
	}
	return m.KVPut(distributionKey(record.DesignID, record.Epoch, record.Holder), &storedDistribution{
		DesignID:      record.DesignID,
		Epoch:         record.Epoch,
		Holder:        record.Holder,
		Amount:        nonNil(record.Amount),
		HolderBalance: nonNil(record.HolderBalance),
		TotalSupply:   nonNil(record.TotalSupply),
		PaidAt:        uint64(record.PaidAt),
	})
}

// --- Accounts ---

type storedAccount struct {
	Nonce   uint64
	Balance *big.Int
}

// GetAccount loads the payment-unit account for an address. Unknown
// addresses return nil; callers materialise zero accounts themselves.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	var stored storedAccount
	ok, err := m.KVGet(prefixedKey(accountPrefix, addr), &stored)
	if err != nil || !ok {
		return nil, err
	}
	return &types.Account{Nonce: stored.Nonce, Balance: nonNil(stored.Balance)}, nil
}

// PutAccount stores the payment-unit account for an address.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("state: nil account")
	}
	return m.KVPut(prefixedKey(accountPrefix, addr), &storedAccount{
		Nonce:   account.Nonce,
		Balance: nonNil(account.Balance),
	})
}

// --- Token classes and balances ---

type storedTokenClass struct {
	ID          [32]byte
	Owner       [20]byte
	Decimals    uint8
	TotalMinted *big.Int
	CreatedAt   uint64
}

// TokenClassGet loads a token class by identifier.
func (m *Manager) TokenClassGet(id [32]byte) (*token.Class, bool, error) {
	var stored storedTokenClass
	ok, err := m.KVGet(prefixedKey(tokenClassPrefix, id[:]), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &token.Class{
		ID:          stored.ID,
		Owner:       stored.Owner,
		Decimals:    stored.Decimals,
		TotalMinted: nonNil(stored.TotalMinted),
		CreatedAt:   int64(stored.CreatedAt),
	}, true, nil
}

// TokenClassPut stores a token class under its identifier.
func (m *Manager) TokenClassPut(class *token.Class) error {
	if class == nil {
		return fmt.Errorf("state: nil token class")
	}
	return m.KVPut(prefixedKey(tokenClassPrefix, class.ID[:]), &storedTokenClass{
		ID:          class.ID,
		Owner:       class.Owner,
		Decimals:    class.Decimals,
		TotalMinted: nonNil(class.TotalMinted),
		CreatedAt:   uint64(class.CreatedAt),
	})
}

// TokenBalanceGet loads the balance a holder has in a token class. Unknown
// holders return nil.
func (m *Manager) TokenBalanceGet(class [32]byte, holder [20]byte) (*big.Int, error) {
	var stored *big.Int
	ok, err := m.KVGet(prefixedKey(tokenBalancePrefix, class[:], holder[:]), &stored)
	if err != nil || !ok {
		return nil, err
	}
	return nonNil(stored), nil
}

// TokenBalancePut stores the balance a holder has in a token class.
func (m *Manager) TokenBalancePut(class [32]byte, holder [20]byte, amount *big.Int) error {
	return m.KVPut(prefixedKey(tokenBalancePrefix, class[:], holder[:]), nonNil(amount))
}
