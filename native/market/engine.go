package market

import (
	"encoding/binary"
	"errors"
	"math/big"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"rackledger/core/events"
	"rackledger/core/types"
)

var (
	errNilState        = errors.New("market engine: state not configured")
	errTokensNotSet    = errors.New("market engine: token ledger not configured")
	errPoolNotSet      = errors.New("market engine: allocation pool not configured")
	errAuthorityNotSet = errors.New("market engine: authorization policy not configured")

	// ErrAlreadyInitialized indicates the platform singleton already exists.
	ErrAlreadyInitialized = errors.New("market: platform already initialized")
	// ErrNotInitialized indicates an operation arrived before platform setup.
	ErrNotInitialized = errors.New("market: platform not initialized")
	// ErrFeeBpsRange indicates a fee rate above the 10000 bps ceiling.
	ErrFeeBpsRange = errors.New("market: fee bps out of range")
	// ErrFieldTooLong indicates a profile field exceeded its maximum length.
	ErrFieldTooLong = errors.New("market: field exceeds maximum length")
	// ErrDesignerExists indicates the owner identity is already registered.
	ErrDesignerExists = errors.New("market: designer already registered")
	// ErrDesignerNotFound indicates no profile exists for the owner identity.
	ErrDesignerNotFound = errors.New("market: designer not found")
	// ErrDesignNotFound indicates the design identifier is unknown.
	ErrDesignNotFound = errors.New("market: design not found")
	// ErrInvalidPrice indicates a non-positive listing price.
	ErrInvalidPrice = errors.New("market: price must be positive")
	// ErrInvalidInventory indicates a non-positive initial inventory.
	ErrInvalidInventory = errors.New("market: inventory must be positive")
	// ErrInvalidQuantity indicates a non-positive quantity or supply input.
	ErrInvalidQuantity = errors.New("market: quantity must be positive")
	// ErrInvalidAmount indicates a non-positive payment amount.
	ErrInvalidAmount = errors.New("market: amount must be positive")
	// ErrInsufficientInventory indicates the purchase exceeds remaining stock.
	ErrInsufficientInventory = errors.New("market: insufficient inventory")
	// ErrInsufficientFunds indicates the source balance cannot cover a transfer.
	ErrInsufficientFunds = errors.New("market: insufficient balance")
	// ErrNotOwner indicates the caller does not own the design.
	ErrNotOwner = errors.New("market: caller is not the design owner")
	// ErrOverflow indicates an arithmetic result outside the payment domain.
	ErrOverflow = errors.New("market: arithmetic overflow")
	// ErrUnauthorized indicates the authorization policy rejected the caller.
	ErrUnauthorized = errors.New("market: unauthorized")
	// ErrAlreadyDistributed indicates a repeat payout for the same design,
	// epoch and holder.
	ErrAlreadyDistributed = errors.New("market: holder already paid for epoch")
)

// Profile field limits, enforced at registration.
const (
	MaxDisplayNameLen = 50
	MaxBioURILen      = 200
)

type engineState interface {
	PlatformGet() (*PlatformState, bool, error)
	PlatformPut(*PlatformState) error
	DesignerGet(owner [20]byte) (*DesignerProfile, bool, error)
	DesignerPut(*DesignerProfile) error
	DesignGet(id [32]byte) (*Design, bool, error)
	DesignPut(*Design) error
	DistributionGet(design [32]byte, epoch uint64, holder [20]byte) (*DistributionRecord, bool, error)
	DistributionPut(*DistributionRecord) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// TokenLedger is the external token-issuance collaborator. The engine only
// asks it to create a class and mint the fixed allocation; balances, holder
// enumeration and transfers stay outside this core.
type TokenLedger interface {
	CreateClass(owner [20]byte) ([32]byte, error)
	Mint(class [32]byte, to [20]byte, amount *big.Int) error
}

// AuthPolicy decides whether a set of signers may execute a treasury-scoped
// action. Production deployments are expected to plug in a multi-party
// policy; SingleAuthorityPolicy covers the single-signer case.
type AuthPolicy interface {
	Authorize(action string, signers ...[20]byte) error
}

// Actions evaluated against the authorization policy.
const (
	ActionWithdrawFee = "fee.withdraw"
	ActionSweepEscrow = "escrow.sweep"
)

// SingleAuthorityPolicy authorizes any action signed by the configured
// authority address.
type SingleAuthorityPolicy struct {
	Authority [20]byte
}

// Authorize implements AuthPolicy.
func (p SingleAuthorityPolicy) Authorize(action string, signers ...[20]byte) error {
	for _, signer := range signers {
		if signer == p.Authority && signer != ([20]byte{}) {
			return nil
		}
	}
	return ErrUnauthorized
}

// Engine wires the marketplace business logic with persistence, the token
// ledger collaborator and event emission.
type Engine struct {
	state     engineState
	tokens    TokenLedger
	authority AuthPolicy
	emitter   events.Emitter
	pool      [20]byte
	nowFn     func() int64
}

// NewEngine constructs a market engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetTokenLedger configures the token-issuance collaborator.
func (e *Engine) SetTokenLedger(tokens TokenLedger) { e.tokens = tokens }

// SetAuthPolicy configures the policy gating treasury-scoped operations.
func (e *Engine) SetAuthPolicy(policy AuthPolicy) { e.authority = policy }

// SetPoolAddress configures the account that receives the pool share of
// every designer token allocation.
func (e *Engine) SetPoolAddress(addr [20]byte) { e.pool = addr }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{Balance: big.NewInt(0)}
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return acc
}

// DeriveDesignID computes the deterministic design identifier for the owner
// and the platform-wide design sequence number current at creation time.
func DeriveDesignID(owner [20]byte, seq uint64) [32]byte {
	var seqBytes [8]byte
	binary.BigEndian.PutUint64(seqBytes[:], seq)
	return ethcrypto.Keccak256Hash([]byte("market/design"), owner[:], seqBytes[:])
}

// EscrowAddress derives the account that holds a design's undistributed sale
// revenue. One escrow exists per design.
func EscrowAddress(designID [32]byte) [20]byte {
	hash := ethcrypto.Keccak256([]byte("market/escrow"), designID[:])
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}

func (e *Engine) loadPlatform() (*PlatformState, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	platform, ok, err := e.state.PlatformGet()
	if err != nil {
		return nil, err
	}
	if !ok || platform == nil {
		return nil, ErrNotInitialized
	}
	return platform, nil
}

func (e *Engine) loadDesign(id [32]byte) (*Design, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	design, ok, err := e.state.DesignGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || design == nil {
		return nil, ErrDesignNotFound
	}
	return design, nil
}

// transferBalance moves payment units between two accounts. The source must
// cover the full amount; partial transfers never happen.
func (e *Engine) transferBalance(from, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	fromAcc, err := e.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	fromAcc = ensureAccount(fromAcc)
	if fromAcc.Balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	// A self-transfer would read the account into two independent copies and
	// let the credit overwrite the debit, inflating the balance. It moves
	// nothing, so stop here once the funds check has passed.
	if from == to {
		return nil
	}
	toAcc, err := e.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	toAcc = ensureAccount(toAcc)
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amount)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amount)
	if err := e.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to[:], toAcc)
}

// InitializePlatform creates the platform singleton with the treasury
// identity and fee rate. It fails if called twice. Fee rates above 10000 bps
// are rejected so a sale's fee can never exceed its total.
func (e *Engine) InitializePlatform(treasury [20]byte, feeBps uint32) (*PlatformState, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if feeBps > 10_000 {
		return nil, ErrFeeBpsRange
	}
	if _, ok, err := e.state.PlatformGet(); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyInitialized
	}
	platform := &PlatformState{
		Treasury: treasury,
		FeeBps:   feeBps,
	}
	if err := e.state.PlatformPut(platform); err != nil {
		return nil, err
	}
	return platform.Clone(), nil
}

// RegisterDesigner creates a creator profile, requests the token class and
// the fixed 90/10 allocation from the token ledger, and bumps the platform
// designer counter. Exactly one profile can exist per owner identity.
func (e *Engine) RegisterDesigner(owner [20]byte, displayName, bioURI string) (*DesignerProfile, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.tokens == nil {
		return nil, errTokensNotSet
	}
	if isZeroAddress(e.pool) {
		return nil, errPoolNotSet
	}
	if len(displayName) > MaxDisplayNameLen || len(bioURI) > MaxBioURILen {
		return nil, ErrFieldTooLong
	}
	platform, err := e.loadPlatform()
	if err != nil {
		return nil, err
	}
	if _, ok, err := e.state.DesignerGet(owner); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrDesignerExists
	}
	classID, err := e.tokens.CreateClass(owner)
	if err != nil {
		return nil, err
	}
	designerShare, poolShare := allocationSplit()
	if err := e.tokens.Mint(classID, owner, designerShare); err != nil {
		return nil, err
	}
	if err := e.tokens.Mint(classID, e.pool, poolShare); err != nil {
		return nil, err
	}
	profile := &DesignerProfile{
		Owner:        owner,
		DisplayName:  displayName,
		BioURI:       bioURI,
		TokenClassID: classID,
		CreatedAt:    e.now(),
	}
	if err := e.state.DesignerPut(profile); err != nil {
		return nil, err
	}
	platform.DesignerCount++
	if err := e.state.PlatformPut(platform); err != nil {
		return nil, err
	}
	e.emit(DesignerRegisteredEvent(profile))
	return profile.Clone(), nil
}
