// Package engine defines the contract between the cashubind facade and an
// external ecash wallet engine. The engine owns all protocol and cryptographic
// behaviour (blind signatures, proof selection, keyset management, Lightning
// settlement); this package only names the operations and the domain types
// they exchange.
package engine

import (
	"context"
	"errors"
)

// Amount is the engine's native monetary magnitude, denominated in the
// wallet's currency unit.
type Amount uint64

type CurrencyUnit string

const (
	UnitSat  CurrencyUnit = "sat"
	UnitMsat CurrencyUnit = "msat"
	UnitUsd  CurrencyUnit = "usd"
	UnitEur  CurrencyUnit = "eur"
)

// MintQuoteState is an open, string-backed set: engines are free to report
// states beyond the three the protocol defines today.
type MintQuoteState string

const (
	QuoteUnpaid MintQuoteState = "UNPAID"
	QuotePaid   MintQuoteState = "PAID"
	QuoteIssued MintQuoteState = "ISSUED"
)

type SplitTarget string

const (
	SplitNone    SplitTarget = "none"
	SplitDefault SplitTarget = "default"
)

// SendKind selects proof-selection policy for a send. A nil Tolerance means
// the selected proofs must match the requested amount exactly.
type SendKind struct {
	Offline   bool
	Tolerance *Amount
}

type SendMemo struct {
	Memo        string
	IncludeMemo bool
}

// SendOptions mirror the engine's prepare/send knobs. Conditions carries
// spending conditions (P2PK, HTLC); the facade never populates it.
type SendOptions struct {
	Memo        *SendMemo
	Conditions  any
	SplitTarget SplitTarget
	Kind        SendKind
	IncludeFee  bool
	Metadata    map[string]string
	MaxProofs   *uint64
}

type MintQuote struct {
	ID      string
	MintURL string
	Amount  Amount
	Unit    CurrencyUnit
	Request string
	State   MintQuoteState
	Expiry  uint64
}

// QuoteStatus is the engine's answer to polling a previously created mint
// quote.
type QuoteStatus struct {
	Quote   string
	Request string
	State   MintQuoteState
	Expiry  *uint64
}

type MeltQuote struct {
	ID         string
	Unit       CurrencyUnit
	Amount     Amount
	Request    string
	FeeReserve Amount
	Expiry     uint64
	Preimage   *string
}

type Melted struct {
	State    string
	Preimage *string
	Amount   Amount
	FeePaid  Amount
}

// Token is a committed, transferable ecash token. MintURL may be empty when
// the engine could not resolve one from the token's proofs.
type Token struct {
	Encoded string
	MintURL string
	Memo    *string
	Unit    *CurrencyUnit
}

// PreparedSend describes a send the engine has costed but not committed.
// Ref identifies the preparation to the engine for the commit step and has
// no meaning outside it.
type PreparedSend struct {
	Ref      string
	Amount   Amount
	SwapFee  Amount
	SendFee  Amount
	TotalFee Amount
}

type MintInfo struct {
	Name        *string
	Description *string
	Version     *string
}

type KeysetInfo struct {
	ID     string
	Unit   CurrencyUnit
	Active bool
}

// ErrNotFound is returned by Store.Get for absent keys.
var ErrNotFound = errors.New("engine: not found")

// Store is the durable key-value store backing one or more engine instances.
// What lives under each bucket and key is entirely the engine's business;
// implementations must tolerate concurrent access from multiple engines
// sharing one store.
type Store interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, value []byte) error
	Delete(ctx context.Context, bucket, key string) error
	List(ctx context.Context, bucket string) (map[string][]byte, error)
	Close() error
}

// Config carries everything an engine needs to come up for one wallet.
type Config struct {
	MintURL string
	Unit    CurrencyUnit
	Seed    [64]byte
	Store   Store
}

// Factory constructs an engine instance. The facade calls it once per wallet
// handle; the returned engine is exclusively owned by that handle.
type Factory func(ctx context.Context, cfg Config) (Engine, error)

// Engine is the async wallet engine proper. Every method may block on mint
// network traffic or store I/O; callers own serialization.
type Engine interface {
	MintQuote(ctx context.Context, amount Amount, description *string) (MintQuote, error)
	MintQuoteState(ctx context.Context, quoteID string) (QuoteStatus, error)
	Mint(ctx context.Context, quoteID string, target SplitTarget) (Amount, error)
	PrepareSend(ctx context.Context, amount Amount, opts SendOptions) (PreparedSend, error)
	Send(ctx context.Context, prepared PreparedSend, memo *SendMemo) (Token, error)
	MeltQuote(ctx context.Context, request string) (MeltQuote, error)
	Melt(ctx context.Context, quoteID string) (Melted, error)
	Balance(ctx context.Context) (Amount, error)
	MintInfo(ctx context.Context) (*MintInfo, error)
	Keysets(ctx context.Context) ([]KeysetInfo, error)
	Restore(ctx context.Context) error
	Close() error
}
