package cashubind

import (
	"strings"

	"github.com/cashubind/cashubind/engine"
)

// Amount is the boundary rendering of the engine's native amount: a plain
// unsigned 64-bit magnitude. Conversion in either direction never rounds or
// truncates.
type Amount struct {
	Value uint64
}

func amountFromEngine(a engine.Amount) Amount {
	return Amount{Value: uint64(a)}
}

func (a Amount) toEngine() engine.Amount {
	return engine.Amount(a.Value)
}

// CurrencyUnit is the closed set of units the boundary accepts.
type CurrencyUnit string

const (
	Sat  CurrencyUnit = "sat"
	Msat CurrencyUnit = "msat"
	Usd  CurrencyUnit = "usd"
	Eur  CurrencyUnit = "eur"
)

// ParseCurrencyUnit parses unit text case-insensitively. Text outside the
// closed set is rejected, never defaulted.
func ParseCurrencyUnit(unit string) (CurrencyUnit, error) {
	switch strings.ToLower(unit) {
	case "sat":
		return Sat, nil
	case "msat":
		return Msat, nil
	case "usd":
		return Usd, nil
	case "eur":
		return Eur, nil
	default:
		return "", newError(KindInvalidInput, "unknown currency unit: %s", unit)
	}
}

func (u CurrencyUnit) toEngine() engine.CurrencyUnit {
	return engine.CurrencyUnit(u)
}

// MintQuoteState is the boundary's closed view of quote settlement state.
type MintQuoteState string

const (
	MintQuoteUnpaid MintQuoteState = "unpaid"
	MintQuotePaid   MintQuoteState = "paid"
	MintQuoteIssued MintQuoteState = "issued"
)

// mintQuoteStateFromEngine collapses the engine's open state set into the
// boundary's closed one. States this layer does not recognize normalize to
// unpaid; the default is lossy and deliberate.
func mintQuoteStateFromEngine(s engine.MintQuoteState) MintQuoteState {
	switch s {
	case engine.QuoteUnpaid:
		return MintQuoteUnpaid
	case engine.QuotePaid:
		return MintQuotePaid
	case engine.QuoteIssued:
		return MintQuoteIssued
	default:
		return MintQuoteUnpaid
	}
}

type SplitTarget string

const (
	SplitTargetNone    SplitTarget = "none"
	SplitTargetDefault SplitTarget = "default"
)

func (t SplitTarget) toEngine() engine.SplitTarget {
	if t == SplitTargetNone {
		return engine.SplitNone
	}
	return engine.SplitDefault
}

// SendKind selects online/offline proof selection with exactness or a
// tolerance. The set is sealed; tolerance variants carry an amount payload.
type SendKind interface {
	isSendKind()
}

type SendKindOnlineExact struct{}

type SendKindOnlineTolerance struct {
	Tolerance Amount
}

type SendKindOfflineExact struct{}

type SendKindOfflineTolerance struct {
	Tolerance Amount
}

func (SendKindOnlineExact) isSendKind() {}

func (SendKindOnlineTolerance) isSendKind() {}

func (SendKindOfflineExact) isSendKind() {}

func (SendKindOfflineTolerance) isSendKind() {}

func sendKindToEngine(k SendKind) engine.SendKind {
	switch v := k.(type) {
	case SendKindOnlineExact:
		return engine.SendKind{}
	case SendKindOnlineTolerance:
		tol := v.Tolerance.toEngine()
		return engine.SendKind{Tolerance: &tol}
	case SendKindOfflineExact:
		return engine.SendKind{Offline: true}
	case SendKindOfflineTolerance:
		tol := v.Tolerance.toEngine()
		return engine.SendKind{Offline: true, Tolerance: &tol}
	default:
		// nil kind falls back to online exact
		return engine.SendKind{}
	}
}

type SendMemo struct {
	Memo        string
	IncludeMemo bool
}

func (m *SendMemo) toEngine() *engine.SendMemo {
	if m == nil {
		return nil
	}
	return &engine.SendMemo{Memo: m.Memo, IncludeMemo: m.IncludeMemo}
}

type SendOptions struct {
	Memo        *SendMemo
	SplitTarget SplitTarget
	Kind        SendKind
	IncludeFee  bool
	Metadata    map[string]string
	MaxProofs   *uint64
}

func (o SendOptions) toEngine() engine.SendOptions {
	return engine.SendOptions{
		Memo: o.Memo.toEngine(),
		// Spending conditions are not supported at this boundary yet;
		// Conditions stays nil.
		Conditions:  nil,
		SplitTarget: o.SplitTarget.toEngine(),
		Kind:        sendKindToEngine(o.Kind),
		IncludeFee:  o.IncludeFee,
		Metadata:    o.Metadata,
		MaxProofs:   o.MaxProofs,
	}
}

type MintQuote struct {
	ID      string
	MintURL string
	Amount  Amount
	Unit    string
	Request string
	State   MintQuoteState
	Expiry  uint64
}

func mintQuoteFromEngine(q engine.MintQuote) MintQuote {
	return MintQuote{
		ID:      q.ID,
		MintURL: q.MintURL,
		Amount:  amountFromEngine(q.Amount),
		Unit:    string(q.Unit),
		Request: q.Request,
		State:   mintQuoteStateFromEngine(q.State),
		Expiry:  q.Expiry,
	}
}

// MintQuoteStatus is the poll response for a previously created mint quote.
type MintQuoteStatus struct {
	Quote   string
	Request string
	State   MintQuoteState
	Expiry  *uint64
}

func quoteStatusFromEngine(s engine.QuoteStatus) MintQuoteStatus {
	return MintQuoteStatus{
		Quote:   s.Quote,
		Request: s.Request,
		State:   mintQuoteStateFromEngine(s.State),
		Expiry:  s.Expiry,
	}
}

type MeltQuote struct {
	ID         string
	Unit       string
	Amount     Amount
	Request    string
	FeeReserve Amount
	Expiry     uint64
	Preimage   *string
}

func meltQuoteFromEngine(q engine.MeltQuote) MeltQuote {
	return MeltQuote{
		ID:         q.ID,
		Unit:       string(q.Unit),
		Amount:     amountFromEngine(q.Amount),
		Request:    q.Request,
		FeeReserve: amountFromEngine(q.FeeReserve),
		Expiry:     q.Expiry,
		Preimage:   q.Preimage,
	}
}

type Melted struct {
	State    string
	Preimage *string
	Amount   Amount
	FeePaid  Amount
}

func meltedFromEngine(m engine.Melted) Melted {
	return Melted{
		State:    m.State,
		Preimage: m.Preimage,
		Amount:   amountFromEngine(m.Amount),
		FeePaid:  amountFromEngine(m.FeePaid),
	}
}

type Token struct {
	TokenString string
	Mint        string
	Memo        *string
	Unit        string
}

// tokenFromEngine requires the engine token to resolve a mint URL; a token
// without one is a conversion failure, not a default.
func tokenFromEngine(t engine.Token) (Token, error) {
	if t.MintURL == "" {
		return Token{}, newError(KindWallet, "token does not resolve a mint URL")
	}
	unit := ""
	if t.Unit != nil {
		unit = string(*t.Unit)
	}
	return Token{
		TokenString: t.Encoded,
		Mint:        t.MintURL,
		Memo:        t.Memo,
		Unit:        unit,
	}, nil
}

type PreparedSend struct {
	Amount   Amount
	SwapFee  Amount
	SendFee  Amount
	TotalFee Amount
}

func preparedSendFromEngine(p engine.PreparedSend) PreparedSend {
	return PreparedSend{
		Amount:   amountFromEngine(p.Amount),
		SwapFee:  amountFromEngine(p.SwapFee),
		SendFee:  amountFromEngine(p.SendFee),
		TotalFee: amountFromEngine(p.TotalFee),
	}
}
