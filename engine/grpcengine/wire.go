package grpcengine

import "github.com/cashubind/cashubind/engine"

const (
	methodOpen           = "/cashubind.v1.WalletEngine/Open"
	methodMintQuote      = "/cashubind.v1.WalletEngine/MintQuote"
	methodMintQuoteState = "/cashubind.v1.WalletEngine/MintQuoteState"
	methodMint           = "/cashubind.v1.WalletEngine/Mint"
	methodPrepareSend    = "/cashubind.v1.WalletEngine/PrepareSend"
	methodSend           = "/cashubind.v1.WalletEngine/Send"
	methodMeltQuote      = "/cashubind.v1.WalletEngine/MeltQuote"
	methodMelt           = "/cashubind.v1.WalletEngine/Melt"
	methodBalance        = "/cashubind.v1.WalletEngine/Balance"
	methodMintInfo       = "/cashubind.v1.WalletEngine/MintInfo"
	methodKeysets        = "/cashubind.v1.WalletEngine/Keysets"
	methodRestore        = "/cashubind.v1.WalletEngine/Restore"
	methodCloseWallet    = "/cashubind.v1.WalletEngine/CloseWallet"
)

type openRequest struct {
	MintURL string `json:"mint_url"`
	Unit    string `json:"unit"`
	Seed    []byte `json:"seed"`
}

type openResponse struct {
	WalletID string `json:"wallet_id"`
}

type walletRequest struct {
	WalletID string `json:"wallet_id"`
}

type mintQuoteRequest struct {
	WalletID    string  `json:"wallet_id"`
	Amount      uint64  `json:"amount"`
	Description *string `json:"description,omitempty"`
}

type mintQuoteResponse struct {
	ID      string `json:"id"`
	MintURL string `json:"mint_url"`
	Amount  uint64 `json:"amount"`
	Unit    string `json:"unit"`
	Request string `json:"request"`
	State   string `json:"state"`
	Expiry  uint64 `json:"expiry"`
}

type quoteStateRequest struct {
	WalletID string `json:"wallet_id"`
	QuoteID  string `json:"quote_id"`
}

type quoteStatusResponse struct {
	Quote   string  `json:"quote"`
	Request string  `json:"request"`
	State   string  `json:"state"`
	Expiry  *uint64 `json:"expiry,omitempty"`
}

type mintRequest struct {
	WalletID    string `json:"wallet_id"`
	QuoteID     string `json:"quote_id"`
	SplitTarget string `json:"split_target"`
}

type amountResponse struct {
	Amount uint64 `json:"amount"`
}

type sendMemoWire struct {
	Memo        string `json:"memo"`
	IncludeMemo bool   `json:"include_memo"`
}

// sendOptionsWire flattens engine.SendOptions. Spending conditions are not
// carried: the facade never populates them, so the wire contract has no slot
// for them yet.
type sendOptionsWire struct {
	Memo        *sendMemoWire     `json:"memo,omitempty"`
	SplitTarget string            `json:"split_target"`
	Offline     bool              `json:"offline"`
	Tolerance   *uint64           `json:"tolerance,omitempty"`
	IncludeFee  bool              `json:"include_fee"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	MaxProofs   *uint64           `json:"max_proofs,omitempty"`
}

type prepareSendRequest struct {
	WalletID string          `json:"wallet_id"`
	Amount   uint64          `json:"amount"`
	Options  sendOptionsWire `json:"options"`
}

type preparedSendWire struct {
	Ref      string `json:"ref"`
	Amount   uint64 `json:"amount"`
	SwapFee  uint64 `json:"swap_fee"`
	SendFee  uint64 `json:"send_fee"`
	TotalFee uint64 `json:"total_fee"`
}

type sendRequest struct {
	WalletID string           `json:"wallet_id"`
	Prepared preparedSendWire `json:"prepared"`
	Memo     *sendMemoWire    `json:"memo,omitempty"`
}

type tokenResponse struct {
	Encoded string  `json:"encoded"`
	MintURL string  `json:"mint_url,omitempty"`
	Memo    *string `json:"memo,omitempty"`
	Unit    *string `json:"unit,omitempty"`
}

type meltQuoteRequest struct {
	WalletID string `json:"wallet_id"`
	Request  string `json:"request"`
}

type meltQuoteResponse struct {
	ID         string  `json:"id"`
	Unit       string  `json:"unit"`
	Amount     uint64  `json:"amount"`
	Request    string  `json:"request"`
	FeeReserve uint64  `json:"fee_reserve"`
	Expiry     uint64  `json:"expiry"`
	Preimage   *string `json:"preimage,omitempty"`
}

type meltRequest struct {
	WalletID string `json:"wallet_id"`
	QuoteID  string `json:"quote_id"`
}

type meltedResponse struct {
	State    string  `json:"state"`
	Preimage *string `json:"preimage,omitempty"`
	Amount   uint64  `json:"amount"`
	FeePaid  uint64  `json:"fee_paid"`
}

type mintInfoResponse struct {
	Known       bool    `json:"known"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Version     *string `json:"version,omitempty"`
}

type keysetWire struct {
	ID     string `json:"id"`
	Unit   string `json:"unit"`
	Active bool   `json:"active"`
}

type keysetsResponse struct {
	Keysets []keysetWire `json:"keysets"`
}

type emptyResponse struct{}

func sendMemoToWire(m *engine.SendMemo) *sendMemoWire {
	if m == nil {
		return nil
	}
	return &sendMemoWire{Memo: m.Memo, IncludeMemo: m.IncludeMemo}
}

func sendMemoFromWire(m *sendMemoWire) *engine.SendMemo {
	if m == nil {
		return nil
	}
	return &engine.SendMemo{Memo: m.Memo, IncludeMemo: m.IncludeMemo}
}

func sendOptionsToWire(o engine.SendOptions) sendOptionsWire {
	var tol *uint64
	if o.Kind.Tolerance != nil {
		v := uint64(*o.Kind.Tolerance)
		tol = &v
	}
	return sendOptionsWire{
		Memo:        sendMemoToWire(o.Memo),
		SplitTarget: string(o.SplitTarget),
		Offline:     o.Kind.Offline,
		Tolerance:   tol,
		IncludeFee:  o.IncludeFee,
		Metadata:    o.Metadata,
		MaxProofs:   o.MaxProofs,
	}
}

func sendOptionsFromWire(o sendOptionsWire) engine.SendOptions {
	var tol *engine.Amount
	if o.Tolerance != nil {
		v := engine.Amount(*o.Tolerance)
		tol = &v
	}
	return engine.SendOptions{
		Memo:        sendMemoFromWire(o.Memo),
		SplitTarget: engine.SplitTarget(o.SplitTarget),
		Kind:        engine.SendKind{Offline: o.Offline, Tolerance: tol},
		IncludeFee:  o.IncludeFee,
		Metadata:    o.Metadata,
		MaxProofs:   o.MaxProofs,
	}
}

func preparedToWire(p engine.PreparedSend) preparedSendWire {
	return preparedSendWire{
		Ref:      p.Ref,
		Amount:   uint64(p.Amount),
		SwapFee:  uint64(p.SwapFee),
		SendFee:  uint64(p.SendFee),
		TotalFee: uint64(p.TotalFee),
	}
}

func preparedFromWire(p preparedSendWire) engine.PreparedSend {
	return engine.PreparedSend{
		Ref:      p.Ref,
		Amount:   engine.Amount(p.Amount),
		SwapFee:  engine.Amount(p.SwapFee),
		SendFee:  engine.Amount(p.SendFee),
		TotalFee: engine.Amount(p.TotalFee),
	}
}

func tokenFromWire(t tokenResponse) engine.Token {
	var unit *engine.CurrencyUnit
	if t.Unit != nil {
		u := engine.CurrencyUnit(*t.Unit)
		unit = &u
	}
	return engine.Token{
		Encoded: t.Encoded,
		MintURL: t.MintURL,
		Memo:    t.Memo,
		Unit:    unit,
	}
}

func tokenToWire(t engine.Token) tokenResponse {
	var unit *string
	if t.Unit != nil {
		u := string(*t.Unit)
		unit = &u
	}
	return tokenResponse{
		Encoded: t.Encoded,
		MintURL: t.MintURL,
		Memo:    t.Memo,
		Unit:    unit,
	}
}
