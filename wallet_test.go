package cashubind

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/cashubind/cashubind/engine"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// fakeEngine is an in-memory engine with just enough bookkeeping to drive
// the facade. Its counters are deliberately unsynchronized: the facade's
// execution context is the only thing allowed to touch it.
type fakeEngine struct {
	cfg     engine.Config
	balance engine.Amount
	quotes  map[string]engine.MintQuoteState
	seq     int

	prepareCalls int
	restored     bool
	closed       bool

	restoreErr error
	keysetsErr error
	info       *engine.MintInfo
	infoOnTap  *engine.MintInfo // becomes visible after a keyset fetch
	tapped     bool
}

func newFakeEngine(cfg engine.Config) *fakeEngine {
	return &fakeEngine{cfg: cfg, quotes: map[string]engine.MintQuoteState{}}
}

func fakeFactory(sink **fakeEngine) engine.Factory {
	return func(ctx context.Context, cfg engine.Config) (engine.Engine, error) {
		e := newFakeEngine(cfg)
		if sink != nil {
			*sink = e
		}
		return e, nil
	}
}

func (e *fakeEngine) MintQuote(ctx context.Context, amount engine.Amount, description *string) (engine.MintQuote, error) {
	e.seq++
	id := fmt.Sprintf("quote-%d", e.seq)
	e.quotes[id] = engine.QuoteUnpaid
	return engine.MintQuote{
		ID:      id,
		MintURL: e.cfg.MintURL,
		Amount:  amount,
		Unit:    e.cfg.Unit,
		Request: "lnbc" + id,
		State:   engine.QuoteUnpaid,
		Expiry:  1700000000,
	}, nil
}

func (e *fakeEngine) MintQuoteState(ctx context.Context, quoteID string) (engine.QuoteStatus, error) {
	state, ok := e.quotes[quoteID]
	if !ok {
		return engine.QuoteStatus{}, errors.New("unknown quote " + quoteID)
	}
	return engine.QuoteStatus{Quote: quoteID, Request: "lnbc" + quoteID, State: state}, nil
}

func (e *fakeEngine) Mint(ctx context.Context, quoteID string, target engine.SplitTarget) (engine.Amount, error) {
	if _, ok := e.quotes[quoteID]; !ok {
		return 0, errors.New("unknown quote " + quoteID)
	}
	e.quotes[quoteID] = engine.QuoteIssued
	e.balance += 1000
	return 1000, nil
}

func (e *fakeEngine) PrepareSend(ctx context.Context, amount engine.Amount, opts engine.SendOptions) (engine.PreparedSend, error) {
	e.prepareCalls++
	if amount > e.balance {
		return engine.PreparedSend{}, errors.New("insufficient funds")
	}
	return engine.PreparedSend{Ref: fmt.Sprintf("prep-%d", e.prepareCalls), Amount: amount, SendFee: 1, TotalFee: 1}, nil
}

func (e *fakeEngine) Send(ctx context.Context, prepared engine.PreparedSend, memo *engine.SendMemo) (engine.Token, error) {
	total := prepared.Amount + prepared.TotalFee
	if total > e.balance {
		return engine.Token{}, errors.New("insufficient funds")
	}
	e.balance -= total
	unit := e.cfg.Unit
	var m *string
	if memo != nil && memo.IncludeMemo {
		m = &memo.Memo
	}
	return engine.Token{Encoded: "cashuB" + prepared.Ref, MintURL: e.cfg.MintURL, Memo: m, Unit: &unit}, nil
}

func (e *fakeEngine) MeltQuote(ctx context.Context, request string) (engine.MeltQuote, error) {
	return engine.MeltQuote{ID: "melt-1", Unit: e.cfg.Unit, Amount: 21, Request: request, FeeReserve: 2, Expiry: 1700000000}, nil
}

func (e *fakeEngine) Melt(ctx context.Context, quoteID string) (engine.Melted, error) {
	if quoteID != "melt-1" {
		return engine.Melted{}, errors.New("unknown melt quote " + quoteID)
	}
	preimage := "00ff"
	return engine.Melted{State: "PAID", Preimage: &preimage, Amount: 21, FeePaid: 2}, nil
}

func (e *fakeEngine) Balance(ctx context.Context) (engine.Amount, error) {
	return e.balance, nil
}

func (e *fakeEngine) MintInfo(ctx context.Context) (*engine.MintInfo, error) {
	if e.info != nil {
		return e.info, nil
	}
	if e.tapped {
		return e.infoOnTap, nil
	}
	return nil, nil
}

func (e *fakeEngine) Keysets(ctx context.Context) ([]engine.KeysetInfo, error) {
	if e.keysetsErr != nil {
		return nil, e.keysetsErr
	}
	e.tapped = true
	return []engine.KeysetInfo{
		{ID: "00aa", Unit: e.cfg.Unit, Active: true},
		{ID: "00bb", Unit: e.cfg.Unit, Active: false},
	}, nil
}

func (e *fakeEngine) Restore(ctx context.Context) error {
	if e.restoreErr != nil {
		return e.restoreErr
	}
	e.restored = true
	return nil
}

func (e *fakeEngine) Close() error {
	e.closed = true
	return nil
}

func newTestWallet(t *testing.T, fe **fakeEngine) *Wallet {
	t.Helper()
	store := NewLocalStoreWith(memStore{})
	w, err := NewWalletFromMnemonic("https://mint.example", Sat, store, testMnemonic, fakeFactory(fe))
	if err != nil {
		t.Fatalf("NewWalletFromMnemonic: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

// memStore is a no-op store standing in for the real persistence collaborator.
type memStore struct{}

func (memStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	return nil, engine.ErrNotFound
}
func (memStore) Put(ctx context.Context, bucket, key string, value []byte) error { return nil }
func (memStore) Delete(ctx context.Context, bucket, key string) error            { return nil }
func (memStore) List(ctx context.Context, bucket string) (map[string][]byte, error) {
	return map[string][]byte{}, nil
}
func (memStore) Close() error { return nil }

func TestEndToEndQuoteAndBalance(t *testing.T) {
	// Real store file at an explicit path, fresh wallet from a valid
	// mnemonic, one quote, empty balance.
	store, err := NewLocalStoreAtPath(filepath.Join(t.TempDir(), "wallet.db"))
	if err != nil {
		t.Fatalf("NewLocalStoreAtPath: %v", err)
	}
	defer store.Close()

	var fe *fakeEngine
	w, err := NewWalletFromMnemonic("https://mint.example", Sat, store, testMnemonic, fakeFactory(&fe))
	if err != nil {
		t.Fatalf("NewWalletFromMnemonic: %v", err)
	}
	defer w.Close()

	quote, err := w.MintQuote(Amount{Value: 1000}, nil)
	if err != nil {
		t.Fatalf("MintQuote: %v", err)
	}
	if quote.Amount.Value != 1000 {
		t.Fatalf("quote amount %d want 1000", quote.Amount.Value)
	}
	if quote.State != MintQuoteUnpaid {
		t.Fatalf("quote state %q want %q", quote.State, MintQuoteUnpaid)
	}
	if quote.MintURL != "https://mint.example" || quote.Unit != "sat" {
		t.Fatalf("quote identity mangled: %#v", quote)
	}

	balance, err := w.Balance()
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance.Value != 0 {
		t.Fatalf("fresh wallet balance %d want 0", balance.Value)
	}
}

func TestConstructorInputValidation(t *testing.T) {
	store := NewLocalStoreWith(memStore{})

	_, err := NewWalletFromMnemonic("https://mint.example", Sat, store, "not a mnemonic", fakeFactory(nil))
	if KindOf(err) != KindInvalidInput {
		t.Fatalf("bad mnemonic kind=%q want %q", KindOf(err), KindInvalidInput)
	}

	_, err = NewWalletFromMnemonic("https://mint.example", CurrencyUnit("doge"), store, testMnemonic, fakeFactory(nil))
	if KindOf(err) != KindInvalidInput {
		t.Fatalf("bad unit kind=%q want %q", KindOf(err), KindInvalidInput)
	}

	_, err = NewWalletFromMnemonic("https://mint.example", Sat, nil, testMnemonic, fakeFactory(nil))
	if KindOf(err) != KindInvalidInput {
		t.Fatalf("nil store kind=%q want %q", KindOf(err), KindInvalidInput)
	}

	_, err = NewWalletFromMnemonic("https://mint.example", Sat, store, testMnemonic, nil)
	if KindOf(err) != KindInvalidInput {
		t.Fatalf("nil factory kind=%q want %q", KindOf(err), KindInvalidInput)
	}

	// Unit text parses case-insensitively through the constructor too.
	w, err := NewWalletFromMnemonic("https://mint.example", CurrencyUnit("SAT"), store, testMnemonic, fakeFactory(nil))
	if err != nil {
		t.Fatalf("upper-case unit rejected: %v", err)
	}
	if w.Unit() != "sat" {
		t.Fatalf("unit %q want sat", w.Unit())
	}
	_ = w.Close()
}

func TestSeedReachesEngine(t *testing.T) {
	var fe *fakeEngine
	_ = newTestWallet(t, &fe)

	var zero [64]byte
	if fe.cfg.Seed == zero {
		t.Fatal("engine received an all-zero seed")
	}
	if fe.cfg.MintURL != "https://mint.example" || fe.cfg.Unit != engine.UnitSat {
		t.Fatalf("engine config mangled: %#v", fe.cfg)
	}
	if fe.cfg.Store == nil {
		t.Fatal("engine received no store")
	}
}

func TestRestoreFromMnemonic(t *testing.T) {
	var fe *fakeEngine
	store := NewLocalStoreWith(memStore{})
	w, err := RestoreFromMnemonic("https://mint.example", Sat, store, testMnemonic, fakeFactory(&fe))
	if err != nil {
		t.Fatalf("RestoreFromMnemonic: %v", err)
	}
	defer w.Close()
	if !fe.restored {
		t.Fatal("engine restore never ran")
	}
}

func TestRestoreFailureYieldsNoHandle(t *testing.T) {
	factory := func(ctx context.Context, cfg engine.Config) (engine.Engine, error) {
		e := newFakeEngine(cfg)
		e.restoreErr = errors.New("mint unreachable during scan")
		return e, nil
	}
	store := NewLocalStoreWith(memStore{})

	w, err := RestoreFromMnemonic("https://mint.example", Sat, store, testMnemonic, factory)
	if w != nil {
		t.Fatal("got a handle despite restore failure")
	}
	if KindOf(err) != KindWallet {
		t.Fatalf("kind=%q want %q", KindOf(err), KindWallet)
	}
	if !strings.Contains(err.Error(), "mint unreachable during scan") {
		t.Fatalf("restore failure message lost: %v", err)
	}
}

func TestMintFlow(t *testing.T) {
	var fe *fakeEngine
	w := newTestWallet(t, &fe)

	quote, err := w.MintQuote(Amount{Value: 1000}, nil)
	if err != nil {
		t.Fatalf("MintQuote: %v", err)
	}

	status, err := w.MintQuoteState(quote.ID)
	if err != nil {
		t.Fatalf("MintQuoteState: %v", err)
	}
	if status.State != MintQuoteUnpaid {
		t.Fatalf("state %q want unpaid", status.State)
	}

	minted, err := w.Mint(quote.ID, SplitTargetDefault)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if minted.Value != 1000 {
		t.Fatalf("minted %d want 1000", minted.Value)
	}

	balance, err := w.Balance()
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance.Value != 1000 {
		t.Fatalf("balance %d want 1000", balance.Value)
	}

	status, err = w.MintQuoteState(quote.ID)
	if err != nil {
		t.Fatalf("MintQuoteState: %v", err)
	}
	if status.State != MintQuoteIssued {
		t.Fatalf("state %q want issued", status.State)
	}

	// Unknown quote surfaces as a wallet error with the engine's text.
	_, err = w.Mint("no-such-quote", SplitTargetNone)
	if KindOf(err) != KindWallet {
		t.Fatalf("kind=%q want %q", KindOf(err), KindWallet)
	}
}

func TestPrepareSendDoesNotMutate(t *testing.T) {
	var fe *fakeEngine
	w := newTestWallet(t, &fe)

	quote, _ := w.MintQuote(Amount{Value: 1000}, nil)
	if _, err := w.Mint(quote.ID, SplitTargetDefault); err != nil {
		t.Fatalf("Mint: %v", err)
	}

	opts := SendOptions{Kind: SendKindOnlineExact{}, IncludeFee: true}
	first, err := w.PrepareSend(Amount{Value: 100}, opts)
	if err != nil {
		t.Fatalf("PrepareSend: %v", err)
	}
	second, err := w.PrepareSend(Amount{Value: 100}, opts)
	if err != nil {
		t.Fatalf("PrepareSend: %v", err)
	}
	if first.Amount != second.Amount || first.TotalFee != second.TotalFee {
		t.Fatalf("breakdowns differ: %#v vs %#v", first, second)
	}

	balance, _ := w.Balance()
	if balance.Value != 1000 {
		t.Fatalf("prepare mutated balance: %d", balance.Value)
	}
}

func TestSendCommitsAndReturnsToken(t *testing.T) {
	var fe *fakeEngine
	w := newTestWallet(t, &fe)

	quote, _ := w.MintQuote(Amount{Value: 1000}, nil)
	if _, err := w.Mint(quote.ID, SplitTargetDefault); err != nil {
		t.Fatalf("Mint: %v", err)
	}

	token, err := w.Send(Amount{Value: 100}, SendOptions{Kind: SendKindOnlineExact{}}, &SendMemo{Memo: "coffee", IncludeMemo: true})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if token.Mint != "https://mint.example" || token.Unit != "sat" {
		t.Fatalf("token identity mangled: %#v", token)
	}
	if token.Memo == nil || *token.Memo != "coffee" {
		t.Fatalf("memo lost: %v", token.Memo)
	}

	balance, _ := w.Balance()
	if balance.Value != 899 { // 1000 - 100 - 1 fee
		t.Fatalf("balance after send %d want 899", balance.Value)
	}

	// Each Send prepares again internally.
	if fe.prepareCalls != 1 {
		t.Fatalf("prepare calls %d want 1", fe.prepareCalls)
	}
	if _, err := w.PrepareSend(Amount{Value: 10}, SendOptions{}); err != nil {
		t.Fatalf("PrepareSend: %v", err)
	}
	if _, err := w.Send(Amount{Value: 10}, SendOptions{}, nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if fe.prepareCalls != 3 {
		t.Fatalf("prepare calls %d want 3", fe.prepareCalls)
	}
}

func TestMeltFlow(t *testing.T) {
	var fe *fakeEngine
	w := newTestWallet(t, &fe)

	quote, err := w.MeltQuote("lnbc210n1...")
	if err != nil {
		t.Fatalf("MeltQuote: %v", err)
	}
	if quote.Amount.Value != 21 || quote.FeeReserve.Value != 2 {
		t.Fatalf("unexpected melt quote: %#v", quote)
	}

	melted, err := w.Melt(quote.ID)
	if err != nil {
		t.Fatalf("Melt: %v", err)
	}
	if melted.State != "PAID" || melted.Preimage == nil {
		t.Fatalf("unexpected melted: %#v", melted)
	}
	if melted.FeePaid.Value != 2 {
		t.Fatalf("fee paid %d want 2", melted.FeePaid.Value)
	}

	_, err = w.Melt("bogus")
	if KindOf(err) != KindWallet {
		t.Fatalf("kind=%q want %q", KindOf(err), KindWallet)
	}
}

func TestGetMintInfoOutcomes(t *testing.T) {
	name := "Money Printer"

	t.Run("already cached", func(t *testing.T) {
		var fe *fakeEngine
		w := newTestWallet(t, &fe)
		fe.info = &engine.MintInfo{Name: &name}

		status, err := w.GetMintInfo()
		if err != nil {
			t.Fatalf("GetMintInfo: %v", err)
		}
		if status.Outcome != MintInfoAlreadyCached || status.Name != name {
			t.Fatalf("unexpected status: %#v", status)
		}
	})

	t.Run("fetched and cached", func(t *testing.T) {
		var fe *fakeEngine
		w := newTestWallet(t, &fe)
		fe.infoOnTap = &engine.MintInfo{Name: &name}

		status, err := w.GetMintInfo()
		if err != nil {
			t.Fatalf("GetMintInfo: %v", err)
		}
		if status.Outcome != MintInfoFetchedAndCached || status.Name != name || status.Keysets != 2 {
			t.Fatalf("unexpected status: %#v", status)
		}
	})

	t.Run("partially available", func(t *testing.T) {
		var fe *fakeEngine
		w := newTestWallet(t, &fe)

		status, err := w.GetMintInfo()
		if err != nil {
			t.Fatalf("GetMintInfo: %v", err)
		}
		if status.Outcome != MintInfoPartiallyAvailable || status.Keysets != 2 {
			t.Fatalf("unexpected status: %#v", status)
		}
	})

	t.Run("fetch failed is still a value", func(t *testing.T) {
		var fe *fakeEngine
		w := newTestWallet(t, &fe)
		fe.keysetsErr = errors.New("mint offline")

		status, err := w.GetMintInfo()
		if err != nil {
			t.Fatalf("GetMintInfo must not fail outward: %v", err)
		}
		if status.Outcome != MintInfoFetchFailed || !strings.Contains(status.Reason, "mint offline") {
			t.Fatalf("unexpected status: %#v", status)
		}
	})

	t.Run("nameless mint gets a placeholder", func(t *testing.T) {
		var fe *fakeEngine
		w := newTestWallet(t, &fe)
		fe.info = &engine.MintInfo{}

		status, err := w.GetMintInfo()
		if err != nil {
			t.Fatalf("GetMintInfo: %v", err)
		}
		if status.Name != "Unknown Mint" {
			t.Fatalf("name %q want placeholder", status.Name)
		}
	})
}

func TestConcurrentOperationsSerializeOnOneHandle(t *testing.T) {
	var fe *fakeEngine
	w := newTestWallet(t, &fe)

	quote, _ := w.MintQuote(Amount{Value: 1000}, nil)
	if _, err := w.Mint(quote.ID, SplitTargetDefault); err != nil {
		t.Fatalf("Mint: %v", err)
	}

	// fakeEngine.prepareCalls is unsynchronized; a correct total proves the
	// facade serialized every call.
	const n = 32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := w.PrepareSend(Amount{Value: 1}, SendOptions{}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if fe.prepareCalls != n {
		t.Fatalf("prepare calls %d want %d", fe.prepareCalls, n)
	}
}

func TestClosedHandle(t *testing.T) {
	var fe *fakeEngine
	store := NewLocalStoreWith(memStore{})
	w, err := NewWalletFromMnemonic("https://mint.example", Sat, store, testMnemonic, fakeFactory(&fe))
	if err != nil {
		t.Fatalf("NewWalletFromMnemonic: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !fe.closed {
		t.Fatal("engine not closed with handle")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	_, err = w.Balance()
	if KindOf(err) != KindInternal {
		t.Fatalf("op on closed handle kind=%q want %q", KindOf(err), KindInternal)
	}

	// Identity accessors stay usable; they never touch the engine.
	if w.MintURL() != "https://mint.example" || w.Unit() != "sat" {
		t.Fatalf("accessors broken after close: %q %q", w.MintURL(), w.Unit())
	}
}

func TestWalletsAreIndependent(t *testing.T) {
	store := NewLocalStoreWith(memStore{})

	var fe1, fe2 *fakeEngine
	w1, err := NewWalletFromMnemonic("https://mint.one", Sat, store, testMnemonic, fakeFactory(&fe1))
	if err != nil {
		t.Fatal(err)
	}
	defer w1.Close()
	w2, err := NewWalletFromMnemonic("https://mint.two", Usd, store, testMnemonic, fakeFactory(&fe2))
	if err != nil {
		t.Fatal(err)
	}
	defer w2.Close()

	quote, _ := w1.MintQuote(Amount{Value: 500}, nil)
	if _, err := w1.Mint(quote.ID, SplitTargetDefault); err != nil {
		t.Fatal(err)
	}

	b1, _ := w1.Balance()
	b2, _ := w2.Balance()
	if b1.Value == 0 || b2.Value != 0 {
		t.Fatalf("balances leaked across handles: %d %d", b1.Value, b2.Value)
	}
	if fe1.cfg.Store != fe2.cfg.Store {
		t.Fatal("wallets do not share the store")
	}
}
