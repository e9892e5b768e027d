// Package cashubind exposes an asynchronous ecash wallet engine through a
// synchronous, value-passing surface. Inputs and outputs are plain records
// and enums; the engine's own types never cross the boundary, and every
// failure is one of four error kinds.
package cashubind

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cashubind/cashubind/engine"
	"github.com/cashubind/cashubind/internal/syncexec"
)

// Wallet is a handle to one engine wallet instance. It owns a dedicated
// execution context: every operation runs there and blocks the caller until
// it finishes, so concurrent calls on one handle serialize. Operations on
// different handles are fully independent.
type Wallet struct {
	eng     engine.Engine
	loop    *syncexec.Loop
	mintURL string
	unit    CurrencyUnit
}

// NewWalletFromMnemonic builds a wallet for mintURL and unit over the given
// store, deriving the engine seed from a BIP-39 mnemonic phrase. The engine
// instance comes from open and is exclusively owned by the returned handle.
func NewWalletFromMnemonic(mintURL string, unit CurrencyUnit, store *LocalStore, mnemonic string, open engine.Factory) (*Wallet, error) {
	return newWallet(mintURL, unit, store, mnemonic, open, false)
}

// RestoreFromMnemonic is NewWalletFromMnemonic plus a scan of the store and
// mint for historical proof state. Restore failure returns an error and no
// handle; there is no partially restored state to observe.
func RestoreFromMnemonic(mintURL string, unit CurrencyUnit, store *LocalStore, mnemonic string, open engine.Factory) (*Wallet, error) {
	return newWallet(mintURL, unit, store, mnemonic, open, true)
}

func newWallet(mintURL string, unit CurrencyUnit, store *LocalStore, mnemonic string, open engine.Factory, restore bool) (*Wallet, error) {
	seed, err := mnemonicToSeed(mnemonic)
	if err != nil {
		return nil, err
	}
	u, err := ParseCurrencyUnit(string(unit))
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, newError(KindInvalidInput, "store handle is required")
	}
	if open == nil {
		return nil, newError(KindInvalidInput, "engine factory is required")
	}

	loop := syncexec.New()
	var eng engine.Engine
	err = loop.Do(func(ctx context.Context) error {
		e, err := open(ctx, engine.Config{
			MintURL: mintURL,
			Unit:    u.toEngine(),
			Seed:    seed,
			Store:   store.inner,
		})
		if err != nil {
			return wrapEngine(err)
		}
		if restore {
			if err := e.Restore(ctx); err != nil {
				_ = e.Close()
				return wrapEngine(err)
			}
		}
		eng = e
		return nil
	})
	if err != nil {
		loop.Close()
		return nil, err
	}

	slog.Debug("wallet handle created", "mint", mintURL, "unit", u, "restored", restore)
	return &Wallet{
		eng:     eng,
		loop:    loop,
		mintURL: mintURL,
		unit:    u,
	}, nil
}

// do runs one unit of work on the handle's execution context and normalizes
// a closed handle to an internal error.
func (w *Wallet) do(fn func(ctx context.Context) error) error {
	err := w.loop.Do(fn)
	if errors.Is(err, syncexec.ErrClosed) {
		return newError(KindInternal, "wallet handle is closed")
	}
	return err
}

// MintQuote requests a payment request from the mint for the given amount.
func (w *Wallet) MintQuote(amount Amount, description *string) (MintQuote, error) {
	var out MintQuote
	err := w.do(func(ctx context.Context) error {
		quote, err := w.eng.MintQuote(ctx, amount.toEngine(), description)
		if err != nil {
			return wrapEngine(err)
		}
		out = mintQuoteFromEngine(quote)
		return nil
	})
	return out, err
}

// MintQuoteState polls the settlement status of a previously created quote.
func (w *Wallet) MintQuoteState(quoteID string) (MintQuoteStatus, error) {
	var out MintQuoteStatus
	err := w.do(func(ctx context.Context) error {
		status, err := w.eng.MintQuoteState(ctx, quoteID)
		if err != nil {
			return wrapEngine(err)
		}
		out = quoteStatusFromEngine(status)
		return nil
	})
	return out, err
}

// Mint exchanges a paid quote for spendable value and returns the total
// actually minted, which may differ from the quoted amount when the split
// target forces a different denomination breakdown.
func (w *Wallet) Mint(quoteID string, splitTarget SplitTarget) (Amount, error) {
	var out Amount
	err := w.do(func(ctx context.Context) error {
		amount, err := w.eng.Mint(ctx, quoteID, splitTarget.toEngine())
		if err != nil {
			return wrapEngine(err)
		}
		out = amountFromEngine(amount)
		return nil
	})
	return out, err
}

// PrepareSend costs a send of amount without committing it: no proof is
// marked spent and the balance is untouched.
func (w *Wallet) PrepareSend(amount Amount, options SendOptions) (PreparedSend, error) {
	var out PreparedSend
	err := w.do(func(ctx context.Context) error {
		prepared, err := w.eng.PrepareSend(ctx, amount.toEngine(), options.toEngine())
		if err != nil {
			return wrapEngine(err)
		}
		out = preparedSendFromEngine(prepared)
		return nil
	})
	return out, err
}

// Send prepares and immediately commits a send of amount into a transferable
// token. A prior PrepareSend call is not reused; preparation runs again
// inside this call.
func (w *Wallet) Send(amount Amount, options SendOptions, memo *SendMemo) (Token, error) {
	var out Token
	err := w.do(func(ctx context.Context) error {
		prepared, err := w.eng.PrepareSend(ctx, amount.toEngine(), options.toEngine())
		if err != nil {
			return wrapEngine(err)
		}
		token, err := w.eng.Send(ctx, prepared, memo.toEngine())
		if err != nil {
			return wrapEngine(err)
		}
		out, err = tokenFromEngine(token)
		return err
	})
	return out, err
}

// Balance returns the aggregate spendable value held for this wallet's unit.
func (w *Wallet) Balance() (Amount, error) {
	var out Amount
	err := w.do(func(ctx context.Context) error {
		balance, err := w.eng.Balance(ctx)
		if err != nil {
			return wrapEngine(err)
		}
		out = amountFromEngine(balance)
		return nil
	})
	return out, err
}

// MintURL returns the mint URL the handle was constructed with.
func (w *Wallet) MintURL() string {
	return w.mintURL
}

// Unit returns the handle's currency unit.
func (w *Wallet) Unit() string {
	return string(w.unit)
}

// GetMintInfo caches-or-fetches mint metadata. Fetch and lookup failures are
// folded into the returned status rather than surfaced as errors; the only
// error this method returns is a closed handle.
func (w *Wallet) GetMintInfo() (MintInfoStatus, error) {
	var out MintInfoStatus
	err := w.do(func(ctx context.Context) error {
		info, err := w.eng.MintInfo(ctx)
		if err == nil && info != nil {
			out = MintInfoStatus{Outcome: MintInfoAlreadyCached, Name: mintName(info)}
			return nil
		}
		if err != nil {
			out = MintInfoStatus{Outcome: MintInfoFetchFailed, Reason: err.Error()}
			return nil
		}

		// Not cached yet; a keyset fetch is expected to pull the mint's
		// metadata in as a side effect.
		keysets, err := w.eng.Keysets(ctx)
		if err != nil {
			out = MintInfoStatus{Outcome: MintInfoFetchFailed, Reason: err.Error()}
			return nil
		}
		info, err = w.eng.MintInfo(ctx)
		if err != nil {
			out = MintInfoStatus{Outcome: MintInfoFetchFailed, Keysets: len(keysets), Reason: err.Error()}
			return nil
		}
		if info == nil {
			out = MintInfoStatus{Outcome: MintInfoPartiallyAvailable, Keysets: len(keysets)}
			return nil
		}
		out = MintInfoStatus{Outcome: MintInfoFetchedAndCached, Name: mintName(info), Keysets: len(keysets)}
		return nil
	})
	return out, err
}

func mintName(info *engine.MintInfo) string {
	if info.Name != nil {
		return *info.Name
	}
	return "Unknown Mint"
}

// MeltQuote obtains a quote for paying an external payment request.
func (w *Wallet) MeltQuote(request string) (MeltQuote, error) {
	var out MeltQuote
	err := w.do(func(ctx context.Context) error {
		quote, err := w.eng.MeltQuote(ctx, request)
		if err != nil {
			return wrapEngine(err)
		}
		out = meltQuoteFromEngine(quote)
		return nil
	})
	return out, err
}

// Melt executes the payment behind a previously obtained melt quote.
func (w *Wallet) Melt(quoteID string) (Melted, error) {
	var out Melted
	err := w.do(func(ctx context.Context) error {
		melted, err := w.eng.Melt(ctx, quoteID)
		if err != nil {
			return wrapEngine(err)
		}
		out = meltedFromEngine(melted)
		return nil
	})
	return out, err
}

// Close releases the engine instance and the handle's execution context. The
// shared store is left alone. Closing twice is harmless.
func (w *Wallet) Close() error {
	err := w.loop.Do(func(ctx context.Context) error {
		return w.eng.Close()
	})
	w.loop.Close()
	if errors.Is(err, syncexec.ErrClosed) {
		return nil
	}
	return wrapEngine(err)
}
