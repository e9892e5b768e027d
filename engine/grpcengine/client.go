// Package grpcengine speaks to a wallet-engine daemon over gRPC. The client
// half implements engine.Engine; the server half serves any engine.Factory so
// the same process can be put on either side of the wire.
package grpcengine

import (
	"context"
	"encoding/base64"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/cashubind/cashubind/engine"
)

type Option func(*clientOptions)

type clientOptions struct {
	token    string
	username string
	password string
	limiter  *rate.Limiter
	dialOpts []grpc.DialOption
}

// WithToken attaches a bearer token to every call.
func WithToken(token string) Option {
	return func(o *clientOptions) { o.token = token }
}

// WithBasicAuth attaches basic credentials to every call.
func WithBasicAuth(username, password string) Option {
	return func(o *clientOptions) {
		o.username = username
		o.password = password
	}
}

// WithRateLimit throttles outgoing calls client-side. Mint operators rate
// limit aggressive clients; waiting locally is cheaper than being refused.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *clientOptions) {
		o.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithDialOptions appends extra grpc dial options, e.g. a bufconn dialer.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *clientOptions) { o.dialOpts = append(o.dialOpts, opts...) }
}

// Client is a connection to a wallet-engine daemon. One client can open any
// number of remote wallets.
type Client struct {
	conn *grpc.ClientConn
	opts clientOptions
}

func Dial(addr string, opts ...Option) (*Client, error) {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, o.dialOpts...)

	conn, err := grpc.DialContext(context.Background(), addr, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, opts: o}, nil
}

// Factory opens a wallet on the daemon per engine.Config. The daemon owns
// its durable store; cfg.Store stays on the caller's side and is not sent.
func (c *Client) Factory() engine.Factory {
	return func(ctx context.Context, cfg engine.Config) (engine.Engine, error) {
		req := openRequest{
			MintURL: cfg.MintURL,
			Unit:    string(cfg.Unit),
			Seed:    cfg.Seed[:],
		}
		var resp openResponse
		if err := c.invoke(ctx, methodOpen, &req, &resp); err != nil {
			return nil, err
		}
		return &remoteWallet{client: c, id: resp.WalletID}, nil
	}
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	if c.opts.limiter != nil {
		if err := c.opts.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return c.conn.Invoke(c.withAuth(ctx), method, req, resp)
}

func (c *Client) withAuth(ctx context.Context) context.Context {
	if c.opts.token != "" {
		return metadata.NewOutgoingContext(ctx, metadata.Pairs("authorization", "Bearer "+c.opts.token))
	}
	if c.opts.username != "" || c.opts.password != "" {
		token := base64.StdEncoding.EncodeToString([]byte(c.opts.username + ":" + c.opts.password))
		return metadata.NewOutgoingContext(ctx, metadata.Pairs("authorization", "Basic "+token))
	}
	return ctx
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// remoteWallet is one wallet opened on the daemon, addressed by id.
type remoteWallet struct {
	client *Client
	id     string
}

var _ engine.Engine = (*remoteWallet)(nil)

func (w *remoteWallet) MintQuote(ctx context.Context, amount engine.Amount, description *string) (engine.MintQuote, error) {
	req := mintQuoteRequest{WalletID: w.id, Amount: uint64(amount), Description: description}
	var resp mintQuoteResponse
	if err := w.client.invoke(ctx, methodMintQuote, &req, &resp); err != nil {
		return engine.MintQuote{}, err
	}
	return engine.MintQuote{
		ID:      resp.ID,
		MintURL: resp.MintURL,
		Amount:  engine.Amount(resp.Amount),
		Unit:    engine.CurrencyUnit(resp.Unit),
		Request: resp.Request,
		State:   engine.MintQuoteState(resp.State),
		Expiry:  resp.Expiry,
	}, nil
}

func (w *remoteWallet) MintQuoteState(ctx context.Context, quoteID string) (engine.QuoteStatus, error) {
	req := quoteStateRequest{WalletID: w.id, QuoteID: quoteID}
	var resp quoteStatusResponse
	if err := w.client.invoke(ctx, methodMintQuoteState, &req, &resp); err != nil {
		return engine.QuoteStatus{}, err
	}
	return engine.QuoteStatus{
		Quote:   resp.Quote,
		Request: resp.Request,
		State:   engine.MintQuoteState(resp.State),
		Expiry:  resp.Expiry,
	}, nil
}

func (w *remoteWallet) Mint(ctx context.Context, quoteID string, target engine.SplitTarget) (engine.Amount, error) {
	req := mintRequest{WalletID: w.id, QuoteID: quoteID, SplitTarget: string(target)}
	var resp amountResponse
	if err := w.client.invoke(ctx, methodMint, &req, &resp); err != nil {
		return 0, err
	}
	return engine.Amount(resp.Amount), nil
}

func (w *remoteWallet) PrepareSend(ctx context.Context, amount engine.Amount, opts engine.SendOptions) (engine.PreparedSend, error) {
	req := prepareSendRequest{WalletID: w.id, Amount: uint64(amount), Options: sendOptionsToWire(opts)}
	var resp preparedSendWire
	if err := w.client.invoke(ctx, methodPrepareSend, &req, &resp); err != nil {
		return engine.PreparedSend{}, err
	}
	return preparedFromWire(resp), nil
}

func (w *remoteWallet) Send(ctx context.Context, prepared engine.PreparedSend, memo *engine.SendMemo) (engine.Token, error) {
	req := sendRequest{WalletID: w.id, Prepared: preparedToWire(prepared), Memo: sendMemoToWire(memo)}
	var resp tokenResponse
	if err := w.client.invoke(ctx, methodSend, &req, &resp); err != nil {
		return engine.Token{}, err
	}
	return tokenFromWire(resp), nil
}

func (w *remoteWallet) MeltQuote(ctx context.Context, request string) (engine.MeltQuote, error) {
	req := meltQuoteRequest{WalletID: w.id, Request: request}
	var resp meltQuoteResponse
	if err := w.client.invoke(ctx, methodMeltQuote, &req, &resp); err != nil {
		return engine.MeltQuote{}, err
	}
	return engine.MeltQuote{
		ID:         resp.ID,
		Unit:       engine.CurrencyUnit(resp.Unit),
		Amount:     engine.Amount(resp.Amount),
		Request:    resp.Request,
		FeeReserve: engine.Amount(resp.FeeReserve),
		Expiry:     resp.Expiry,
		Preimage:   resp.Preimage,
	}, nil
}

func (w *remoteWallet) Melt(ctx context.Context, quoteID string) (engine.Melted, error) {
	req := meltRequest{WalletID: w.id, QuoteID: quoteID}
	var resp meltedResponse
	if err := w.client.invoke(ctx, methodMelt, &req, &resp); err != nil {
		return engine.Melted{}, err
	}
	return engine.Melted{
		State:    resp.State,
		Preimage: resp.Preimage,
		Amount:   engine.Amount(resp.Amount),
		FeePaid:  engine.Amount(resp.FeePaid),
	}, nil
}

func (w *remoteWallet) Balance(ctx context.Context) (engine.Amount, error) {
	req := walletRequest{WalletID: w.id}
	var resp amountResponse
	if err := w.client.invoke(ctx, methodBalance, &req, &resp); err != nil {
		return 0, err
	}
	return engine.Amount(resp.Amount), nil
}

func (w *remoteWallet) MintInfo(ctx context.Context) (*engine.MintInfo, error) {
	req := walletRequest{WalletID: w.id}
	var resp mintInfoResponse
	if err := w.client.invoke(ctx, methodMintInfo, &req, &resp); err != nil {
		return nil, err
	}
	if !resp.Known {
		return nil, nil
	}
	return &engine.MintInfo{
		Name:        resp.Name,
		Description: resp.Description,
		Version:     resp.Version,
	}, nil
}

func (w *remoteWallet) Keysets(ctx context.Context) ([]engine.KeysetInfo, error) {
	req := walletRequest{WalletID: w.id}
	var resp keysetsResponse
	if err := w.client.invoke(ctx, methodKeysets, &req, &resp); err != nil {
		return nil, err
	}
	out := make([]engine.KeysetInfo, 0, len(resp.Keysets))
	for _, k := range resp.Keysets {
		out = append(out, engine.KeysetInfo{ID: k.ID, Unit: engine.CurrencyUnit(k.Unit), Active: k.Active})
	}
	return out, nil
}

func (w *remoteWallet) Restore(ctx context.Context) error {
	req := walletRequest{WalletID: w.id}
	var resp emptyResponse
	return w.client.invoke(ctx, methodRestore, &req, &resp)
}

// Close releases the remote wallet. The shared connection stays open for
// other wallets on the same client.
func (w *remoteWallet) Close() error {
	req := walletRequest{WalletID: w.id}
	var resp emptyResponse
	return w.client.invoke(context.Background(), methodCloseWallet, &req, &resp)
}
