package grpcengine

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cashubind/cashubind/engine"
)

// Server exposes a local engine.Factory as the wallet-engine daemon the
// client half talks to. Wallets are opened through the factory against the
// server's own store and addressed by generated ids.
type Server struct {
	factory engine.Factory
	store   engine.Store

	mu      sync.Mutex
	wallets map[string]engine.Engine
}

func NewServer(factory engine.Factory, store engine.Store) *Server {
	return &Server{
		factory: factory,
		store:   store,
		wallets: map[string]engine.Engine{},
	}
}

func (s *Server) Register(g *grpc.Server) {
	g.RegisterService(&serviceDesc, s)
}

func (s *Server) wallet(id string) (engine.Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "unknown wallet %q", id)
	}
	return w, nil
}

func (s *Server) open(ctx context.Context, req *openRequest) (any, error) {
	if len(req.Seed) != 64 {
		return nil, status.Errorf(codes.InvalidArgument, "seed must be 64 bytes, got %d", len(req.Seed))
	}
	var seed [64]byte
	copy(seed[:], req.Seed)

	eng, err := s.factory(ctx, engine.Config{
		MintURL: req.MintURL,
		Unit:    engine.CurrencyUnit(req.Unit),
		Seed:    seed,
		Store:   s.store,
	})
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.wallets[id] = eng
	s.mu.Unlock()
	return &openResponse{WalletID: id}, nil
}

func (s *Server) mintQuote(ctx context.Context, req *mintQuoteRequest) (any, error) {
	w, err := s.wallet(req.WalletID)
	if err != nil {
		return nil, err
	}
	quote, err := w.MintQuote(ctx, engine.Amount(req.Amount), req.Description)
	if err != nil {
		return nil, err
	}
	return &mintQuoteResponse{
		ID:      quote.ID,
		MintURL: quote.MintURL,
		Amount:  uint64(quote.Amount),
		Unit:    string(quote.Unit),
		Request: quote.Request,
		State:   string(quote.State),
		Expiry:  quote.Expiry,
	}, nil
}

func (s *Server) mintQuoteState(ctx context.Context, req *quoteStateRequest) (any, error) {
	w, err := s.wallet(req.WalletID)
	if err != nil {
		return nil, err
	}
	st, err := w.MintQuoteState(ctx, req.QuoteID)
	if err != nil {
		return nil, err
	}
	return &quoteStatusResponse{
		Quote:   st.Quote,
		Request: st.Request,
		State:   string(st.State),
		Expiry:  st.Expiry,
	}, nil
}

func (s *Server) mint(ctx context.Context, req *mintRequest) (any, error) {
	w, err := s.wallet(req.WalletID)
	if err != nil {
		return nil, err
	}
	amount, err := w.Mint(ctx, req.QuoteID, engine.SplitTarget(req.SplitTarget))
	if err != nil {
		return nil, err
	}
	return &amountResponse{Amount: uint64(amount)}, nil
}

func (s *Server) prepareSend(ctx context.Context, req *prepareSendRequest) (any, error) {
	w, err := s.wallet(req.WalletID)
	if err != nil {
		return nil, err
	}
	prepared, err := w.PrepareSend(ctx, engine.Amount(req.Amount), sendOptionsFromWire(req.Options))
	if err != nil {
		return nil, err
	}
	resp := preparedToWire(prepared)
	return &resp, nil
}

func (s *Server) send(ctx context.Context, req *sendRequest) (any, error) {
	w, err := s.wallet(req.WalletID)
	if err != nil {
		return nil, err
	}
	token, err := w.Send(ctx, preparedFromWire(req.Prepared), sendMemoFromWire(req.Memo))
	if err != nil {
		return nil, err
	}
	resp := tokenToWire(token)
	return &resp, nil
}

func (s *Server) meltQuote(ctx context.Context, req *meltQuoteRequest) (any, error) {
	w, err := s.wallet(req.WalletID)
	if err != nil {
		return nil, err
	}
	quote, err := w.MeltQuote(ctx, req.Request)
	if err != nil {
		return nil, err
	}
	return &meltQuoteResponse{
		ID:         quote.ID,
		Unit:       string(quote.Unit),
		Amount:     uint64(quote.Amount),
		Request:    quote.Request,
		FeeReserve: uint64(quote.FeeReserve),
		Expiry:     quote.Expiry,
		Preimage:   quote.Preimage,
	}, nil
}

func (s *Server) melt(ctx context.Context, req *meltRequest) (any, error) {
	w, err := s.wallet(req.WalletID)
	if err != nil {
		return nil, err
	}
	melted, err := w.Melt(ctx, req.QuoteID)
	if err != nil {
		return nil, err
	}
	return &meltedResponse{
		State:    melted.State,
		Preimage: melted.Preimage,
		Amount:   uint64(melted.Amount),
		FeePaid:  uint64(melted.FeePaid),
	}, nil
}

func (s *Server) balance(ctx context.Context, req *walletRequest) (any, error) {
	w, err := s.wallet(req.WalletID)
	if err != nil {
		return nil, err
	}
	amount, err := w.Balance(ctx)
	if err != nil {
		return nil, err
	}
	return &amountResponse{Amount: uint64(amount)}, nil
}

func (s *Server) mintInfo(ctx context.Context, req *walletRequest) (any, error) {
	w, err := s.wallet(req.WalletID)
	if err != nil {
		return nil, err
	}
	info, err := w.MintInfo(ctx)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return &mintInfoResponse{Known: false}, nil
	}
	return &mintInfoResponse{
		Known:       true,
		Name:        info.Name,
		Description: info.Description,
		Version:     info.Version,
	}, nil
}

func (s *Server) keysets(ctx context.Context, req *walletRequest) (any, error) {
	w, err := s.wallet(req.WalletID)
	if err != nil {
		return nil, err
	}
	keysets, err := w.Keysets(ctx)
	if err != nil {
		return nil, err
	}
	resp := keysetsResponse{Keysets: make([]keysetWire, 0, len(keysets))}
	for _, k := range keysets {
		resp.Keysets = append(resp.Keysets, keysetWire{ID: k.ID, Unit: string(k.Unit), Active: k.Active})
	}
	return &resp, nil
}

func (s *Server) restore(ctx context.Context, req *walletRequest) (any, error) {
	w, err := s.wallet(req.WalletID)
	if err != nil {
		return nil, err
	}
	if err := w.Restore(ctx); err != nil {
		return nil, err
	}
	return &emptyResponse{}, nil
}

func (s *Server) closeWallet(ctx context.Context, req *walletRequest) (any, error) {
	s.mu.Lock()
	w, ok := s.wallets[req.WalletID]
	delete(s.wallets, req.WalletID)
	s.mu.Unlock()
	if !ok {
		return nil, status.Errorf(codes.NotFound, "unknown wallet %q", req.WalletID)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return &emptyResponse{}, nil
}

// walletEngineService is the HandlerType anchor for the hand-written service
// descriptor below.
type walletEngineService any

func unary[Req any](method string, call func(s *Server, ctx context.Context, req *Req) (any, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		server := srv.(*Server)
		if interceptor == nil {
			return call(server, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(server, ctx, req.(*Req))
		})
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: "cashubind.v1.WalletEngine",
	HandlerType: (*walletEngineService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Open", Handler: unary(methodOpen, (*Server).open)},
		{MethodName: "MintQuote", Handler: unary(methodMintQuote, (*Server).mintQuote)},
		{MethodName: "MintQuoteState", Handler: unary(methodMintQuoteState, (*Server).mintQuoteState)},
		{MethodName: "Mint", Handler: unary(methodMint, (*Server).mint)},
		{MethodName: "PrepareSend", Handler: unary(methodPrepareSend, (*Server).prepareSend)},
		{MethodName: "Send", Handler: unary(methodSend, (*Server).send)},
		{MethodName: "MeltQuote", Handler: unary(methodMeltQuote, (*Server).meltQuote)},
		{MethodName: "Melt", Handler: unary(methodMelt, (*Server).melt)},
		{MethodName: "Balance", Handler: unary(methodBalance, (*Server).balance)},
		{MethodName: "MintInfo", Handler: unary(methodMintInfo, (*Server).mintInfo)},
		{MethodName: "Keysets", Handler: unary(methodKeysets, (*Server).keysets)},
		{MethodName: "Restore", Handler: unary(methodRestore, (*Server).restore)},
		{MethodName: "CloseWallet", Handler: unary(methodCloseWallet, (*Server).closeWallet)},
	},
	Streams: []grpc.StreamDesc{},
}
