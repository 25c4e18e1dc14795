// Package rpc implements wallet.Provider over an Ethereum JSON-RPC endpoint
// (a local node, a wallet daemon, or a signer such as Clef).
package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/rpc"
)

const (
	methodRequestAccounts = "eth_requestAccounts"
	methodAccounts        = "eth_accounts"
)

type caller interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
	Close()
}

// Provider asks the endpoint for its accounts. Endpoints that predate
// eth_requestAccounts are retried with eth_accounts.
type Provider struct {
	client caller
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

type Option func(*Provider)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// Dial connects to url (http, ws or ipc).
func Dial(ctx context.Context, url string, opts ...Option) (*Provider, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial wallet endpoint: %w", err)
	}
	return NewWithClient(client, opts...), nil
}

// NewWithClient wraps an already connected client.
func NewWithClient(client *rpc.Client, opts ...Option) *Provider {
	p := &Provider{logger: slog.Default()}
	if client != nil {
		p.client = client
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) IsAvailable() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client != nil && !p.closed
}

// RequestAccounts returns the endpoint's accounts in its preferred order.
func (p *Provider) RequestAccounts(ctx context.Context) ([]string, error) {
	if !p.IsAvailable() {
		return nil, fmt.Errorf("wallet endpoint closed")
	}

	var accounts []string
	err := p.client.CallContext(ctx, &accounts, methodRequestAccounts)
	if err == nil {
		return accounts, nil
	}
	if !isMethodNotFound(err) {
		return nil, fmt.Errorf("%s: %w", methodRequestAccounts, err)
	}

	p.logger.DebugContext(ctx, "endpoint lacks eth_requestAccounts, falling back", "method", methodAccounts)
	if err := p.client.CallContext(ctx, &accounts, methodAccounts); err != nil {
		return nil, fmt.Errorf("%s: %w", methodAccounts, err)
	}
	return accounts, nil
}

func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.client == nil {
		return
	}
	p.closed = true
	p.client.Close()
}

func isMethodNotFound(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr) && rpcErr.ErrorCode() == -32601
}
