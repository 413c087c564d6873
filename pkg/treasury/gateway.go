package treasury

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Gateway is the consumed value-transfer primitive. Debit collects funds
// from an account into the protocol's escrow, Credit pays out of it. Both
// are synchronous and report failure explicitly; callers treat a failed
// Credit during settlement or claim as fatal to that operation.
type Gateway interface {
	Debit(ctx context.Context, account common.Address, amount *big.Int) error
	Credit(ctx context.Context, account common.Address, amount *big.Int) error
}

// HTTPGateway forwards transfers to the external ledger service.
type HTTPGateway struct {
	BaseURL string
	APIKey  string

	client *http.Client
}

// NewHTTPGateway creates a new HTTPGateway
func NewHTTPGateway(baseURL, apiKey string) *HTTPGateway {
	return &HTTPGateway{
		BaseURL: baseURL,
		APIKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type transferRequest struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

func (g *HTTPGateway) post(ctx context.Context, path string, account common.Address, amount *big.Int) error {
	payload, err := json.Marshal(transferRequest{Account: account.Hex(), Amount: amount.String()})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("treasury transfer failed with status %d", resp.StatusCode)
	}
	return nil
}

// Debit collects amount from the account into escrow
func (g *HTTPGateway) Debit(ctx context.Context, account common.Address, amount *big.Int) error {
	return g.post(ctx, "/v1/debit", account, amount)
}

// Credit pays amount out of escrow to the account
func (g *HTTPGateway) Credit(ctx context.Context, account common.Address, amount *big.Int) error {
	return g.post(ctx, "/v1/credit", account, amount)
}

// MockGateway is an in-memory gateway for development and tests. FailCredits
// and FailDebits force the corresponding transfer to fail, which the tests
// use to exercise the rollback paths.
type MockGateway struct {
	FailCredits bool
	FailDebits  bool

	mu       sync.Mutex
	balances map[common.Address]*big.Int
}

// NewMockGateway creates a new MockGateway
func NewMockGateway() *MockGateway {
	return &MockGateway{
		balances: make(map[common.Address]*big.Int),
	}
}

// Debit records a collection from the account
func (g *MockGateway) Debit(ctx context.Context, account common.Address, amount *big.Int) error {
	if g.FailDebits {
		return fmt.Errorf("mock debit of %s from %s refused", amount, account.Hex())
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.balance(account).Sub(g.balance(account), amount)
	return nil
}

// Credit records a payout to the account
func (g *MockGateway) Credit(ctx context.Context, account common.Address, amount *big.Int) error {
	if g.FailCredits {
		return fmt.Errorf("mock credit of %s to %s refused", amount, account.Hex())
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.balance(account).Add(g.balance(account), amount)
	return nil
}

// Balance returns the mock net balance of an account.
func (g *MockGateway) Balance(account common.Address) *big.Int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return new(big.Int).Set(g.balance(account))
}

func (g *MockGateway) balance(account common.Address) *big.Int {
	b, ok := g.balances[account]
	if !ok {
		b = new(big.Int)
		g.balances[account] = b
	}
	return b
}
