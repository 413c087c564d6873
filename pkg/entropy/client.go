package entropy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Client is the consumed interface of the external randomness oracle. The
// round trip is asynchronous: RequestRandomness returns a request identifier
// and the oracle later delivers the random value on the callback endpoint.
type Client interface {
	GetFee(ctx context.Context, provider common.Address) (*big.Int, error)
	RequestRandomness(ctx context.Context, provider common.Address, commitment common.Hash, fee *big.Int) (uint64, error)
}

// Delivery is the payload the oracle posts to the callback endpoint once the
// random value for a request is available.
type Delivery struct {
	RequestID   uint64         `json:"sequenceNumber" binding:"required"`
	Provider    common.Address `json:"provider"`
	RandomValue common.Hash    `json:"randomValue"`
}

// HTTPClient talks to the oracle's request API. With MockAPI set it issues
// locally-sequenced request ids instead, for development and tests.
type HTTPClient struct {
	BaseURL string
	APIKey  string
	MockAPI bool

	client  *http.Client
	mockSeq atomic.Uint64
	mockFee *big.Int
}

// NewClient creates a new oracle client
func NewClient(baseURL, apiKey string, mockAPI bool) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		MockAPI: mockAPI,
		client:  &http.Client{Timeout: 10 * time.Second},
		mockFee: big.NewInt(1500000000000000), // 0.0015 ether, a realistic oracle fee
	}
}

type feeResponse struct {
	Fee string `json:"fee"`
}

// GetFee quotes the oracle's current request fee for a provider.
func (c *HTTPClient) GetFee(ctx context.Context, provider common.Address) (*big.Int, error) {
	if c.MockAPI {
		return new(big.Int).Set(c.mockFee), nil
	}

	url := fmt.Sprintf("%s/v1/fee/%s", c.BaseURL, provider.Hex())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oracle fee request failed with status %d", resp.StatusCode)
	}

	var body feeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	fee, ok := new(big.Int).SetString(body.Fee, 10)
	if !ok {
		return nil, errors.New("oracle returned an unparseable fee")
	}
	return fee, nil
}

type randomnessRequest struct {
	Provider   string `json:"provider"`
	Commitment string `json:"commitment"`
	Fee        string `json:"fee"`
}

type randomnessResponse struct {
	SequenceNumber uint64 `json:"sequenceNumber"`
}

// RequestRandomness submits a randomness request bound to the given
// commitment and returns the oracle-assigned request identifier.
func (c *HTTPClient) RequestRandomness(ctx context.Context, provider common.Address, commitment common.Hash, fee *big.Int) (uint64, error) {
	if c.MockAPI {
		return c.mockSeq.Add(1), nil
	}

	payload, err := json.Marshal(randomnessRequest{
		Provider:   provider.Hex(),
		Commitment: commitment.Hex(),
		Fee:        fee.String(),
	})
	if err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/v1/request", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return 0, fmt.Errorf("oracle randomness request failed with status %d", resp.StatusCode)
	}

	var body randomnessResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	return body.SequenceNumber, nil
}
