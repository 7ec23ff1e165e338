package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/soundweave/indexer/internal/adapter"
	"github.com/soundweave/indexer/internal/domain"
	"github.com/soundweave/indexer/internal/logger"
)

// CoreClient talks to one core-consensus node over its HTTP/JSON interface.
// A transaction carries exactly one typed payload from a closed set;
// unrecognized payload kinds are logged and kept as TxKindUnknown so the
// ingestion loop can skip them without failing the block.
type CoreClient struct {
	baseURL string
	http    adapter.HTTPClient
}

// NewCoreClient creates a client for one core node endpoint
func NewCoreClient(baseURL string, httpClient adapter.HTTPClient) *CoreClient {
	return &CoreClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

type corePingResponse struct {
	Message string `json:"message"`
}

type coreNodeInfoResponse struct {
	ChainID       string `json:"chainid"`
	CurrentHeight uint64 `json:"current_height"`
	Synced        bool   `json:"synced"`
}

type coreTransaction struct {
	Kind    string          `json:"kind"`
	Hash    string          `json:"hash"`
	Index   uint64          `json:"index"`
	Payload json.RawMessage `json:"payload"`
}

type coreBlockResponse struct {
	// Height is negative when the block has not been produced yet
	Height       int64             `json:"height"`
	Blockhash    string            `json:"blockhash"`
	Parenthash   string            `json:"parenthash"`
	Timestamp    int64             `json:"timestamp"`
	Transactions []coreTransaction `json:"transactions"`
}

// Ping checks that the node is reachable
func (c *CoreClient) Ping(ctx context.Context) error {
	var resp corePingResponse
	if err := c.http.Get(ctx, c.baseURL+"/core/ping", &resp); err != nil {
		return fmt.Errorf("core ping failed: %w", err)
	}
	return nil
}

// GetNodeInfo returns the node's chain id, height and sync state
func (c *CoreClient) GetNodeInfo(ctx context.Context) (domain.NodeInfo, error) {
	var resp coreNodeInfoResponse
	if err := c.http.Get(ctx, c.baseURL+"/core/nodeinfo", &resp); err != nil {
		return domain.NodeInfo{}, fmt.Errorf("failed to get node info: %w", err)
	}
	return domain.NodeInfo{
		ChainID:       resp.ChainID,
		CurrentHeight: resp.CurrentHeight,
		Synced:        resp.Synced,
	}, nil
}

// GetBlock fetches the block at the given height. A negative height in the
// response signals "not yet produced" and maps to domain.ErrBlockNotFound.
func (c *CoreClient) GetBlock(ctx context.Context, height uint64) (*domain.Block, error) {
	var resp coreBlockResponse
	url := fmt.Sprintf("%s/core/block/%d", c.baseURL, height)
	if err := c.http.Get(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("failed to get block %d: %w", height, err)
	}

	if resp.Height < 0 {
		return nil, domain.ErrBlockNotFound
	}

	block := &domain.Block{
		Chain:        domain.ChainCore,
		Height:       uint64(resp.Height),
		Hash:         resp.Blockhash,
		ParentHash:   resp.Parenthash,
		Timestamp:    time.Unix(resp.Timestamp, 0).UTC(),
		Transactions: make([]domain.Transaction, 0, len(resp.Transactions)),
	}

	for _, tx := range resp.Transactions {
		decoded, err := decodeCoreTransaction(tx)
		if err != nil {
			// Malformed payloads become unknown-kind transactions; the
			// ingestion loop records them as skipped
			logger.WarnCtx(ctx, "undecodable core transaction payload",
				zap.String("tx_hash", tx.Hash),
				zap.String("kind", tx.Kind),
				zap.Error(err))
			decoded = domain.Transaction{
				Kind:    domain.TxKindUnknown,
				Hash:    tx.Hash,
				TxIndex: tx.Index,
				Raw:     tx.Payload,
			}
		}
		block.Transactions = append(block.Transactions, decoded)
	}

	return block, nil
}

func decodeCoreTransaction(tx coreTransaction) (domain.Transaction, error) {
	out := domain.Transaction{
		Hash:    tx.Hash,
		TxIndex: tx.Index,
		Raw:     tx.Payload,
	}

	switch domain.TxKind(tx.Kind) {
	case domain.TxKindEntity:
		var mutation domain.EntityMutation
		if err := json.Unmarshal(tx.Payload, &mutation); err != nil {
			return out, fmt.Errorf("bad entity payload: %w", err)
		}
		out.Kind = domain.TxKindEntity
		out.Entity = &mutation
	case domain.TxKindPlay:
		var play domain.PlayEvent
		if err := json.Unmarshal(tx.Payload, &play); err != nil {
			return out, fmt.Errorf("bad play payload: %w", err)
		}
		out.Kind = domain.TxKindPlay
		out.Play = &play
	case domain.TxKindValidator, domain.TxKindSLARollup:
		// Recognized but not indexed here; carried through as-is
		out.Kind = domain.TxKind(tx.Kind)
	default:
		out.Kind = domain.TxKindUnknown
	}

	return out, nil
}
