// Package chain provides per-chain clients over one or more redundant RPC
// endpoints. Every fetch retries a fixed number of times against each
// endpoint before moving to the next one, and fails only when all endpoints
// are exhausted.
package chain

import (
	"context"

	"github.com/soundweave/indexer/internal/domain"
)

// Client is the contract every chain client fulfills.
//
// GetBlock returns domain.ErrBlockNotFound when the height has not been
// produced yet; the caller backs off rather than treating it as fatal.
//
//go:generate mockgen -source=client.go -destination=../mocks/chain.go -package=mocks -mock_names=Client=MockChainClient
type Client interface {
	// GetNodeInfo returns the node's chain id, current height and sync state
	GetNodeInfo(ctx context.Context) (domain.NodeInfo, error)

	// GetBlock fetches the block at the given height (slot for the
	// payments chain)
	GetBlock(ctx context.Context, height uint64) (*domain.Block, error)
}

// SignatureClient is implemented by clients of signature-addressed chains
type SignatureClient interface {
	Client

	// GetLatestSignaturesForAddress returns up to limit transaction
	// signatures involving addr, newest first, optionally starting before
	// a known signature
	GetLatestSignaturesForAddress(ctx context.Context, addr string, before string, limit int) ([]string, error)
}
