package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/soundweave/indexer/internal/adapter"
	"github.com/soundweave/indexer/internal/domain"
)

// SolanaClient reads play/payment transactions of one watched program over
// the node's JSON-RPC interface. Positions on this chain are slot numbers.
type SolanaClient struct {
	rpcURL  string
	program string
	http    adapter.HTTPClient
}

// NewSolanaClient creates a payments-chain client over one RPC endpoint
func NewSolanaClient(rpcURL string, programAddress string, httpClient adapter.HTTPClient) *SolanaClient {
	return &SolanaClient{
		rpcURL:  rpcURL,
		program: programAddress,
		http:    httpClient,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error,omitempty"`
}

// Slot -32007/-32009 mean the slot was skipped or is not yet available
const (
	rpcCodeSlotSkipped      = -32007
	rpcCodeSlotNotAvailable = -32009
)

func (c *SolanaClient) call(ctx context.Context, method string, params []any, result any) error {
	req := rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params}

	var resp rpcResponse
	if err := c.http.PostJSON(ctx, c.rpcURL, req, &resp); err != nil {
		return fmt.Errorf("rpc %s failed: %w", method, err)
	}
	if resp.Error != nil {
		if resp.Error.Code == rpcCodeSlotSkipped || resp.Error.Code == rpcCodeSlotNotAvailable {
			return domain.ErrBlockNotFound
		}
		return fmt.Errorf("rpc %s error %d: %s", method, resp.Error.Code, resp.Error.Message)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("rpc %s bad result: %w", method, err)
	}
	return nil
}

type solanaVersionResult struct {
	SolanaCore string `json:"solana-core"`
}

// GetNodeInfo returns the node's slot height and health
func (c *SolanaClient) GetNodeInfo(ctx context.Context) (domain.NodeInfo, error) {
	var version solanaVersionResult
	if err := c.call(ctx, "getVersion", nil, &version); err != nil {
		return domain.NodeInfo{}, err
	}

	var slot uint64
	if err := c.call(ctx, "getSlot", []any{map[string]string{"commitment": "finalized"}}, &slot); err != nil {
		return domain.NodeInfo{}, err
	}

	var health string
	healthy := c.call(ctx, "getHealth", nil, &health) == nil && health == "ok"

	return domain.NodeInfo{
		ChainID:       "solana:" + version.SolanaCore,
		CurrentHeight: slot,
		Synced:        healthy,
	}, nil
}

type solanaInstruction struct {
	ProgramID string          `json:"programId"`
	Data      json.RawMessage `json:"data,omitempty"`
	Parsed    json.RawMessage `json:"parsed,omitempty"`
}

type solanaTransactionMessage struct {
	Instructions []solanaInstruction `json:"instructions"`
}

type solanaTransaction struct {
	Signatures []string                 `json:"signatures"`
	Message    solanaTransactionMessage `json:"message"`
}

type solanaBlockTransaction struct {
	Transaction solanaTransaction `json:"transaction"`
}

type solanaBlockResult struct {
	Blockhash         string                   `json:"blockhash"`
	PreviousBlockhash string                   `json:"previousBlockhash"`
	BlockTime         *int64                   `json:"blockTime"`
	Transactions      []solanaBlockTransaction `json:"transactions"`
}

// playInstruction is the parsed shape of the program's Play instruction
type playInstruction struct {
	Type string `json:"type"`
	Info struct {
		UserID  int64  `json:"user_id"`
		TrackID int64  `json:"track_id"`
		Signer  string `json:"signer"`
	} `json:"info"`
}

// GetBlock fetches the block at the given slot and extracts the watched
// program's play transactions
func (c *SolanaClient) GetBlock(ctx context.Context, slot uint64) (*domain.Block, error) {
	params := []any{slot, map[string]any{
		"encoding":                       "jsonParsed",
		"transactionDetails":             "full",
		"maxSupportedTransactionVersion": 0,
	}}

	var result solanaBlockResult
	if err := c.call(ctx, "getBlock", params, &result); err != nil {
		return nil, err
	}

	var ts time.Time
	if result.BlockTime != nil {
		ts = time.Unix(*result.BlockTime, 0).UTC()
	}

	block := &domain.Block{
		Chain:      domain.ChainPayments,
		Height:     slot,
		Hash:       result.Blockhash,
		ParentHash: result.PreviousBlockhash,
		Timestamp:  ts,
	}

	for txIndex, btx := range result.Transactions {
		if len(btx.Transaction.Signatures) == 0 {
			continue
		}
		signature := btx.Transaction.Signatures[0]

		for logIndex, inst := range btx.Transaction.Message.Instructions {
			if inst.ProgramID != c.program || len(inst.Parsed) == 0 {
				continue
			}

			var play playInstruction
			if err := json.Unmarshal(inst.Parsed, &play); err != nil || play.Type != "play" {
				continue
			}

			block.Transactions = append(block.Transactions, domain.Transaction{
				Kind:     domain.TxKindPlay,
				Hash:     signature,
				TxIndex:  uint64(txIndex),
				LogIndex: uint64(logIndex),
				Play: &domain.PlayEvent{
					UserID:  play.Info.UserID,
					TrackID: play.Info.TrackID,
					Signer:  play.Info.Signer,
				},
			})
		}
	}

	return block, nil
}

type signatureResult struct {
	Signature string `json:"signature"`
}

// GetLatestSignaturesForAddress returns up to limit signatures involving
// addr, newest first
func (c *SolanaClient) GetLatestSignaturesForAddress(ctx context.Context, addr string, before string, limit int) ([]string, error) {
	opts := map[string]any{"limit": limit}
	if before != "" {
		opts["before"] = before
	}

	var results []signatureResult
	if err := c.call(ctx, "getSignaturesForAddress", []any{addr, opts}, &results); err != nil {
		return nil, err
	}

	signatures := make([]string, 0, len(results))
	for _, r := range results {
		signatures = append(signatures, r.Signature)
	}
	return signatures, nil
}
