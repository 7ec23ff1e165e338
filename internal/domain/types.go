package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Chain identifies one of the ingested chains. Each chain has its own
// checkpoint scope, lock key and ingestion worker.
type Chain string

const (
	// ChainRegistry is the EVM-compatible entity registry chain
	ChainRegistry Chain = "registry"
	// ChainPayments is the Solana-based payment/play program chain
	ChainPayments Chain = "payments"
	// ChainCore is the core-consensus protocol chain
	ChainCore Chain = "core"
)

// IsValidChain checks if a chain is one of the supported chains
func IsValidChain(chain Chain) bool {
	return chain == ChainRegistry || chain == ChainPayments || chain == ChainCore
}

// EntityKind is the closed set of versioned entity types
type EntityKind string

const (
	EntityUser         EntityKind = "user"
	EntityTrack        EntityKind = "track"
	EntityPlaylist     EntityKind = "playlist"
	EntityDelegate     EntityKind = "delegate"
	EntityNotification EntityKind = "notification"
)

// EntityKinds lists every versioned entity kind, in rollback order
func EntityKinds() []EntityKind {
	return []EntityKind{EntityUser, EntityTrack, EntityPlaylist, EntityDelegate, EntityNotification}
}

// ActionKind is the closed set of mutation actions
type ActionKind string

const (
	ActionCreate ActionKind = "create"
	ActionUpdate ActionKind = "update"
	ActionDelete ActionKind = "delete"
	ActionView   ActionKind = "view"
)

// TxKind is the closed set of typed transaction payloads a block can carry.
// Unrecognized kinds are logged and skipped, never fatal.
type TxKind string

const (
	TxKindEntity    TxKind = "manage_entity"
	TxKindPlay      TxKind = "play"
	TxKindValidator TxKind = "validator_registration"
	TxKindSLARollup TxKind = "sla_rollup"
	TxKindUnknown   TxKind = "unknown"
)

// NodeInfo describes a chain node's view of its own state
type NodeInfo struct {
	ChainID       string `json:"chainid"`
	CurrentHeight uint64 `json:"current_height"`
	Synced        bool   `json:"synced"`
}

// EntityMutation is one decoded entity-mutation instruction.
// Ordering within a block is derived from (TxIndex, LogIndex).
type EntityMutation struct {
	Kind     EntityKind      `json:"kind"`
	Action   ActionKind      `json:"action"`
	EntityID int64           `json:"entity_id"`
	Signer   string          `json:"signer"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// PlayEvent is a decoded play/payment transaction from the payments
// or core chain. Plays are reward-relevant but not versioned entities.
type PlayEvent struct {
	UserID  int64  `json:"user_id"`
	TrackID int64  `json:"track_id"`
	Signer  string `json:"signer"`
}

// Transaction is one typed transaction inside a block. Exactly one of the
// payload pointers is set, selected by Kind.
type Transaction struct {
	Kind     TxKind          `json:"kind"`
	Hash     string          `json:"hash"`
	TxIndex  uint64          `json:"tx_index"`
	LogIndex uint64          `json:"log_index"`
	Entity   *EntityMutation `json:"entity,omitempty"`
	Play     *PlayEvent      `json:"play,omitempty"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// Block is a normalized block fetched from any of the chains.
// For the payments chain, Height is the slot number.
type Block struct {
	Chain        Chain         `json:"chain"`
	Height       uint64        `json:"height"`
	Hash         string        `json:"blockhash"`
	ParentHash   string        `json:"parenthash"`
	Timestamp    time.Time     `json:"timestamp"`
	Transactions []Transaction `json:"transactions"`
}

// ChallengeEventType identifies the reward-relevant side-effect class
type ChallengeEventType string

const (
	ChallengeEventTrackUpload    ChallengeEventType = "track_upload"
	ChallengeEventTrackPlay      ChallengeEventType = "track_play"
	ChallengeEventProfileUpdate  ChallengeEventType = "profile_update"
	ChallengeEventPlaylistCreate ChallengeEventType = "playlist_create"
	ChallengeEventAudioMatch     ChallengeEventType = "audio_match"
)

// ChallengeEvent is the transient message pushed onto the reward event bus.
// Delivery is at-least-once; consumers must be idempotent per
// (challenge, user, specifier).
type ChallengeEvent struct {
	ID          string             `json:"id"`
	Type        ChallengeEventType `json:"event_type"`
	UserID      int64              `json:"user_id"`
	BlockNumber uint64             `json:"block_number"`
	Extra       map[string]any     `json:"extra,omitempty"`
}

// BlockNotification is published to NATS after each committed block so that
// downstream consumers (search-index syncer, cache invalidation) can react
// without polling the checkpoint table.
type BlockNotification struct {
	Chain        Chain          `json:"chain"`
	Height       uint64         `json:"height"`
	BlockHash    string         `json:"block_hash"`
	EntityCounts map[string]int `json:"entity_counts,omitempty"`
	CommittedAt  time.Time      `json:"committed_at"`
}

// LockScope returns the coordination-store key guarding a chain's worker
func LockScope(chain Chain) string {
	return fmt.Sprintf("indexer:lock:%s", chain)
}

// QueueScope returns the coordination-store key of a chain's reward queue
func QueueScope(chain Chain) string {
	return fmt.Sprintf("indexer:rewards:%s", chain)
}
