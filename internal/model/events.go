package model

import (
	"encoding/json"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
)

const (
	EventBuy   = "BuyEvent"
	EventClaim = "ClaimEvent"
)

// Event is a ledger event emitted after a committed operation.
type Event interface {
	EventName() string
}

// BuyEvent is emitted for every settled purchase.
type BuyEvent struct {
	User          solana.PublicKey
	UserPosition  solana.PublicKey
	PositionIndex uint64
	UsdcAmount    uint64
	WalienAmount  uint64
	PriceAfter    uint256.Int
}

func (BuyEvent) EventName() string { return EventBuy }

// BuyEventData is the JSON payload of a BuyEvent.
type BuyEventData struct {
	User          string `json:"user"`
	UserPosition  string `json:"user_position"`
	PositionIndex uint64 `json:"position_index"`
	UsdcAmount    uint64 `json:"usdc_amount"`
	WalienAmount  uint64 `json:"walien_amount"`
	PriceAfter    string `json:"price_after"`
}

func (e BuyEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(BuyEventData{
		User:          e.User.String(),
		UserPosition:  e.UserPosition.String(),
		PositionIndex: e.PositionIndex,
		UsdcAmount:    e.UsdcAmount,
		WalienAmount:  e.WalienAmount,
		PriceAfter:    e.PriceAfter.Dec(),
	})
}

// ClaimEvent is emitted when a position's allocation is delivered.
type ClaimEvent struct {
	Caller        solana.PublicKey `json:"caller"`
	User          solana.PublicKey `json:"user"`
	UserPosition  solana.PublicKey `json:"user_position"`
	PositionIndex uint64           `json:"position_index"`
	WalienAmount  uint64           `json:"walien_amount"`
}

func (ClaimEvent) EventName() string { return EventClaim }

// EventRecord is the JSON line written for each event.
type EventRecord struct {
	ID        string          `json:"id"`
	Seq       uint64          `json:"seq"`
	EventName string          `json:"event_name"`
	Timestamp int64           `json:"timestamp"`
	Decoded   json.RawMessage `json:"decoded"`
}
