package service

import "time"

// Wire messages of the auction and room services. Field names are the JSON
// names clients send and receive.

type RoomView struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Status           string `json:"status"`
	DefaultBudget    int    `json:"default_budget"`
	CurrentTurnIndex int    `json:"current_turn_index"`
	CreatedAt        int64  `json:"created_at"`
}

type ParticipantView struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Budget      int            `json:"budget"`
	TurnOrder   int            `json:"turn_order"`
	Counts      map[string]int `json:"counts"`
	Held        int            `json:"held"`
	MaxBid      int            `json:"max_bid"`
}

type ItemView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Team        string `json:"team,omitempty"`
	Allocated   bool   `json:"allocated"`
	AllocatedTo string `json:"allocated_to,omitempty"`
	Price       int    `json:"price,omitempty"`
}

type RoundView struct {
	ID          string     `json:"id"`
	RoomID      string     `json:"room_id"`
	ItemID      string     `json:"item_id"`
	NominatorID string     `json:"nominator_id"`
	TurnIndex   int        `json:"turn_index"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	Active      bool       `json:"active"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	CloseReason string     `json:"close_reason,omitempty"`
	// Remaining is whole seconds until EndTime at the time of the response.
	Remaining int `json:"remaining"`
}

type BidView struct {
	ParticipantID string    `json:"participant_id"`
	Amount        int       `json:"amount"`
	PlacedAt      time.Time `json:"placed_at"`
}

type BidRecordView struct {
	ParticipantID string  `json:"participant_id"`
	DisplayName   string  `json:"display_name"`
	Amount        int     `json:"amount"`
	OffsetSeconds float64 `json:"offset_seconds"`
}

type OutcomeView struct {
	RoundID         string          `json:"round_id"`
	Item            ItemView        `json:"item"`
	WinnerID        string          `json:"winner_id"`
	WinnerName      string          `json:"winner_name"`
	Price           int             `json:"price"`
	IsNoBidFallback bool            `json:"is_no_bid_fallback"`
	Bids            []BidRecordView `json:"bids"`
	PreviousTurn    int             `json:"previous_turn"`
	NewTurn         int             `json:"new_turn"`
	RoomCompleted   bool            `json:"room_completed"`
	SettledAt       time.Time       `json:"settled_at"`
}

// AuctionService messages.

type StartRoundRequest struct {
	RoomID            string `json:"room_id"`
	ItemID            string `json:"item_id"`
	ParticipantID     string `json:"participant_id"`
	ExpectedTurnIndex int    `json:"expected_turn_index"`
}

type StartRoundResponse struct {
	Round RoundView `json:"round"`
}

type PlaceBidRequest struct {
	RoomID        string `json:"room_id"`
	ItemID        string `json:"item_id"`
	ParticipantID string `json:"participant_id"`
	Amount        int    `json:"amount"`
}

type PlaceBidResponse struct {
	Bid BidView `json:"bid"`
}

type CloseRoundRequest struct {
	RoomID string `json:"room_id"`
	ItemID string `json:"item_id"`
}

type CloseRoundResponse struct {
	// Proceeded is false when another trigger closed the round first.
	Proceeded bool `json:"proceeded"`
}

type SkipTurnRequest struct {
	RoomID string `json:"room_id"`
}

type SkipTurnResponse struct {
	NewTurnIndex int `json:"new_turn_index"`
}

type GetRoomRequest struct {
	RoomID string `json:"room_id"`
}

type GetRoomResponse struct {
	Room         RoomView          `json:"room"`
	Participants []ParticipantView `json:"participants"`
	Items        []ItemView        `json:"items"`
	Round        *RoundView        `json:"round,omitempty"`
	Bids         []BidView         `json:"bids,omitempty"`
}

type ListHistoryRequest struct {
	RoomID string `json:"room_id"`
}

type ListHistoryResponse struct {
	Rounds []OutcomeView `json:"rounds"`
}

// RoomService messages.

type CreateRoomRequest struct {
	Name string `json:"name"`
	// Budget per participant; the server default applies when zero.
	Budget       int      `json:"budget"`
	Participants []string `json:"participants"`
}

type CreateRoomResponse struct {
	Room         RoomView          `json:"room"`
	Participants []ParticipantView `json:"participants"`
}

type NewItem struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Team     string `json:"team"`
}

type AddItemsRequest struct {
	RoomID string    `json:"room_id"`
	Items  []NewItem `json:"items"`
}

type AddItemsResponse struct {
	Items []ItemView `json:"items"`
}

type ListRoomsRequest struct{}

type ListRoomsResponse struct {
	Rooms []RoomView `json:"rooms"`
}

type PauseRoomRequest struct {
	RoomID string `json:"room_id"`
}

type PauseRoomResponse struct {
	Room RoomView `json:"room"`
}

type ResumeRoomRequest struct {
	RoomID string `json:"room_id"`
}

type ResumeRoomResponse struct {
	Room RoomView `json:"room"`
}

func (r *StartRoundRequest) GetRoomID() string  { return r.RoomID }
func (r *PlaceBidRequest) GetRoomID() string    { return r.RoomID }
func (r *CloseRoundRequest) GetRoomID() string  { return r.RoomID }
func (r *SkipTurnRequest) GetRoomID() string    { return r.RoomID }
func (r *GetRoomRequest) GetRoomID() string     { return r.RoomID }
func (r *ListHistoryRequest) GetRoomID() string { return r.RoomID }
func (r *AddItemsRequest) GetRoomID() string    { return r.RoomID }
func (r *PauseRoomRequest) GetRoomID() string   { return r.RoomID }
func (r *ResumeRoomRequest) GetRoomID() string  { return r.RoomID }
