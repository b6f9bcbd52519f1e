package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/draftbid/internal/auction"
	"github.com/mmynk/draftbid/internal/engine"
)

// AuctionService exposes the auction commands and the room reads.
type AuctionService struct {
	engine *engine.Engine
}

// NewAuctionService creates an AuctionService over the given engine.
func NewAuctionService(e *engine.Engine) *AuctionService {
	return &AuctionService{engine: e}
}

// StartRound nominates an item and opens its bidding window.
func (s *AuctionService) StartRound(ctx context.Context, req *connect.Request[StartRoundRequest]) (*connect.Response[StartRoundResponse], error) {
	slog.Info("StartRound request received",
		"room_id", req.Msg.RoomID,
		"item_id", req.Msg.ItemID,
		"participant_id", req.Msg.ParticipantID,
		"expected_turn", req.Msg.ExpectedTurnIndex,
	)
	if strings.TrimSpace(req.Msg.RoomID) == "" || strings.TrimSpace(req.Msg.ItemID) == "" {
		return nil, invalidArgument("room_id and item_id are required")
	}

	round, err := s.engine.StartRound(ctx, engine.StartRequest{
		RoomID:        req.Msg.RoomID,
		ItemID:        req.Msg.ItemID,
		ParticipantID: req.Msg.ParticipantID,
		ExpectedTurn:  req.Msg.ExpectedTurnIndex,
	})
	if err != nil {
		logFailure("StartRound", req.Msg.RoomID, err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&StartRoundResponse{
		Round: toRoundView(round, auction.RemainingSeconds(round.EndTime, round.StartTime)),
	}), nil
}

// PlaceBid records a bid, or a pass when the amount is zero.
func (s *AuctionService) PlaceBid(ctx context.Context, req *connect.Request[PlaceBidRequest]) (*connect.Response[PlaceBidResponse], error) {
	if strings.TrimSpace(req.Msg.RoomID) == "" || strings.TrimSpace(req.Msg.ParticipantID) == "" {
		return nil, invalidArgument("room_id and participant_id are required")
	}

	bid, err := s.engine.PlaceBid(ctx, engine.BidRequest{
		RoomID:        req.Msg.RoomID,
		ItemID:        req.Msg.ItemID,
		ParticipantID: req.Msg.ParticipantID,
		Amount:        req.Msg.Amount,
	})
	if err != nil {
		logFailure("PlaceBid", req.Msg.RoomID, err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&PlaceBidResponse{Bid: toBidView(*bid)}), nil
}

// CloseRound closes the room's active round on an admin's request.
func (s *AuctionService) CloseRound(ctx context.Context, req *connect.Request[CloseRoundRequest]) (*connect.Response[CloseRoundResponse], error) {
	slog.Info("CloseRound request received", "room_id", req.Msg.RoomID, "item_id", req.Msg.ItemID)
	if strings.TrimSpace(req.Msg.RoomID) == "" {
		return nil, invalidArgument("room_id is required")
	}

	proceeded, err := s.engine.CloseRound(ctx, req.Msg.RoomID, req.Msg.ItemID)
	if err != nil {
		logFailure("CloseRound", req.Msg.RoomID, err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&CloseRoundResponse{Proceeded: proceeded}), nil
}

// SkipTurn passes the nomination to the next participant.
func (s *AuctionService) SkipTurn(ctx context.Context, req *connect.Request[SkipTurnRequest]) (*connect.Response[SkipTurnResponse], error) {
	slog.Info("SkipTurn request received", "room_id", req.Msg.RoomID)

	next, err := s.engine.SkipTurn(ctx, req.Msg.RoomID)
	if err != nil {
		logFailure("SkipTurn", req.Msg.RoomID, err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&SkipTurnResponse{NewTurnIndex: next}), nil
}

// GetRoom returns the authoritative room snapshot.
func (s *AuctionService) GetRoom(ctx context.Context, req *connect.Request[GetRoomRequest]) (*connect.Response[GetRoomResponse], error) {
	snap, err := s.engine.Snapshot(ctx, req.Msg.RoomID)
	if err != nil {
		logFailure("GetRoom", req.Msg.RoomID, err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(toSnapshotResponse(snap)), nil
}

// ListHistory returns every settled round of a room with its bid list.
func (s *AuctionService) ListHistory(ctx context.Context, req *connect.Request[ListHistoryRequest]) (*connect.Response[ListHistoryResponse], error) {
	outcomes, err := s.engine.History(ctx, req.Msg.RoomID)
	if err != nil {
		logFailure("ListHistory", req.Msg.RoomID, err)
		return nil, toConnectError(err)
	}

	rounds := make([]OutcomeView, len(outcomes))
	for i, o := range outcomes {
		rounds[i] = toOutcomeView(o)
	}

	slog.Info("ListHistory successful", "room_id", req.Msg.RoomID, "count", len(rounds))
	return connect.NewResponse(&ListHistoryResponse{Rounds: rounds}), nil
}

// logFailure logs rejected commands at info and failures at error.
func logFailure(method, roomID string, err error) {
	if auction.IsValidation(err) {
		slog.Info(method+" rejected", "room_id", roomID, "error", err)
		return
	}
	slog.Error(method+" failed", "room_id", roomID, "error", err)
}
