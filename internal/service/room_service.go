package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/draftbid/internal/auction"
	"github.com/mmynk/draftbid/internal/engine"
	"github.com/mmynk/draftbid/internal/models"
	"github.com/mmynk/draftbid/internal/storage"
)

// RoomService sets rooms up and pauses or resumes them.
type RoomService struct {
	store         storage.Store
	engine        *engine.Engine
	defaultBudget int
}

// NewRoomService creates a RoomService. defaultBudget applies to rooms
// created without an explicit budget.
func NewRoomService(store storage.Store, e *engine.Engine, defaultBudget int) *RoomService {
	return &RoomService{store: store, engine: e, defaultBudget: defaultBudget}
}

// CreateRoom creates a room; participants take turns in the order given.
func (s *RoomService) CreateRoom(ctx context.Context, req *connect.Request[CreateRoomRequest]) (*connect.Response[CreateRoomResponse], error) {
	slog.Info("CreateRoom request received",
		"name", req.Msg.Name,
		"participants_count", len(req.Msg.Participants),
	)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, invalidArgument("room name is required")
	}
	if len(req.Msg.Participants) == 0 {
		return nil, invalidArgument("at least one participant is required")
	}
	budget := req.Msg.Budget
	if budget == 0 {
		budget = s.defaultBudget
	}
	if budget < auction.FallbackPrice {
		return nil, invalidArgument(fmt.Sprintf("budget must be at least %d", auction.FallbackPrice))
	}

	room := &models.Room{Name: name, DefaultBudget: budget}
	participants := make([]*models.Participant, len(req.Msg.Participants))
	seen := make(map[string]bool, len(req.Msg.Participants))
	for i, raw := range req.Msg.Participants {
		display := strings.TrimSpace(raw)
		if display == "" {
			return nil, invalidArgument("participant names must not be empty")
		}
		if seen[display] {
			return nil, invalidArgument(fmt.Sprintf("duplicate participant %q", display))
		}
		seen[display] = true
		participants[i] = &models.Participant{DisplayName: display, Budget: budget, TurnOrder: i}
	}

	if err := s.store.CreateRoom(ctx, room, participants); err != nil {
		slog.Error("CreateRoom failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Room created", "room_id", room.ID)

	views := make([]ParticipantView, len(participants))
	for i, p := range participants {
		views[i] = toParticipantView(p, auction.NewLedger(p, false).MaxBid())
	}
	return connect.NewResponse(&CreateRoomResponse{
		Room:         toRoomView(room, len(participants)),
		Participants: views,
	}), nil
}

// AddItems adds unallocated items to a room.
func (s *RoomService) AddItems(ctx context.Context, req *connect.Request[AddItemsRequest]) (*connect.Response[AddItemsResponse], error) {
	slog.Info("AddItems request received", "room_id", req.Msg.RoomID, "items_count", len(req.Msg.Items))

	if len(req.Msg.Items) == 0 {
		return nil, invalidArgument("at least one item is required")
	}
	items := make([]*models.Item, len(req.Msg.Items))
	for i, in := range req.Msg.Items {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, invalidArgument("item names must not be empty")
		}
		cat, err := models.ParseCategory(strings.ToUpper(strings.TrimSpace(in.Category)))
		if err != nil {
			return nil, invalidArgument(err.Error())
		}
		items[i] = &models.Item{Name: name, Category: cat, Team: strings.TrimSpace(in.Team)}
	}

	room, err := s.store.GetRoom(ctx, req.Msg.RoomID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if room.Status == models.RoomCompleted {
		return nil, toConnectError(auction.ErrRoomCompleted)
	}

	if err := s.store.AddItems(ctx, room.ID, items); err != nil {
		slog.Error("AddItems failed", "room_id", room.ID, "error", err)
		return nil, toConnectError(err)
	}

	views := make([]ItemView, len(items))
	for i, item := range items {
		views[i] = toItemView(item)
	}
	slog.Info("Items added", "room_id", room.ID, "count", len(items))
	return connect.NewResponse(&AddItemsResponse{Items: views}), nil
}

// ListRooms lists every room, newest first.
func (s *RoomService) ListRooms(ctx context.Context, req *connect.Request[ListRoomsRequest]) (*connect.Response[ListRoomsResponse], error) {
	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		slog.Error("ListRooms failed", "error", err)
		return nil, toConnectError(err)
	}

	views := make([]RoomView, len(rooms))
	for i, r := range rooms {
		participants, err := s.store.ListParticipants(ctx, r.ID)
		if err != nil {
			slog.Error("ListRooms failed", "room_id", r.ID, "error", err)
			return nil, toConnectError(err)
		}
		views[i] = toRoomView(r, len(participants))
	}

	slog.Info("ListRooms successful", "count", len(views))
	return connect.NewResponse(&ListRoomsResponse{Rooms: views}), nil
}

// PauseRoom stops new rounds from starting in a room.
func (s *RoomService) PauseRoom(ctx context.Context, req *connect.Request[PauseRoomRequest]) (*connect.Response[PauseRoomResponse], error) {
	slog.Info("PauseRoom request received", "room_id", req.Msg.RoomID)

	room, err := s.engine.PauseRoom(ctx, req.Msg.RoomID)
	if err != nil {
		logFailure("PauseRoom", req.Msg.RoomID, err)
		return nil, toConnectError(err)
	}
	view, err := s.roomView(ctx, room)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&PauseRoomResponse{Room: view}), nil
}

// ResumeRoom reopens a paused room.
func (s *RoomService) ResumeRoom(ctx context.Context, req *connect.Request[ResumeRoomRequest]) (*connect.Response[ResumeRoomResponse], error) {
	slog.Info("ResumeRoom request received", "room_id", req.Msg.RoomID)

	room, err := s.engine.ResumeRoom(ctx, req.Msg.RoomID)
	if err != nil {
		logFailure("ResumeRoom", req.Msg.RoomID, err)
		return nil, toConnectError(err)
	}
	view, err := s.roomView(ctx, room)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&ResumeRoomResponse{Room: view}), nil
}

func (s *RoomService) roomView(ctx context.Context, room *models.Room) (RoomView, error) {
	participants, err := s.store.ListParticipants(ctx, room.ID)
	if err != nil {
		return RoomView{}, toConnectError(err)
	}
	return toRoomView(room, len(participants)), nil
}
