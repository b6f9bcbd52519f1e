package service

import (
	"github.com/mmynk/draftbid/internal/auction"
	"github.com/mmynk/draftbid/internal/engine"
	"github.com/mmynk/draftbid/internal/models"
)

func toRoomView(r *models.Room, participants int) RoomView {
	return RoomView{
		ID:               r.ID,
		Name:             r.Name,
		Status:           string(r.Status),
		DefaultBudget:    r.DefaultBudget,
		CurrentTurnIndex: auction.CurrentTurn(r.CurrentTurn, participants),
		CreatedAt:        r.CreatedAt,
	}
}

func toParticipantView(p *models.Participant, maxBid int) ParticipantView {
	counts := make(map[string]int, len(models.Categories))
	for _, c := range models.Categories {
		counts[string(c)] = p.Counts[c]
	}
	return ParticipantView{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Budget:      p.Budget,
		TurnOrder:   p.TurnOrder,
		Counts:      counts,
		Held:        p.Held(),
		MaxBid:      maxBid,
	}
}

func toItemView(i *models.Item) ItemView {
	return ItemView{
		ID:          i.ID,
		Name:        i.Name,
		Category:    string(i.Category),
		Team:        i.Team,
		Allocated:   i.Allocated,
		AllocatedTo: i.AllocatedTo,
		Price:       i.Price,
	}
}

func toRoundView(r *models.Round, remaining int) RoundView {
	v := RoundView{
		ID:          r.ID,
		RoomID:      r.RoomID,
		ItemID:      r.ItemID,
		NominatorID: r.NominatorID,
		TurnIndex:   r.TurnIndex,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Active:      r.Active,
		CloseReason: string(r.CloseReason),
		Remaining:   remaining,
	}
	if !r.ClosedAt.IsZero() {
		closed := r.ClosedAt
		v.ClosedAt = &closed
	}
	return v
}

func toBidView(b models.Bid) BidView {
	return BidView{
		ParticipantID: b.ParticipantID,
		Amount:        b.Amount,
		PlacedAt:      b.PlacedAt,
	}
}

func toOutcomeView(o *models.Outcome) OutcomeView {
	bids := make([]BidRecordView, len(o.Bids))
	for i, b := range o.Bids {
		bids[i] = BidRecordView{
			ParticipantID: b.ParticipantID,
			DisplayName:   b.DisplayName,
			Amount:        b.Amount,
			OffsetSeconds: b.Offset.Seconds(),
		}
	}
	return OutcomeView{
		RoundID:         o.RoundID,
		Item:            toItemView(&o.Item),
		WinnerID:        o.WinnerID,
		WinnerName:      o.WinnerName,
		Price:           o.Price,
		IsNoBidFallback: o.Fallback,
		Bids:            bids,
		PreviousTurn:    o.PreviousTurn,
		NewTurn:         o.NewTurn,
		RoomCompleted:   o.RoomCompleted,
		SettledAt:       o.SettledAt,
	}
}

func toSnapshotResponse(s *engine.Snapshot) *GetRoomResponse {
	resp := &GetRoomResponse{
		Room:         toRoomView(s.Room, len(s.Participants)),
		Participants: make([]ParticipantView, len(s.Participants)),
		Items:        make([]ItemView, len(s.Items)),
	}
	for i, p := range s.Participants {
		resp.Participants[i] = toParticipantView(p.Participant, p.MaxBid)
	}
	for i, item := range s.Items {
		resp.Items[i] = toItemView(item)
	}
	if s.Round != nil {
		rv := toRoundView(s.Round, s.Remaining)
		resp.Round = &rv
		for _, b := range s.Bids {
			resp.Bids = append(resp.Bids, toBidView(b))
		}
	}
	return resp
}
