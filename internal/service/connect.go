package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

const (
	AuctionServiceName = "draftbid.v1.AuctionService"
	RoomServiceName    = "draftbid.v1.RoomService"
)

const (
	AuctionServiceStartRoundProcedure  = "/" + AuctionServiceName + "/StartRound"
	AuctionServicePlaceBidProcedure    = "/" + AuctionServiceName + "/PlaceBid"
	AuctionServiceCloseRoundProcedure  = "/" + AuctionServiceName + "/CloseRound"
	AuctionServiceSkipTurnProcedure    = "/" + AuctionServiceName + "/SkipTurn"
	AuctionServiceGetRoomProcedure     = "/" + AuctionServiceName + "/GetRoom"
	AuctionServiceListHistoryProcedure = "/" + AuctionServiceName + "/ListHistory"

	RoomServiceCreateRoomProcedure = "/" + RoomServiceName + "/CreateRoom"
	RoomServiceAddItemsProcedure   = "/" + RoomServiceName + "/AddItems"
	RoomServiceListRoomsProcedure  = "/" + RoomServiceName + "/ListRooms"
	RoomServicePauseRoomProcedure  = "/" + RoomServiceName + "/PauseRoom"
	RoomServiceResumeRoomProcedure = "/" + RoomServiceName + "/ResumeRoom"
)

// NewAuctionServiceHandler builds the HTTP handler for the auction service.
// It returns the path prefix to mount it on.
func NewAuctionServiceHandler(svc *AuctionService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	mux := http.NewServeMux()
	mux.Handle(AuctionServiceStartRoundProcedure, connect.NewUnaryHandler(AuctionServiceStartRoundProcedure, svc.StartRound, opts...))
	mux.Handle(AuctionServicePlaceBidProcedure, connect.NewUnaryHandler(AuctionServicePlaceBidProcedure, svc.PlaceBid, opts...))
	mux.Handle(AuctionServiceCloseRoundProcedure, connect.NewUnaryHandler(AuctionServiceCloseRoundProcedure, svc.CloseRound, opts...))
	mux.Handle(AuctionServiceSkipTurnProcedure, connect.NewUnaryHandler(AuctionServiceSkipTurnProcedure, svc.SkipTurn, opts...))
	mux.Handle(AuctionServiceGetRoomProcedure, connect.NewUnaryHandler(AuctionServiceGetRoomProcedure, svc.GetRoom, opts...))
	mux.Handle(AuctionServiceListHistoryProcedure, connect.NewUnaryHandler(AuctionServiceListHistoryProcedure, svc.ListHistory, opts...))
	return "/" + AuctionServiceName + "/", mux
}

// NewRoomServiceHandler builds the HTTP handler for the room service.
func NewRoomServiceHandler(svc *RoomService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	mux := http.NewServeMux()
	mux.Handle(RoomServiceCreateRoomProcedure, connect.NewUnaryHandler(RoomServiceCreateRoomProcedure, svc.CreateRoom, opts...))
	mux.Handle(RoomServiceAddItemsProcedure, connect.NewUnaryHandler(RoomServiceAddItemsProcedure, svc.AddItems, opts...))
	mux.Handle(RoomServiceListRoomsProcedure, connect.NewUnaryHandler(RoomServiceListRoomsProcedure, svc.ListRooms, opts...))
	mux.Handle(RoomServicePauseRoomProcedure, connect.NewUnaryHandler(RoomServicePauseRoomProcedure, svc.PauseRoom, opts...))
	mux.Handle(RoomServiceResumeRoomProcedure, connect.NewUnaryHandler(RoomServiceResumeRoomProcedure, svc.ResumeRoom, opts...))
	return "/" + RoomServiceName + "/", mux
}

// AuctionServiceClient calls the auction service.
type AuctionServiceClient struct {
	startRound  *connect.Client[StartRoundRequest, StartRoundResponse]
	placeBid    *connect.Client[PlaceBidRequest, PlaceBidResponse]
	closeRound  *connect.Client[CloseRoundRequest, CloseRoundResponse]
	skipTurn    *connect.Client[SkipTurnRequest, SkipTurnResponse]
	getRoom     *connect.Client[GetRoomRequest, GetRoomResponse]
	listHistory *connect.Client[ListHistoryRequest, ListHistoryResponse]
}

// NewAuctionServiceClient creates a client for the auction service at baseURL.
func NewAuctionServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuctionServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &AuctionServiceClient{
		startRound:  connect.NewClient[StartRoundRequest, StartRoundResponse](httpClient, baseURL+AuctionServiceStartRoundProcedure, opts...),
		placeBid:    connect.NewClient[PlaceBidRequest, PlaceBidResponse](httpClient, baseURL+AuctionServicePlaceBidProcedure, opts...),
		closeRound:  connect.NewClient[CloseRoundRequest, CloseRoundResponse](httpClient, baseURL+AuctionServiceCloseRoundProcedure, opts...),
		skipTurn:    connect.NewClient[SkipTurnRequest, SkipTurnResponse](httpClient, baseURL+AuctionServiceSkipTurnProcedure, opts...),
		getRoom:     connect.NewClient[GetRoomRequest, GetRoomResponse](httpClient, baseURL+AuctionServiceGetRoomProcedure, opts...),
		listHistory: connect.NewClient[ListHistoryRequest, ListHistoryResponse](httpClient, baseURL+AuctionServiceListHistoryProcedure, opts...),
	}
}

func (c *AuctionServiceClient) StartRound(ctx context.Context, req *connect.Request[StartRoundRequest]) (*connect.Response[StartRoundResponse], error) {
	return c.startRound.CallUnary(ctx, req)
}

func (c *AuctionServiceClient) PlaceBid(ctx context.Context, req *connect.Request[PlaceBidRequest]) (*connect.Response[PlaceBidResponse], error) {
	return c.placeBid.CallUnary(ctx, req)
}

func (c *AuctionServiceClient) CloseRound(ctx context.Context, req *connect.Request[CloseRoundRequest]) (*connect.Response[CloseRoundResponse], error) {
	return c.closeRound.CallUnary(ctx, req)
}

func (c *AuctionServiceClient) SkipTurn(ctx context.Context, req *connect.Request[SkipTurnRequest]) (*connect.Response[SkipTurnResponse], error) {
	return c.skipTurn.CallUnary(ctx, req)
}

func (c *AuctionServiceClient) GetRoom(ctx context.Context, req *connect.Request[GetRoomRequest]) (*connect.Response[GetRoomResponse], error) {
	return c.getRoom.CallUnary(ctx, req)
}

func (c *AuctionServiceClient) ListHistory(ctx context.Context, req *connect.Request[ListHistoryRequest]) (*connect.Response[ListHistoryResponse], error) {
	return c.listHistory.CallUnary(ctx, req)
}

// RoomServiceClient calls the room service.
type RoomServiceClient struct {
	createRoom *connect.Client[CreateRoomRequest, CreateRoomResponse]
	addItems   *connect.Client[AddItemsRequest, AddItemsResponse]
	listRooms  *connect.Client[ListRoomsRequest, ListRoomsResponse]
	pauseRoom  *connect.Client[PauseRoomRequest, PauseRoomResponse]
	resumeRoom *connect.Client[ResumeRoomRequest, ResumeRoomResponse]
}

// NewRoomServiceClient creates a client for the room service at baseURL.
func NewRoomServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *RoomServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &RoomServiceClient{
		createRoom: connect.NewClient[CreateRoomRequest, CreateRoomResponse](httpClient, baseURL+RoomServiceCreateRoomProcedure, opts...),
		addItems:   connect.NewClient[AddItemsRequest, AddItemsResponse](httpClient, baseURL+RoomServiceAddItemsProcedure, opts...),
		listRooms:  connect.NewClient[ListRoomsRequest, ListRoomsResponse](httpClient, baseURL+RoomServiceListRoomsProcedure, opts...),
		pauseRoom:  connect.NewClient[PauseRoomRequest, PauseRoomResponse](httpClient, baseURL+RoomServicePauseRoomProcedure, opts...),
		resumeRoom: connect.NewClient[ResumeRoomRequest, ResumeRoomResponse](httpClient, baseURL+RoomServiceResumeRoomProcedure, opts...),
	}
}

func (c *RoomServiceClient) CreateRoom(ctx context.Context, req *connect.Request[CreateRoomRequest]) (*connect.Response[CreateRoomResponse], error) {
	return c.createRoom.CallUnary(ctx, req)
}

func (c *RoomServiceClient) AddItems(ctx context.Context, req *connect.Request[AddItemsRequest]) (*connect.Response[AddItemsResponse], error) {
	return c.addItems.CallUnary(ctx, req)
}

func (c *RoomServiceClient) ListRooms(ctx context.Context, req *connect.Request[ListRoomsRequest]) (*connect.Response[ListRoomsResponse], error) {
	return c.listRooms.CallUnary(ctx, req)
}

func (c *RoomServiceClient) PauseRoom(ctx context.Context, req *connect.Request[PauseRoomRequest]) (*connect.Response[PauseRoomResponse], error) {
	return c.pauseRoom.CallUnary(ctx, req)
}

func (c *RoomServiceClient) ResumeRoom(ctx context.Context, req *connect.Request[ResumeRoomRequest]) (*connect.Response[ResumeRoomResponse], error) {
	return c.resumeRoom.CallUnary(ctx, req)
}
