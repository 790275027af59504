// History HTTP handlers.
//
// This file exposes the read-only endpoints of the room history API:
//   - GET /chathistory/history   (cursor-paginated room history)
//   - GET /chathistory/rooms     (active rooms and their realtime endpoints)
//
// Handlers are transport-thin: raw query values go to the service untouched
// (the service owns parsing, defaults and clamping) and service errors are
// translated into stable codes. Internal causes are logged, never returned.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/room-history/internal/domain"
	"github.com/tbourn/room-history/internal/http/middleware"
	"github.com/tbourn/room-history/internal/services"
)

//
// Service contracts (context-aware)
//

// HistoryService serves cursor-paginated room history.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type HistoryService interface {
	// History returns the page selected by p. Invalid parameters yield
	// services.ErrInvalidArgument.
	History(ctx context.Context, p services.HistoryParams) (*domain.HistoryPage, error)
}

// RoomService lists the rooms clients can subscribe to.
type RoomService interface {
	ListActive(ctx context.Context) ([]domain.RoomView, error)
}

//
// Handler wiring
//

// Handlers groups the history API endpoints.
type Handlers struct {
	historySvc HistoryService
	roomSvc    RoomService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(historySvc HistoryService, roomSvc RoomService) *Handlers {
	return &Handlers{historySvc: historySvc, roomSvc: roomSvc}
}

//
// DTOs
//

// HistoryResponse documents the success envelope of GetHistory.
type HistoryResponse struct {
	Code int                `json:"code" example:"1"`
	Data domain.HistoryPage `json:"data"`
	Msg  string             `json:"msg"  example:"success"`
}

// ListRoomsResponse is the JSON body of ListRooms.
type ListRoomsResponse struct {
	Rooms []domain.RoomView `json:"data"`
}

//
// Handlers
//

// GetHistory godoc
// @ID          getHistory
// @Summary     Room history page
// @Description Returns up to per_page display items of a room, newest first.
// @Description Pass the last_time/last_id of a response to get the next older page;
// @Description both are null once the history is exhausted.
// @Tags        History
// @Produce     json
//
// @Param       room_id    query  int  true   "Room ID"                       minimum(1)
// @Param       per_page   query  int  false  "Items per page"                minimum(1) maximum(50) default(20)
// @Param       last_time  query  int  false  "Cursor: createtime of the last item seen (epoch seconds)"
// @Param       last_id    query  int  false  "Cursor: idx_id of the last item seen"
//
// @Success     200  {object}  handlers.HistoryResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chathistory/history [get]
func (h *Handlers) GetHistory(c *gin.Context) {
	page, err := h.historySvc.History(c.Request.Context(), services.HistoryParams{
		RoomID:   c.Query("room_id"),
		PerPage:  c.Query("per_page"),
		LastTime: c.Query("last_time"),
		LastID:   c.Query("last_id"),
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidArgument) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		middleware.LoggerFrom(c).Error().Err(err).Msg("history failed")
		fail(c, http.StatusInternalServerError, ErrCodeHistoryFailed, "failed to load history")
		return
	}
	success(c, page)
}

// ListRooms godoc
// @ID          listRooms
// @Summary     Active rooms
// @Description Lists the active rooms with the websocket URL of each.
// @Tags        History
// @Produce     json
//
// @Success     200  {object}  handlers.ListRoomsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chathistory/rooms [get]
func (h *Handlers) ListRooms(c *gin.Context) {
	rooms, err := h.roomSvc.ListActive(c.Request.Context())
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("list rooms failed")
		fail(c, http.StatusInternalServerError, ErrCodeRoomsFailed, "failed to list rooms")
		return
	}
	ok(c, http.StatusOK, ListRoomsResponse{Rooms: rooms})
}
