package services

import (
	"fmt"

	"github.com/tbourn/room-history/internal/domain"
	"github.com/tbourn/room-history/internal/utils"
)

// HistoryParams are the raw query values of a history request. Empty means
// absent.
type HistoryParams struct {
	RoomID   string
	PerPage  string
	LastTime string
	LastID   string
}

// PageQuery is a normalized history request. It is the only input to cache
// key construction.
type PageQuery struct {
	RoomID  int64
	PerPage int
	Cursor  domain.Cursor
}

// PageLimits bounds the page size.
type PageLimits struct {
	Default int
	Max     int
}

// Resolve validates and normalizes p.
//
//   - room_id is required and must be a positive integer.
//   - per_page defaults to lim.Default and is clamped to [1, lim.Max].
//   - last_time and last_id default to 0; negatives clamp to 0.
//   - last_time == 0 selects the first page and ignores last_id.
func Resolve(p HistoryParams, lim PageLimits) (PageQuery, error) {
	if lim.Max < 1 {
		lim.Max = 50
	}
	if lim.Default < 1 || lim.Default > lim.Max {
		lim.Default = utils.Clamp(20, 1, lim.Max)
	}

	room, err := utils.ParseInt64Opt(p.RoomID, 0)
	if err != nil || room <= 0 {
		return PageQuery{}, fmt.Errorf("%w: room_id must be a positive integer", ErrInvalidArgument)
	}

	perPage, err := utils.ParseInt64Opt(p.PerPage, int64(lim.Default))
	if err != nil {
		return PageQuery{}, fmt.Errorf("%w: per_page must be an integer", ErrInvalidArgument)
	}
	if perPage > int64(lim.Max) {
		perPage = int64(lim.Max)
	}

	lastTime, err := utils.ParseInt64Opt(p.LastTime, 0)
	if err != nil {
		return PageQuery{}, fmt.Errorf("%w: last_time must be an integer", ErrInvalidArgument)
	}
	lastID, err := utils.ParseInt64Opt(p.LastID, 0)
	if err != nil {
		return PageQuery{}, fmt.Errorf("%w: last_id must be an integer", ErrInvalidArgument)
	}

	q := PageQuery{
		RoomID:  room,
		PerPage: utils.Clamp(int(max(perPage, 1)), 1, lim.Max),
	}
	if lastTime > 0 {
		q.Cursor = domain.Cursor{CreateTime: lastTime, SequenceID: max(lastID, 0)}
	}
	return q, nil
}
