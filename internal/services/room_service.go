package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/tbourn/room-history/internal/domain"
)

// RoomRepo defines the repository contract required by RoomService.
type RoomRepo interface {
	ListActiveRooms(ctx context.Context, db *gorm.DB, parentIDs []int64) ([]domain.Room, error)
}

// RoomService lists the active rooms and the realtime endpoint of each.
type RoomService struct {
	DB   *gorm.DB
	Repo RoomRepo

	ParentIDs []int64
	WSURLs    map[int64]string
	WSDefault string
}

// ListActive returns the active rooms under the configured parent
// categories, each annotated with its websocket URL.
func (s *RoomService) ListActive(ctx context.Context) ([]domain.RoomView, error) {
	ctx, span := otel.Tracer("services/RoomService").Start(ctx, "ListActive")
	defer span.End()

	rooms, err := s.Repo.ListActiveRooms(ctx, s.DB, s.ParentIDs)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: list rooms: %v", ErrDependencyUnavailable, err)
	}
	out := make([]domain.RoomView, 0, len(rooms))
	for _, r := range rooms {
		ws, ok := s.WSURLs[r.ID]
		if !ok {
			ws = s.WSDefault
		}
		out = append(out, domain.RoomView{Room: r, WSURL: ws})
	}
	return out, nil
}
