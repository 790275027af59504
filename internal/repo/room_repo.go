package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/room-history/internal/domain"
)

// RoomStatusActive marks a room that is open for play.
const RoomStatusActive = 1

// ListActiveRooms returns the active rooms whose parent category is one of
// parentIDs, ordered by id. An empty parentIDs yields no rooms.
func ListActiveRooms(ctx context.Context, db *gorm.DB, parentIDs []int64) ([]domain.Room, error) {
	out := []domain.Room{}
	if len(parentIDs) == 0 {
		return out, nil
	}
	err := db.WithContext(ctx).
		Where("status = ? AND parent_id IN ?", RoomStatusActive, parentIDs).
		Order("id ASC").
		Find(&out).Error
	return out, err
}
