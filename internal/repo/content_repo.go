package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/room-history/internal/domain"
)

// ErrUnknownType is returned when a type tag has no content table.
var ErrUnknownType = errors.New("unknown message type")

// LoadContent batch-loads the content rows for ids from the table backing
// tag, keyed by primary key. Ids without a row are simply absent from the
// result.
func LoadContent(ctx context.Context, db *gorm.DB, tag domain.TypeTag, ids []int64) (map[int64]domain.ContentRow, error) {
	table, ok := tag.Table()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, tag)
	}
	out := make(map[int64]domain.ContentRow, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cols := []string{"id", "message"}
	switch tag {
	case domain.TypeUserBet:
		cols = append(cols, "user_id")
	case domain.TypeRobotBet:
		cols = append(cols, "robot_id")
	}

	var rows []domain.ContentRow
	err := db.WithContext(ctx).
		Table(table).
		Select(cols).
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ID] = r
	}
	return out, nil
}

// LoadUsers batch-loads users by id.
func LoadUsers(ctx context.Context, db *gorm.DB, ids []int64) (map[int64]domain.User, error) {
	out := make(map[int64]domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.User
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, u := range rows {
		out[u.ID] = u
	}
	return out, nil
}

// LoadAgents batch-loads scripted agents by their numeric id.
func LoadAgents(ctx context.Context, db *gorm.DB, ids []int64) (map[int64]domain.Agent, error) {
	out := make(map[int64]domain.Agent, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.Agent
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, a := range rows {
		out[a.ID] = a
	}
	return out, nil
}
