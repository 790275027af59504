// Package repo implements the data access layer for the room event feed.
// This file provides the keyset query over the unified message index.
//
// Pages are ordered newest first by (createtime DESC, idx_id DESC). A cursor
// (T, I) selects the rows strictly after it in that order:
//
//	createtime < T OR (createtime = T AND idx_id < I)
//
// A cursor with I == 0 degenerates to createtime < T and therefore skips
// every remaining row stamped T.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/room-history/internal/domain"
)

// ListIndexPage returns up to limit index rows of roomID positioned after the
// cursor. A zero cursor starts from the most recent row.
func ListIndexPage(ctx context.Context, db *gorm.DB, roomID int64, after domain.Cursor, limit int) ([]domain.MessageIndexEntry, error) {
	q := db.WithContext(ctx).
		Model(&domain.MessageIndexEntry{}).
		Where("room_id = ?", roomID)

	switch {
	case after.IsZero():
	case after.SequenceID > 0:
		q = q.Where("(createtime < ? OR (createtime = ? AND idx_id < ?))",
			after.CreateTime, after.CreateTime, after.SequenceID)
	default:
		q = q.Where("createtime < ?", after.CreateTime)
	}

	var out []domain.MessageIndexEntry
	err := q.Order("createtime DESC, idx_id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
