package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/room-history/internal/domain"
	"github.com/tbourn/room-history/internal/repo"
)

// ---------- test helpers ----------

func newHistoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:history_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func addIndex(t *testing.T, db *gorm.DB, seq, room int64, tag domain.TypeTag, ref, ts int64) {
	t.Helper()
	e := domain.MessageIndexEntry{SequenceID: seq, RoomID: room, Type: tag, ContentRef: ref, CreateTime: ts}
	if err := db.Create(&e).Error; err != nil {
		t.Fatalf("seed index: %v", err)
	}
}

func addText(t *testing.T, db *gorm.DB, tag domain.TypeTag, id int64, msg string) {
	t.Helper()
	table, _ := tag.Table()
	if err := db.Table(table).Create(&domain.TextMessage{ID: id, Message: msg}).Error; err != nil {
		t.Fatalf("seed %s: %v", table, err)
	}
}

func addUserStake(t *testing.T, db *gorm.DB, id, userID int64, bet string) {
	t.Helper()
	m := domain.UserStakeMessage{ID: id, UserID: userID, Message: fmt.Sprintf(`{"data":{"bet":%q}}`, bet)}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("seed user stake: %v", err)
	}
}

func addAgentStake(t *testing.T, db *gorm.DB, id int64, robotID, bet string) {
	t.Helper()
	m := domain.AgentStakeMessage{ID: id, RobotID: robotID, Message: fmt.Sprintf(`{"data":{"bet":%q}}`, bet)}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("seed agent stake: %v", err)
	}
}

func addUser(t *testing.T, db *gorm.DB, id int64, nickname, avatar string) {
	t.Helper()
	if err := db.Create(&domain.User{ID: id, Nickname: nickname, Avatar: avatar}).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func addAgent(t *testing.T, db *gorm.DB, id int64, nickname, avatar string) {
	t.Helper()
	if err := db.Create(&domain.Agent{ID: id, Nickname: nickname, Avatar: avatar}).Error; err != nil {
		t.Fatalf("seed agent: %v", err)
	}
}

// countingRepo proxies the repo package and counts store round trips.
// Setting a fail* error makes the matching call fail.
type countingRepo struct {
	index, content, users, agents atomic.Int32

	failIndex, failContent, failUsers, failAgents error
}

func (r *countingRepo) ListIndexPage(ctx context.Context, db *gorm.DB, roomID int64, after domain.Cursor, limit int) ([]domain.MessageIndexEntry, error) {
	r.index.Add(1)
	if r.failIndex != nil {
		return nil, r.failIndex
	}
	return repo.ListIndexPage(ctx, db, roomID, after, limit)
}

func (r *countingRepo) LoadContent(ctx context.Context, db *gorm.DB, tag domain.TypeTag, ids []int64) (map[int64]domain.ContentRow, error) {
	r.content.Add(1)
	if r.failContent != nil {
		return nil, r.failContent
	}
	return repo.LoadContent(ctx, db, tag, ids)
}

func (r *countingRepo) LoadUsers(ctx context.Context, db *gorm.DB, ids []int64) (map[int64]domain.User, error) {
	r.users.Add(1)
	if r.failUsers != nil {
		return nil, r.failUsers
	}
	return repo.LoadUsers(ctx, db, ids)
}

func (r *countingRepo) LoadAgents(ctx context.Context, db *gorm.DB, ids []int64) (map[int64]domain.Agent, error) {
	r.agents.Add(1)
	if r.failAgents != nil {
		return nil, r.failAgents
	}
	return repo.LoadAgents(ctx, db, ids)
}

func (r *countingRepo) trips() int32 {
	return r.index.Load() + r.content.Load() + r.users.Load() + r.agents.Load()
}

var errStoreDown = errors.New("store down")

func itemIDs(p *domain.HistoryPage) []int64 {
	out := make([]int64, len(p.Items))
	for i, it := range p.Items {
		out[i] = it.ID
	}
	return out
}
