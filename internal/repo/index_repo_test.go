package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/room-history/internal/domain"
)

func newRepoDB(t *testing.T, migrate bool) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if migrate {
		if err := AutoMigrate(db); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

// seedIndex inserts one index row per createtime, in order, so idx_id grows
// with insertion exactly as the ingestion pipeline assigns it.
func seedIndex(t *testing.T, db *gorm.DB, roomID int64, times ...int64) []domain.MessageIndexEntry {
	t.Helper()
	out := make([]domain.MessageIndexEntry, 0, len(times))
	for i, ts := range times {
		e := domain.MessageIndexEntry{RoomID: roomID, Type: domain.TypeChat, ContentRef: int64(i + 1), CreateTime: ts}
		if err := db.Create(&e).Error; err != nil {
			t.Fatalf("seed index: %v", err)
		}
		out = append(out, e)
	}
	return out
}

func seqIDs(rows []domain.MessageIndexEntry) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.SequenceID
	}
	return out
}

func TestListIndexPage_Error_NoTable(t *testing.T) {
	db := newRepoDB(t, false)
	if _, err := ListIndexPage(context.Background(), db, 1, domain.Cursor{}, 10); err == nil {
		t.Fatalf("expected error without chat_index table")
	}
}

func TestListIndexPage_FirstPage_OrderAndRoomScope(t *testing.T) {
	db := newRepoDB(t, true)
	ctx := context.Background()

	seedIndex(t, db, 7, 98, 99, 100, 100)
	seedIndex(t, db, 8, 101, 102)

	got, err := ListIndexPage(ctx, db, 7, domain.Cursor{}, 10)
	if err != nil {
		t.Fatalf("ListIndexPage: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 rows for room 7, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		if cur.RoomID != 7 {
			t.Fatalf("row from foreign room: %+v", cur)
		}
		if cur.CreateTime > prev.CreateTime || (cur.CreateTime == prev.CreateTime && cur.SequenceID >= prev.SequenceID) {
			t.Fatalf("rows not in (createtime DESC, idx_id DESC) order: %+v then %+v", prev, cur)
		}
	}

	empty, err := ListIndexPage(ctx, db, 99, domain.Cursor{}, 10)
	if err != nil || len(empty) != 0 {
		t.Fatalf("unknown room should yield empty page, got %v err=%v", empty, err)
	}
}

// Walking pages of every size k from the empty cursor returns each row
// exactly once, in order, even when page boundaries split timestamp ties.
func TestListIndexPage_WalkIsCompleteAndDuplicateFree(t *testing.T) {
	db := newRepoDB(t, true)
	ctx := context.Background()

	times := []int64{90, 90, 90, 95, 96, 96, 100, 100, 100, 100, 101}
	seeded := seedIndex(t, db, 3, times...)
	seedIndex(t, db, 4, 100, 100) // noise in another room

	want := make([]int64, 0, len(seeded))
	for i := len(seeded) - 1; i >= 0; i-- {
		want = append(want, seeded[i].SequenceID)
	}

	n := len(seeded)
	for k := 1; k <= n; k++ {
		var (
			cursor domain.Cursor
			walked []int64
			seen   = map[int64]bool{}
		)
		for calls := 0; calls <= n+1; calls++ {
			page, err := ListIndexPage(ctx, db, 3, cursor, k)
			if err != nil {
				t.Fatalf("k=%d: ListIndexPage: %v", k, err)
			}
			if len(page) == 0 {
				break
			}
			if len(page) > k {
				t.Fatalf("k=%d: page of %d rows exceeds limit", k, len(page))
			}
			for _, r := range page {
				if seen[r.SequenceID] {
					t.Fatalf("k=%d: idx_id %d returned twice", k, r.SequenceID)
				}
				seen[r.SequenceID] = true
			}
			walked = append(walked, seqIDs(page)...)
			cursor = domain.CursorAfter(page[len(page)-1])
		}
		if fmt.Sprint(walked) != fmt.Sprint(want) {
			t.Fatalf("k=%d: walk = %v; want %v", k, walked, want)
		}
	}
}

func TestListIndexPage_TieSplitAcrossBoundary(t *testing.T) {
	db := newRepoDB(t, true)
	ctx := context.Background()

	rows := seedIndex(t, db, 1, 50, 50, 50)

	first, err := ListIndexPage(ctx, db, 1, domain.Cursor{}, 2)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if fmt.Sprint(seqIDs(first)) != fmt.Sprint([]int64{rows[2].SequenceID, rows[1].SequenceID}) {
		t.Fatalf("first page = %v", seqIDs(first))
	}
	second, err := ListIndexPage(ctx, db, 1, domain.CursorAfter(first[1]), 2)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second) != 1 || second[0].SequenceID != rows[0].SequenceID {
		t.Fatalf("second page should hold only the remaining tie, got %v", seqIDs(second))
	}
}

// A cursor without an idx_id falls back to createtime < T and skips every
// remaining row stamped T.
func TestListIndexPage_IDLessCursorExcludesWholeTimestamp(t *testing.T) {
	db := newRepoDB(t, true)
	ctx := context.Background()

	rows := seedIndex(t, db, 1, 99, 100, 100, 100)

	got, err := ListIndexPage(ctx, db, 1, domain.Cursor{CreateTime: 100}, 10)
	if err != nil {
		t.Fatalf("ListIndexPage: %v", err)
	}
	if len(got) != 1 || got[0].SequenceID != rows[0].SequenceID || got[0].CreateTime != 99 {
		t.Fatalf("expected only the createtime=99 row, got %+v", got)
	}
}

func TestListIndexPage_ExampleRoom7(t *testing.T) {
	db := newRepoDB(t, true)
	ctx := context.Background()

	// (createtime, idx_id) = (99,3), (100,4), (100,5) after insertion.
	entries := []domain.MessageIndexEntry{
		{SequenceID: 3, RoomID: 7, Type: domain.TypeChat, ContentRef: 30, CreateTime: 99},
		{SequenceID: 4, RoomID: 7, Type: domain.TypeUserBet, ContentRef: 40, CreateTime: 100},
		{SequenceID: 5, RoomID: 7, Type: domain.TypeChat, ContentRef: 50, CreateTime: 100},
	}
	if err := db.Create(&entries).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	p1, err := ListIndexPage(ctx, db, 7, domain.Cursor{}, 2)
	if err != nil || fmt.Sprint(seqIDs(p1)) != "[5 4]" {
		t.Fatalf("page 1 = %v err=%v", seqIDs(p1), err)
	}
	c1 := domain.CursorAfter(p1[len(p1)-1])
	if c1 != (domain.Cursor{CreateTime: 100, SequenceID: 4}) {
		t.Fatalf("cursor 1 = %+v", c1)
	}
	p2, err := ListIndexPage(ctx, db, 7, c1, 2)
	if err != nil || fmt.Sprint(seqIDs(p2)) != "[3]" {
		t.Fatalf("page 2 = %v err=%v", seqIDs(p2), err)
	}
	p3, err := ListIndexPage(ctx, db, 7, domain.CursorAfter(p2[0]), 2)
	if err != nil || len(p3) != 0 {
		t.Fatalf("page 3 should be empty, got %v err=%v", seqIDs(p3), err)
	}
}
