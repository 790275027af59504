// Package services – HistoryService
//
// This file implements HistoryService, the read path of the room history
// endpoint: Resolve -> (page cache) -> index page -> Assemble.
//
// First pages are always read from the store so the live feed stays fresh.
// Later pages are immutable once indexed and are served from the page cache
// for CacheTTL; concurrent misses for the same page share one store trip.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/tbourn/room-history/internal/cache"
	"github.com/tbourn/room-history/internal/domain"
)

// HistoryRepo defines the repository contract required by HistoryService.
type HistoryRepo interface {
	// ListIndexPage returns up to limit index rows of a room after the cursor.
	ListIndexPage(ctx context.Context, db *gorm.DB, roomID int64, after domain.Cursor, limit int) ([]domain.MessageIndexEntry, error)

	// LoadContent batch-loads content rows of one type by primary key.
	LoadContent(ctx context.Context, db *gorm.DB, tag domain.TypeTag, ids []int64) (map[int64]domain.ContentRow, error)

	// LoadUsers batch-loads users by id.
	LoadUsers(ctx context.Context, db *gorm.DB, ids []int64) (map[int64]domain.User, error)

	// LoadAgents batch-loads scripted agents by numeric id.
	LoadAgents(ctx context.Context, db *gorm.DB, ids []int64) (map[int64]domain.Agent, error)
}

// HistoryService serves cursor-paginated room history.
type HistoryService struct {
	DB   *gorm.DB
	Repo HistoryRepo

	// Cache stores later pages; nil disables caching.
	Cache       cache.PageCache
	CacheTTL    time.Duration
	CachePrefix string

	Limits    PageLimits
	Assembler *Assembler

	sf singleflight.Group
}

// NewHistoryService constructs a HistoryService with default limits and a
// UTC assembler using the "robot_" agent prefix. Callers may adjust the
// exported fields before first use.
func NewHistoryService(db *gorm.DB, r HistoryRepo, c cache.PageCache) *HistoryService {
	return &HistoryService{
		DB:          db,
		Repo:        r,
		Cache:       c,
		CacheTTL:    5 * time.Minute,
		CachePrefix: "chat_history:",
		Limits:      PageLimits{Default: 20, Max: 50},
		Assembler: &Assembler{
			DB:          db,
			Repo:        r,
			AgentPrefix: "robot_",
			Location:    time.UTC,
			Amount:      TrailingDigitsAmount{},
		},
	}
}

// History resolves p and returns the requested page.
func (s *HistoryService) History(ctx context.Context, p HistoryParams) (*domain.HistoryPage, error) {
	q, err := Resolve(p, s.Limits)
	if err != nil {
		return nil, err
	}

	tr := otel.Tracer("services/HistoryService")
	ctx, span := tr.Start(ctx, "History",
		trace.WithAttributes(
			attribute.Int64("room.id", q.RoomID),
			attribute.Int("per_page", q.PerPage),
			attribute.Int64("cursor.time", q.Cursor.CreateTime),
			attribute.Int64("cursor.id", q.Cursor.SequenceID),
		),
	)
	defer span.End()

	page, err := s.page(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "history failed")
		return nil, err
	}
	return page, nil
}

func (s *HistoryService) page(ctx context.Context, q PageQuery) (*domain.HistoryPage, error) {
	if q.Cursor.IsZero() || s.Cache == nil {
		cacheRequests.WithLabelValues("bypass").Inc()
		return s.load(ctx, q)
	}

	key := cache.Key(s.CachePrefix, q.RoomID, q.PerPage, q.Cursor)
	v, err, _ := s.sf.Do(key, func() (any, error) {
		return s.loadCached(ctx, key, q)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.HistoryPage), nil
}

func (s *HistoryService) loadCached(ctx context.Context, key string, q PageQuery) (*domain.HistoryPage, error) {
	cached, err := s.Cache.Get(ctx, key)
	switch {
	case err == nil:
		cacheRequests.WithLabelValues("hit").Inc()
		return cached, nil
	case !errors.Is(err, cache.ErrCacheMiss):
		return nil, fmt.Errorf("%w: cache get: %v", ErrDependencyUnavailable, err)
	}
	cacheRequests.WithLabelValues("miss").Inc()

	page, err := s.load(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := s.Cache.Set(ctx, key, page, s.CacheTTL); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("history cache set failed")
	}
	return page, nil
}

// load reads the index page and assembles it.
func (s *HistoryService) load(ctx context.Context, q PageQuery) (*domain.HistoryPage, error) {
	rows, err := s.Repo.ListIndexPage(ctx, s.DB, q.RoomID, q.Cursor, q.PerPage)
	if err != nil {
		return nil, fmt.Errorf("%w: list index: %v", ErrDependencyUnavailable, err)
	}
	a := s.Assembler
	if a == nil {
		a = &Assembler{DB: s.DB, Repo: s.Repo, AgentPrefix: "robot_"}
	}
	return a.Assemble(ctx, rows, q.PerPage)
}
