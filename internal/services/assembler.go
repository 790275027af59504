package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/room-history/internal/domain"
)

// Reasons a fetched index row yields no display item. Used as the "reason"
// label of room_history_dropped_rows_total.
const (
	dropUnknownType    = "unknown_type"
	dropMissingContent = "missing_content"
	dropBadSender      = "bad_sender"
	dropMissingSender  = "missing_sender"
	dropEmptyPayload   = "empty_payload"
)

// StakeGroup merges the stakes one sender placed at the same instant.
type StakeGroup struct {
	Sender     domain.SenderRef
	CreateTime int64
}

// Assembler joins index rows with their content and identities and renders
// display items.
type Assembler struct {
	DB   *gorm.DB
	Repo HistoryRepo

	// AgentPrefix prefixes stored agent ids, e.g. "robot_".
	AgentPrefix string
	// Location renders item clock times; nil means UTC.
	Location *time.Location
	// Amount extracts stake amounts; nil means TrailingDigitsAmount.
	Amount AmountExtractor
}

// joined is an index row with its content and, for stakes, the decoded
// sender and description.
type joined struct {
	entry   domain.MessageIndexEntry
	content domain.ContentRow
	sender  domain.SenderRef
	desc    string
}

// identities holds the batch-loaded senders of a page.
type identities struct {
	users  map[int64]domain.User
	agents map[int64]domain.Agent
}

// Assemble builds the page for rows, which must be in index order. The next
// cursor always comes from the last raw row, however many items survive.
// Missing content or identities drop the affected row; store failures fail
// the whole page with ErrDependencyUnavailable.
func (a *Assembler) Assemble(ctx context.Context, rows []domain.MessageIndexEntry, perPage int) (*domain.HistoryPage, error) {
	tr := otel.Tracer("services/Assembler")
	ctx, span := tr.Start(ctx, "Assemble",
		trace.WithAttributes(
			attribute.Int("rows", len(rows)),
		),
	)
	defer span.End()

	page := &domain.HistoryPage{PerPage: perPage, Items: []domain.DisplayItem{}}
	if len(rows) == 0 {
		return page, nil
	}
	last := rows[len(rows)-1]
	page.LastTime = &last.CreateTime
	page.LastID = &last.SequenceID

	contents, err := a.loadContents(ctx, rows)
	if err != nil {
		return nil, err
	}
	items := a.join(ctx, rows, contents)

	ids, err := a.loadIdentities(ctx, items)
	if err != nil {
		return nil, err
	}

	groups := make(map[StakeGroup][]joined)
	for _, it := range items {
		if it.entry.Type.Kind() == domain.KindStake {
			k := StakeGroup{Sender: it.sender, CreateTime: it.entry.CreateTime}
			groups[k] = append(groups[k], it)
		}
	}

	processed := make(map[StakeGroup]bool)
	for _, it := range items {
		msg, reason := a.format(it, groups, processed, ids)
		if reason != "" {
			if reason != dropSuppressed {
				drop(ctx, it.entry, reason)
			}
			continue
		}
		page.Items = append(page.Items, domain.DisplayItem{
			ID:      it.entry.ContentRef,
			Type:    it.entry.Type,
			Time:    clock(it.entry.CreateTime, a.Location),
			Unix:    it.entry.CreateTime,
			Message: msg,
		})
	}
	span.SetAttributes(attribute.Int("items", len(page.Items)))
	return page, nil
}

// loadContents issues one batched lookup per distinct known tag, in order of
// first appearance.
func (a *Assembler) loadContents(ctx context.Context, rows []domain.MessageIndexEntry) (map[domain.TypeTag]map[int64]domain.ContentRow, error) {
	var order []domain.TypeTag
	byTag := make(map[domain.TypeTag][]int64)
	for _, r := range rows {
		if _, ok := r.Type.Table(); !ok {
			continue
		}
		if _, seen := byTag[r.Type]; !seen {
			order = append(order, r.Type)
		}
		byTag[r.Type] = append(byTag[r.Type], r.ContentRef)
	}

	out := make(map[domain.TypeTag]map[int64]domain.ContentRow, len(order))
	for _, tag := range order {
		m, err := a.Repo.LoadContent(ctx, a.DB, tag, byTag[tag])
		if err != nil {
			return nil, fmt.Errorf("%w: load %s content: %v", ErrDependencyUnavailable, tag, err)
		}
		out[tag] = m
	}
	return out, nil
}

// join attaches content to each row and decodes stake senders. Rows that
// cannot be joined are dropped here.
func (a *Assembler) join(ctx context.Context, rows []domain.MessageIndexEntry, contents map[domain.TypeTag]map[int64]domain.ContentRow) []joined {
	out := make([]joined, 0, len(rows))
	for _, r := range rows {
		if _, ok := r.Type.Table(); !ok {
			drop(ctx, r, dropUnknownType)
			continue
		}
		c, ok := contents[r.Type][r.ContentRef]
		if !ok {
			drop(ctx, r, dropMissingContent)
			continue
		}
		j := joined{entry: r, content: c}

		if r.Type.Kind() == domain.KindStake {
			var err error
			switch r.Type {
			case domain.TypeRobotBet:
				j.sender, err = domain.ParseAgentRef(c.RobotID, a.AgentPrefix)
			default:
				j.sender, err = domain.UserRef(c.UserID)
			}
			if err != nil {
				drop(ctx, r, dropBadSender)
				continue
			}
			j.desc = stakeDescription(c.Message)
		}
		out = append(out, j)
	}
	return out
}

// loadIdentities batch-loads every distinct user and agent referenced by the
// stake rows, one round trip per class.
func (a *Assembler) loadIdentities(ctx context.Context, items []joined) (identities, error) {
	var userIDs, agentIDs []int64
	seen := make(map[domain.SenderRef]bool)
	for _, it := range items {
		if it.entry.Type.Kind() != domain.KindStake || seen[it.sender] {
			continue
		}
		seen[it.sender] = true
		if it.sender.IsAgent() {
			agentIDs = append(agentIDs, it.sender.ID)
		} else {
			userIDs = append(userIDs, it.sender.ID)
		}
	}

	var (
		ids identities
		err error
	)
	if len(userIDs) > 0 {
		if ids.users, err = a.Repo.LoadUsers(ctx, a.DB, userIDs); err != nil {
			return ids, fmt.Errorf("%w: load users: %v", ErrDependencyUnavailable, err)
		}
	}
	if len(agentIDs) > 0 {
		if ids.agents, err = a.Repo.LoadAgents(ctx, a.DB, agentIDs); err != nil {
			return ids, fmt.Errorf("%w: load agents: %v", ErrDependencyUnavailable, err)
		}
	}
	return ids, nil
}

// dropSuppressed marks a stake already merged into its group's first row.
// It is not an integrity gap and is not counted.
const dropSuppressed = "suppressed"

// format renders one joined row. A non-empty reason means the row produces
// no item.
func (a *Assembler) format(it joined, groups map[StakeGroup][]joined, processed map[StakeGroup]bool, ids identities) (json.RawMessage, string) {
	at := clock(it.entry.CreateTime, a.Location)

	var (
		msg json.RawMessage
		ok  bool
	)
	switch kind := it.entry.Type.Kind(); kind {
	case domain.KindChat:
		msg, ok = formatChat(it.content.Message)
	case domain.KindDraw:
		msg, ok = formatDraw(it.content.Message, at)
	case domain.KindNotice:
		msg, ok = formatNotice(it.content.Message, at)
	case domain.KindStake:
		key := StakeGroup{Sender: it.sender, CreateTime: it.entry.CreateTime}
		if processed[key] {
			return nil, dropSuppressed
		}
		processed[key] = true
		return a.formatStakeGroup(it, groups[key], ids, at)
	default:
		// Unknown tags never get past join.
		return nil, dropUnknownType
	}
	if !ok {
		return nil, dropEmptyPayload
	}
	return msg, ""
}

// formatStakeGroup merges every stake of the group, in arrival order, into
// the payload of its first row.
func (a *Assembler) formatStakeGroup(first joined, group []joined, ids identities, at string) (json.RawMessage, string) {
	var nickname, avatar string
	agent := first.sender.IsAgent()
	if agent {
		ag, ok := ids.agents[first.sender.ID]
		if !ok {
			return nil, dropMissingSender
		}
		nickname, avatar = ag.Nickname, ag.Avatar
	} else {
		u, ok := ids.users[first.sender.ID]
		if !ok {
			return nil, dropMissingSender
		}
		nickname, avatar = u.Nickname, u.Avatar
	}
	nickname, avatar = displayIdentity(nickname, avatar, agent)

	if len(group) == 0 {
		group = []joined{first}
	}
	amounts := a.Amount
	if amounts == nil {
		amounts = TrailingDigitsAmount{}
	}
	lines := make([]string, 0, len(group))
	for _, g := range group {
		lines = append(lines, formatStake(g.desc, amounts.Amount(g.desc, []byte(g.content.Message))))
	}

	msg, ok := marshalRaw(stakePayload{Data: stakeData{
		Avatar:   avatar,
		Nickname: nickname,
		IsRobot:  agent,
		Bet:      strings.Join(lines, ", "),
		Time:     at,
	}})
	if !ok {
		return nil, dropEmptyPayload
	}
	return msg, ""
}

// drop records an integrity gap: the row is skipped, logged and counted.
func drop(ctx context.Context, e domain.MessageIndexEntry, reason string) {
	droppedRows.WithLabelValues(reason).Inc()
	zerolog.Ctx(ctx).Warn().
		Str("reason", reason).
		Int64("idx_id", e.SequenceID).
		Int64("room_id", e.RoomID).
		Str("type", string(e.Type)).
		Int64("msg_id", e.ContentRef).
		Msg("history row dropped")
}
