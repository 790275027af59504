package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// TypeTag identifies the kind of event an index row points at, and through
// it the content table holding the payload.
type TypeTag string

const (
	TypeChat     TypeTag = "chat"
	TypeDraws    TypeTag = "draws"
	TypeStart    TypeTag = "start"
	TypeStop     TypeTag = "stop"
	TypeSeal     TypeTag = "seal"
	TypeAds1     TypeTag = "ads1"
	TypeAds2     TypeTag = "ads2"
	TypeVerify   TypeTag = "verify"
	TypeBill     TypeTag = "bill"
	TypeUserBet  TypeTag = "user_bet"
	TypeRobotBet TypeTag = "robot_bet"
)

// AllTypeTags lists every known tag.
var AllTypeTags = []TypeTag{
	TypeChat, TypeDraws, TypeStart, TypeStop, TypeSeal, TypeAds1, TypeAds2,
	TypeVerify, TypeBill, TypeUserBet, TypeRobotBet,
}

// Kind groups type tags that share a formatting rule.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindChat
	KindDraw
	KindStake
	KindNotice
)

func (k Kind) String() string {
	switch k {
	case KindChat:
		return "chat"
	case KindDraw:
		return "draw"
	case KindStake:
		return "stake"
	case KindNotice:
		return "notice"
	default:
		return "unknown"
	}
}

var typeTables = map[TypeTag]string{
	TypeChat:     "chat_logs",
	TypeDraws:    "draws_messages",
	TypeStart:    "start_betting_messages",
	TypeStop:     "stop_betting_messages",
	TypeSeal:     "seal_remind_messages",
	TypeAds1:     "advertisement_messages_1",
	TypeAds2:     "advertisement_messages_2",
	TypeVerify:   "bet_verification_messages",
	TypeBill:     "bill_messages",
	TypeUserBet:  UserStakeMessage{}.TableName(),
	TypeRobotBet: AgentStakeMessage{}.TableName(),
}

// Table returns the content table for t. ok is false for unknown tags.
func (t TypeTag) Table() (name string, ok bool) {
	name, ok = typeTables[t]
	return name, ok
}

// Kind returns the formatting kind for t.
func (t TypeTag) Kind() Kind {
	switch t {
	case TypeChat:
		return KindChat
	case TypeDraws:
		return KindDraw
	case TypeUserBet, TypeRobotBet:
		return KindStake
	case TypeStart, TypeStop, TypeSeal, TypeAds1, TypeAds2, TypeVerify, TypeBill:
		return KindNotice
	default:
		return KindUnknown
	}
}

// SenderKind distinguishes human users from scripted agents.
type SenderKind uint8

const (
	SenderUser SenderKind = iota + 1
	SenderAgent
)

// SenderRef identifies the author of a stake. It is decoded once from the
// stored column and never re-parsed downstream.
type SenderRef struct {
	Kind SenderKind
	ID   int64
}

// IsAgent reports whether the sender is a scripted agent.
func (r SenderRef) IsAgent() bool { return r.Kind == SenderAgent }

func (r SenderRef) String() string {
	if r.Kind == SenderAgent {
		return "agent:" + strconv.FormatInt(r.ID, 10)
	}
	return "user:" + strconv.FormatInt(r.ID, 10)
}

// ErrBadSenderRef is returned when a stored sender reference cannot be decoded.
var ErrBadSenderRef = errors.New("malformed sender reference")

// UserRef builds a reference to a registered user.
func UserRef(id int64) (SenderRef, error) {
	if id <= 0 {
		return SenderRef{}, fmt.Errorf("%w: user id %d", ErrBadSenderRef, id)
	}
	return SenderRef{Kind: SenderUser, ID: id}, nil
}

// ParseAgentRef decodes a prefixed agent identifier such as "robot_12".
func ParseAgentRef(raw, prefix string) (SenderRef, error) {
	raw = strings.TrimSpace(raw)
	if prefix == "" || !strings.HasPrefix(raw, prefix) {
		return SenderRef{}, fmt.Errorf("%w: %q lacks prefix %q", ErrBadSenderRef, raw, prefix)
	}
	id, err := strconv.ParseInt(raw[len(prefix):], 10, 64)
	if err != nil || id <= 0 {
		return SenderRef{}, fmt.Errorf("%w: %q", ErrBadSenderRef, raw)
	}
	return SenderRef{Kind: SenderAgent, ID: id}, nil
}

// Cursor marks the position strictly after which the next page starts.
// The zero value means "start of feed" (most recent entries).
type Cursor struct {
	CreateTime int64 `json:"time"`
	SequenceID int64 `json:"id"`
}

// IsZero reports whether c is the start-of-feed cursor.
func (c Cursor) IsZero() bool { return c.CreateTime <= 0 }

// CursorAfter returns the cursor positioned after e.
func CursorAfter(e MessageIndexEntry) Cursor {
	return Cursor{CreateTime: e.CreateTime, SequenceID: e.SequenceID}
}
