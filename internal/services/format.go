package services

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// clockLayout is the display format of item times (H:i:s).
const clockLayout = "15:04:05"

func clock(unix int64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.Unix(unix, 0).In(loc).Format(clockLayout)
}

// formatChat passes the stored JSON through unchanged apart from
// whitespace compaction. ok is false for empty or invalid documents.
func formatChat(stored string) (json.RawMessage, bool) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(strings.TrimSpace(stored))); err != nil {
		return nil, false
	}
	switch buf.String() {
	case "", "null", "{}", "[]", `""`:
		return nil, false
	}
	return json.RawMessage(buf.Bytes()), true
}

type drawData struct {
	Number json.RawMessage `json:"number"`
	Issue  json.RawMessage `json:"issue"`
	Time   json.RawMessage `json:"time"`
}

type drawPayload struct {
	Data drawData `json:"data"`
}

var emptyJSONString = json.RawMessage(`""`)

// formatDraw extracts the draw result and round from the stored document.
// Missing fields default to "" and the time to the row's clock time.
func formatDraw(stored, fallbackTime string) (json.RawMessage, bool) {
	var in drawPayload
	if err := json.Unmarshal([]byte(stored), &in); err != nil {
		return nil, false
	}
	out := drawPayload{Data: drawData{
		Number: orJSON(in.Data.Number, emptyJSONString),
		Issue:  orJSON(in.Data.Issue, emptyJSONString),
		Time:   in.Data.Time,
	}}
	if isJSONNull(out.Data.Time) {
		t, _ := json.Marshal(fallbackTime)
		out.Data.Time = t
	}
	return marshalRaw(out)
}

type noticeData struct {
	Content string `json:"content"`
	Time    string `json:"time"`
}

type noticePayload struct {
	Data noticeData `json:"data"`
}

// newlineReplacer normalizes both the escaped and the literal CRLF.
var newlineReplacer = strings.NewReplacer(`\r\n`, "\n", "\r\n", "\n")

// formatNotice renders an announcement (round start/stop, seal reminder,
// advertisements, verification, bill). Stored documents that fail to parse
// render with empty content.
func formatNotice(stored, clockTime string) (json.RawMessage, bool) {
	if strings.TrimSpace(stored) == "" {
		return nil, false
	}
	var in struct {
		Data struct {
			Content json.RawMessage `json:"content"`
		} `json:"data"`
	}
	_ = json.Unmarshal([]byte(stored), &in)

	var content string
	if len(in.Data.Content) > 0 && json.Unmarshal(in.Data.Content, &content) != nil {
		content = ""
	}
	return marshalRaw(noticePayload{Data: noticeData{
		Content: newlineReplacer.Replace(content),
		Time:    clockTime,
	}})
}

type stakeData struct {
	Avatar   string `json:"avatar"`
	Nickname string `json:"nickname"`
	IsRobot  bool   `json:"is_robot"`
	Bet      string `json:"bet"`
	Time     string `json:"time"`
}

type stakePayload struct {
	Data stakeData `json:"data"`
}

// stakeDescription returns data.bet of a stored stake document.
func stakeDescription(stored string) string {
	var in struct {
		Data struct {
			Bet string `json:"bet"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(stored), &in); err != nil {
		return ""
	}
	return in.Data.Bet
}

func marshalRaw(v any) (json.RawMessage, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	return json.RawMessage(b), true
}

func isJSONNull(m json.RawMessage) bool {
	return len(m) == 0 || string(m) == "null"
}

func orJSON(m, def json.RawMessage) json.RawMessage {
	if isJSONNull(m) {
		return def
	}
	return m
}
