package domain

import "encoding/json"

// DisplayItem is one display-ready entry of a history page.
//
// Message is kept as raw JSON so a page round-trips through the cache
// byte-for-byte.
type DisplayItem struct {
	ID      int64           `json:"id"             example:"42"`
	Type    TypeTag         `json:"type"           example:"chat"`
	Time    string          `json:"time"           example:"13:04:05"`
	Unix    int64           `json:"timestamp_unix" example:"1700000000"`
	Message json.RawMessage `json:"message"        swaggertype:"object"`
}

// HistoryPage is one page of room history. LastTime/LastID are the cursor
// for the next request and are null when the page is empty.
type HistoryPage struct {
	PerPage  int           `json:"per_page"  example:"20"`
	LastTime *int64        `json:"last_time" example:"1700000000"`
	LastID   *int64        `json:"last_id"   example:"981"`
	Items    []DisplayItem `json:"data"`
}

// NextCursor returns the cursor for the following page, or nil when the page
// was empty.
func (p *HistoryPage) NextCursor() *Cursor {
	if p == nil || p.LastTime == nil || p.LastID == nil {
		return nil
	}
	return &Cursor{CreateTime: *p.LastTime, SequenceID: *p.LastID}
}

// RoomView is an active room annotated with its realtime endpoint.
type RoomView struct {
	Room
	WSURL string `json:"ws_url" example:"wss://example.com:2999"`
}

// ContentRow is the union of the columns read from any content table. UserID
// is set for user stakes and RobotID for agent stakes; other tables carry
// only ID and Message.
type ContentRow struct {
	ID      int64  `gorm:"column:id"`
	Message string `gorm:"column:message"`
	UserID  int64  `gorm:"column:user_id"`
	RobotID string `gorm:"column:robot_id"`
}
