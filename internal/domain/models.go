// Package domain defines the persistence models for the room event feed and
// the read models returned by the history endpoint. The persistence types are
// mapped with GORM onto the tables owned by the ingestion pipeline; this
// service only ever reads them.
package domain

// MessageIndexEntry is one row of the unified message index. Every event
// emitted into a room gets exactly one index row pointing at its payload in
// the type-specific content table.
//
// Fields:
//   - SequenceID: idx_id, strictly increasing and never reused. Breaks ties
//     between entries sharing the same CreateTime.
//   - RoomID: owning room.
//   - Type: content type tag (see TypeTag).
//   - ContentRef: msg_id, primary key of the row in the type's content table.
//   - CreateTime: createtime in epoch seconds; not unique.
//
// For a fixed room, (CreateTime, SequenceID) is a total order consistent with
// insertion order.
type MessageIndexEntry struct {
	SequenceID int64   `json:"idx_id"     gorm:"column:idx_id;primaryKey;autoIncrement"`
	RoomID     int64   `json:"room_id"    gorm:"column:room_id;not null;index:idx_room_time,priority:1"`
	Type       TypeTag `json:"type"       gorm:"column:type;type:varchar(32);not null"`
	ContentRef int64   `json:"msg_id"     gorm:"column:msg_id;not null"`
	CreateTime int64   `json:"createtime" gorm:"column:createtime;not null;index:idx_room_time,priority:2"`
}

// TableName returns the database table name for MessageIndexEntry.
func (MessageIndexEntry) TableName() string { return "chat_index" }

// TextMessage is the shape shared by every plain content table (chat logs,
// draw results and the notice tables). Message holds the stored JSON
// document. It has no fixed table name; callers select the table with
// db.Table(tag.Table()).
type TextMessage struct {
	ID      int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Message string `gorm:"column:message;type:text"`
}

// UserStakeMessage is a stake placed by a registered user.
type UserStakeMessage struct {
	ID      int64  `gorm:"column:id;primaryKey;autoIncrement"`
	UserID  int64  `gorm:"column:user_id;not null;index"`
	Message string `gorm:"column:message;type:text"`
}

// TableName returns the database table name for UserStakeMessage.
func (UserStakeMessage) TableName() string { return "other_messages" }

// AgentStakeMessage is a stake placed by a scripted agent. RobotID keeps the
// prefixed wire form (e.g. "robot_12"); it is decoded into a SenderRef when
// the row is joined.
type AgentStakeMessage struct {
	ID      int64  `gorm:"column:id;primaryKey;autoIncrement"`
	RobotID string `gorm:"column:robot_id;type:varchar(64);not null;index"`
	Message string `gorm:"column:message;type:text"`
}

// TableName returns the database table name for AgentStakeMessage.
func (AgentStakeMessage) TableName() string { return "robot_bet_logs" }

// User is a human participant.
type User struct {
	ID       int64  `json:"id"       gorm:"column:id;primaryKey;autoIncrement"`
	Nickname string `json:"nickname" gorm:"column:nickname;type:varchar(64)"`
	Avatar   string `json:"avatar"   gorm:"column:avatar;type:varchar(255)"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "user" }

// Agent is a scripted participant.
type Agent struct {
	ID       int64  `json:"id"       gorm:"column:id;primaryKey;autoIncrement"`
	Nickname string `json:"nickname" gorm:"column:nickname;type:varchar(64)"`
	Avatar   string `json:"avatar"   gorm:"column:avatar;type:varchar(255)"`
}

// TableName returns the database table name for Agent.
func (Agent) TableName() string { return "game_robot" }

// Room is a game room; only active rooms under the configured parent
// categories are listed.
type Room struct {
	ID       int64  `json:"id"        gorm:"column:id;primaryKey;autoIncrement"`
	Name     string `json:"name"      gorm:"column:name;type:varchar(128)"`
	ParentID int64  `json:"parent_id" gorm:"column:parent_id;index"`
	Status   int    `json:"status"    gorm:"column:status;index"`
}

// TableName returns the database table name for Room.
func (Room) TableName() string { return "game_room" }
