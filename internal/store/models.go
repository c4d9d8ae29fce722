// Package store provides the GORM-backed persistence layer: the
// messages/aliases schema, connection setup, and raw-SQL execution of
// statements produced by the query lowerer.
package store

import "time"

// DefaultChannel is the channel the ingestor stamps onto every row, by
// convention of the log source this system replaces.
const DefaultChannel = "#cc.ru"

// Message is a single chat-log line. (timestamp, offset, channel) is unique;
// the ingestor enforces this via delete-then-insert supersession rather than
// a DB-level constraint, since a re-ingest of a day intentionally replaces a
// range of offsets.
type Message struct {
	ID        int32     `gorm:"column:msg_id;primaryKey;autoIncrement"`
	Timestamp time.Time `gorm:"column:msg_timestamp;not null;index:idx_messages_timestamp"`
	Offset    int32     `gorm:"column:msg_offset;not null"`
	Channel   string    `gorm:"column:msg_channel;not null;size:64"`
	Author    string    `gorm:"column:msg_author;not null;size:128;index:idx_messages_author"`
	Body      string    `gorm:"column:msg_body;not null"`
}

// TableName pins the GORM default (would otherwise pluralize to "messages",
// which happens to already match, but the lowerer's hardcoded SQL depends on
// this name so it is spelled out rather than left implicit).
func (Message) TableName() string { return "messages" }

// Alias canonicalizes an author name. Primaries form an equivalence class; a
// secondary maps to exactly one primary.
type Alias struct {
	Primary   string `gorm:"column:alias_primary;not null;size:128;index:idx_aliases_primary"`
	Secondary string `gorm:"column:alias_secondary;primaryKey;size:128"`
}

func (Alias) TableName() string { return "aliases" }
