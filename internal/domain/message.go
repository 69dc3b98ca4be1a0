package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyMessage    = errors.New("empty message")
	ErrInvalidReaction = errors.New("invalid reaction kind")
	ErrInvalidFileType = errors.New("invalid file type")
)

type ReactionKind string

const (
	ReactionLike  ReactionKind = "like"
	ReactionLove  ReactionKind = "love"
	ReactionLaugh ReactionKind = "laugh"
	ReactionAngry ReactionKind = "angry"
)

func (k ReactionKind) Valid() bool {
	switch k {
	case ReactionLike, ReactionLove, ReactionLaugh, ReactionAngry:
		return true
	}
	return false
}

// Reactions holds per-kind counters for one message.
type Reactions struct {
	Like  int `json:"like"`
	Love  int `json:"love"`
	Laugh int `json:"laugh"`
	Angry int `json:"angry"`
}

// Add bumps the counter for kind. Callers validate the kind first.
func (r *Reactions) Add(kind ReactionKind) {
	switch kind {
	case ReactionLike:
		r.Like++
	case ReactionLove:
		r.Love++
	case ReactionLaugh:
		r.Laugh++
	case ReactionAngry:
		r.Angry++
	}
}

type FileType string

const (
	FileImage    FileType = "image"
	FileDocument FileType = "document"
	FileAudio    FileType = "audio"
	FileVideo    FileType = "video"
	FileNone     FileType = ""
)

func (t FileType) Valid() bool {
	switch t {
	case FileImage, FileDocument, FileAudio, FileVideo, FileNone:
		return true
	}
	return false
}

// Reply is a threaded response stored on its parent message.
type Reply struct {
	ID         uuid.UUID `json:"id"`
	SenderID   UserID    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Content    string    `json:"content"`
	At         time.Time `json:"at"`
}

// ReadReceipt records that a user observed a message.
type ReadReceipt struct {
	UserID UserID    `json:"user_id"`
	ReadAt time.Time `json:"read_at"`
}

// Message is an immutable chat event, plus the mutable reaction/reply/read
// annotations the store appends to it.
type Message struct {
	ID          uuid.UUID     `json:"id"`
	SenderID    UserID        `json:"sender_id"`
	SenderName  string        `json:"sender_name"`
	Content     string        `json:"content"`
	Room        RoomName      `json:"room"`
	Private     bool          `json:"private"`
	RecipientID UserID        `json:"recipient_id,omitempty"`
	FileURL     string        `json:"file_url,omitempty"`
	FileType    FileType      `json:"file_type,omitempty"`
	Reactions   Reactions     `json:"reactions"`
	Replies     []Reply       `json:"replies,omitempty"`
	ReadBy      []ReadReceipt `json:"read_by,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Validate trims content and rejects messages that carry neither text nor a
// file reference.
func (m *Message) Validate() error {
	m.Content = strings.TrimSpace(m.Content)
	if m.Content == "" && m.FileURL == "" {
		return ErrEmptyMessage
	}
	if !m.FileType.Valid() {
		return ErrInvalidFileType
	}
	return nil
}

// MarkReadBy appends a receipt for reader unless one exists already.
// Reports whether a new receipt was added.
func (m *Message) MarkReadBy(reader UserID, at time.Time) bool {
	for _, r := range m.ReadBy {
		if r.UserID == reader {
			return false
		}
	}
	m.ReadBy = append(m.ReadBy, ReadReceipt{UserID: reader, ReadAt: at})
	return true
}
