package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type Idea struct {
	Id               uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DiscussionId     uuid.UUID        `gorm:"type:uuid;not null;index"`
	Text             string           `gorm:"type:varchar(500);not null"`
	Embedding        *pgvector.Vector `gorm:"type:vector(768)"` // NULL until the embed worker runs; 768 dims for nomic-embed-text / text-embedding-004
	UserId           *uuid.UUID       `gorm:"type:uuid;index"`
	SessionId        *uuid.UUID       `gorm:"type:uuid;index"`
	TopicId          *uuid.UUID       `gorm:"type:uuid;index"`
	SubmitterContext datatypes.JSON   `gorm:"type:jsonb"`
	CreatedAt        time.Time        `gorm:"autoCreateTime;index"`
	UpdatedAt        time.Time        `gorm:"autoUpdateTime"`
}

func (Idea) TableName() string {
	return "ideas"
}
