package model

import (
	"time"

	"github.com/google/uuid"
)

type Topic struct {
	Id                   uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DiscussionId         uuid.UUID  `gorm:"type:uuid;not null;index"`
	ParentTopicId        *uuid.UUID `gorm:"type:uuid;index"`
	RepresentativeIdeaId uuid.UUID  `gorm:"type:uuid;not null"`
	Count                int        `gorm:"not null;default:0"`
	CreatedAt            time.Time  `gorm:"autoCreateTime"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime"`
}

func (Topic) TableName() string {
	return "topics"
}
