package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag is a named, colored label attached to tickets through
// TicketTagRelation. Color is a display accent and is not validated.
type Tag struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Color     string    `gorm:"type:varchar(50)" json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// TicketTagRelation is the many-to-many association between tickets and
// tags. The Tag relation is a pointer: a tag deleted out of band leaves
// the relation row loadable with Tag == nil, which the view assembler
// filters out.
type TicketTagRelation struct {
	TicketID  string    `gorm:"type:uuid;primarykey" json:"ticket_id"`
	TagID     string    `gorm:"type:uuid;primarykey" json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`

	Tag *Tag `gorm:"foreignKey:TagID;references:ID" json:"tag,omitempty"`
}
