package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusCompleted  TicketStatus = "completed"
	TicketStatusCancelled  TicketStatus = "cancelled"
)

// IsValid reports whether the status is one of the enumerated values.
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusCompleted, TicketStatusCancelled:
		return true
	}
	return false
}

type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// IsValid reports whether the priority is one of the enumerated values.
func (p TicketPriority) IsValid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Rank orders priorities for sorting: urgent > high > medium > low.
func (p TicketPriority) Rank() int {
	switch p {
	case TicketPriorityUrgent:
		return 4
	case TicketPriorityHigh:
		return 3
	case TicketPriorityMedium:
		return 2
	default:
		return 1
	}
}

type Ticket struct {
	ID          string         `gorm:"type:uuid;primarykey" json:"id"`
	Title       string         `gorm:"type:varchar(200);not null" json:"title"`
	Description *string        `gorm:"type:text" json:"description"`
	Status      TicketStatus   `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	Priority    TicketPriority `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	AssignedTo  *string        `gorm:"type:uuid;index" json:"assigned_to"`
	CreatedBy   string         `gorm:"type:uuid;not null;index" json:"created_by"`
	DueDate     *time.Time     `json:"due_date"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	// Relations
	AssignedUser *Profile            `gorm:"foreignKey:AssignedTo;references:ID" json:"assigned_user,omitempty"`
	Creator      *Profile            `gorm:"foreignKey:CreatedBy;references:ID" json:"creator,omitempty"`
	TagRelations []TicketTagRelation `gorm:"foreignKey:TicketID" json:"tag_relations,omitempty"`
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
