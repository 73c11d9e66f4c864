package dto

import (
	"time"

	"github.com/nboard/nboard-api/internal/models"
)

// TicketDTO is the flattened ticket view model returned to clients,
// distinct from the relational storage shape.
type TicketDTO struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description *string               `json:"description"`
	Status      models.TicketStatus   `json:"status"`
	Priority    models.TicketPriority `json:"priority"`
	AssignedTo  *string               `json:"assigned_to"`
	CreatedBy   string                `json:"created_by"`
	DueDate     *time.Time            `json:"due_date"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`

	// AssignedUser and Creator are present only when the profile join
	// returned a row. Fallback display text for a missing profile is a
	// presentation concern, not filled in here.
	AssignedUser *ProfileRefDTO `json:"assigned_user,omitempty"`
	Creator      *ProfileRefDTO `json:"creator,omitempty"`
	Tags         []TagDTO       `json:"tags"`
}

// ProfileRefDTO is the reduced profile shape embedded in ticket views.
type ProfileRefDTO struct {
	ID          string  `json:"id"`
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
}

type TagDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ToTicketDTO flattens a ticket and its joined rows into the response
// shape. Tag relation rows whose tag was deleted out of band carry a nil
// Tag and are dropped; the remaining tags keep store order.
func ToTicketDTO(ticket models.Ticket) TicketDTO {
	out := TicketDTO{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		AssignedTo:  ticket.AssignedTo,
		CreatedBy:   ticket.CreatedBy,
		DueDate:     ticket.DueDate,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
		Tags:        make([]TagDTO, 0, len(ticket.TagRelations)),
	}

	if ticket.AssignedUser != nil {
		out.AssignedUser = toProfileRefDTO(ticket.AssignedUser)
	}
	if ticket.Creator != nil {
		out.Creator = toProfileRefDTO(ticket.Creator)
	}

	for _, relation := range ticket.TagRelations {
		if relation.Tag == nil {
			continue
		}
		out.Tags = append(out.Tags, TagDTO{
			ID:    relation.Tag.ID,
			Name:  relation.Tag.Name,
			Color: relation.Tag.Color,
		})
	}

	return out
}

// ToTicketDTOs maps a slice of tickets preserving order.
func ToTicketDTOs(tickets []models.Ticket) []TicketDTO {
	out := make([]TicketDTO, len(tickets))
	for i, t := range tickets {
		out[i] = ToTicketDTO(t)
	}
	return out
}

func toProfileRefDTO(p *models.Profile) *ProfileRefDTO {
	return &ProfileRefDTO{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
	}
}
