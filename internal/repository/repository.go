package repository

import (
	"github.com/nboard/nboard-api/internal/models"
)

// TicketRepository defines the interface for ticket data access
type TicketRepository interface {
	// Create inserts a new ticket
	Create(ticket *models.Ticket) error

	// FindByID finds a ticket by ID with optional preloading
	FindByID(id string, preload ...string) (*models.Ticket, error)

	// List retrieves tickets matching the filter, ordered by priority
	// (urgent first) then creation time (newest first)
	List(filter TicketFilter) ([]models.Ticket, error)

	// UpdateMutable applies the given column values to a ticket only if
	// the actor is its creator or assignee. The predicate is embedded in
	// the same statement so the permission check is atomic with the
	// mutation. Returns the number of rows affected.
	UpdateMutable(id, actorID string, fields map[string]any) (int64, error)

	// DeleteByCreator deletes a ticket only if the actor is its creator,
	// with the predicate embedded in the delete statement. Returns the
	// number of rows affected.
	DeleteByCreator(id, actorID string) (int64, error)

	// AddTagRelations associates the given tags with a ticket
	AddTagRelations(ticketID string, tagIDs []string) error
}

// TicketFilter holds the optional constraints for listing tickets.
// A nil field means no constraint; handlers translate the "all"
// sentinel and absent query parameters to nil.
type TicketFilter struct {
	Status     *models.TicketStatus
	Priority   *models.TicketPriority
	AssignedTo *string
	CreatedBy  *string
	Search     *string
	TagIDs     []string
}

// ProfileRepository defines the interface for profile data access
type ProfileRepository interface {
	// Create inserts a profile row; used by out-of-band provisioning
	Create(profile *models.Profile) error

	// FindByID finds a profile by ID
	FindByID(id string) (*models.Profile, error)

	// List returns all profiles, newest first
	List() ([]models.Profile, error)

	// UpdateFields applies the given column values to a profile
	UpdateFields(id string, fields map[string]any) error
}
