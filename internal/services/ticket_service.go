package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nboard/nboard-api/internal/constants"
	"github.com/nboard/nboard-api/internal/models"
	"github.com/nboard/nboard-api/internal/repository"
)

var (
	ErrTicketNotFound         = errors.New("ticket not found")
	ErrTicketPermissionDenied = errors.New("only the creator or assignee can modify this ticket")
	ErrNotTicketCreator       = errors.New("only the creator can delete this ticket")
	ErrTitleRequired          = errors.New("title is required")
	ErrTitleTooLong           = fmt.Errorf("title must be %d characters or less", constants.MaxTitleLength)
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidPriority        = errors.New("invalid priority")
)

// ticketPreloads are the relations needed to assemble the ticket view
// model: both profile joins plus the tag relation rows and their tags.
var ticketPreloads = []string{"AssignedUser", "Creator", "TagRelations", "TagRelations.Tag"}

// TicketService handles ticket business logic
type TicketService struct {
	ticketRepo repository.TicketRepository
	log        zerolog.Logger
}

// NewTicketService creates a new TicketService
func NewTicketService(ticketRepo repository.TicketRepository, log zerolog.Logger) *TicketService {
	return &TicketService{
		ticketRepo: ticketRepo,
		log:        log,
	}
}

// CreateTicketInput represents input for creating a ticket
type CreateTicketInput struct {
	Title       string
	Description *string
	Priority    models.TicketPriority
	AssignedTo  *string
	DueDate     *time.Time
	TagIDs      []string
	CreatorID   string
}

// UpdateTicketInput represents a partial update. Nil pointer fields were
// not supplied and stay untouched; the Clear flags record an explicit
// null in the request body.
type UpdateTicketInput struct {
	Title            *string
	Description      *string
	ClearDescription bool
	Status           *models.TicketStatus
	Priority         *models.TicketPriority
	AssignedTo       *string
	ClearAssignee    bool
	DueDate          *time.Time
	ClearDueDate     bool
}

// ListTickets returns all tickets matching the filter
func (s *TicketService) ListTickets(filter repository.TicketFilter) ([]models.Ticket, error) {
	tickets, err := s.ticketRepo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// GetTicket returns a ticket with the relations the view model needs
func (s *TicketService) GetTicket(id string) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.FindByID(id, ticketPreloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to find ticket: %w", err)
	}
	return ticket, nil
}

// CreateTicket validates and creates a ticket for the authenticated
// creator. Tag associations are attempted afterwards and are non-fatal:
// a failed association is logged and the creation still succeeds.
func (s *TicketService) CreateTicket(input CreateTicketInput) (*models.Ticket, error) {
	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}

	priority := input.Priority
	if priority == "" {
		priority = models.TicketPriorityMedium
	}
	if !priority.IsValid() {
		return nil, ErrInvalidPriority
	}

	ticket := &models.Ticket{
		Title:       title,
		Description: trimmedOrNil(input.Description),
		Status:      models.TicketStatusOpen,
		Priority:    priority,
		AssignedTo:  input.AssignedTo,
		CreatedBy:   input.CreatorID,
		DueDate:     input.DueDate,
	}

	if err := s.ticketRepo.Create(ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	if len(input.TagIDs) > 0 {
		if err := s.ticketRepo.AddTagRelations(ticket.ID, input.TagIDs); err != nil {
			s.log.Warn().Err(err).Str("ticket_id", ticket.ID).
				Msg("tag relation creation failed; ticket kept")
		}
	}

	created, err := s.ticketRepo.FindByID(ticket.ID, ticketPreloads...)
	if err != nil {
		return nil, fmt.Errorf("ticket created but failed to fetch details: %w", err)
	}
	return created, nil
}

// UpdateTicket applies a partial update if the actor is the creator or
// assignee. The store update re-asserts the permission predicate so the
// check cannot go stale between the read and the write.
func (s *TicketService) UpdateTicket(id, actorID string, input UpdateTicketInput) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to find ticket: %w", err)
	}

	if !CanMutateTicket(actorID, ticket) {
		return nil, ErrTicketPermissionDenied
	}

	fields, err := buildUpdateFields(input)
	if err != nil {
		return nil, err
	}

	if len(fields) > 0 {
		affected, err := s.ticketRepo.UpdateMutable(id, actorID, fields)
		if err != nil {
			return nil, fmt.Errorf("failed to update ticket: %w", err)
		}
		if affected == 0 {
			return nil, s.resolveStaleMutation(id)
		}
	}

	return s.GetTicket(id)
}

// DeleteTicket deletes a ticket if the actor is its creator, with the
// predicate embedded in the delete statement.
func (s *TicketService) DeleteTicket(id, actorID string) error {
	ticket, err := s.ticketRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTicketNotFound
		}
		return fmt.Errorf("failed to find ticket: %w", err)
	}

	if !CanDeleteTicket(actorID, ticket) {
		return ErrNotTicketCreator
	}

	affected, err := s.ticketRepo.DeleteByCreator(id, actorID)
	if err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}
	if affected == 0 {
		// Creator changed or the row vanished between read and delete.
		if _, err := s.ticketRepo.FindByID(id); errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTicketNotFound
		}
		return ErrNotTicketCreator
	}

	return nil
}

// resolveStaleMutation distinguishes why a permission-predicated update
// touched zero rows: the ticket disappeared, or its creator/assignee
// changed after the precheck.
func (s *TicketService) resolveStaleMutation(id string) error {
	if _, err := s.ticketRepo.FindByID(id); errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTicketNotFound
	}
	return ErrTicketPermissionDenied
}

func buildUpdateFields(input UpdateTicketInput) (map[string]any, error) {
	fields := map[string]any{}

	if input.Title != nil {
		title, err := validateTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		fields["title"] = title
	}
	if input.ClearDescription {
		fields["description"] = nil
	} else if input.Description != nil {
		fields["description"] = trimmedOrNil(input.Description)
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, ErrInvalidStatus
		}
		fields["status"] = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, ErrInvalidPriority
		}
		fields["priority"] = *input.Priority
	}
	if input.ClearAssignee {
		fields["assigned_to"] = nil
	} else if input.AssignedTo != nil {
		fields["assigned_to"] = *input.AssignedTo
	}
	if input.ClearDueDate {
		fields["due_date"] = nil
	} else if input.DueDate != nil {
		fields["due_date"] = *input.DueDate
	}

	return fields, nil
}

func validateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", ErrTitleRequired
	}
	if len([]rune(trimmed)) > constants.MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return trimmed, nil
}

// trimmedOrNil trims a free-text value, mapping blank to null.
func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
