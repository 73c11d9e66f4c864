package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/nboard/nboard-api/internal/models"
)

// priorityOrder ranks the priority enumeration for sorting without
// depending on a database enum type: urgent > high > medium > low.
const priorityOrder = "CASE tickets.priority WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END DESC, tickets.created_at DESC"

// GormTicketRepository is a GORM implementation of TicketRepository
type GormTicketRepository struct {
	db *gorm.DB
}

// NewTicketRepository creates a new TicketRepository
func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &GormTicketRepository{db: db}
}

// Create inserts a new ticket
func (r *GormTicketRepository) Create(ticket *models.Ticket) error {
	return r.db.Create(ticket).Error
}

// FindByID finds a ticket by ID with optional preloading
func (r *GormTicketRepository) FindByID(id string, preload ...string) (*models.Ticket, error) {
	var ticket models.Ticket
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&ticket, "tickets.id = ?", id).Error; err != nil {
		return nil, err
	}

	return &ticket, nil
}

// List retrieves tickets matching the filter. The full matching set is
// returned without pagination; the deployment scale is a bounded
// community.
func (r *GormTicketRepository) List(filter TicketFilter) ([]models.Ticket, error) {
	query := r.db.Model(&models.Ticket{})

	if filter.Status != nil {
		query = query.Where("tickets.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tickets.priority = ?", *filter.Priority)
	}
	if filter.AssignedTo != nil {
		query = query.Where("tickets.assigned_to = ?", *filter.AssignedTo)
	}
	if filter.CreatedBy != nil {
		query = query.Where("tickets.created_by = ?", *filter.CreatedBy)
	}
	if filter.Search != nil {
		pattern := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		query = query.Where("LOWER(tickets.title) LIKE ? OR LOWER(tickets.description) LIKE ?", pattern, pattern)
	}
	if len(filter.TagIDs) > 0 {
		relationSubQuery := r.db.Model(&models.TicketTagRelation{}).
			Select("1").
			Where("ticket_tag_relations.ticket_id = tickets.id").
			Where("ticket_tag_relations.tag_id IN ?", filter.TagIDs)
		query = query.Where("EXISTS (?)", relationSubQuery)
	}

	var tickets []models.Ticket
	err := query.
		Order(priorityOrder).
		Preload("AssignedUser").
		Preload("Creator").
		Preload("TagRelations").
		Preload("TagRelations.Tag").
		Find(&tickets).Error
	if err != nil {
		return nil, err
	}

	return tickets, nil
}

// UpdateMutable applies fields to a ticket where the actor is creator or
// assignee. Re-asserting the permission predicate inside the UPDATE
// closes the gap between the earlier permission read and this write.
func (r *GormTicketRepository) UpdateMutable(id, actorID string, fields map[string]any) (int64, error) {
	tx := r.db.Model(&models.Ticket{}).
		Where("id = ? AND (created_by = ? OR assigned_to = ?)", id, actorID, actorID).
		Updates(fields)
	return tx.RowsAffected, tx.Error
}

// DeleteByCreator deletes a ticket where the actor is its creator,
// removing tag relations in the same transaction.
func (r *GormTicketRepository) DeleteByCreator(id, actorID string) (int64, error) {
	var affected int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND created_by = ?", id, actorID).Delete(&models.Ticket{})
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		if affected == 0 {
			return nil
		}
		return tx.Where("ticket_id = ?", id).Delete(&models.TicketTagRelation{}).Error
	})
	return affected, err
}

// AddTagRelations associates the given tags with a ticket
func (r *GormTicketRepository) AddTagRelations(ticketID string, tagIDs []string) error {
	relations := make([]models.TicketTagRelation, len(tagIDs))
	for i, tagID := range tagIDs {
		relations[i] = models.TicketTagRelation{
			TicketID: ticketID,
			TagID:    tagID,
		}
	}
	return r.db.Create(&relations).Error
}
