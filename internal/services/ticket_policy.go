package services

import "github.com/nboard/nboard-api/internal/models"

// Authorization over tickets is recomputed from stored state on every
// call; there is no caching. Both predicates assume the ticket already
// exists — existence is checked first so a missing ticket is reported as
// not found, never as a permission failure.

// CanMutateTicket reports whether a user may update a ticket: the
// creator or the current assignee.
func CanMutateTicket(userID string, ticket *models.Ticket) bool {
	if ticket.CreatedBy == userID {
		return true
	}
	return ticket.AssignedTo != nil && *ticket.AssignedTo == userID
}

// CanDeleteTicket reports whether a user may delete a ticket: the
// creator only. An assignee can mutate but never delete.
func CanDeleteTicket(userID string, ticket *models.Ticket) bool {
	return ticket.CreatedBy == userID
}
