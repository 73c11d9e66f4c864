package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nboard/nboard-api/internal/apierrors"
	"github.com/nboard/nboard-api/internal/constants"
	"github.com/nboard/nboard-api/internal/dto"
	"github.com/nboard/nboard-api/internal/middleware"
	"github.com/nboard/nboard-api/internal/models"
	"github.com/nboard/nboard-api/internal/repository"
	"github.com/nboard/nboard-api/internal/services"
)

var errInvalidDueDate = errors.New("invalid due_date")

// TicketHandler coordinates ticket HTTP handlers.
type TicketHandler struct {
	ticketService *services.TicketService
	log           zerolog.Logger
}

// NewTicketHandler creates a new TicketHandler.
func NewTicketHandler(ticketService *services.TicketService, log zerolog.Logger) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
		log:           log,
	}
}

// ListTickets returns all tickets matching the query-string filters.
func (h *TicketHandler) ListTickets(c *gin.Context) {
	if _, ok := middleware.GetUserID(c); !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	filter := repository.TicketFilter{}

	if v, ok := filterValue(c.Query("status")); ok {
		status := models.TicketStatus(v)
		filter.Status = &status
	}
	if v, ok := filterValue(c.Query("priority")); ok {
		priority := models.TicketPriority(v)
		filter.Priority = &priority
	}
	if v, ok := filterValue(c.Query("assigned_to")); ok {
		filter.AssignedTo = &v
	}
	if v, ok := filterValue(c.Query("created_by")); ok {
		filter.CreatedBy = &v
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.Search = &search
	}
	if raw := c.Query("tag_ids"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				filter.TagIDs = append(filter.TagIDs, id)
			}
		}
	}

	tickets, err := h.ticketService.ListTickets(filter)
	if err != nil {
		h.log.Error().Err(err).Msg("tickets fetch failed")
		apierrors.InternalError(c, "Failed to fetch tickets")
		return
	}

	c.JSON(http.StatusOK, gin.H{"tickets": dto.ToTicketDTOs(tickets)})
}

// CreateTicket creates a new ticket owned by the authenticated identity.
func (h *TicketHandler) CreateTicket(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateTicketRequest struct {
		Title       string   `json:"title"`
		Description *string  `json:"description"`
		Priority    *string  `json:"priority"`
		AssignedTo  *string  `json:"assigned_to"`
		DueDate     *string  `json:"due_date"`
		TagIDs      []string `json:"tag_ids"`
	}

	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.CreateTicketInput{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		TagIDs:      req.TagIDs,
		CreatorID:   userID,
	}
	if req.Priority != nil {
		input.Priority = models.TicketPriority(*req.Priority)
	}
	if req.DueDate != nil && *req.DueDate != "" {
		due, err := parseDate(*req.DueDate)
		if err != nil {
			apierrors.BadRequest(c, "Invalid due_date")
			return
		}
		input.DueDate = &due
	}

	ticket, err := h.ticketService.CreateTicket(input)
	if err != nil {
		h.respondTicketError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ticket": dto.ToTicketDTO(*ticket)})
}

// UpdateTicket applies a partial update to a ticket. Fields absent from
// the body stay untouched; fields explicitly set to null clear the
// stored value.
func (h *TicketHandler) UpdateTicket(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	// Decode into a raw map to tell absent fields apart from explicit
	// nulls.
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input, err := parseUpdateInput(raw)
	if err != nil {
		if errors.Is(err, errInvalidDueDate) {
			apierrors.BadRequest(c, "Invalid due_date")
		} else {
			apierrors.BadRequest(c, "Invalid request body")
		}
		return
	}

	ticket, err := h.ticketService.UpdateTicket(c.Param("id"), userID, input)
	if err != nil {
		h.respondTicketError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ticket": dto.ToTicketDTO(*ticket)})
}

// DeleteTicket deletes a ticket; only its creator may do so.
func (h *TicketHandler) DeleteTicket(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	if err := h.ticketService.DeleteTicket(c.Param("id"), userID); err != nil {
		h.respondTicketError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Ticket deleted successfully"})
}

func (h *TicketHandler) respondTicketError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTicketNotFound):
		apierrors.NotFound(c, "Ticket not found")
	case errors.Is(err, services.ErrTicketPermissionDenied),
		errors.Is(err, services.ErrNotTicketCreator):
		apierrors.Forbidden(c, "Permission denied")
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleTooLong),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPriority):
		apierrors.BadRequest(c, err.Error())
	default:
		h.log.Error().Err(err).Msg("ticket store failure")
		apierrors.InternalError(c, "")
	}
}

// parseUpdateInput maps the raw body onto the tri-state update input.
func parseUpdateInput(raw map[string]any) (services.UpdateTicketInput, error) {
	var input services.UpdateTicketInput

	if v, present := raw["title"]; present {
		s, ok := v.(string)
		if !ok && v != nil {
			return input, errors.New("title must be a string")
		}
		input.Title = &s // nil maps to "", rejected by validation
	}
	if v, present := raw["description"]; present {
		switch s := v.(type) {
		case nil:
			input.ClearDescription = true
		case string:
			input.Description = &s
		default:
			return input, errors.New("description must be a string")
		}
	}
	if v, present := raw["status"]; present {
		s, ok := v.(string)
		if !ok {
			return input, errors.New("status must be a string")
		}
		status := models.TicketStatus(s)
		input.Status = &status
	}
	if v, present := raw["priority"]; present {
		s, ok := v.(string)
		if !ok {
			return input, errors.New("priority must be a string")
		}
		priority := models.TicketPriority(s)
		input.Priority = &priority
	}
	if v, present := raw["assigned_to"]; present {
		switch s := v.(type) {
		case nil:
			input.ClearAssignee = true
		case string:
			if s == "" {
				input.ClearAssignee = true
			} else {
				input.AssignedTo = &s
			}
		default:
			return input, errors.New("assigned_to must be a string")
		}
	}
	if v, present := raw["due_date"]; present {
		switch s := v.(type) {
		case nil:
			input.ClearDueDate = true
		case string:
			if s == "" {
				input.ClearDueDate = true
				break
			}
			due, err := parseDate(s)
			if err != nil {
				return input, errInvalidDueDate
			}
			input.DueDate = &due
		default:
			return input, errInvalidDueDate
		}
	}

	return input, nil
}

// parseDate accepts a calendar date or a full timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, errInvalidDueDate
}

// filterValue reports whether an enumerated query parameter constrains
// the result: absent values and the "all" sentinel mean no constraint.
func filterValue(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" || v == constants.FilterAll {
		return "", false
	}
	return v, true
}
