package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nboard/nboard-api/internal/constants"
	"github.com/nboard/nboard-api/internal/dto"
	"github.com/nboard/nboard-api/internal/models"
	"github.com/nboard/nboard-api/internal/repository"
	"github.com/nboard/nboard-api/internal/services"
)

// TicketHandlerTestSuite defines the test suite for TicketHandler
type TicketHandlerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	handler *TicketHandler
}

// SetupTest runs before each test
func (suite *TicketHandlerTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.Profile{},
		&models.Ticket{},
		&models.Tag{},
		&models.TicketTagRelation{},
	)
	suite.Require().NoError(err)

	ticketRepo := repository.NewTicketRepository(suite.db)
	ticketService := services.NewTicketService(ticketRepo, zerolog.Nop())
	suite.handler = NewTicketHandler(ticketService, zerolog.Nop())

	gin.SetMode(gin.TestMode)
}

// TearDownTest runs after each test
func (suite *TicketHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *TicketHandlerTestSuite) createTestProfile(id, name string) *models.Profile {
	profile := &models.Profile{ID: id, DisplayName: &name}
	suite.db.Create(profile)
	return profile
}

func (suite *TicketHandlerTestSuite) createTestTicket(title, creatorID string, mutate ...func(*models.Ticket)) *models.Ticket {
	ticket := &models.Ticket{
		Title:     title,
		Status:    models.TicketStatusOpen,
		Priority:  models.TicketPriorityMedium,
		CreatedBy: creatorID,
	}
	for _, m := range mutate {
		m(ticket)
	}
	suite.db.Create(ticket)
	return ticket
}

func (suite *TicketHandlerTestSuite) createTestTag(name string) *models.Tag {
	tag := &models.Tag{Name: name, Color: "gray"}
	suite.db.Create(tag)
	return tag
}

// createAuthContext builds a gin context carrying an authenticated user,
// as the bearer middleware would leave it.
func (suite *TicketHandlerTestSuite) createAuthContext(method, url string, body []byte, userID string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	if userID != "" {
		c.Set(constants.ContextKeyUserID, userID)
	}

	return c, w
}

func setTicketParam(c *gin.Context, id string) {
	c.Params = gin.Params{{Key: "id", Value: id}}
}

type ticketResponse struct {
	Ticket dto.TicketDTO `json:"ticket"`
}

type ticketListResponse struct {
	Tickets []dto.TicketDTO `json:"tickets"`
}

func (suite *TicketHandlerTestSuite) decodeTicket(w *httptest.ResponseRecorder) dto.TicketDTO {
	var resp ticketResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Ticket
}

func (suite *TicketHandlerTestSuite) decodeTickets(w *httptest.ResponseRecorder) []dto.TicketDTO {
	var resp ticketListResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Tickets
}

// TestListTickets_Unauthorized tests listing without authentication
func (suite *TicketHandlerTestSuite) TestListTickets_Unauthorized() {
	c, w := suite.createAuthContext("GET", "/api/tickets", nil, "")

	suite.handler.ListTickets(c)

	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

// TestListTickets_PriorityThenRecencyOrdering verifies the fixed sort:
// urgent > high > medium > low, newest first within a tier.
func (suite *TicketHandlerTestSuite) TestListTickets_PriorityThenRecencyOrdering() {
	suite.createTestProfile("u1", "Alice")
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	suite.createTestTicket("low", "u1", func(t *models.Ticket) {
		t.Priority = models.TicketPriorityLow
		t.CreatedAt = base
	})
	suite.createTestTicket("urgent-old", "u1", func(t *models.Ticket) {
		t.Priority = models.TicketPriorityUrgent
		t.CreatedAt = base.Add(1 * time.Hour)
	})
	suite.createTestTicket("high", "u1", func(t *models.Ticket) {
		t.Priority = models.TicketPriorityHigh
		t.CreatedAt = base.Add(3 * time.Hour)
	})
	suite.createTestTicket("urgent-new", "u1", func(t *models.Ticket) {
		t.Priority = models.TicketPriorityUrgent
		t.CreatedAt = base.Add(2 * time.Hour)
	})

	c, w := suite.createAuthContext("GET", "/api/tickets", nil, "u1")

	suite.handler.ListTickets(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	tickets := suite.decodeTickets(w)
	suite.Require().Len(tickets, 4)
	assert.Equal(suite.T(), "urgent-new", tickets[0].Title)
	assert.Equal(suite.T(), "urgent-old", tickets[1].Title)
	assert.Equal(suite.T(), "high", tickets[2].Title)
	assert.Equal(suite.T(), "low", tickets[3].Title)
}

// TestListTickets_PriorityFilter tests the equality filter plus the
// "all" sentinel.
func (suite *TicketHandlerTestSuite) TestListTickets_PriorityFilter() {
	suite.createTestProfile("u1", "Alice")
	suite.createTestTicket("urgent", "u1", func(t *models.Ticket) {
		t.Priority = models.TicketPriorityUrgent
	})
	suite.createTestTicket("medium", "u1")

	c, w := suite.createAuthContext("GET", "/api/tickets", nil, "u1")
	c.Request.URL.RawQuery = "priority=urgent"

	suite.handler.ListTickets(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	tickets := suite.decodeTickets(w)
	suite.Require().Len(tickets, 1)
	assert.Equal(suite.T(), "urgent", tickets[0].Title)

	c, w = suite.createAuthContext("GET", "/api/tickets", nil, "u1")
	c.Request.URL.RawQuery = "priority=all&status=all"

	suite.handler.ListTickets(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Len(suite.T(), suite.decodeTickets(w), 2)
}

// TestListTickets_SearchFilter tests the case-insensitive free-text
// match across title and description.
func (suite *TicketHandlerTestSuite) TestListTickets_SearchFilter() {
	suite.createTestProfile("u1", "Alice")
	desc := "needs a Webserver restart"
	suite.createTestTicket("Deploy frontend", "u1", func(t *models.Ticket) {
		t.Description = &desc
	})
	suite.createTestTicket("WEBSERVER upgrade", "u1")
	suite.createTestTicket("Unrelated", "u1")

	c, w := suite.createAuthContext("GET", "/api/tickets", nil, "u1")
	c.Request.URL.RawQuery = "search=webserver"

	suite.handler.ListTickets(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	tickets := suite.decodeTickets(w)
	assert.Len(suite.T(), tickets, 2)
}

// TestListTickets_TagFilter tests that the tag_ids parameter narrows the
// result set.
func (suite *TicketHandlerTestSuite) TestListTickets_TagFilter() {
	suite.createTestProfile("u1", "Alice")
	tag := suite.createTestTag("bug")
	tagged := suite.createTestTicket("tagged", "u1")
	suite.createTestTicket("untagged", "u1")
	suite.db.Create(&models.TicketTagRelation{TicketID: tagged.ID, TagID: tag.ID})

	c, w := suite.createAuthContext("GET", "/api/tickets", nil, "u1")
	c.Request.URL.RawQuery = "tag_ids=" + tag.ID

	suite.handler.ListTickets(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	tickets := suite.decodeTickets(w)
	suite.Require().Len(tickets, 1)
	assert.Equal(suite.T(), "tagged", tickets[0].Title)
}

// TestCreateTicket_Success tests creation with defaults and the creator
// relation in the response.
func (suite *TicketHandlerTestSuite) TestCreateTicket_Success() {
	suite.createTestProfile("u1", "Alice")

	body, _ := json.Marshal(map[string]any{
		"title":       "  New ticket  ",
		"description": "details",
	})
	c, w := suite.createAuthContext("POST", "/api/tickets", body, "u1")

	suite.handler.CreateTicket(c)

	assert.Equal(suite.T(), http.StatusCreated, w.Code)
	ticket := suite.decodeTicket(w)
	assert.Equal(suite.T(), "New ticket", ticket.Title)
	assert.Equal(suite.T(), models.TicketStatusOpen, ticket.Status)
	assert.Equal(suite.T(), models.TicketPriorityMedium, ticket.Priority)
	assert.Equal(suite.T(), "u1", ticket.CreatedBy)
	suite.Require().NotNil(ticket.Creator)
	assert.Equal(suite.T(), "Alice", *ticket.Creator.DisplayName)
}

// TestCreateTicket_WhitespaceTitle tests that a title of only whitespace
// fails validation.
func (suite *TicketHandlerTestSuite) TestCreateTicket_WhitespaceTitle() {
	body, _ := json.Marshal(map[string]any{"title": "   \t  "})
	c, w := suite.createAuthContext("POST", "/api/tickets", body, "u1")

	suite.handler.CreateTicket(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestCreateTicket_TitleLengthBoundary tests the 200-character limit.
func (suite *TicketHandlerTestSuite) TestCreateTicket_TitleLengthBoundary() {
	exactly := make([]byte, 200)
	for i := range exactly {
		exactly[i] = 'a'
	}

	body, _ := json.Marshal(map[string]any{"title": string(exactly)})
	c, w := suite.createAuthContext("POST", "/api/tickets", body, "u1")
	suite.handler.CreateTicket(c)
	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	body, _ = json.Marshal(map[string]any{"title": string(exactly) + "a"})
	c, w = suite.createAuthContext("POST", "/api/tickets", body, "u1")
	suite.handler.CreateTicket(c)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestCreateTicket_TagsRoundTrip tests that tags supplied at creation
// come back in the view, and that an out-of-band tag deletion drops the
// tag without breaking assembly.
func (suite *TicketHandlerTestSuite) TestCreateTicket_TagsRoundTrip() {
	suite.createTestProfile("u1", "Alice")
	tagA := suite.createTestTag("bug")
	tagB := suite.createTestTag("infra")

	body, _ := json.Marshal(map[string]any{
		"title":   "Tagged ticket",
		"tag_ids": []string{tagA.ID, tagB.ID},
	})
	c, w := suite.createAuthContext("POST", "/api/tickets", body, "u1")

	suite.handler.CreateTicket(c)

	assert.Equal(suite.T(), http.StatusCreated, w.Code)
	ticket := suite.decodeTicket(w)
	suite.Require().Len(ticket.Tags, 2)
	got := map[string]bool{}
	for _, tag := range ticket.Tags {
		got[tag.ID] = true
	}
	assert.True(suite.T(), got[tagA.ID])
	assert.True(suite.T(), got[tagB.ID])

	// Delete one tag out of band; the relation row stays behind.
	suite.db.Delete(&models.Tag{}, "id = ?", tagB.ID)

	c, w = suite.createAuthContext("GET", "/api/tickets", nil, "u1")
	suite.handler.ListTickets(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	tickets := suite.decodeTickets(w)
	suite.Require().Len(tickets, 1)
	suite.Require().Len(tickets[0].Tags, 1)
	assert.Equal(suite.T(), tagA.ID, tickets[0].Tags[0].ID)
}

// TestCreateTicket_InvalidDueDate tests the due date format check.
func (suite *TicketHandlerTestSuite) TestCreateTicket_InvalidDueDate() {
	body, _ := json.Marshal(map[string]any{"title": "Ticket", "due_date": "soon"})
	c, w := suite.createAuthContext("POST", "/api/tickets", body, "u1")

	suite.handler.CreateTicket(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestUpdateTicket_StatusOnly tests partial update semantics: fields not
// in the body stay untouched, updated_at is refreshed.
func (suite *TicketHandlerTestSuite) TestUpdateTicket_StatusOnly() {
	suite.createTestProfile("u1", "Alice")
	desc := "original description"
	due := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	past := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ticket := suite.createTestTicket("Keep me", "u1", func(t *models.Ticket) {
		t.Description = &desc
		t.Priority = models.TicketPriorityHigh
		t.DueDate = &due
		t.CreatedAt = past
		t.UpdatedAt = past
	})

	body, _ := json.Marshal(map[string]any{"status": "completed"})
	c, w := suite.createAuthContext("PUT", "/api/tickets/"+ticket.ID, body, "u1")
	setTicketParam(c, ticket.ID)

	suite.handler.UpdateTicket(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	updated := suite.decodeTicket(w)
	assert.Equal(suite.T(), models.TicketStatusCompleted, updated.Status)
	assert.Equal(suite.T(), "Keep me", updated.Title)
	suite.Require().NotNil(updated.Description)
	assert.Equal(suite.T(), desc, *updated.Description)
	assert.Equal(suite.T(), models.TicketPriorityHigh, updated.Priority)
	suite.Require().NotNil(updated.DueDate)
	assert.True(suite.T(), updated.DueDate.Equal(due))
	assert.True(suite.T(), updated.UpdatedAt.After(past))
}

// TestUpdateTicket_ExplicitNullsClear tests that explicit nulls clear
// description, assignee, and due date.
func (suite *TicketHandlerTestSuite) TestUpdateTicket_ExplicitNullsClear() {
	suite.createTestProfile("u1", "Alice")
	suite.createTestProfile("u2", "Bob")
	desc := "to be removed"
	assignee := "u2"
	due := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	ticket := suite.createTestTicket("Clear me", "u1", func(t *models.Ticket) {
		t.Description = &desc
		t.AssignedTo = &assignee
		t.DueDate = &due
	})

	body := []byte(`{"description":null,"assigned_to":null,"due_date":null}`)
	c, w := suite.createAuthContext("PUT", "/api/tickets/"+ticket.ID, body, "u1")
	setTicketParam(c, ticket.ID)

	suite.handler.UpdateTicket(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	updated := suite.decodeTicket(w)
	assert.Nil(suite.T(), updated.Description)
	assert.Nil(suite.T(), updated.AssignedTo)
	assert.Nil(suite.T(), updated.DueDate)
}

// TestUpdateTicket_WhitespaceTitle tests title validation on the update
// path when a title is supplied.
func (suite *TicketHandlerTestSuite) TestUpdateTicket_WhitespaceTitle() {
	suite.createTestProfile("u1", "Alice")
	ticket := suite.createTestTicket("Valid", "u1")

	body, _ := json.Marshal(map[string]any{"title": "   "})
	c, w := suite.createAuthContext("PUT", "/api/tickets/"+ticket.ID, body, "u1")
	setTicketParam(c, ticket.ID)

	suite.handler.UpdateTicket(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestUpdateTicket_ByAssignee tests that the assignee may update.
func (suite *TicketHandlerTestSuite) TestUpdateTicket_ByAssignee() {
	suite.createTestProfile("u1", "Alice")
	suite.createTestProfile("u2", "Bob")
	assignee := "u2"
	ticket := suite.createTestTicket("Shared", "u1", func(t *models.Ticket) {
		t.AssignedTo = &assignee
	})

	body, _ := json.Marshal(map[string]any{"status": "in_progress"})
	c, w := suite.createAuthContext("PUT", "/api/tickets/"+ticket.ID, body, "u2")
	setTicketParam(c, ticket.ID)

	suite.handler.UpdateTicket(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), models.TicketStatusInProgress, suite.decodeTicket(w).Status)
}

// TestUpdateTicket_Forbidden tests that a caller with neither relation
// gets 403.
func (suite *TicketHandlerTestSuite) TestUpdateTicket_Forbidden() {
	suite.createTestProfile("u1", "Alice")
	suite.createTestProfile("u3", "Carol")
	ticket := suite.createTestTicket("Private", "u1")

	body, _ := json.Marshal(map[string]any{"status": "completed"})
	c, w := suite.createAuthContext("PUT", "/api/tickets/"+ticket.ID, body, "u3")
	setTicketParam(c, ticket.ID)

	suite.handler.UpdateTicket(c)

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

// TestUpdateTicket_NotFound tests that a missing ticket yields 404, even
// for a caller who would lack permission anyway.
func (suite *TicketHandlerTestSuite) TestUpdateTicket_NotFound() {
	body, _ := json.Marshal(map[string]any{"status": "completed"})
	c, w := suite.createAuthContext("PUT", "/api/tickets/nope", body, "u3")
	setTicketParam(c, "nope")

	suite.handler.UpdateTicket(c)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

// TestDeleteTicket_Success tests deletion by the creator, including tag
// relation cleanup.
func (suite *TicketHandlerTestSuite) TestDeleteTicket_Success() {
	suite.createTestProfile("u1", "Alice")
	tag := suite.createTestTag("bug")
	ticket := suite.createTestTicket("Doomed", "u1")
	suite.db.Create(&models.TicketTagRelation{TicketID: ticket.ID, TagID: tag.ID})

	c, w := suite.createAuthContext("DELETE", "/api/tickets/"+ticket.ID, nil, "u1")
	setTicketParam(c, ticket.ID)

	suite.handler.DeleteTicket(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]any
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(suite.T(), "Ticket deleted successfully", response["message"])

	var count int64
	suite.db.Model(&models.Ticket{}).Where("id = ?", ticket.ID).Count(&count)
	assert.Zero(suite.T(), count)
	suite.db.Model(&models.TicketTagRelation{}).Where("ticket_id = ?", ticket.ID).Count(&count)
	assert.Zero(suite.T(), count)
}

// TestDeleteTicket_ByAssigneeForbidden tests that an assignee, who may
// update, still cannot delete.
func (suite *TicketHandlerTestSuite) TestDeleteTicket_ByAssigneeForbidden() {
	suite.createTestProfile("u1", "Alice")
	suite.createTestProfile("u2", "Bob")
	assignee := "u2"
	ticket := suite.createTestTicket("Protected", "u1", func(t *models.Ticket) {
		t.AssignedTo = &assignee
	})

	c, w := suite.createAuthContext("DELETE", "/api/tickets/"+ticket.ID, nil, "u2")
	setTicketParam(c, ticket.ID)

	suite.handler.DeleteTicket(c)

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	var count int64
	suite.db.Model(&models.Ticket{}).Where("id = ?", ticket.ID).Count(&count)
	assert.EqualValues(suite.T(), 1, count)
}

// TestDeleteTicket_NotFound tests 404 for an unknown ticket id.
func (suite *TicketHandlerTestSuite) TestDeleteTicket_NotFound() {
	c, w := suite.createAuthContext("DELETE", "/api/tickets/nope", nil, "u1")
	setTicketParam(c, "nope")

	suite.handler.DeleteTicket(c)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

// TestSuite runs the test suite
func TestTicketHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TicketHandlerTestSuite))
}
