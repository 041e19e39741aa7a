package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/events/domain"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/venues"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/response"
)

// EventService is the slice of the Events module the HTTP layer needs
type EventService interface {
	CreateEvent(ctx context.Context, name string, start, end time.Time, venueID string, price float64) (string, error)
	UpdateEvent(ctx context.Context, id, name string, start, end time.Time, price float64) error
	UpdateEventVenue(ctx context.Context, id, venueID string) error
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	ListUpcomingEvents(ctx context.Context) ([]*domain.Event, error)
}

// EventHandler exposes the Events module over HTTP
type EventHandler struct {
	events EventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(events EventService) *EventHandler {
	return &EventHandler{events: events}
}

// RegisterRoutes registers the event routes
func (h *EventHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/events", h.CreateEvent)
	r.PUT("/events/:id", h.UpdateEvent)
	r.PUT("/events/:id/venue", h.UpdateEventVenue)
	r.GET("/events", h.ListEvents)
	r.GET("/events/:id", h.GetEvent)
	r.GET("/venues", h.ListVenues)
}

type createEventRequest struct {
	Name  string    `json:"name" binding:"required"`
	Start time.Time `json:"start" binding:"required"`
	End   time.Time `json:"end" binding:"required"`
	Venue string    `json:"venue" binding:"required"`
	Price float64   `json:"price"`
}

type updateEventRequest struct {
	Name  string    `json:"name" binding:"required"`
	Start time.Time `json:"start" binding:"required"`
	End   time.Time `json:"end" binding:"required"`
	Price float64   `json:"price"`
}

type updateEventVenueRequest struct {
	Venue string `json:"venue" binding:"required"`
}

type venueResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

type eventResponse struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Start   time.Time     `json:"start"`
	End     time.Time     `json:"end"`
	Venue   venueResponse `json:"venue"`
	Price   float64       `json:"price"`
	SoldOut bool          `json:"soldOut"`
}

func toEventResponse(event *domain.Event) eventResponse {
	resp := eventResponse{
		ID:      event.ID,
		Name:    event.Name,
		Start:   event.StartDate,
		End:     event.EndDate,
		Price:   event.Price,
		SoldOut: event.SoldOut,
	}
	if venue, ok := venues.Get(event.VenueID); ok {
		resp.Venue = venueResponse{ID: venue.ID, Name: venue.Name, Capacity: venue.Capacity}
	} else {
		resp.Venue = venueResponse{ID: event.VenueID}
	}
	return resp
}

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err.Error())
		return
	}

	id, err := h.events.CreateEvent(c.Request.Context(), req.Name, req.Start, req.End, req.Venue, req.Price)
	if err != nil {
		h.writeMutationError(c, err)
		return
	}

	response.Created(c, gin.H{"id": id})
}

// UpdateEvent handles PUT /events/:id
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	var req updateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err.Error())
		return
	}

	if err := h.events.UpdateEvent(c.Request.Context(), c.Param("id"), req.Name, req.Start, req.End, req.Price); err != nil {
		h.writeMutationError(c, err)
		return
	}

	response.NoContent(c)
}

// UpdateEventVenue handles PUT /events/:id/venue
func (h *EventHandler) UpdateEventVenue(c *gin.Context) {
	var req updateEventVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err.Error())
		return
	}

	if err := h.events.UpdateEventVenue(c.Request.Context(), c.Param("id"), req.Venue); err != nil {
		h.writeMutationError(c, err)
		return
	}

	response.NoContent(c)
}

// ListEvents handles GET /events, returning future events earliest first
func (h *EventHandler) ListEvents(c *gin.Context) {
	events, err := h.events.ListUpcomingEvents(c.Request.Context())
	if err != nil {
		response.InternalError(c, "Failed to list events")
		return
	}

	out := make([]eventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, toEventResponse(event))
	}
	response.Success(c, out)
}

// GetEvent handles GET /events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	event, err := h.events.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			response.NotFound(c, domain.ErrEventNotFound.Error())
			return
		}
		response.InternalError(c, "Failed to get event")
		return
	}

	response.Success(c, toEventResponse(event))
}

// ListVenues handles GET /venues
func (h *EventHandler) ListVenues(c *gin.Context) {
	all := venues.All()
	out := make([]venueResponse, 0, len(all))
	for _, venue := range all {
		out = append(out, venueResponse{ID: venue.ID, Name: venue.Name, Capacity: venue.Capacity})
	}
	response.Success(c, out)
}

// writeMutationError maps domain failures on write paths to 400s with the
// domain's message text. Missing ids on writes are validation failures, not 404s
func (h *EventHandler) writeMutationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, domain.ErrVenueNotFound),
		errors.Is(err, domain.ErrVenueUnavailable),
		errors.Is(err, domain.ErrEndBeforeStart),
		errors.Is(err, domain.ErrDateInPast),
		errors.Is(err, domain.ErrNameRequired),
		errors.Is(err, domain.ErrInvalidPrice):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, "Something went wrong")
	}
}
