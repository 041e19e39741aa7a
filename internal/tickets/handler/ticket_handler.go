package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/tickets/domain"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/tickets/service"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/response"
)

// TicketService is the slice of the Tickets module the HTTP layer needs
type TicketService interface {
	Reserve(ctx context.Context, eventID, userID string, ticketIDs []string) error
	Purchase(ctx context.Context, eventID, userID string, ticketIDs []string) error
	ListEventTickets(ctx context.Context, eventID string) ([]service.SeatView, error)
	ListUserTickets(ctx context.Context, userID string) ([]*domain.Ticket, error)
}

// TicketHandler exposes the Tickets module over HTTP
type TicketHandler struct {
	tickets TicketService
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(tickets TicketService) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

// RegisterRoutes registers the ticket routes
func (h *TicketHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/events/:id/tickets", h.ListEventTickets)
	r.POST("/events/:id/tickets/reserve", h.ReserveTickets)
	r.POST("/events/:id/tickets/purchase", h.PurchaseTickets)
	r.GET("/tickets/users/:userId", h.ListUserTickets)
}

type seatClaimRequest struct {
	UserID    string   `json:"userId" binding:"required"`
	TicketIDs []string `json:"ticketIds" binding:"required,min=1"`
}

type purchasedTicketResponse struct {
	TicketID    string    `json:"ticketId"`
	EventID     string    `json:"eventId"`
	SeatNumber  int       `json:"seatNumber"`
	Price       float64   `json:"price"`
	PurchasedAt time.Time `json:"purchasedAt"`
}

// ListEventTickets handles GET /events/:id/tickets
func (h *TicketHandler) ListEventTickets(c *gin.Context) {
	seats, err := h.tickets.ListEventTickets(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			response.NotFound(c, domain.ErrEventNotFound.Error())
			return
		}
		response.InternalError(c, "Failed to list tickets")
		return
	}

	response.Success(c, seats)
}

// ReserveTickets handles POST /events/:id/tickets/reserve
func (h *TicketHandler) ReserveTickets(c *gin.Context) {
	var req seatClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err.Error())
		return
	}

	if err := h.tickets.Reserve(c.Request.Context(), c.Param("id"), req.UserID, req.TicketIDs); err != nil {
		h.writeClaimError(c, err)
		return
	}

	response.NoContent(c)
}

// PurchaseTickets handles POST /events/:id/tickets/purchase
func (h *TicketHandler) PurchaseTickets(c *gin.Context) {
	var req seatClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err.Error())
		return
	}

	if err := h.tickets.Purchase(c.Request.Context(), c.Param("id"), req.UserID, req.TicketIDs); err != nil {
		h.writeClaimError(c, err)
		return
	}

	response.NoContent(c)
}

// ListUserTickets handles GET /tickets/users/:userId
func (h *TicketHandler) ListUserTickets(c *gin.Context) {
	tickets, err := h.tickets.ListUserTickets(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.InternalError(c, "Failed to list tickets")
		return
	}

	out := make([]purchasedTicketResponse, 0, len(tickets))
	for _, ticket := range tickets {
		item := purchasedTicketResponse{
			TicketID:   ticket.ID,
			EventID:    ticket.EventID,
			SeatNumber: ticket.SeatNumber,
			Price:      ticket.Price,
		}
		if ticket.PurchasedAt != nil {
			item.PurchasedAt = *ticket.PurchasedAt
		}
		out = append(out, item)
	}
	response.Success(c, out)
}

func (h *TicketHandler) writeClaimError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrTicketsAlreadyReserved),
		errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, domain.ErrTicketsDoNotExist),
		errors.Is(err, domain.ErrTicketsNotAvailable):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, "Something went wrong")
	}
}
