package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/events/domain"
)

type mockEventService struct {
	createFunc       func(ctx context.Context, name string, start, end time.Time, venueID string, price float64) (string, error)
	updateFunc       func(ctx context.Context, id, name string, start, end time.Time, price float64) error
	updateVenueFunc  func(ctx context.Context, id, venueID string) error
	getFunc          func(ctx context.Context, id string) (*domain.Event, error)
	listUpcomingFunc func(ctx context.Context) ([]*domain.Event, error)
}

func (m *mockEventService) CreateEvent(ctx context.Context, name string, start, end time.Time, venueID string, price float64) (string, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, name, start, end, venueID, price)
	}
	return "", nil
}

func (m *mockEventService) UpdateEvent(ctx context.Context, id, name string, start, end time.Time, price float64) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, name, start, end, price)
	}
	return nil
}

func (m *mockEventService) UpdateEventVenue(ctx context.Context, id, venueID string) error {
	if m.updateVenueFunc != nil {
		return m.updateVenueFunc(ctx, id, venueID)
	}
	return nil
}

func (m *mockEventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, domain.ErrEventNotFound
}

func (m *mockEventService) ListUpcomingEvents(ctx context.Context) ([]*domain.Event, error) {
	if m.listUpcomingFunc != nil {
		return m.listUpcomingFunc(ctx)
	}
	return nil, nil
}

func setupRouter(svc EventService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewEventHandler(svc).RegisterRoutes(r.Group("/"))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateEvent(t *testing.T) {
	svc := &mockEventService{
		createFunc: func(ctx context.Context, name string, start, end time.Time, venueID string, price float64) (string, error) {
			assert.Equal(t, "Summer Gig", name)
			assert.Equal(t, "o2-academy-leeds", venueID)
			return "event-1", nil
		},
	}
	r := setupRouter(svc)

	start := time.Now().Add(24 * time.Hour).UTC()
	w := doJSON(t, r, http.MethodPost, "/events", gin.H{
		"name":  "Summer Gig",
		"start": start,
		"end":   start.Add(3 * time.Hour),
		"venue": "o2-academy-leeds",
		"price": 45,
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "event-1")
}

func TestCreateEvent_MissingFields(t *testing.T) {
	r := setupRouter(&mockEventService{})

	w := doJSON(t, r, http.MethodPost, "/events", gin.H{"name": "Gig"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateEvent_DomainFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"double booked venue", domain.ErrVenueUnavailable, "Venue is not available at the selected time"},
		{"past date", domain.ErrDateInPast, "Event dates must not be in the past"},
		{"unknown venue", domain.ErrVenueNotFound, "Venue does not exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockEventService{
				createFunc: func(ctx context.Context, name string, start, end time.Time, venueID string, price float64) (string, error) {
					return "", tt.err
				},
			}
			r := setupRouter(svc)

			start := time.Now().Add(24 * time.Hour).UTC()
			w := doJSON(t, r, http.MethodPost, "/events", gin.H{
				"name":  "Gig",
				"start": start,
				"end":   start.Add(time.Hour),
				"venue": "o2-academy-leeds",
				"price": 10,
			})

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
		})
	}
}

func TestUpdateEvent(t *testing.T) {
	var gotID string
	svc := &mockEventService{
		updateFunc: func(ctx context.Context, id, name string, start, end time.Time, price float64) error {
			gotID = id
			return nil
		},
	}
	r := setupRouter(svc)

	start := time.Now().Add(24 * time.Hour).UTC()
	w := doJSON(t, r, http.MethodPut, "/events/event-1", gin.H{
		"name":  "Renamed",
		"start": start,
		"end":   start.Add(time.Hour),
		"price": 30,
	})

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "event-1", gotID)
}

func TestUpdateEvent_UnknownEventIsValidationFailure(t *testing.T) {
	svc := &mockEventService{
		updateFunc: func(ctx context.Context, id, name string, start, end time.Time, price float64) error {
			return domain.ErrEventNotFound
		},
	}
	r := setupRouter(svc)

	start := time.Now().Add(24 * time.Hour).UTC()
	w := doJSON(t, r, http.MethodPut, "/events/missing", gin.H{
		"name":  "Gig",
		"start": start,
		"end":   start.Add(time.Hour),
		"price": 10,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Event does not exist")
}

func TestUpdateEventVenue(t *testing.T) {
	var gotVenue string
	svc := &mockEventService{
		updateVenueFunc: func(ctx context.Context, id, venueID string) error {
			gotVenue = venueID
			return nil
		},
	}
	r := setupRouter(svc)

	w := doJSON(t, r, http.MethodPut, "/events/event-1/venue", gin.H{"venue": "leadmill-sheffield"})

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "leadmill-sheffield", gotVenue)
}

func TestGetEvent(t *testing.T) {
	start := time.Now().Add(24 * time.Hour).UTC()
	svc := &mockEventService{
		getFunc: func(ctx context.Context, id string) (*domain.Event, error) {
			return &domain.Event{
				ID:        id,
				Name:      "Gig",
				StartDate: start,
				EndDate:   start.Add(time.Hour),
				VenueID:   "o2-academy-leeds",
				Price:     20,
			}, nil
		},
	}
	r := setupRouter(svc)

	w := doJSON(t, r, http.MethodGet, "/events/event-1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"O2 Academy Leeds"`)
	assert.Contains(t, w.Body.String(), `"capacity":2300`)
}

func TestGetEvent_NotFound(t *testing.T) {
	r := setupRouter(&mockEventService{})

	w := doJSON(t, r, http.MethodGet, "/events/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListEvents(t *testing.T) {
	start := time.Now().Add(24 * time.Hour).UTC()
	svc := &mockEventService{
		listUpcomingFunc: func(ctx context.Context) ([]*domain.Event, error) {
			var out []*domain.Event
			for i := 0; i < 3; i++ {
				out = append(out, &domain.Event{
					ID:        fmt.Sprintf("event-%d", i),
					Name:      fmt.Sprintf("Gig %d", i),
					StartDate: start.Add(time.Duration(i) * time.Hour),
					EndDate:   start.Add(time.Duration(i+1) * time.Hour),
					VenueID:   "o2-academy-leeds",
				})
			}
			return out, nil
		},
	}
	r := setupRouter(svc)

	w := doJSON(t, r, http.MethodGet, "/events", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []eventResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 3)
	assert.Equal(t, "event-0", body.Data[0].ID)
}

func TestListVenues(t *testing.T) {
	r := setupRouter(&mockEventService{})

	w := doJSON(t, r, http.MethodGet, "/venues", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "first-direct-arena")
}
