// Package api exposes the seat inventory over HTTP with gin.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/railseat/internal/common/logger"
	"github.com/railseat/internal/railway/booking"
	"github.com/railseat/pkg/railway/models"
)

// Inventory is the application surface the handlers drive.
type Inventory interface {
	AddTrain(ctx context.Context, stations []models.Station, departure models.TimeOfDay, seats int) (int, error)
	AddPassenger(ctx context.Context, name string, age int) (int, error)
	BookTicket(ctx context.Context, req booking.Request) (models.Ticket, error)
	AvailableSeats(ctx context.Context, trainID int, from, to models.Station) (int, error)
	BoardingCount(ctx context.Context, trainID int, station models.Station) (int, error)
	OldestAge(ctx context.Context, trainID int) (int, error)
	TrainsInWindow(ctx context.Context, station models.Station, start, end models.TimeOfDay) ([]int, error)
	PassengerTickets(ctx context.Context, passengerID int) ([]models.Ticket, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) error
}

type StatusReporter interface {
	GetStatus() map[string]interface{}
}

type Handler struct {
	inventory Inventory
	limiter   RateLimiter
	audit     StatusReporter
	logger    logger.Logger
}

type Options struct {
	Inventory Inventory
	Limiter   RateLimiter    // optional, guards booking
	Audit     StatusReporter // optional, reported by /healthz
	Logger    logger.Logger
}

func NewHandler(opts Options) *Handler {
	return &Handler{
		inventory: opts.Inventory,
		limiter:   opts.Limiter,
		audit:     opts.Audit,
		logger:    opts.Logger,
	}
}

// Router builds the gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger())

	router.GET("/healthz", h.health)

	train := router.Group("/train")
	train.POST("/add", h.addTrain)
	train.GET("/arrivals", h.trainsInWindow)
	train.GET("/:trainId/available-seats", h.availableSeats)
	train.GET("/:trainId/boarding", h.boardingCount)
	train.GET("/:trainId/oldest-passenger", h.oldestAge)

	passenger := router.Group("/passenger")
	passenger.POST("/create", h.addPassenger)
	passenger.GET("/:passengerId/tickets", h.passengerTickets)

	ticket := router.Group("/ticket")
	if h.limiter != nil {
		ticket.Use(h.rateLimit())
	}
	ticket.POST("/book", h.bookTicket)

	return router
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
			"client_ip", c.ClientIP())
	}
}

func (h *Handler) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.limiter.Allow(c.Request.Context(), c.ClientIP()); err != nil {
			h.respondError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (h *Handler) health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if h.audit != nil {
		body["audit"] = h.audit.GetStatus()
	}
	c.JSON(http.StatusOK, body)
}

type addTrainRequest struct {
	StationRoute  []models.Station `json:"stationRoute" binding:"required"`
	DepartureTime models.TimeOfDay `json:"departureTime"`
	NoOfSeats     int              `json:"noOfSeats"`
}

func (h *Handler) addTrain(c *gin.Context) {
	var req addTrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id, err := h.inventory.AddTrain(c.Request.Context(), req.StationRoute, req.DepartureTime, req.NoOfSeats)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"trainId": id})
}

type addPassengerRequest struct {
	Name string `json:"name" binding:"required"`
	Age  int    `json:"age"`
}

func (h *Handler) addPassenger(c *gin.Context) {
	var req addPassengerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id, err := h.inventory.AddPassenger(c.Request.Context(), req.Name, req.Age)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"passengerId": id})
}

type bookTicketRequest struct {
	TrainID         int            `json:"trainId" binding:"required"`
	FromStation     models.Station `json:"fromStation" binding:"required"`
	ToStation       models.Station `json:"toStation" binding:"required"`
	PassengerIDs    []int          `json:"passengerIds"`
	BookingPersonID int            `json:"bookingPersonId" binding:"required"`
	NoOfSeats       int            `json:"noOfSeats"`
}

func (h *Handler) bookTicket(c *gin.Context) {
	var req bookTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ticket, err := h.inventory.BookTicket(c.Request.Context(), booking.Request{
		TrainID:         req.TrainID,
		From:            req.FromStation,
		To:              req.ToStation,
		PassengerIDs:    req.PassengerIDs,
		BookingPersonID: req.BookingPersonID,
		Seats:           req.NoOfSeats,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ticketId": ticket.ID, "fare": ticket.Fare})
}

func (h *Handler) availableSeats(c *gin.Context) {
	trainID, ok := intParam(c, "trainId")
	if !ok {
		return
	}
	from, ok := stationQuery(c, "from")
	if !ok {
		return
	}
	to, ok := stationQuery(c, "to")
	if !ok {
		return
	}

	n, err := h.inventory.AvailableSeats(c.Request.Context(), trainID, from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"availableSeats": n})
}

func (h *Handler) boardingCount(c *gin.Context) {
	trainID, ok := intParam(c, "trainId")
	if !ok {
		return
	}
	station, ok := stationQuery(c, "station")
	if !ok {
		return
	}

	n, err := h.inventory.BoardingCount(c.Request.Context(), trainID, station)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"boardingCount": n})
}

func (h *Handler) oldestAge(c *gin.Context) {
	trainID, ok := intParam(c, "trainId")
	if !ok {
		return
	}

	age, err := h.inventory.OldestAge(c.Request.Context(), trainID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"oldestAge": age})
}

func (h *Handler) trainsInWindow(c *gin.Context) {
	station, ok := stationQuery(c, "station")
	if !ok {
		return
	}
	start, ok := timeQuery(c, "start")
	if !ok {
		return
	}
	end, ok := timeQuery(c, "end")
	if !ok {
		return
	}

	ids, err := h.inventory.TrainsInWindow(c.Request.Context(), station, start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trainIds": ids})
}

func (h *Handler) passengerTickets(c *gin.Context) {
	passengerID, ok := intParam(c, "passengerId")
	if !ok {
		return
	}

	tickets, err := h.inventory.PassengerTickets(c.Request.Context(), passengerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be an integer"})
		return 0, false
	}
	return v, true
}

func stationQuery(c *gin.Context, name string) (models.Station, bool) {
	s, err := models.ParseStation(c.Query(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + ": " + err.Error()})
		return "", false
	}
	return s, true
}

func timeQuery(c *gin.Context, name string) (models.TimeOfDay, bool) {
	t, err := models.ParseTimeOfDay(c.Query(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + ": " + err.Error()})
		return 0, false
	}
	return t, true
}
