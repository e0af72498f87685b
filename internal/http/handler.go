package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fleet-service/internal/auth"
	"fleet-service/internal/http/middleware"
	"fleet-service/internal/model"
	"fleet-service/internal/service"
	"fleet-service/internal/storage"
	"fleet-service/internal/ws"
)

type Handler struct {
	store              storage.Store
	vehicleService     *service.VehicleService
	tripService        *service.TripService
	maintenanceService *service.MaintenanceService
	bookingService     *service.BookingService
	userService        *service.UserService
	dashboardService   *service.DashboardService
	tokens             *auth.Manager
	hub                *ws.Hub
	log                zerolog.Logger
}

func NewHandler(
	store storage.Store,
	vehicleService *service.VehicleService,
	tripService *service.TripService,
	maintenanceService *service.MaintenanceService,
	bookingService *service.BookingService,
	userService *service.UserService,
	dashboardService *service.DashboardService,
	tokens *auth.Manager,
	hub *ws.Hub,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		store:              store,
		vehicleService:     vehicleService,
		tripService:        tripService,
		maintenanceService: maintenanceService,
		bookingService:     bookingService,
		userService:        userService,
		dashboardService:   dashboardService,
		tokens:             tokens,
		hub:                hub,
		log:                log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	r.POST("/auth/login", h.login)

	manage := middleware.RequireRole(model.RoleAdmin, model.RoleModerator)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	protected := r.Group("/")
	protected.Use(authMiddleware)

	vehicles := protected.Group("/vehicles")
	{
		vehicles.GET("", h.listVehicles)
		vehicles.POST("", manage, h.createVehicle)
		vehicles.GET("/plate/:plate", h.getVehicleByPlate)
		vehicles.GET("/:id", h.getVehicle)
		vehicles.PATCH("/:id", manage, h.updateVehicle)
		vehicles.DELETE("/:id", adminOnly, h.deleteVehicle)
		vehicles.GET("/:id/trips", h.listVehicleTrips)
		vehicles.GET("/:id/maintenance", h.listVehicleMaintenance)
		vehicles.GET("/:id/bookings", h.listVehicleBookings)
	}

	trips := protected.Group("/trips")
	{
		trips.GET("", h.listTrips)
		trips.GET("/active", h.listActiveTrips)
		trips.POST("", manage, h.createTrip)
		trips.GET("/:id", h.getTrip)
		trips.PATCH("/:id", manage, h.updateTrip)
		trips.DELETE("/:id", adminOnly, h.deleteTrip)
	}

	maintenance := protected.Group("/maintenance")
	{
		maintenance.GET("", h.listMaintenance)
		maintenance.GET("/upcoming", h.listUpcomingMaintenance)
		maintenance.POST("", manage, h.createMaintenance)
		maintenance.GET("/:id", h.getMaintenance)
		maintenance.PATCH("/:id", manage, h.updateMaintenance)
		maintenance.DELETE("/:id", adminOnly, h.deleteMaintenance)
	}

	bookings := protected.Group("/bookings")
	{
		bookings.GET("", manage, h.listBookings)
		bookings.POST("", h.createBooking)
		bookings.GET("/:id", h.getBooking)
		bookings.PATCH("/:id", h.updateBooking)
		bookings.DELETE("/:id", manage, h.deleteBooking)
	}

	users := protected.Group("/users")
	{
		users.GET("", manage, h.listUsers)
		users.POST("", adminOnly, h.createUser)
		users.GET("/:id", manage, h.getUser)
		users.PATCH("/:id", adminOnly, h.updateUser)
		users.DELETE("/:id", adminOnly, h.deleteUser)
	}

	protected.GET("/dashboard/summary", h.dashboardSummary)
	protected.GET("/ws", h.serveWS)
}

func (h *Handler) healthz(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrPermissionDenied) {
			c.JSON(http.StatusUnauthorized, errorResponse("invalid credentials"))
			return
		}
		h.handleError(c, err)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to issue token")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{
		"token": token,
		"user":  user,
	}))
}

func (h *Handler) createVehicle(c *gin.Context) {
	var req struct {
		Make             string  `json:"make"`
		Model            string  `json:"model"`
		Year             int     `json:"year"`
		PlateNumber      string  `json:"plate_number" binding:"required"`
		VIN              *string `json:"vin"`
		Color            string  `json:"color"`
		FuelType         string  `json:"fuel_type" binding:"required"`
		Status           string  `json:"status"`
		Mileage          *int64  `json:"mileage"`
		AssignedDriverID *string `json:"assigned_driver_id"`
		PurchaseDate     *string `json:"purchase_date"`
		Notes            string  `json:"notes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	vehicle, err := h.vehicleService.Create(c.Request.Context(), service.CreateVehicleInput{
		Make:             req.Make,
		Model:            req.Model,
		Year:             req.Year,
		PlateNumber:      req.PlateNumber,
		VIN:              req.VIN,
		Color:            req.Color,
		FuelType:         req.FuelType,
		Status:           req.Status,
		Mileage:          req.Mileage,
		AssignedDriverID: req.AssignedDriverID,
		PurchaseDate:     req.PurchaseDate,
		Notes:            req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(vehicle))
}

func (h *Handler) getVehicle(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle id"))
		return
	}

	vehicle, err := h.vehicleService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(vehicle))
}

func (h *Handler) getVehicleByPlate(c *gin.Context) {
	plate := strings.TrimSpace(c.Param("plate"))
	if plate == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid plate number"))
		return
	}

	vehicle, err := h.vehicleService.GetByPlate(c.Request.Context(), plate)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(vehicle))
}

func (h *Handler) listVehicles(c *gin.Context) {
	filter := storage.VehicleFilter{}

	if status := strings.TrimSpace(c.Query("status")); status != "" {
		vs := model.VehicleStatus(strings.ToLower(status))
		filter.Status = &vs
	}
	if fuel := strings.TrimSpace(c.Query("fuel_type")); fuel != "" {
		ft := model.FuelType(strings.ToLower(fuel))
		filter.FuelType = &ft
	}
	if raw := strings.TrimSpace(c.Query("driver_id")); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.AssignedDriverID = &id
		}
	}
	if plate := strings.TrimSpace(c.Query("plate")); plate != "" {
		filter.Plate = &plate
	}

	vehicles, err := h.vehicleService.List(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(vehicles))
}

func (h *Handler) updateVehicle(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle id"))
		return
	}

	var req struct {
		Make             *string `json:"make"`
		Model            *string `json:"model"`
		Year             *int    `json:"year"`
		PlateNumber      *string `json:"plate_number"`
		VIN              *string `json:"vin"`
		Color            *string `json:"color"`
		FuelType         *string `json:"fuel_type"`
		Status           *string `json:"status"`
		Mileage          *int64  `json:"mileage"`
		ForceMileage     bool    `json:"force_mileage"`
		AssignedDriverID *string `json:"assigned_driver_id"`
		PurchaseDate     *string `json:"purchase_date"`
		Notes            *string `json:"notes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	vehicle, err := h.vehicleService.Update(c.Request.Context(), id, service.UpdateVehicleInput{
		Make:             req.Make,
		Model:            req.Model,
		Year:             req.Year,
		PlateNumber:      req.PlateNumber,
		VIN:              req.VIN,
		Color:            req.Color,
		FuelType:         req.FuelType,
		Status:           req.Status,
		Mileage:          req.Mileage,
		AssignedDriverID: req.AssignedDriverID,
		PurchaseDate:     req.PurchaseDate,
		Notes:            req.Notes,
		ForceMileage:     req.ForceMileage && principal.IsAdmin(),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(vehicle))
}

func (h *Handler) deleteVehicle(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle id"))
		return
	}

	if err := h.vehicleService.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"message": "vehicle deleted"}))
}

func (h *Handler) listVehicleTrips(c *gin.Context) {
	vehicleID, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle id"))
		return
	}

	trips, err := h.tripService.List(c.Request.Context(), storage.TripFilter{VehicleID: &vehicleID})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(trips))
}

func (h *Handler) listVehicleMaintenance(c *gin.Context) {
	vehicleID, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle id"))
		return
	}

	records, err := h.maintenanceService.List(c.Request.Context(), storage.MaintenanceFilter{VehicleID: &vehicleID})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(records))
}

func (h *Handler) listVehicleBookings(c *gin.Context) {
	vehicleID, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle id"))
		return
	}

	bookings, err := h.bookingService.List(c.Request.Context(), storage.BookingFilter{VehicleID: &vehicleID})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(bookings))
}

func (h *Handler) createTrip(c *gin.Context) {
	var req struct {
		VehicleID     string  `json:"vehicle_id" binding:"required"`
		DriverID      string  `json:"driver_id" binding:"required"`
		StartAt       *string `json:"start_at"`
		StartOdometer *int64  `json:"start_odometer"`
		Purpose       string  `json:"purpose"`
		Status        string  `json:"status"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	trip, err := h.tripService.Create(c.Request.Context(), service.CreateTripInput{
		VehicleID:     req.VehicleID,
		DriverID:      req.DriverID,
		StartAt:       req.StartAt,
		StartOdometer: req.StartOdometer,
		Purpose:       req.Purpose,
		Status:        req.Status,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(trip))
}

func (h *Handler) getTrip(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid trip id"))
		return
	}

	trip, err := h.tripService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(trip))
}

func (h *Handler) listTrips(c *gin.Context) {
	filter := storage.TripFilter{}

	if raw := strings.TrimSpace(c.Query("vehicle_id")); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.VehicleID = &id
		}
	}
	if raw := strings.TrimSpace(c.Query("driver_id")); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.DriverID = &id
		}
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		ts := model.TripStatus(strings.ToLower(status))
		filter.Status = &ts
	}
	if raw := strings.TrimSpace(c.Query("start_from")); raw != "" {
		if t, err := parseTime(raw); err == nil {
			filter.StartFrom = &t
		}
	}
	if raw := strings.TrimSpace(c.Query("start_to")); raw != "" {
		if t, err := parseTime(raw); err == nil {
			filter.StartTo = &t
		}
	}

	trips, err := h.tripService.List(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(trips))
}

func (h *Handler) listActiveTrips(c *gin.Context) {
	trips, err := h.tripService.ListActive(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(trips))
}

func (h *Handler) updateTrip(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid trip id"))
		return
	}

	var req struct {
		StartAt       *string  `json:"start_at"`
		EndAt         *string  `json:"end_at"`
		StartOdometer *int64   `json:"start_odometer"`
		EndOdometer   *int64   `json:"end_odometer"`
		FuelUsedL     *float64 `json:"fuel_used_l"`
		Purpose       *string  `json:"purpose"`
		Status        *string  `json:"status"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	trip, err := h.tripService.Update(c.Request.Context(), id, service.UpdateTripInput{
		StartAt:       req.StartAt,
		EndAt:         req.EndAt,
		StartOdometer: req.StartOdometer,
		EndOdometer:   req.EndOdometer,
		FuelUsedL:     req.FuelUsedL,
		Purpose:       req.Purpose,
		Status:        req.Status,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(trip))
}

func (h *Handler) deleteTrip(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid trip id"))
		return
	}

	if err := h.tripService.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"message": "trip deleted"}))
}

func (h *Handler) createMaintenance(c *gin.Context) {
	var req struct {
		VehicleID       string   `json:"vehicle_id" binding:"required"`
		Type            string   `json:"type" binding:"required"`
		Description     string   `json:"description" binding:"required"`
		Date            string   `json:"date" binding:"required"`
		Cost            *float64 `json:"cost"`
		OdometerReading *int64   `json:"odometer_reading"`
		Status          string   `json:"status"`
		Notes           string   `json:"notes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	record, err := h.maintenanceService.Create(c.Request.Context(), service.CreateMaintenanceInput{
		VehicleID:       req.VehicleID,
		Type:            req.Type,
		Description:     req.Description,
		Date:            req.Date,
		Cost:            req.Cost,
		OdometerReading: req.OdometerReading,
		Status:          req.Status,
		Notes:           req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(record))
}

func (h *Handler) getMaintenance(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid maintenance id"))
		return
	}

	record, err := h.maintenanceService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(record))
}

func (h *Handler) listMaintenance(c *gin.Context) {
	filter := storage.MaintenanceFilter{}

	if raw := strings.TrimSpace(c.Query("vehicle_id")); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.VehicleID = &id
		}
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		ms := model.MaintenanceStatus(strings.ToLower(status))
		filter.Status = &ms
	}
	if mtype := strings.TrimSpace(c.Query("type")); mtype != "" {
		mt := model.MaintenanceType(strings.ToLower(mtype))
		filter.Type = &mt
	}
	if raw := strings.TrimSpace(c.Query("date_from")); raw != "" {
		if t, err := parseTime(raw); err == nil {
			filter.DateFrom = &t
		}
	}
	if raw := strings.TrimSpace(c.Query("date_to")); raw != "" {
		if t, err := parseTime(raw); err == nil {
			filter.DateTo = &t
		}
	}

	records, err := h.maintenanceService.List(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(records))
}

func (h *Handler) listUpcomingMaintenance(c *gin.Context) {
	records, err := h.maintenanceService.ListUpcoming(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(records))
}

func (h *Handler) updateMaintenance(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid maintenance id"))
		return
	}

	var req struct {
		Type            *string  `json:"type"`
		Description     *string  `json:"description"`
		Date            *string  `json:"date"`
		Cost            *float64 `json:"cost"`
		OdometerReading *int64   `json:"odometer_reading"`
		Status          *string  `json:"status"`
		CompletedAt     *string  `json:"completed_at"`
		Notes           *string  `json:"notes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	record, err := h.maintenanceService.Update(c.Request.Context(), id, service.UpdateMaintenanceInput{
		Type:            req.Type,
		Description:     req.Description,
		Date:            req.Date,
		Cost:            req.Cost,
		OdometerReading: req.OdometerReading,
		Status:          req.Status,
		CompletedAt:     req.CompletedAt,
		Notes:           req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(record))
}

func (h *Handler) deleteMaintenance(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid maintenance id"))
		return
	}

	if err := h.maintenanceService.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"message": "maintenance record deleted"}))
}

func (h *Handler) createBooking(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var req struct {
		VehicleID string `json:"vehicle_id" binding:"required"`
		UserID    string `json:"user_id"`
		StartAt   string `json:"start_at" binding:"required"`
		EndAt     string `json:"end_at" binding:"required"`
		Purpose   string `json:"purpose"`
		Status    string `json:"status"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = principal.UserID.String()
	} else if userID != principal.UserID.String() && !principal.CanManageFleet() {
		c.JSON(http.StatusForbidden, errorResponse("cannot book for another user"))
		return
	}

	booking, err := h.bookingService.Create(c.Request.Context(), service.CreateBookingInput{
		VehicleID: req.VehicleID,
		UserID:    userID,
		StartAt:   req.StartAt,
		EndAt:     req.EndAt,
		Purpose:   req.Purpose,
		Status:    req.Status,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(booking))
}

func (h *Handler) getBooking(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid booking id"))
		return
	}

	booking, err := h.bookingService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	if !canAccessBooking(principal, booking) {
		c.JSON(http.StatusForbidden, errorResponse("permission denied"))
		return
	}

	c.JSON(http.StatusOK, successResponse(booking))
}

func (h *Handler) listBookings(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	filter := storage.BookingFilter{}

	if c.Query("mine") == "1" {
		filter.UserID = &principal.UserID
	} else if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.UserID = &id
		}
	}
	if raw := strings.TrimSpace(c.Query("vehicle_id")); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.VehicleID = &id
		}
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		bs := model.BookingStatus(strings.ToLower(status))
		filter.Status = &bs
	}
	if raw := strings.TrimSpace(c.Query("start_from")); raw != "" {
		if t, err := parseTime(raw); err == nil {
			filter.StartFrom = &t
		}
	}
	if raw := strings.TrimSpace(c.Query("start_to")); raw != "" {
		if t, err := parseTime(raw); err == nil {
			filter.StartTo = &t
		}
	}

	bookings, err := h.bookingService.List(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(bookings))
}

func (h *Handler) updateBooking(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid booking id"))
		return
	}

	var req struct {
		StartAt *string `json:"start_at"`
		EndAt   *string `json:"end_at"`
		Purpose *string `json:"purpose"`
		Status  *string `json:"status"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	if !principal.CanManageFleet() {
		// Plain owners may only cancel their own pending booking.
		booking, err := h.bookingService.Get(c.Request.Context(), id)
		if err != nil {
			h.handleError(c, err)
			return
		}
		if booking.UserID != principal.UserID {
			c.JSON(http.StatusForbidden, errorResponse("permission denied"))
			return
		}
		cancelOnly := req.StartAt == nil && req.EndAt == nil && req.Purpose == nil &&
			req.Status != nil && model.BookingStatus(*req.Status) == model.BookingStatusCancelled
		if !cancelOnly {
			c.JSON(http.StatusForbidden, errorResponse("permission denied"))
			return
		}
	}

	booking, err := h.bookingService.Update(c.Request.Context(), id, service.UpdateBookingInput{
		StartAt: req.StartAt,
		EndAt:   req.EndAt,
		Purpose: req.Purpose,
		Status:  req.Status,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(booking))
}

func (h *Handler) deleteBooking(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid booking id"))
		return
	}

	if err := h.bookingService.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"message": "booking deleted"}))
}

func (h *Handler) createUser(c *gin.Context) {
	var req struct {
		Username string  `json:"username" binding:"required"`
		Password string  `json:"password" binding:"required"`
		Name     string  `json:"name" binding:"required"`
		Role     string  `json:"role"`
		Position string  `json:"position"`
		Email    *string `json:"email"`
		Phone    *string `json:"phone"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	user, err := h.userService.Create(c.Request.Context(), service.CreateUserInput{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
		Position: req.Position,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(user))
}

func (h *Handler) getUser(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid user id"))
		return
	}

	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(user))
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(users))
}

func (h *Handler) updateUser(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid user id"))
		return
	}

	var req struct {
		Password *string `json:"password"`
		Name     *string `json:"name"`
		Role     *string `json:"role"`
		Position *string `json:"position"`
		Email    *string `json:"email"`
		Phone    *string `json:"phone"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	user, err := h.userService.Update(c.Request.Context(), id, service.UpdateUserInput{
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
		Position: req.Position,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(user))
}

func (h *Handler) deleteUser(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid user id"))
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"message": "user deleted"}))
}

func (h *Handler) dashboardSummary(c *gin.Context) {
	summary, err := h.dashboardService.Summary(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(summary))
}

func (h *Handler) serveWS(c *gin.Context) {
	h.hub.Serve(c.Writer, c.Request)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func canAccessBooking(principal model.Principal, booking *model.Booking) bool {
	return principal.CanManageFleet() || booking.UserID == principal.UserID
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, errors.New("invalid time format")
}
