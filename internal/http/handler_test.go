package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"fleet-service/internal/auth"
	"fleet-service/internal/http/middleware"
	"fleet-service/internal/model"
	"fleet-service/internal/service"
	"fleet-service/internal/storage/memory"
	"fleet-service/internal/ws"
)

var userSeq atomic.Int64

func newTestServer(t *testing.T) (*gin.Engine, *memory.Store, *auth.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	log := zerolog.Nop()
	tokens := auth.NewManager("test-secret", time.Hour)
	hub := ws.NewHub(log)

	vehicleService := service.NewVehicleService(store, nil, hub, nil, log)
	tripService := service.NewTripService(store, hub, nil, log)
	maintenanceService := service.NewMaintenanceService(store, hub, nil, log)
	bookingService := service.NewBookingService(store, nil, log)
	userService := service.NewUserService(store, log)
	dashboardService := service.NewDashboardService(store, nil, log)

	handler := NewHandler(
		store,
		vehicleService,
		tripService,
		maintenanceService,
		bookingService,
		userService,
		dashboardService,
		tokens,
		hub,
		log,
	)
	router := NewRouter(handler, middleware.Auth(tokens), "test")
	return router, store, tokens
}

func seedPrincipal(t *testing.T, store *memory.Store, tokens *auth.Manager, role model.UserRole) (*model.User, string) {
	t.Helper()
	user := &model.User{
		Username: fmt.Sprintf("user%d", userSeq.Add(1)),
		Name:     "Test User",
		Role:     role,
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	token, err := tokens.Issue(user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return user, token
}

func doRequest(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("decode data: %v (body %s)", err, rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	router, _, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status: got %d, want 200", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"ok"`)) {
		t.Fatalf("healthz body: %s", rec.Body.String())
	}
}

func TestLoginFlow(t *testing.T) {
	router, store, _ := newTestServer(t)

	user := &model.User{Username: "opslead", Name: "Ops Lead", Role: model.RoleAdmin}
	if err := user.HashPassword("longpassword"); err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	rec := doRequest(t, router, http.MethodPost, "/auth/login", "", gin.H{"username": "opslead", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad credentials: got %d, want 401", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/auth/login", "", gin.H{"username": "opslead"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing password: got %d, want 400", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/auth/login", "", gin.H{"username": "opslead", "password": "longpassword"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: got %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var loginData struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	decodeData(t, rec, &loginData)
	if loginData.Token == "" {
		t.Fatal("login response has no token")
	}
	if loginData.User.Username != "opslead" {
		t.Fatalf("login user: %q", loginData.User.Username)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("password")) {
		t.Fatal("login response leaks the password hash")
	}

	rec = doRequest(t, router, http.MethodGet, "/vehicles", loginData.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("authorized list: got %d, want 200", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	router, _, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodGet, "/vehicles", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: got %d, want 401", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/vehicles", "garbage", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: got %d, want 401", rec.Code)
	}
}

func TestRoleEnforcement(t *testing.T) {
	router, store, tokens := newTestServer(t)

	_, moderatorToken := seedPrincipal(t, store, tokens, model.RoleModerator)
	_, adminToken := seedPrincipal(t, store, tokens, model.RoleAdmin)

	newUser := gin.H{"username": "newbie", "password": "longenough", "name": "New User"}

	rec := doRequest(t, router, http.MethodPost, "/users", moderatorToken, newUser)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("moderator creating user: got %d, want 403", rec.Code)
	}

	rec = doRequest(t, router, http.MethodDelete, "/vehicles/some-id", moderatorToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("moderator deleting vehicle: got %d, want 403", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/users", adminToken, newUser)
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin creating user: got %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestVehicleEndpoints(t *testing.T) {
	router, store, tokens := newTestServer(t)
	_, adminToken := seedPrincipal(t, store, tokens, model.RoleAdmin)

	rec := doRequest(t, router, http.MethodPost, "/vehicles", adminToken, gin.H{
		"make":         "Toyota",
		"model":        "Hilux",
		"year":         2021,
		"plate_number": "http 001",
		"fuel_type":    "diesel",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create vehicle: got %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
	var created struct {
		ID          string `json:"id"`
		PlateNumber string `json:"plate_number"`
	}
	decodeData(t, rec, &created)
	if created.PlateNumber != "HTTP001" {
		t.Fatalf("plate not normalized over http: %q", created.PlateNumber)
	}

	rec = doRequest(t, router, http.MethodGet, "/vehicles/"+created.ID, adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get vehicle: got %d, want 200", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/vehicles/plate/HTTP001", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get by plate: got %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodPost, "/vehicles", adminToken, gin.H{
		"make":         "Ford",
		"model":        "Ranger",
		"year":         2022,
		"plate_number": "HTTP-001",
		"fuel_type":    "diesel",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate plate: got %d, want 409", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/vehicles", adminToken, gin.H{"make": "Toyota"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing required fields: got %d, want 400", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/vehicles/ffffffff-ffff-ffff-ffff-ffffffffffff", adminToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown vehicle: got %d, want 404", rec.Code)
	}
}

func TestTripEndpointsDriveVehicleStatus(t *testing.T) {
	router, store, tokens := newTestServer(t)
	driver, adminToken := seedPrincipal(t, store, tokens, model.RoleAdmin)

	vehicle := &model.Vehicle{
		Make: "Toyota", Model: "Hilux", Year: 2021,
		PlateNumber: "TRIP01", FuelType: model.FuelTypeDiesel,
		Status: model.VehicleStatusAvailable, Mileage: 100,
	}
	if err := store.CreateVehicle(context.Background(), vehicle); err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}

	rec := doRequest(t, router, http.MethodPost, "/trips", adminToken, gin.H{
		"vehicle_id": vehicle.ID.String(),
		"driver_id":  driver.ID.String(),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create trip: got %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
	var trip struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeData(t, rec, &trip)
	if trip.Status != "in_progress" {
		t.Fatalf("trip status: %q", trip.Status)
	}

	var gotVehicle struct {
		Status string `json:"status"`
	}
	rec = doRequest(t, router, http.MethodGet, "/vehicles/"+vehicle.ID.String(), adminToken, nil)
	decodeData(t, rec, &gotVehicle)
	if gotVehicle.Status != "in_use" {
		t.Fatalf("vehicle status after trip start: %q", gotVehicle.Status)
	}

	// The claimed vehicle cannot start a second trip.
	rec = doRequest(t, router, http.MethodPost, "/trips", adminToken, gin.H{
		"vehicle_id": vehicle.ID.String(),
		"driver_id":  driver.ID.String(),
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("double start: got %d, want 409", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPatch, "/trips/"+trip.ID, adminToken, gin.H{
		"status":       "completed",
		"end_odometer": 260,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("complete trip: got %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	var gotAfter struct {
		Status  string `json:"status"`
		Mileage int64  `json:"mileage"`
	}
	rec = doRequest(t, router, http.MethodGet, "/vehicles/"+vehicle.ID.String(), adminToken, nil)
	decodeData(t, rec, &gotAfter)
	if gotAfter.Status != "available" || gotAfter.Mileage != 260 {
		t.Fatalf("vehicle after completion: status %q mileage %d", gotAfter.Status, gotAfter.Mileage)
	}
}

func TestBookingMineFilter(t *testing.T) {
	router, store, tokens := newTestServer(t)

	alice, aliceToken := seedPrincipal(t, store, tokens, model.RoleModerator)
	bob, _ := seedPrincipal(t, store, tokens, model.RoleModerator)

	vehicle := &model.Vehicle{
		Make: "VW", Model: "Caddy", Year: 2020,
		PlateNumber: "BOOK01", FuelType: model.FuelTypePetrol,
		Status: model.VehicleStatusAvailable,
	}
	if err := store.CreateVehicle(context.Background(), vehicle); err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}
	now := time.Now()
	for _, userID := range []string{alice.ID.String(), bob.ID.String()} {
		rec := doRequest(t, router, http.MethodPost, "/bookings", aliceToken, gin.H{
			"vehicle_id": vehicle.ID.String(),
			"user_id":    userID,
			"start_at":   now.Add(24 * time.Hour).Format(time.RFC3339),
			"end_at":     now.Add(26 * time.Hour).Format(time.RFC3339),
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create booking: got %d (body %s)", rec.Code, rec.Body.String())
		}
	}

	rec := doRequest(t, router, http.MethodGet, "/bookings?mine=1", aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list own bookings: got %d, want 200", rec.Code)
	}
	var mine []struct {
		UserID string `json:"user_id"`
	}
	decodeData(t, rec, &mine)
	if len(mine) != 1 || mine[0].UserID != alice.ID.String() {
		t.Fatalf("mine filter returned %+v", mine)
	}

	rec = doRequest(t, router, http.MethodGet, "/bookings", aliceToken, nil)
	var all []struct {
		UserID string `json:"user_id"`
	}
	decodeData(t, rec, &all)
	if len(all) != 2 {
		t.Fatalf("unfiltered list returned %d bookings, want 2", len(all))
	}
}

func TestDashboardSummaryEndpoint(t *testing.T) {
	router, store, tokens := newTestServer(t)
	_, token := seedPrincipal(t, store, tokens, model.RoleModerator)

	vehicle := &model.Vehicle{
		Make: "MAN", Model: "TGS", Year: 2019,
		PlateNumber: "DASH01", FuelType: model.FuelTypeDiesel,
		Status: model.VehicleStatusAvailable,
	}
	if err := store.CreateVehicle(context.Background(), vehicle); err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}

	rec := doRequest(t, router, http.MethodGet, "/dashboard/summary", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: got %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var summary struct {
		VehiclesByStatus map[string]int64 `json:"vehicles_by_status"`
		GeneratedAt      time.Time        `json:"generated_at"`
	}
	decodeData(t, rec, &summary)
	if summary.VehiclesByStatus["available"] != 1 {
		t.Fatalf("available count: %+v", summary.VehiclesByStatus)
	}
	if summary.GeneratedAt.IsZero() {
		t.Fatal("generated_at not set")
	}
}
