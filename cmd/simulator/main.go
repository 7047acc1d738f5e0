package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/rmc-fleet/internal/models"
)

// Batching plants the simulated fleet works around
var plants = []models.Location{
	{Lat: 18.5204, Lng: 73.8567}, // Pune
	{Lat: 19.0760, Lng: 72.8777}, // Mumbai
	{Lat: 12.9716, Lng: 77.5946}, // Bengaluru
	{Lat: 17.3850, Lng: 78.4867}, // Hyderabad
	{Lat: 13.0827, Lng: 80.2707}, // Chennai
	{Lat: 28.7041, Lng: 77.1025}, // Delhi
	{Lat: 23.0225, Lng: 72.5714}, // Ahmedabad
}

var mixerModels = []string{"AJAX ARGO 4000", "Schwing Stetter AM 6", "Greaves GM 7", "SANY SY306"}

func jitterLocation(base models.Location, meters float64) models.Location {
	latMetersPerDeg := 111320.0
	lngMetersPerDeg := 111320.0 * math.Cos(base.Lat*math.Pi/180)
	dLat := (rand.Float64()*2 - 1) * (meters / latMetersPerDeg)
	dLng := (rand.Float64()*2 - 1) * (meters / lngMetersPerDeg)
	return models.Location{Lat: base.Lat + dLat, Lng: base.Lng + dLng}
}

// apiError is a non-2xx response from the API
type apiError struct {
	Status  int
	Message string
	Body    map[string]interface{}
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

// client calls the fleet API with an optional bearer token
type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func newClient(baseURL string) *client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *client) withToken(token string) *client {
	return &client{baseURL: c.baseURL, token: token, http: c.http}
}

// call sends body as JSON and decodes the response envelope into out.
func (c *client) call(ctx context.Context, method, path string, body, out interface{}) error {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr.Body); err == nil {
			apiErr.Message, _ = apiErr.Body["message"].(string)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type authResponse struct {
	Token string `json:"token"`
}

type created struct {
	Data struct {
		ID string `json:"_id"`
	} `json:"data"`
}

// ownerToken logs the owner in, registering the account on first use.
func ownerToken(ctx context.Context, c *client, email, password string) (string, error) {
	var auth authResponse
	err := c.call(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &auth)
	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		log.WithField("email", email).Info("Registering simulator owner")
		err = c.call(ctx, http.MethodPost, "/auth/register", map[string]string{
			"name":     "Fleet Simulator",
			"email":    email,
			"password": password,
		}, &auth)
	}
	if err != nil {
		return "", err
	}
	return auth.Token, nil
}

// simDriver is a driver created by the simulator together with its login
type simDriver struct {
	ID        string
	VehicleID string
	Mobile    string
	Password  string
	Base      models.Location
	Odometer  float64
}

func randomMobile() string {
	return strconv.Itoa(7000000000 + rand.Intn(2999999999))
}

// createCrew creates one vehicle and one driver and assigns them.
func createCrew(ctx context.Context, owner *client, index int) (*simDriver, error) {
	tag := strings.ToUpper(uuid.NewString()[:8])
	odometer := float64(5000 + rand.Intn(50000))

	var vehicle created
	if err := owner.call(ctx, http.MethodPost, "/vehicles", map[string]interface{}{
		"vehicleNumber":     fmt.Sprintf("MH12SIM%s", tag[:4]),
		"chassisNumber":     "CH-" + tag,
		"model":             mixerModels[rand.Intn(len(mixerModels))],
		"manufacturingYear": 2018 + rand.Intn(7),
		"fuelType":          "Diesel",
		"drumCapacity":      []float64{6, 7, 8, 9}[rand.Intn(4)],
		"registrationDate":  time.Now().AddDate(-rand.Intn(5)-1, 0, 0).Format("2006-01-02"),
		"currentOdometer":   odometer,
	}, &vehicle); err != nil {
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}

	driver := &simDriver{
		VehicleID: vehicle.Data.ID,
		Mobile:    randomMobile(),
		Password:  models.DefaultDriverPassword,
		Base:      jitterLocation(plants[rand.Intn(len(plants))], 2000),
		Odometer:  odometer,
	}
	var driverResp created
	if err := owner.call(ctx, http.MethodPost, "/drivers", map[string]interface{}{
		"name":          fmt.Sprintf("Sim Driver %d", index+1),
		"mobile":        driver.Mobile,
		"password":      driver.Password,
		"licenseNumber": "DL-" + tag,
		"licenseExpiry": time.Now().AddDate(3, 0, 0).Format("2006-01-02"),
	}, &driverResp); err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}
	driver.ID = driverResp.Data.ID

	if err := owner.call(ctx, http.MethodPut, "/vehicles/"+driver.VehicleID+"/assign-driver",
		map[string]string{"driverId": driver.ID}, nil); err != nil {
		return nil, fmt.Errorf("failed to assign driver: %w", err)
	}

	log.WithFields(log.Fields{
		"vehicle_id": driver.VehicleID,
		"driver_id":  driver.ID,
		"mobile":     driver.Mobile,
	}).Info("Created crew")
	return driver, nil
}

// randomItems fails an item now and then so the dashboard has something to show.
func randomItems() models.ChecklistItems {
	ok := func() bool { return rand.Float64() > 0.05 }
	return models.ChecklistItems{
		EngineOilLevel: ok(),
		BrakeCheck:     ok(),
		TyreCondition:  ok(),
		DrumRotation:   ok(),
		WaterSystem:    ok(),
		LightsHorn:     ok(),
	}
}

// submitChecklist submits today's checklist. A checklist already submitted
// today is not an error.
func submitChecklist(ctx context.Context, c *client, d *simDriver) error {
	err := c.call(ctx, http.MethodPost, "/checklists", map[string]interface{}{
		"vehicle":         d.VehicleID,
		"items":           randomItems(),
		"odometerReading": d.Odometer,
	}, nil)
	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.Body["alreadyCompleted"] == true {
		log.WithField("driver_id", d.ID).Debug("Checklist already completed today")
		return nil
	}
	if err != nil {
		return err
	}
	log.WithField("driver_id", d.ID).Info("Submitted checklist")
	return nil
}

// submitExpense submits a fuel or toll expense near the driver's plant.
func submitExpense(ctx context.Context, c *client, d *simDriver) error {
	typ, amount := models.ExpenseFuel, 2000+rand.Float64()*6000
	if rand.Intn(4) == 0 {
		typ, amount = models.ExpenseToll, 50+rand.Float64()*400
	}
	amount = math.Round(amount*100) / 100
	if err := c.call(ctx, http.MethodPost, "/expenses", map[string]interface{}{
		"type":        typ,
		"amount":      amount,
		"description": "simulated " + strings.ToLower(string(typ)),
		"location":    jitterLocation(d.Base, 5000),
	}, nil); err != nil {
		return err
	}
	log.WithFields(log.Fields{"driver_id": d.ID, "type": typ, "amount": amount}).Info("Submitted expense")
	return nil
}

// simulateDriver logs the driver in and submits a checklist and an expense on
// every tick until ctx is done.
func simulateDriver(ctx context.Context, api *client, d *simDriver, interval time.Duration) {
	var auth authResponse
	if err := api.call(ctx, http.MethodPost, "/auth/login", map[string]string{"mobile": d.Mobile, "password": d.Password}, &auth); err != nil {
		log.WithError(err).WithField("driver_id", d.ID).Error("Driver login failed")
		return
	}
	c := api.withToken(auth.Token)

	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		d.Odometer += 20 + rand.Float64()*80
		if err := submitChecklist(ctx, c, d); err != nil {
			log.WithError(err).WithField("driver_id", d.ID).Error("Failed to submit checklist")
		}
		if err := submitExpense(ctx, c, d); err != nil {
			log.WithError(err).WithField("driver_id", d.ID).Error("Failed to submit expense")
		}
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}

type settings struct {
	APIURL        string
	FleetSize     int
	Interval      time.Duration
	OwnerEmail    string
	OwnerPassword string
}

func loadSettings() settings {
	s := settings{
		APIURL:        os.Getenv("API_BASE_URL"),
		FleetSize:     5,
		Interval:      30 * time.Second,
		OwnerEmail:    os.Getenv("SIM_OWNER_EMAIL"),
		OwnerPassword: os.Getenv("SIM_OWNER_PASSWORD"),
	}
	if s.APIURL == "" {
		s.APIURL = "http://localhost:5000/api"
	}
	if val := os.Getenv("FLEET_SIZE"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n >= 0 {
			s.FleetSize = n
		}
	}
	if v := os.Getenv("SIM_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			s.Interval = time.Duration(n) * time.Second
		}
	}
	if s.OwnerEmail == "" {
		s.OwnerEmail = "simulator@rmcfleet.local"
	}
	if s.OwnerPassword == "" {
		s.OwnerPassword = "simulator123"
	}
	return s
}

func main() {
	cfg := loadSettings()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"fleet_size": cfg.FleetSize,
		"api_url":    cfg.APIURL,
		"interval":   cfg.Interval,
	}).Info("Starting fleet simulation")

	api := newClient(cfg.APIURL)
	token, err := ownerToken(ctx, api, cfg.OwnerEmail, cfg.OwnerPassword)
	if err != nil {
		log.WithError(err).Fatal("Owner login failed")
	}
	owner := api.withToken(token)

	crews := make([]*simDriver, 0, cfg.FleetSize)
	for i := 0; i < cfg.FleetSize; i++ {
		d, err := createCrew(ctx, owner, i)
		if err != nil {
			log.WithError(err).Error("Failed to create crew")
			continue
		}
		crews = append(crews, d)
	}
	log.WithField("created_crews", len(crews)).Info("Fleet creation completed")
	if len(crews) == 0 {
		log.Error("No crews created. Ensure the API is reachable. Exiting.")
		return
	}

	var wg sync.WaitGroup
	for _, d := range crews {
		wg.Add(1)
		go func(d *simDriver) {
			defer wg.Done()
			simulateDriver(ctx, api, d, cfg.Interval)
		}(d)
	}
	log.Info("Driver simulation started")
	wg.Wait()
	log.Info("Driver simulation stopped")
}
