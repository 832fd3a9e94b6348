package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// Vehicle is the registration payload for a simulated vehicle.
type Vehicle struct {
	Type       string `json:"type"`
	Make       string `json:"make"`
	Model      string `json:"model"`
	Year       int    `json:"year"`
	Status     string `json:"status"`
	OdometerKm int64  `json:"odometer_km"`
}

// OdometerReading is posted to the odometer ingest endpoint.
type OdometerReading struct {
	OdometerKm int64     `json:"odometer_km"`
	Timestamp  time.Time `json:"timestamp"`
}

// VehicleState is the simulated driving state of one vehicle.
type VehicleState struct {
	VehicleID  string
	SpeedKmh   float64
	OdometerKm float64
	reported   int64
}

// APIClient talks to the maintenance API.
type APIClient struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewAPIClient creates a client for baseURL (including the /api prefix).
func NewAPIClient(baseURL, token string) *APIClient {
	return &APIClient{BaseURL: baseURL, Token: token, HTTP: &http.Client{Timeout: 10 * time.Second}}
}

func (c *APIClient) post(path string, payload, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, c.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("POST %s failed with status: %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *APIClient) Login(username, password string) error {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.post("/auth/login", map[string]string{"username": username, "password": password}, &resp); err != nil {
		return err
	}
	c.Token = resp.Token
	return nil
}

// CreateVehicle registers a vehicle and returns its id.
func (c *APIClient) CreateVehicle(v Vehicle) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.post("/vehicles", v, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("invalid vehicle ID in response")
	}
	return resp.ID, nil
}

// CreateSchedule creates a maintenance schedule from a raw JSON-able payload.
func (c *APIClient) CreateSchedule(schedule map[string]interface{}) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.post("/schedules", schedule, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// ReportOdometer posts a reading for a vehicle.
func (c *APIClient) ReportOdometer(vehicleID string, reading OdometerReading) error {
	return c.post("/vehicles/"+vehicleID+"/odometer", reading, nil)
}

// RunTick asks the server to re-evaluate every schedule now.
func (c *APIClient) RunTick() error {
	return c.post("/maintenance/tick", struct{}{}, nil)
}

var (
	makes  = []string{"Ford", "Mercedes", "Iveco", "Renault", "Volvo"}
	models = []string{"Transit", "Sprinter", "Daily", "Master", "FH16"}
)

func randomVehicle(r *rand.Rand) Vehicle {
	i := r.Intn(len(makes))
	return Vehicle{
		Type:       []string{"ICE", "EV"}[r.Intn(2)],
		Make:       makes[i],
		Model:      models[i],
		Year:       2018 + r.Intn(7),
		Status:     "active",
		OdometerKm: int64(10000 + r.Intn(90000)),
	}
}

// defaultSchedules returns the schedules every simulated vehicle gets: an oil
// change by mileage and a combined quarterly service.
func defaultSchedules(vehicleID string, odometer int64, now time.Time) []map[string]interface{} {
	return []map[string]interface{}{
		{
			"vehicle_id":              vehicleID,
			"name":                    "Oil change",
			"category":                "fluids",
			"trigger_type":            "mileage",
			"mileage_trigger":         map[string]interface{}{"interval_km": 10000, "start_odometer": odometer},
			"priority":                "medium",
			"advance_notification_km": 500,
			"grace_period_km":         250,
			"notify_driver":           true,
			"auto_create_work_order":  true,
		},
		{
			"vehicle_id":   vehicleID,
			"name":         "Quarterly service",
			"category":     "inspection",
			"trigger_type": "combined",
			"time_trigger": map[string]interface{}{
				"frequency":  map[string]interface{}{"unit": "months", "value": 3},
				"start_date": now.UTC().Format(time.RFC3339),
			},
			"mileage_trigger":           map[string]interface{}{"interval_km": 15000, "start_odometer": odometer},
			"priority":                  "high",
			"advance_notification_days": 14,
			"advance_notification_km":   1000,
			"grace_period_days":         7,
			"allow_deferment":           true,
			"max_deferrals":             2,
			"notify_fleet_manager":      true,
			"auto_create_work_order":    true,
		},
	}
}

// step advances the vehicle by interval of driving, scaled by speedup, and
// reports whether a whole kilometre was added since the last report.
func step(s *VehicleState, r *rand.Rand, interval time.Duration, speedup float64) bool {
	s.SpeedKmh += (r.Float64()*2 - 1) * 5
	if s.SpeedKmh < 20 {
		s.SpeedKmh = 20
	}
	if s.SpeedKmh > 110 {
		s.SpeedKmh = 110
	}
	s.OdometerKm += s.SpeedKmh * interval.Hours() * speedup
	return int64(s.OdometerKm) > s.reported
}

func simulateVehicle(client *APIClient, s *VehicleState, interval time.Duration, speedup float64) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for range tick.C {
		if !step(s, r, interval, speedup) {
			continue
		}
		km := int64(s.OdometerKm)
		if err := client.ReportOdometer(s.VehicleID, OdometerReading{OdometerKm: km, Timestamp: time.Now()}); err != nil {
			log.WithError(err).WithField("vehicle_id", s.VehicleID).Error("Failed to report odometer")
			continue
		}
		s.reported = km
		log.WithFields(log.Fields{"vehicle_id": s.VehicleID, "odometer_km": km}).Debug("Reported odometer")
	}
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func main() {
	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}
	fleetSize := getEnvInt("FLEET_SIZE", 10)
	interval := time.Duration(getEnvInt("SIM_TICK_SECONDS", 2)) * time.Second
	// Each real second of driving counts as speedup seconds.
	speedup := float64(getEnvInt("SIM_SPEEDUP", 3600))
	tickEvery := getEnvInt("SIM_EVALUATE_EVERY", 30)

	client := NewAPIClient(apiURL, os.Getenv("SIM_AUTH_TOKEN"))
	if user := os.Getenv("SIM_USERNAME"); user != "" {
		if err := client.Login(user, os.Getenv("SIM_PASSWORD")); err != nil {
			log.WithError(err).Fatal("Login failed")
		}
	}

	log.WithFields(log.Fields{
		"fleet_size": fleetSize,
		"api_url":    apiURL,
		"interval":   interval,
		"speedup":    speedup,
	}).Info("Starting odometer simulation")

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	states := make([]*VehicleState, 0, fleetSize)
	for i := 0; i < fleetSize; i++ {
		v := randomVehicle(r)
		id, err := client.CreateVehicle(v)
		if err != nil {
			log.WithError(err).Error("Failed to create vehicle")
			continue
		}
		for _, schedule := range defaultSchedules(id, v.OdometerKm, time.Now()) {
			if _, err := client.CreateSchedule(schedule); err != nil {
				log.WithError(err).WithField("vehicle_id", id).Error("Failed to create schedule")
			}
		}
		states = append(states, &VehicleState{
			VehicleID:  id,
			SpeedKmh:   40 + r.Float64()*40,
			OdometerKm: float64(v.OdometerKm),
			reported:   v.OdometerKm,
		})
		log.WithFields(log.Fields{"vehicle_id": id, "make": v.Make, "model": v.Model}).Info("Created vehicle")
	}

	if len(states) == 0 {
		log.Error("No vehicles created. Check credentials and that the API is reachable. Exiting.")
		return
	}

	for _, s := range states {
		go simulateVehicle(client, s, interval, speedup)
	}

	evaluate := time.NewTicker(time.Duration(tickEvery) * interval)
	defer evaluate.Stop()
	for range evaluate.C {
		if err := client.RunTick(); err != nil {
			log.WithError(err).Warn("Failed to trigger maintenance tick")
		}
	}
}
