package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/harentsoaR/clinic-api/internal/models"
)

const textbeltEndpoint = "https://textbelt.com/text"

// NotificationService texts patients about their appointments through Textbelt.
// Sends happen in the background; failures are logged and never reach callers.
type NotificationService struct {
	apiKey   string
	endpoint string
	client   *http.Client
	log      zerolog.Logger
	wg       sync.WaitGroup
}

func NewNotificationService(apiKey string, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		apiKey:   apiKey,
		endpoint: textbeltEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log.With().Str("component", "notifications").Logger(),
	}
}

// WithEndpoint points the sender at another Textbelt-compatible URL.
func (s *NotificationService) WithEndpoint(url string) *NotificationService {
	s.endpoint = url
	return s
}

func (s *NotificationService) AppointmentBooked(patient *models.Patient, apt *models.Appointment) {
	s.notify(patient, fmt.Sprintf(
		"Appointment Confirmed: %s with %s on %s.",
		patient.Name,
		apt.DoctorName,
		apt.StartTime.Format("Jan 2 at 3:04 PM"),
	))
}

func (s *NotificationService) AppointmentCancelled(patient *models.Patient, apt *models.Appointment) {
	s.notify(patient, fmt.Sprintf(
		"Appointment Cancelled: %s with %s on %s.",
		patient.Name,
		apt.DoctorName,
		apt.StartTime.Format("Jan 2 at 3:04 PM"),
	))
}

// Wait blocks until every in-flight message has been sent or has failed.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

func (s *NotificationService) notify(patient *models.Patient, body string) {
	if patient == nil || patient.Phone == "" {
		s.log.Debug().Msg("SMS not sent: patient has no phone number")
		return
	}
	if s.apiKey == "" {
		s.log.Debug().Msg("SMS not sent: TEXTBELT_API_KEY is not set")
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.send(patient.Phone, body)
	}()
}

func (s *NotificationService) send(phone, message string) {
	postBody, _ := json.Marshal(map[string]string{
		"phone":   phone,
		"message": message,
		"key":     s.apiKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(postBody))
	if err != nil {
		s.log.Error().Err(err).Msg("build textbelt request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error().Err(err).Str("phone", phone).Msg("textbelt request failed")
		return
	}
	defer resp.Body.Close()

	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		s.log.Error().Err(err).Int("status", resp.StatusCode).Msg("decode textbelt response")
		return
	}
	if !result.Success {
		s.log.Warn().Str("phone", phone).Str("reason", result.Error).Msg("textbelt rejected SMS")
		return
	}
	s.log.Info().Str("phone", phone).Msg("SMS sent")
}
