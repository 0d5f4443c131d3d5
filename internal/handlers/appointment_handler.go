package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-api/internal/middleware"
	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/services"
)

type BookAppointmentRequest struct {
	DoctorID  primitive.ObjectID `json:"doctorId" binding:"required"`
	StartTime string             `json:"startTime" binding:"required"`
}

type UpdateAppointmentRequest struct {
	DoctorID  primitive.ObjectID `json:"doctorId"`
	StartTime string             `json:"startTime"`
	Status    string             `json:"status"`
}

func (h *Handler) BookAppointment(c *gin.Context) {
	var req BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		badRequest(c, "Invalid time format, use RFC3339")
		return
	}

	apt, err := h.svc.Booking.Book(c.Request.Context(), middleware.Token(c), req.DoctorID, startTime)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, apt)
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}
	var req UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	update := services.UpdateRequest{ID: id, DoctorID: req.DoctorID}
	if req.StartTime != "" {
		startTime, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			badRequest(c, "Invalid time format, use RFC3339")
			return
		}
		update.StartTime = startTime
	}
	if req.Status != "" {
		status, err := models.ParseStatus(req.Status)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		update.Status = &status
	}

	apt, err := h.svc.Booking.Update(c.Request.Context(), middleware.Token(c), update)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, apt)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Booking.Cancel(c.Request.Context(), middleware.Token(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment cancelled successfully"})
}

// GetPatientAppointments lists the caller's appointments, optionally filtered
// by ?doctorName= and ?status= (or ?condition=past|future).
func (h *Handler) GetPatientAppointments(c *gin.Context) {
	filter := services.AppointmentFilter{DoctorName: c.Query("doctorName")}

	raw := c.Query("status")
	if raw == "" {
		raw = c.Query("condition")
	}
	if raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		filter.Status = &status
	}

	appointments, err := h.svc.Queries.PatientAppointments(c.Request.Context(), middleware.Token(c), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appointments})
}

func (h *Handler) GetAppointmentsOfPatient(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}
	appointments, err := h.svc.Queries.AppointmentsOfPatient(c.Request.Context(), middleware.Token(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appointments})
}

// GetDoctorAppointments lists the calling doctor's appointments on :date,
// optionally narrowed by ?patientName=.
func (h *Handler) GetDoctorAppointments(c *gin.Context) {
	date, ok := parseDate(c, c.Param("date"))
	if !ok {
		return
	}
	appointments, err := h.svc.Queries.DoctorAppointments(c.Request.Context(), middleware.Token(c), date, c.Query("patientName"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appointments})
}
