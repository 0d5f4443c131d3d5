package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/clinic-api/internal/middleware"
	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/services"
)

type DoctorRequest struct {
	Name              string   `json:"name" binding:"required,min=3,max=100"`
	Specialty         string   `json:"specialty" binding:"required,min=3,max=50"`
	Email             string   `json:"email" binding:"required,email"`
	Password          string   `json:"password" binding:"omitempty,min=6"`
	Phone             string   `json:"phone" binding:"omitempty,len=10,numeric"`
	AvailableTimes    []string `json:"availableTimes"`
	YearsOfExperience int      `json:"yearsOfExperience" binding:"min=0"`
	ClinicAddress     string   `json:"clinicAddress"`
}

func (r DoctorRequest) doctor() models.Doctor {
	return models.Doctor{
		Name:              r.Name,
		Specialty:         r.Specialty,
		Email:             r.Email,
		Phone:             r.Phone,
		AvailableTimes:    r.AvailableTimes,
		YearsOfExperience: r.YearsOfExperience,
		ClinicAddress:     r.ClinicAddress,
	}
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.svc.Queries.ListDoctors(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doctors": doctors})
}

// FilterDoctors handles /doctors/filter?name=&specialty=&time=AM|PM.
func (h *Handler) FilterDoctors(c *gin.Context) {
	doctors, err := h.svc.Queries.FilterDoctors(c.Request.Context(), services.DoctorFilter{
		Name:      c.Query("name"),
		Specialty: c.Query("specialty"),
		TimeOfDay: c.Query("time"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doctors": doctors})
}

func (h *Handler) GetAvailability(c *gin.Context) {
	role, err := models.ParseRole(c.Param("role"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	doctorID, ok := objectID(c, "doctorId")
	if !ok {
		return
	}
	date, ok := parseDate(c, c.Param("date"))
	if !ok {
		return
	}

	slots, err := h.svc.Availability.AvailabilityFor(c.Request.Context(), middleware.Token(c), role, doctorID, date)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"availableTimes": slots})
}

func (h *Handler) AddDoctor(c *gin.Context) {
	var req DoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Password == "" {
		badRequest(c, "password is required")
		return
	}

	doctor := req.doctor()
	if err := h.svc.Doctors.AddDoctor(c.Request.Context(), middleware.Token(c), &doctor, req.Password); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, doctor)
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}
	var req DoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	doctor := req.doctor()
	doctor.ID = id
	if err := h.svc.Doctors.UpdateDoctor(c.Request.Context(), middleware.Token(c), &doctor, req.Password); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, doctor)
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Doctors.DeleteDoctor(c.Request.Context(), middleware.Token(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Doctor deleted successfully"})
}
