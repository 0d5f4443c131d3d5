package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/clinic-api/internal/middleware"
	"github.com/harentsoaR/clinic-api/internal/models"
)

type RegisterPatientRequest struct {
	Name     string `json:"name" binding:"required,min=3,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone" binding:"required,len=10,numeric"`
	Address  string `json:"address" binding:"max=255"`
}

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

func (h *Handler) bindLogin(c *gin.Context) (loginRequest, bool) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return req, false
	}
	return req, true
}

func (h *Handler) AdminLogin(c *gin.Context) {
	req, ok := h.bindLogin(c)
	if !ok {
		return
	}
	token, err := h.svc.Accounts.AdminLogin(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) DoctorLogin(c *gin.Context) {
	req, ok := h.bindLogin(c)
	if !ok {
		return
	}
	token, err := h.svc.Accounts.DoctorLogin(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) PatientLogin(c *gin.Context) {
	req, ok := h.bindLogin(c)
	if !ok {
		return
	}
	token, err := h.svc.Accounts.PatientLogin(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) RegisterPatient(c *gin.Context) {
	var req RegisterPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	patient := models.Patient{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}
	if err := h.svc.Accounts.RegisterPatient(c.Request.Context(), &patient, req.Password); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, patient)
}

// PatientDetails returns the profile of the patient holding the token.
func (h *Handler) PatientDetails(c *gin.Context) {
	patient, err := h.svc.Accounts.PatientDetails(c.Request.Context(), middleware.Token(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patient": patient})
}
