package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/clinic-api/internal/middleware"
	"github.com/harentsoaR/clinic-api/internal/models"
)

func (h *Handler) SavePrescription(c *gin.Context) {
	var p models.Prescription
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.svc.Prescriptions.Save(c.Request.Context(), middleware.Token(c), &p); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPrescriptions(c *gin.Context) {
	id, ok := objectID(c, "appointmentId")
	if !ok {
		return
	}
	out, err := h.svc.Prescriptions.ForAppointment(c.Request.Context(), middleware.Token(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prescriptions": out})
}
