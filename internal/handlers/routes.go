package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/clinic-api/internal/middleware"
)

// Register mounts every route on r. Login and registration share limiter.
func (h *Handler) Register(r *gin.Engine, limiter *middleware.RateLimiter) {
	authRoutes := r.Group("/auth")
	authRoutes.Use(middleware.RateLimit(limiter))
	{
		authRoutes.POST("/admin/login", h.AdminLogin)
		authRoutes.POST("/doctor/login", h.DoctorLogin)
		authRoutes.POST("/patient/login", h.PatientLogin)
		authRoutes.POST("/patient/register", h.RegisterPatient)
	}

	r.GET("/doctors", h.ListDoctors)
	r.GET("/doctors/filter", h.FilterDoctors)

	apiRoutes := r.Group("/api")
	apiRoutes.Use(middleware.AuthMiddleware())
	{
		apiRoutes.GET("/patient/me", h.PatientDetails)
		apiRoutes.GET("/availability/:role/:doctorId/:date", h.GetAvailability)

		// Appointment Routes
		apiRoutes.GET("/appointments", h.GetPatientAppointments)
		apiRoutes.POST("/appointments", h.BookAppointment)
		apiRoutes.PUT("/appointments/:id", h.UpdateAppointment)
		apiRoutes.PATCH("/appointments/:id/cancel", h.CancelAppointment)
		apiRoutes.GET("/patients/:id/appointments", h.GetAppointmentsOfPatient)
		apiRoutes.GET("/doctor/appointments/:date", h.GetDoctorAppointments)

		// Admin Routes
		apiRoutes.POST("/admin/doctors", h.AddDoctor)
		apiRoutes.PUT("/admin/doctors/:id", h.UpdateDoctor)
		apiRoutes.DELETE("/admin/doctors/:id", h.DeleteDoctor)

		apiRoutes.POST("/prescriptions", h.SavePrescription)
		apiRoutes.GET("/prescriptions/:appointmentId", h.GetPrescriptions)
	}
}
