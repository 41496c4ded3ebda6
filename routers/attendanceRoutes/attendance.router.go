package attendanceRoutes

import (
	attendanceController "ninma/controllers/attendance"
	"ninma/middleware"
	"ninma/policy"
	attendanceValidator "ninma/validators/attendance"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupAttendanceRoutes(api fiber.Router, db *gorm.DB, qrSecret string) {
	ctrl := attendanceController.NewAttendanceController(db, qrSecret)

	attendanceGroup := api.Group("/attendances")
	attendanceGroup.Post("/checkin", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceAttendance, policy.ActionCreate), attendanceValidator.Checkin(), ctrl.Checkin)
	attendanceGroup.Post("/checkout", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceAttendance, policy.ActionCreate), attendanceValidator.Checkout(), ctrl.Checkout)
	attendanceGroup.Post("/manual", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceAttendance, policy.ActionManage), attendanceValidator.ManualCheckin(), ctrl.ManualCheckin)
	attendanceGroup.Post("/qrcode", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceAttendance, policy.ActionCreate), attendanceValidator.QRCode(), ctrl.QRCode)
	attendanceGroup.Delete("/:id", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceAttendance, policy.ActionDelete), ctrl.DeleteAttendance)

	// Per-event views for the organisers
	api.Get("/events/:id/attendances", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceAttendance, policy.ActionList), attendanceValidator.ListAttendances(), ctrl.ListEventAttendances)
	api.Get("/events/:id/attendances/registrations", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceAttendance, policy.ActionList), ctrl.EventRegistrations)
	api.Get("/events/:id/attendances/stats", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceAttendance, policy.ActionList), ctrl.EventAttendanceStats)
	api.Get("/events/:id/attendances/export", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceAttendance, policy.ActionExport), ctrl.ExportAttendances)
}
