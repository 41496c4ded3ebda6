package registrationRoutes

import (
	registrationController "ninma/controllers/registration"
	"ninma/middleware"
	"ninma/policy"
	registrationValidator "ninma/validators/registration"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRegistrationRoutes(api fiber.Router, db *gorm.DB) {
	ctrl := registrationController.NewRegistrationController(db)

	api.Post("/events/:id/register", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceRegistration, policy.ActionCreate), registrationValidator.Register(), ctrl.Register)
	api.Delete("/events/:id/register", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceRegistration, policy.ActionDelete), ctrl.Cancel)
	api.Get("/events/:id/registrations", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceRegistration, policy.ActionList), registrationValidator.ListRegistrations(), ctrl.ListEventRegistrations)

	api.Patch("/registrations/:id/approve", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceRegistration, policy.ActionManage), ctrl.Approve)
	api.Get("/users/me/registrations", middleware.JWTMiddleware, ctrl.MyRegistrations)
}
