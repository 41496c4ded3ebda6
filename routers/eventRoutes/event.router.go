package eventRoutes

import (
	eventController "ninma/controllers/event"
	"ninma/middleware"
	"ninma/policy"
	eventValidator "ninma/validators/event"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupEventRoutes(api fiber.Router, db *gorm.DB) {
	ctrl := eventController.NewEventController(db)
	eventGroup := api.Group("/events")

	// Public catalogue
	eventGroup.Get("/", eventValidator.ListEvents(), ctrl.ListEvents)
	eventGroup.Get("/upcoming", ctrl.UpcomingEvents)
	eventGroup.Get("/popular", ctrl.PopularEvents)
	eventGroup.Get("/slug/:slug", ctrl.GetEventBySlug)

	eventGroup.Get("/mine", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceEvent, policy.ActionCreate), ctrl.MyEvents)
	eventGroup.Post("/", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceEvent, policy.ActionCreate), eventValidator.CreateEvent(), ctrl.CreateEvent)

	eventGroup.Get("/:id", ctrl.GetEvent)
	eventGroup.Get("/:id/can-register", ctrl.CanRegister)
	eventGroup.Patch("/:id", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceEvent, policy.ActionUpdate), eventValidator.UpdateEvent(), ctrl.UpdateEvent)
	eventGroup.Delete("/:id", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceEvent, policy.ActionDelete), ctrl.DeleteEvent)
	eventGroup.Get("/:id/stats", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceEvent, policy.ActionManage), ctrl.EventStats)
}
