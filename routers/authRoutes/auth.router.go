package authRoutes

import (
	"time"

	authController "ninma/controllers/auth"
	"ninma/middleware"
	authValidator "ninma/validators/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

// credentialLimit throttles signup and login per client IP.
const credentialLimit = 10

func SetupAuthRoutes(api fiber.Router, db *gorm.DB) {
	ctrl := authController.NewAuthController(db)
	throttle := limiter.New(limiter.Config{
		Max:        credentialLimit,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return middleware.JsonResponse(c, fiber.StatusTooManyRequests, false, "Muitas tentativas. Tente novamente mais tarde.", nil)
		},
	})

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", throttle, authValidator.Signup(), ctrl.Signup)
	authGroup.Post("/login", throttle, authValidator.Login(), ctrl.Login)
	authGroup.Post("/logout", ctrl.Logout)
	authGroup.Get("/me", middleware.JWTMiddleware, ctrl.Me)
	authGroup.Get("/login/history", middleware.JWTMiddleware, ctrl.LoginHistoryList)

	userGroup := api.Group("/users")
	userGroup.Patch("/me", middleware.JWTMiddleware, authValidator.UpdateProfile(), ctrl.UpdateProfile)
	userGroup.Put("/me/password", middleware.JWTMiddleware, authValidator.ChangePassword(), ctrl.ChangePassword)
}
