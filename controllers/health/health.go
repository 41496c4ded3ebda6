package healthController

import (
	"time"

	"ninma/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthController struct {
	DB        *gorm.DB
	StartedAt time.Time
}

func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{DB: db, StartedAt: time.Now()}
}

// Health reports 503 when the database does not answer a ping.
func (ctrl *HealthController) Health(c *fiber.Ctx) error {
	database := "up"
	status := fiber.StatusOK
	sqlDB, err := ctrl.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.UserContext())
	}
	if err != nil {
		database = "down"
		status = fiber.StatusServiceUnavailable
	}

	return middleware.JsonResponse(c, status, status == fiber.StatusOK, "Estado do serviço.", fiber.Map{
		"database": database,
		"uptime":   time.Since(ctrl.StartedAt).Round(time.Second).String(),
		"time":     time.Now().UTC(),
	})
}
