package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/luminalms/lumina-api/internal/config"
	"github.com/luminalms/lumina-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}

// DependencyHealthCheck returns a handler that pings the backing stores and
// reports 503 when any of them is unreachable.
func DependencyHealthCheck(db *gorm.DB, cache *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		checks := fiber.Map{}
		healthy := true

		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Context())
			}
			if err != nil {
				checks["database"] = err.Error()
				healthy = false
			} else {
				checks["database"] = "ok"
			}
		}

		if cache != nil {
			if err := cache.Ping(c.Context()).Err(); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}

		if !healthy {
			return c.Status(fiber.StatusServiceUnavailable).JSON(utils.APIResponse{
				Success: false,
				Data:    checks,
				Message: "dependency check failed",
			})
		}

		return utils.SendSuccess(c, "dependencies healthy", checks)
	}
}
