package certificateRoutes

import (
	certificateController "ninma/controllers/certificate"
	"ninma/middleware"
	"ninma/policy"
	certificateValidator "ninma/validators/certificate"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupCertificateRoutes(api fiber.Router, db *gorm.DB, publicBaseURL string) {
	ctrl := certificateController.NewCertificateController(db, publicBaseURL)
	certificateGroup := api.Group("/certificates")

	// Public verification
	certificateGroup.Get("/verify/:code", ctrl.VerifyCertificate)

	certificateGroup.Get("/", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceCertificate, policy.ActionList), certificateValidator.ListCertificates(), ctrl.ListCertificates)
	certificateGroup.Post("/", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceCertificate, policy.ActionCreate), certificateValidator.GenerateCertificates(), ctrl.GenerateCertificates)
	certificateGroup.Post("/generate", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceCertificate, policy.ActionCreate), certificateValidator.GenerateCertificates(), ctrl.GenerateCertificates)
	certificateGroup.Get("/stats", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceCertificate, policy.ActionManage), ctrl.CertificateStats)

	certificateGroup.Get("/:id", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceCertificate, policy.ActionRead), ctrl.GetCertificate)
	certificateGroup.Delete("/:id", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceCertificate, policy.ActionDelete), ctrl.DeleteCertificate)
	certificateGroup.Get("/:id/download", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceCertificate, policy.ActionRead), ctrl.DownloadCertificate)

	api.Get("/events/:id/certificates/stats", middleware.JWTMiddleware, middleware.Authorize(policy.ResourceCertificate, policy.ActionManage), ctrl.EventCertificateStats)
}
