package certificateController

import (
	"fmt"
	"log"

	"ninma/middleware"
	"ninma/models"
	"ninma/policy"
	"ninma/services"
	"ninma/utils"
	certificateValidator "ninma/validators/certificate"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CertificateController struct {
	Certificates  *services.CertificateService
	Events        *services.EventService
	Registrations *services.RegistrationService
	PDF           *services.PDFService
}

func NewCertificateController(db *gorm.DB, publicBaseURL string) *CertificateController {
	events := services.NewEventService(db)
	return &CertificateController{
		Certificates:  services.NewCertificateService(db),
		Events:        events,
		Registrations: services.NewRegistrationService(db, events),
		PDF:           services.NewPDFService(publicBaseURL),
	}
}

// ListCertificates shows staff every certificate; participants only theirs.
func (ctrl *CertificateController) ListCertificates(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedCertificateList").(*certificateValidator.ListCertificatesQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Dados inválidos!", nil)
	}
	userID, role := middleware.CurrentUser(c)

	filters := reqData.Filters
	if !policy.IsStaff(role) {
		filters.UserID = userID
	}

	list, err := ctrl.Certificates.ListCertificates(c.UserContext(), filters, reqData.Page, reqData.Limit)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificados carregados com sucesso.", list)
}

func (ctrl *CertificateController) GetCertificate(c *fiber.Ctx) error {
	certificate, err := ctrl.ownedCertificate(c)
	if err != nil || certificate == nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificado carregado com sucesso.", certificate)
}

func (ctrl *CertificateController) DeleteCertificate(c *fiber.Ctx) error {
	if err := ctrl.Certificates.DeleteCertificate(c.UserContext(), c.Params("id")); err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificado deletado com sucesso.", nil)
}

// DownloadCertificate renders the PDF on demand.
func (ctrl *CertificateController) DownloadCertificate(c *fiber.Ctx) error {
	certificate, err := ctrl.ownedCertificate(c)
	if err != nil || certificate == nil {
		return err
	}

	pdf, err := ctrl.PDF.RenderCertificate(certificate, certificate.Event, certificate.User)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	if certificate.PdfURL == "" {
		downloadURL := fmt.Sprintf("/api/certificates/%s/download", certificate.ID)
		if err := ctrl.Certificates.UpdateCertificatePdfURL(c.UserContext(), certificate.ID, downloadURL); err != nil {
			log.Printf("[CERTIFICATE] Could not store PDF url of %s: %v", certificate.ID, err)
		}
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, ctrl.PDF.FileName(certificate)))
	return c.Status(fiber.StatusOK).Send(pdf)
}

// GenerateCertificates issues a single certificate when a registration is
// given, otherwise one for every eligible registration of the event.
func (ctrl *CertificateController) GenerateCertificates(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedCertificateGenerate").(*certificateValidator.GenerateCertificatesRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Dados inválidos!", nil)
	}
	userID, _ := middleware.CurrentUser(c)

	if reqData.RegistrationID != "" {
		return ctrl.generateOne(c, userID, reqData)
	}

	if denied, err := ctrl.ensureCanManageEvent(c, userID, reqData.EventID); denied {
		return err
	}
	result, err := ctrl.Certificates.GenerateEventCertificates(c.UserContext(), reqData.EventID, reqData.Role)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	for i := range result.Success {
		ctrl.notify(&result.Success[i])
	}
	message := fmt.Sprintf("%d certificado(s) gerado(s), %d falha(s).", len(result.Success), len(result.Failed))
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, result)
}

func (ctrl *CertificateController) generateOne(c *fiber.Ctx, userID string, reqData *certificateValidator.GenerateCertificatesRequest) error {
	registration, err := ctrl.Registrations.GetRegistration(c.UserContext(), reqData.RegistrationID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	if reqData.EventID != "" && reqData.EventID != registration.EventID {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Inscrição não pertence a este evento!", nil)
	}
	if denied, err := ctrl.ensureCanManageEvent(c, userID, registration.EventID); denied {
		return err
	}

	certificate, err := ctrl.Certificates.GenerateCertificate(c.UserContext(), services.CertificateInput{
		RegistrationID: registration.ID,
		Workload:       reqData.Workload,
		Role:           reqData.Role,
	})
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	ctrl.notify(certificate)
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Certificado gerado com sucesso.", certificate)
}

// VerifyCertificate is public.
func (ctrl *CertificateController) VerifyCertificate(c *fiber.Ctx) error {
	verification, err := ctrl.Certificates.VerifyCertificate(c.UserContext(), c.Params("code"))
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	if verification.Certificate == nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, verification.Reason, verification)
	}
	if !verification.Valid {
		return middleware.JsonResponse(c, fiber.StatusOK, false, verification.Reason, verification)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificado válido.", verification)
}

func (ctrl *CertificateController) CertificateStats(c *fiber.Ctx) error {
	stats, err := ctrl.Certificates.GetCertificateStats(c.UserContext())
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Estatísticas de certificados carregadas com sucesso.", stats)
}

func (ctrl *CertificateController) EventCertificateStats(c *fiber.Ctx) error {
	stats, err := ctrl.Certificates.GetEventCertificateStats(c.UserContext(), c.Params("id"))
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Estatísticas de certificados carregadas com sucesso.", stats)
}

// ownedCertificate loads the certificate in the path for its owner or a
// certificate manager. On failure the response is already written and the
// returned certificate is nil.
func (ctrl *CertificateController) ownedCertificate(c *fiber.Ctx) (*models.Certificate, error) {
	certificate, err := ctrl.Certificates.GetCertificateByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return nil, middleware.ServiceErrorResponse(c, err)
	}
	userID, _ := middleware.CurrentUser(c)
	if certificate.UserID == userID {
		return certificate, nil
	}
	allowed, err := ctrl.Certificates.CanUserManageCertificates(c.UserContext(), userID)
	if err != nil {
		return nil, middleware.ServiceErrorResponse(c, err)
	}
	if !allowed {
		return nil, middleware.JsonResponse(c, fiber.StatusForbidden, false, "Sem permissão para acessar este certificado!", nil)
	}
	return certificate, nil
}

func (ctrl *CertificateController) ensureCanManageEvent(c *fiber.Ctx, userID, eventID string) (bool, error) {
	allowed, err := ctrl.Events.CanUserManageEvent(c.UserContext(), userID, eventID)
	if err != nil {
		return true, middleware.ServiceErrorResponse(c, err)
	}
	if !allowed {
		if _, err := ctrl.Events.GetEventByID(c.UserContext(), eventID); err != nil {
			return true, middleware.ServiceErrorResponse(c, err)
		}
		return true, middleware.JsonResponse(c, fiber.StatusForbidden, false, "Sem permissão para gerenciar este evento!", nil)
	}
	return false, nil
}

func (ctrl *CertificateController) notify(certificate *models.Certificate) {
	if certificate.User == nil || certificate.Event == nil {
		return
	}
	utils.SendCertificateEmail(certificate.User.Email, certificate.User.Name, certificate.Event.Title,
		ctrl.PDF.VerificationURL(certificate.VerificationCode))
}
