package attendanceController

import (
	"fmt"
	"strings"
	"time"

	"ninma/middleware"
	"ninma/models"
	"ninma/services"
	attendanceValidator "ninma/validators/attendance"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AttendanceController struct {
	Attendances   *services.AttendanceService
	Registrations *services.RegistrationService
}

func NewAttendanceController(db *gorm.DB, qrSecret string) *AttendanceController {
	return &AttendanceController{
		Attendances:   services.NewAttendanceService(db, qrSecret),
		Registrations: services.NewRegistrationService(db, services.NewEventService(db)),
	}
}

// Checkin lets event managers record any method. Participants may only
// check themselves in, and never with the MANUAL method.
func (ctrl *AttendanceController) Checkin(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedCheckin").(*attendanceValidator.CheckinRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Dados inválidos!", nil)
	}
	userID, _ := middleware.CurrentUser(c)

	registration, err := ctrl.Registrations.GetRegistration(c.UserContext(), reqData.RegistrationID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	manager, err := ctrl.Attendances.CanUserManageAttendances(c.UserContext(), userID, registration.EventID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	method := reqData.Method
	if method == "" {
		method = models.MethodManual
	}
	if !manager && (registration.UserID != userID || method == models.MethodManual) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Sem permissão para registrar este check-in!", nil)
	}

	attendance, err := ctrl.Attendances.Checkin(c.UserContext(), services.CheckinInput{
		RegistrationID: registration.ID,
		Method:         method,
		Location:       reqData.Location,
		IPAddress:      clientIP(c),
		UserAgent:      c.Get(fiber.HeaderUserAgent),
		Notes:          reqData.Notes,
		RecordedByID:   &userID,
	})
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Check-in realizado com sucesso.", attendance)
}

func (ctrl *AttendanceController) Checkout(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedCheckout").(*attendanceValidator.CheckoutRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Dados inválidos!", nil)
	}
	if denied, err := ctrl.ensureOwnerOrManager(c, reqData.RegistrationID); denied {
		return err
	}

	attendance, err := ctrl.Attendances.Checkout(c.UserContext(), reqData.RegistrationID, reqData.Notes)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Check-out realizado com sucesso.", attendance)
}

func (ctrl *AttendanceController) ManualCheckin(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedManualCheckin").(*attendanceValidator.ManualCheckinRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Dados inválidos!", nil)
	}
	if denied, err := ctrl.ensureManager(c, reqData.EventID); denied {
		return err
	}
	userID, _ := middleware.CurrentUser(c)

	result := ctrl.Attendances.BulkCheckin(c.UserContext(), reqData.RegistrationIDs, models.MethodManual, &userID)
	message := fmt.Sprintf("%d check-in(s) registrado(s), %d falha(s).", len(result.Success), len(result.Failed))
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, result)
}

// QRCode generates a check-in code for a registration or checks in from a
// scanned one, depending on the action.
func (ctrl *AttendanceController) QRCode(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedQRCode").(*attendanceValidator.QRCodeRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Dados inválidos!", nil)
	}
	if reqData.Action == "checkin" {
		return ctrl.qrCheckin(c, reqData)
	}
	return ctrl.qrGenerate(c, reqData)
}

func (ctrl *AttendanceController) qrGenerate(c *fiber.Ctx, reqData *attendanceValidator.QRCodeRequest) error {
	registration, err := ctrl.Registrations.GetRegistration(c.UserContext(), reqData.RegistrationID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	if registration.EventID != reqData.EventID {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Inscrição não pertence a este evento!", nil)
	}
	if denied, err := ctrl.ensureOwnerOrManager(c, registration.ID); denied {
		return err
	}

	payload, err := ctrl.Attendances.GenerateQRCodeData(registration.ID, registration.EventID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	image, err := ctrl.Attendances.GenerateQRCodePNG(payload)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "QR Code gerado com sucesso.", fiber.Map{
		"qrData":    payload,
		"qrCode":    image,
		"expiresIn": int64(services.QRCodeMaxAge / time.Second),
	})
}

func (ctrl *AttendanceController) qrCheckin(c *fiber.Ctx, reqData *attendanceValidator.QRCodeRequest) error {
	userID, _ := middleware.CurrentUser(c)
	attendance, err := ctrl.Attendances.CheckinWithQRCode(c.UserContext(), reqData.QRData, reqData.EventID, services.CheckinInput{
		Location:     reqData.Location,
		IPAddress:    clientIP(c),
		UserAgent:    c.Get(fiber.HeaderUserAgent),
		RecordedByID: &userID,
	})
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Check-in realizado com sucesso.", attendance)
}

// DeleteAttendance undoes the check-in of the registration in the path.
func (ctrl *AttendanceController) DeleteAttendance(c *fiber.Ctx) error {
	registration, err := ctrl.Registrations.GetRegistration(c.UserContext(), c.Params("id"))
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	if denied, err := ctrl.ensureManager(c, registration.EventID); denied {
		return err
	}
	if err := ctrl.Attendances.DeleteAttendance(c.UserContext(), registration.ID); err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Check-in removido com sucesso.", nil)
}

func (ctrl *AttendanceController) ListEventAttendances(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedAttendanceList").(*attendanceValidator.ListAttendancesQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Dados inválidos!", nil)
	}
	eventID := c.Params("id")
	if denied, err := ctrl.ensureManager(c, eventID); denied {
		return err
	}

	attendances, err := ctrl.Attendances.ListEventAttendances(c.UserContext(), eventID, reqData.Filters)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Presenças carregadas com sucesso.", attendances)
}

// EventRegistrations is the check-in desk view: every registration of the
// event with its attendance, if any.
func (ctrl *AttendanceController) EventRegistrations(c *fiber.Ctx) error {
	eventID := c.Params("id")
	if denied, err := ctrl.ensureManager(c, eventID); denied {
		return err
	}

	registrations, err := ctrl.Attendances.GetEventRegistrationsWithAttendance(c.UserContext(), eventID, c.Query("search"))
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Inscrições carregadas com sucesso.", registrations)
}

func (ctrl *AttendanceController) EventAttendanceStats(c *fiber.Ctx) error {
	eventID := c.Params("id")
	if denied, err := ctrl.ensureManager(c, eventID); denied {
		return err
	}

	stats, err := ctrl.Attendances.GetEventAttendanceStats(c.UserContext(), eventID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Estatísticas de presença carregadas com sucesso.", stats)
}

func (ctrl *AttendanceController) ExportAttendances(c *fiber.Ctx) error {
	eventID := c.Params("id")
	if denied, err := ctrl.ensureManager(c, eventID); denied {
		return err
	}

	csv, err := ctrl.Attendances.ExportAttendanceToCSV(c.UserContext(), eventID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	fileName := fmt.Sprintf("presencas-%s-%s.csv", eventID, time.Now().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, fileName))
	return c.Status(fiber.StatusOK).SendString(csv)
}

func (ctrl *AttendanceController) ensureManager(c *fiber.Ctx, eventID string) (bool, error) {
	userID, _ := middleware.CurrentUser(c)
	allowed, err := ctrl.Attendances.CanUserManageAttendances(c.UserContext(), userID, eventID)
	if err != nil {
		return true, middleware.ServiceErrorResponse(c, err)
	}
	if !allowed {
		return true, middleware.JsonResponse(c, fiber.StatusForbidden, false, "Sem permissão para gerenciar presenças deste evento!", nil)
	}
	return false, nil
}

func (ctrl *AttendanceController) ensureOwnerOrManager(c *fiber.Ctx, registrationID string) (bool, error) {
	registration, err := ctrl.Registrations.GetRegistration(c.UserContext(), registrationID)
	if err != nil {
		return true, middleware.ServiceErrorResponse(c, err)
	}
	userID, _ := middleware.CurrentUser(c)
	if registration.UserID == userID {
		return false, nil
	}
	return ctrl.ensureManager(c, registration.EventID)
}

func clientIP(c *fiber.Ctx) string {
	if forwarded := c.Get(fiber.HeaderXForwardedFor); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := c.Get("X-Real-Ip"); realIP != "" {
		return realIP
	}
	return c.IP()
}
