package registrationController

import (
	"ninma/middleware"
	"ninma/models"
	"ninma/services"
	"ninma/utils"
	registrationValidator "ninma/validators/registration"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type RegistrationController struct {
	Events        *services.EventService
	Registrations *services.RegistrationService
}

func NewRegistrationController(db *gorm.DB) *RegistrationController {
	events := services.NewEventService(db)
	return &RegistrationController{
		Events:        events,
		Registrations: services.NewRegistrationService(db, events),
	}
}

func (ctrl *RegistrationController) Register(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedRegistration").(*registrationValidator.RegisterRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Dados inválidos!", nil)
	}
	userID, _ := middleware.CurrentUser(c)

	registration, err := ctrl.Registrations.Register(c.UserContext(), c.Params("id"), userID, reqData.Notes, reqData.DietaryRestrictions)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	if registration.User != nil && registration.Event != nil {
		utils.SendRegistrationEmail(registration.User.Email, registration.User.Name, registration.Event.Title,
			registration.Status == models.RegistrationPending)
	}

	message := "Você está inscrito neste evento."
	if registration.Status == models.RegistrationPending {
		message = "Sua inscrição está aguardando aprovação."
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, message, registration)
}

func (ctrl *RegistrationController) Cancel(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUser(c)
	registration, err := ctrl.Registrations.Cancel(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Sua inscrição foi cancelada.", registration)
}

func (ctrl *RegistrationController) ListEventRegistrations(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedRegistrationList").(*registrationValidator.ListRegistrationsQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Dados inválidos!", nil)
	}
	eventID := c.Params("id")
	if denied, err := ctrl.ensureCanManage(c, eventID); denied {
		return err
	}

	filters := services.RegistrationFilters{Status: reqData.Status, Search: reqData.Search}
	list, err := ctrl.Registrations.ListEventRegistrations(c.UserContext(), eventID, filters, reqData.Page, reqData.Limit)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Inscrições carregadas com sucesso.", list)
}

func (ctrl *RegistrationController) Approve(c *fiber.Ctx) error {
	current, err := ctrl.Registrations.GetRegistration(c.UserContext(), c.Params("id"))
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	if denied, err := ctrl.ensureCanManage(c, current.EventID); denied {
		return err
	}

	registration, err := ctrl.Registrations.Approve(c.UserContext(), current.ID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	if registration.User != nil && registration.Event != nil {
		utils.SendRegistrationApprovedEmail(registration.User.Email, registration.User.Name, registration.Event.Title)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Inscrição aprovada com sucesso.", registration)
}

func (ctrl *RegistrationController) MyRegistrations(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUser(c)
	registrations, err := ctrl.Registrations.GetUserRegistrations(c.UserContext(), userID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Inscrições carregadas com sucesso.", registrations)
}

func (ctrl *RegistrationController) ensureCanManage(c *fiber.Ctx, eventID string) (bool, error) {
	userID, _ := middleware.CurrentUser(c)
	allowed, err := ctrl.Events.CanUserManageEvent(c.UserContext(), userID, eventID)
	if err != nil {
		return true, middleware.ServiceErrorResponse(c, err)
	}
	if !allowed {
		return true, middleware.JsonResponse(c, fiber.StatusForbidden, false, "Sem permissão para gerenciar este evento!", nil)
	}
	return false, nil
}
