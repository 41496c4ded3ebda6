package eventController

import (
	"strconv"

	"ninma/middleware"
	"ninma/services"
	eventValidator "ninma/validators/event"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const defaultHighlightLimit = 6

type EventController struct {
	Events *services.EventService
}

func NewEventController(db *gorm.DB) *EventController {
	return &EventController{Events: services.NewEventService(db)}
}

func (ctrl *EventController) ListEvents(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedEventList").(*eventValidator.ListEventsQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Dados inválidos!", nil)
	}

	list, err := ctrl.Events.ListEvents(c.UserContext(), reqData.Filters, reqData.Page, reqData.Limit, reqData.OrderBy)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Eventos carregados com sucesso.", list)
}

func (ctrl *EventController) GetEvent(c *fiber.Ctx) error {
	event, err := ctrl.Events.GetEventByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Evento carregado com sucesso.", event)
}

func (ctrl *EventController) GetEventBySlug(c *fiber.Ctx) error {
	event, err := ctrl.Events.GetEventBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Evento carregado com sucesso.", event)
}

func (ctrl *EventController) UpcomingEvents(c *fiber.Ctx) error {
	events, err := ctrl.Events.GetUpcomingEvents(c.UserContext(), queryLimit(c))
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Próximos eventos carregados com sucesso.", events)
}

func (ctrl *EventController) PopularEvents(c *fiber.Ctx) error {
	events, err := ctrl.Events.GetPopularEvents(c.UserContext(), queryLimit(c))
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Eventos populares carregados com sucesso.", events)
}

// MyEvents lists the events the caller created.
func (ctrl *EventController) MyEvents(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUser(c)
	list, err := ctrl.Events.GetUserEvents(c.UserContext(), userID, c.QueryInt("page", 1), c.QueryInt("limit", 10))
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Eventos carregados com sucesso.", list)
}

func (ctrl *EventController) CreateEvent(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedEvent").(*eventValidator.CreateEventRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Dados inválidos!", nil)
	}
	userID, _ := middleware.CurrentUser(c)

	event, err := ctrl.Events.CreateEvent(c.UserContext(), reqData.Input(userID))
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Evento criado com sucesso.", event)
}

func (ctrl *EventController) UpdateEvent(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedEventUpdate").(*eventValidator.UpdateEventRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Dados inválidos!", nil)
	}
	if denied, err := ctrl.ensureCanManage(c); denied {
		return err
	}

	event, err := ctrl.Events.UpdateEvent(c.UserContext(), c.Params("id"), reqData.Update())
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Evento atualizado com sucesso.", event)
}

func (ctrl *EventController) DeleteEvent(c *fiber.Ctx) error {
	if denied, err := ctrl.ensureCanManage(c); denied {
		return err
	}
	if err := ctrl.Events.DeleteEvent(c.UserContext(), c.Params("id")); err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Evento excluído com sucesso.", nil)
}

func (ctrl *EventController) CanRegister(c *fiber.Ctx) error {
	eligibility, err := ctrl.Events.CanRegister(c.UserContext(), c.Params("id"))
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Elegibilidade de inscrição verificada.", eligibility)
}

func (ctrl *EventController) EventStats(c *fiber.Ctx) error {
	if denied, err := ctrl.ensureCanManage(c); denied {
		return err
	}
	stats, err := ctrl.Events.GetEventStats(c.UserContext(), c.Params("id"))
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Estatísticas do evento carregadas com sucesso.", stats)
}

// ensureCanManage writes the 404/403 response itself and reports whether
// the handler must stop.
func (ctrl *EventController) ensureCanManage(c *fiber.Ctx) (bool, error) {
	eventID := c.Params("id")
	if _, err := ctrl.Events.GetEventByID(c.UserContext(), eventID); err != nil {
		return true, middleware.ServiceErrorResponse(c, err)
	}
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

func queryLimit(c *fiber.Ctx) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		return defaultHighlightLimit
	}
	return limit
}
