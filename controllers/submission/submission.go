package submissionController

import (
	"errors"
	"log"

	"ninma/middleware"
	"ninma/models"
	"ninma/policy"
	"ninma/services"
	"ninma/utils"
	submissionValidator "ninma/validators/submission"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SubmissionController struct {
	DB            *gorm.DB
	Submissions   *services.SubmissionService
	UploadDir     string
	MaxUploadSize int64
}

func NewSubmissionController(db *gorm.DB, uploadDir string, maxUploadSize int64) *SubmissionController {
	return &SubmissionController{
		DB:            db,
		Submissions:   services.NewSubmissionService(db),
		UploadDir:     uploadDir,
		MaxUploadSize: maxUploadSize,
	}
}

// ListSubmissions shows staff every submission; everyone else only sees
// their own.
func (ctrl *SubmissionController) ListSubmissions(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedSubmissionList").(*submissionValidator.ListSubmissionsQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Dados inválidos!", nil)
	}
	userID, role := middleware.CurrentUser(c)

	filters := services.SubmissionFilters{
		EventID: reqData.EventID,
		Status:  reqData.Status,
		Search:  reqData.Search,
	}
	if !policy.IsStaff(role) {
		filters.UserID = userID
	}

	list, err := ctrl.Submissions.ListSubmissions(c.UserContext(), filters, reqData.Page, reqData.Limit)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Submissões carregadas com sucesso.", list)
}

func (ctrl *SubmissionController) ReviewerSubmissions(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUser(c)
	list, err := ctrl.Submissions.GetReviewerSubmissions(c.UserContext(), userID, c.QueryInt("page", 1), c.QueryInt("limit", 10))
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Submissões carregadas com sucesso.", list)
}

func (ctrl *SubmissionController) GetSubmission(c *fiber.Ctx) error {
	submission, err := ctrl.Submissions.GetSubmissionByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	userID, role := middleware.CurrentUser(c)
	if submission.UserID != userID && !policy.CanReview(role) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Sem permissão para visualizar esta submissão!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Submissão carregada com sucesso.", submission)
}

func (ctrl *SubmissionController) CreateSubmission(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedSubmission").(*submissionValidator.CreateSubmissionRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Dados inválidos!", nil)
	}
	userID, _ := middleware.CurrentUser(c)

	submission, err := ctrl.Submissions.CreateSubmission(c.UserContext(), reqData.Input(userID))
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Submissão criada com sucesso.", submission)
}

func (ctrl *SubmissionController) UpdateSubmission(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedSubmissionUpdate").(*submissionValidator.UpdateSubmissionRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Dados inválidos!", nil)
	}
	if denied, err := ctrl.ensureCanManage(c); denied {
		return err
	}

	submission, err := ctrl.Submissions.UpdateSubmission(c.UserContext(), c.Params("id"), reqData.Update())
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Submissão atualizada com sucesso.", submission)
}

// DeleteSubmission removes a draft and its uploaded file.
func (ctrl *SubmissionController) DeleteSubmission(c *fiber.Ctx) error {
	if denied, err := ctrl.ensureCanManage(c); denied {
		return err
	}
	submission, err := ctrl.Submissions.GetSubmissionByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	if err := ctrl.Submissions.DeleteSubmission(c.UserContext(), submission.ID); err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	if submission.FileURL != "" {
		if err := utils.DeleteSubmissionFile(submission.FileURL, ctrl.UploadDir); err != nil {
			log.Printf("[UPLOAD] Could not remove %s: %v", submission.FileURL, err)
		}
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Submissão excluída com sucesso.", nil)
}

func (ctrl *SubmissionController) SendToReview(c *fiber.Ctx) error {
	submission, err := ctrl.Submissions.SendToReview(c.UserContext(), c.Params("id"))
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Submissão encaminhada para avaliação.", submission)
}

// Review records the caller's decision and emails the author once the
// submission reaches a final state.
func (ctrl *SubmissionController) Review(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedReview").(*submissionValidator.ReviewRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Dados inválidos!", nil)
	}
	submissionID := c.Params("id")
	userID, _ := middleware.CurrentUser(c)

	allowed, err := ctrl.Submissions.CanUserReviewSubmission(c.UserContext(), userID, submissionID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	if !allowed {
		if _, err := ctrl.Submissions.GetSubmissionByID(c.UserContext(), submissionID); err != nil {
			return middleware.ServiceErrorResponse(c, err)
		}
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Você não pode avaliar esta submissão!", nil)
	}

	review, err := ctrl.Submissions.CreateReview(c.UserContext(), services.ReviewInput{
		SubmissionID: submissionID,
		ReviewerID:   userID,
		Status:       reqData.Status,
		Rating:       reqData.Rating,
		Originality:  reqData.Originality,
		Relevance:    reqData.Relevance,
		Methodology:  reqData.Methodology,
		Clarity:      reqData.Clarity,
		Comments:     reqData.Comments,
	})
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	submission, err := ctrl.Submissions.GetSubmissionByID(c.UserContext(), submissionID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	if submission.Status != models.SubmissionUnderReview && submission.Author != nil {
		utils.SendReviewDecisionEmail(submission.Author.Email, submission.Author.Name, submission.Title, submission.Status)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Avaliação registrada com sucesso.", fiber.Map{
		"review":     review,
		"submission": submission,
	})
}

// UploadFile stores the multipart "file" field and returns its metadata for
// a later create or update.
func (ctrl *SubmissionController) UploadFile(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Nenhum arquivo enviado!", nil)
	}

	uploaded, err := utils.SaveSubmissionFile(file, ctrl.UploadDir, ctrl.MaxUploadSize)
	if err != nil {
		if isUploadRejection(err) {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
		}
		log.Printf("[UPLOAD] Error saving %s: %v", file.Filename, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Erro ao fazer upload do arquivo!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Arquivo enviado com sucesso.", uploaded)
}

// DeleteFile removes an uploaded file. Files attached to another user's
// submission can only be removed by staff.
func (ctrl *SubmissionController) DeleteFile(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedDeleteFile").(*submissionValidator.DeleteFileRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Dados inválidos!", nil)
	}
	userID, role := middleware.CurrentUser(c)

	if !policy.IsStaff(role) {
		var foreign int64
		if err := ctrl.DB.WithContext(c.UserContext()).Model(&models.Submission{}).
			Where("file_url = ? AND user_id <> ?", reqData.FileURL, userID).
			Count(&foreign).Error; err != nil {
			return middleware.ServiceErrorResponse(c, err)
		}
		if foreign > 0 {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Sem permissão para excluir este arquivo!", nil)
		}
	}

	if err := utils.DeleteSubmissionFile(reqData.FileURL, ctrl.UploadDir); err != nil {
		if errors.Is(err, utils.ErrInvalidFileURL) {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
		}
		log.Printf("[UPLOAD] Error deleting %s: %v", reqData.FileURL, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Erro ao excluir arquivo!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Arquivo excluído com sucesso.", nil)
}

func (ctrl *SubmissionController) EventSubmissionStats(c *fiber.Ctx) error {
	stats, err := ctrl.Submissions.GetEventSubmissionStats(c.UserContext(), c.Params("id"))
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Estatísticas de submissões carregadas com sucesso.", stats)
}

func (ctrl *SubmissionController) MySubmissionStats(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUser(c)
	stats, err := ctrl.Submissions.GetUserSubmissionStats(c.UserContext(), userID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Estatísticas de submissões carregadas com sucesso.", stats)
}

func (ctrl *SubmissionController) ensureCanManage(c *fiber.Ctx) (bool, error) {
	submissionID := c.Params("id")
	userID, _ := middleware.CurrentUser(c)

	allowed, err := ctrl.Submissions.CanUserManageSubmission(c.UserContext(), userID, submissionID)
	if err != nil {
		return true, middleware.ServiceErrorResponse(c, err)
	}
	if !allowed {
		if _, err := ctrl.Submissions.GetSubmissionByID(c.UserContext(), submissionID); err != nil {
			return true, middleware.ServiceErrorResponse(c, err)
		}
		return true, middleware.JsonResponse(c, fiber.StatusForbidden, false, "Sem permissão para editar esta submissão!", nil)
	}
	return false, nil
}

func isUploadRejection(err error) bool {
	return errors.Is(err, utils.ErrFileTooLarge) ||
		errors.Is(err, utils.ErrFileType) ||
		errors.Is(err, utils.ErrFileExtension)
}
