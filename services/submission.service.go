package services

import (
	"context"
	"strings"
	"time"

	"ninma/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SubmissionService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSubmissionService(db *gorm.DB) *SubmissionService {
	return &SubmissionService{db: db, now: time.Now}
}

type SubmissionInput struct {
	EventID  string
	UserID   string
	Title    string
	Abstract string
	Keywords []string
	Authors  []models.SubmissionAuthor
	FileURL  string
	FileName string
	FileSize int64
	MimeType string
	Status   string // DRAFT or SUBMITTED, defaults to SUBMITTED
}

// SubmissionUpdate is a partial update; nil fields are left untouched.
// Status may only move an editable submission to DRAFT or SUBMITTED.
type SubmissionUpdate struct {
	Title    *string
	Abstract *string
	Keywords []string
	Authors  []models.SubmissionAuthor
	FileURL  *string
	FileName *string
	FileSize *int64
	MimeType *string
	Status   *string
}

type SubmissionFilters struct {
	EventID string
	UserID  string
	Status  string
	Search  string
}

type ReviewInput struct {
	SubmissionID string
	ReviewerID   string
	Status       string
	Rating       *int
	Originality  *int
	Relevance    *int
	Methodology  *int
	Clarity      *int
	Comments     string
}

type SubmissionList struct {
	Submissions []models.Submission `json:"submissions"`
	Pagination  Pagination          `json:"pagination"`
}

type EventSubmissionStats struct {
	Total    int64 `json:"total"`
	ByStatus struct {
		Draft       int64 `json:"draft"`
		Submitted   int64 `json:"submitted"`
		UnderReview int64 `json:"underReview"`
		Approved    int64 `json:"approved"`
		Rejected    int64 `json:"rejected"`
		Revision    int64 `json:"revision"`
	} `json:"byStatus"`
}

type UserSubmissionStats struct {
	Total       int64 `json:"total"`
	Approved    int64 `json:"approved"`
	Rejected    int64 `json:"rejected"`
	UnderReview int64 `json:"underReview"`
}

func (s *SubmissionService) CreateSubmission(ctx context.Context, in SubmissionInput) (*models.Submission, error) {
	db := s.db.WithContext(ctx)

	var event models.Event
	if err := db.Select("id", "allow_submissions", "submission_start", "submission_end").
		First(&event, "id = ?", in.EventID).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("Evento não encontrado!")
		}
		return nil, err
	}

	now := s.now()
	if err := submissionWindowError(&event, now); err != nil {
		return nil, err
	}
	if err := ensureNoActiveSubmission(db, in.EventID, in.UserID, ""); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = models.SubmissionSubmitted
	}
	if status != models.SubmissionDraft && status != models.SubmissionSubmitted {
		return nil, validation("Uma nova submissão deve ser rascunho ou enviada!")
	}

	authors := in.Authors
	if authors == nil {
		authors = []models.SubmissionAuthor{}
	}
	submission := models.Submission{
		EventID:     in.EventID,
		UserID:      in.UserID,
		Title:       in.Title,
		Abstract:    in.Abstract,
		Keywords:    datatypes.NewJSONSlice(nonNil(in.Keywords)),
		Authors:     datatypes.NewJSONSlice(authors),
		FileURL:     in.FileURL,
		FileName:    in.FileName,
		FileSize:    in.FileSize,
		MimeType:    in.MimeType,
		Status:      status,
		SubmittedAt: now,
		ReviewRound: 1,
	}
	if err := db.Omit("Event", "Author", "Reviews").Create(&submission).Error; err != nil {
		return nil, err
	}
	return s.GetSubmissionByID(ctx, submission.ID)
}

// UpdateSubmission edits a submission that is still DRAFT or REVISION.
// Submitting a draft applies the same window and one-active-paper rules as
// CreateSubmission; resubmitting a revision opens a new review round.
func (s *SubmissionService) UpdateSubmission(ctx context.Context, id string, in SubmissionUpdate) (*models.Submission, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var submission models.Submission
		if err := tx.Select("id", "event_id", "user_id", "status").First(&submission, "id = ?", id).Error; err != nil {
			if isNotFound(err) {
				return notFound("Submissão não encontrada!")
			}
			return err
		}
		if !submission.IsEditable() {
			return conflict("Esta submissão não pode mais ser editada!")
		}

		updates := map[string]interface{}{}
		setString(updates, "title", in.Title)
		setString(updates, "abstract", in.Abstract)
		setString(updates, "file_url", in.FileURL)
		setString(updates, "file_name", in.FileName)
		setString(updates, "mime_type", in.MimeType)
		if in.FileSize != nil {
			updates["file_size"] = *in.FileSize
		}
		if in.Keywords != nil {
			updates["keywords"] = datatypes.NewJSONSlice(in.Keywords)
		}
		if in.Authors != nil {
			updates["authors"] = datatypes.NewJSONSlice(in.Authors)
		}
		if in.Status != nil {
			if err := s.statusUpdates(tx, &submission, *in.Status, updates); err != nil {
				return err
			}
		}

		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.Submission{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetSubmissionByID(ctx, id)
}

// statusUpdates validates a status change requested by the author.
// A revision cannot go back to DRAFT and is not held to the submission window.
func (s *SubmissionService) statusUpdates(tx *gorm.DB, submission *models.Submission, status string, updates map[string]interface{}) error {
	switch status {
	case models.SubmissionDraft:
		if submission.Status != models.SubmissionDraft {
			return conflict("Uma submissão em revisão não pode voltar a rascunho!")
		}
	case models.SubmissionSubmitted:
		now := s.now()
		if submission.Status == models.SubmissionDraft {
			var event models.Event
			if err := tx.Select("id", "allow_submissions", "submission_start", "submission_end").
				First(&event, "id = ?", submission.EventID).Error; err != nil {
				if isNotFound(err) {
					return notFound("Evento não encontrado!")
				}
				return err
			}
			if err := submissionWindowError(&event, now); err != nil {
				return err
			}
		}
		if err := ensureNoActiveSubmission(tx, submission.EventID, submission.UserID, submission.ID); err != nil {
			return err
		}
		if submission.Status == models.SubmissionRevision {
			updates["review_round"] = gorm.Expr("review_round + 1")
		}
		updates["submitted_at"] = now
	default:
		return validation("O status só pode ser DRAFT ou SUBMITTED!")
	}
	updates["status"] = status
	return nil
}

// DeleteSubmission removes a DRAFT submission.
func (s *SubmissionService) DeleteSubmission(ctx context.Context, id string) error {
	db := s.db.WithContext(ctx)

	var submission models.Submission
	if err := db.Select("id", "status").First(&submission, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return notFound("Submissão não encontrada!")
		}
		return err
	}
	if submission.Status != models.SubmissionDraft {
		return conflict("Apenas rascunhos podem ser excluídos!")
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("submission_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Submission{}, "id = ?", id).Error
	})
}

// SendToReview opens a SUBMITTED paper for peer review.
func (s *SubmissionService) SendToReview(ctx context.Context, id string) (*models.Submission, error) {
	db := s.db.WithContext(ctx)

	res := db.Model(&models.Submission{}).
		Where("id = ? AND status = ?", id, models.SubmissionSubmitted).
		Update("status", models.SubmissionUnderReview)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := db.Model(&models.Submission{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, notFound("Submissão não encontrada!")
		}
		return nil, conflict("Apenas trabalhos enviados podem ser encaminhados para avaliação!")
	}
	return s.GetSubmissionByID(ctx, id)
}

func (s *SubmissionService) GetSubmissionByID(ctx context.Context, id string) (*models.Submission, error) {
	var submission models.Submission
	if err := s.db.WithContext(ctx).
		Preload("Event").
		Preload("Author").
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("reviewed_at DESC") }).
		Preload("Reviews.Reviewer").
		First(&submission, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("Submissão não encontrada!")
		}
		return nil, err
	}
	return &submission, nil
}

func (s *SubmissionService) ListSubmissions(ctx context.Context, f SubmissionFilters, page, limit int) (*SubmissionList, error) {
	page, limit = normalizePage(page, limit)

	q := s.db.WithContext(ctx).Model(&models.Submission{})
	if f.EventID != "" {
		q = q.Where("event_id = ?", f.EventID)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(abstract) LIKE ?", like, like)
	}

	return s.page(q, page, limit, "")
}

// GetReviewerSubmissions is the reviewer queue: every paper under review plus
// the ones this reviewer has already evaluated. Only the reviewer's own
// reviews are preloaded.
func (s *SubmissionService) GetReviewerSubmissions(ctx context.Context, reviewerID string, page, limit int) (*SubmissionList, error) {
	page, limit = normalizePage(page, limit)
	db := s.db.WithContext(ctx)

	reviewed := db.Model(&models.Review{}).Select("submission_id").Where("reviewer_id = ?", reviewerID)
	q := db.Model(&models.Submission{}).
		Where("id IN (?) OR status = ?", reviewed, models.SubmissionUnderReview).
		Where("user_id <> ?", reviewerID)

	return s.page(q, page, limit, reviewerID)
}

func (s *SubmissionService) page(q *gorm.DB, page, limit int, reviewerID string) (*SubmissionList, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	reviews := func(db *gorm.DB) *gorm.DB {
		if reviewerID != "" {
			db = db.Where("reviewer_id = ?", reviewerID)
		}
		return db.Order("reviewed_at DESC")
	}

	submissions := []models.Submission{}
	if err := q.Preload("Event").
		Preload("Author").
		Preload("Reviews", reviews).
		Order("submitted_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&submissions).Error; err != nil {
		return nil, err
	}
	return &SubmissionList{Submissions: submissions, Pagination: newPagination(page, limit, total)}, nil
}

// CreateReview records a reviewer's decision and folds it into the
// submission status in the same transaction.
func (s *SubmissionService) CreateReview(ctx context.Context, in ReviewInput) (*models.Review, error) {
	switch in.Status {
	case models.ReviewApproved, models.ReviewRejected, models.ReviewRevision:
	default:
		return nil, validation("Decisão de avaliação inválida!")
	}

	var review models.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var submission models.Submission
		if err := tx.Select("id", "status", "user_id", "review_round").First(&submission, "id = ?", in.SubmissionID).Error; err != nil {
			if isNotFound(err) {
				return notFound("Submissão não encontrada!")
			}
			return err
		}
		if submission.Status != models.SubmissionUnderReview {
			return conflict("Esta submissão não está disponível para avaliação!")
		}

		var existing int64
		if err := tx.Model(&models.Review{}).
			Where("submission_id = ? AND reviewer_id = ? AND round = ?", in.SubmissionID, in.ReviewerID, submission.ReviewRound).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return conflict("Você já avaliou esta submissão!")
		}
		if submission.UserID == in.ReviewerID {
			return forbidden("Você não pode avaliar seu próprio trabalho!")
		}

		review = models.Review{
			SubmissionID: in.SubmissionID,
			ReviewerID:   in.ReviewerID,
			Status:       in.Status,
			Rating:       in.Rating,
			Originality:  in.Originality,
			Relevance:    in.Relevance,
			Methodology:  in.Methodology,
			Clarity:      in.Clarity,
			Comments:     in.Comments,
			Round:        submission.ReviewRound,
			ReviewedAt:   s.now(),
		}
		if err := tx.Omit("Reviewer").Create(&review).Error; err != nil {
			if isDuplicate(err) {
				return conflict("Você já avaliou esta submissão!")
			}
			return err
		}

		next, err := aggregateReviewStatus(tx, submission.ID, submission.ReviewRound, in.Status)
		if err != nil {
			return err
		}
		if next != submission.Status {
			return tx.Model(&models.Submission{}).Where("id = ?", submission.ID).Update("status", next).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Preload("Reviewer").First(&review, "id = ?", review.ID).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// aggregateReviewStatus: a rejection or revision request decides at once;
// approval needs every review of the current round to be APPROVED.
func aggregateReviewStatus(tx *gorm.DB, submissionID string, round int, decision string) (string, error) {
	switch decision {
	case models.ReviewRejected:
		return models.SubmissionRejected, nil
	case models.ReviewRevision:
		return models.SubmissionRevision, nil
	}

	var notApproved int64
	if err := tx.Model(&models.Review{}).
		Where("submission_id = ? AND round = ? AND status <> ?", submissionID, round, models.ReviewApproved).
		Count(&notApproved).Error; err != nil {
		return "", err
	}
	if notApproved == 0 {
		return models.SubmissionApproved, nil
	}
	return models.SubmissionUnderReview, nil
}

// CanUserManageSubmission is true for ADMIN, COORDINATOR and the author.
func (s *SubmissionService) CanUserManageSubmission(ctx context.Context, userID, submissionID string) (bool, error) {
	db := s.db.WithContext(ctx)

	role, err := userRole(db, userID)
	if err != nil || role == "" {
		return false, err
	}
	if role == models.RoleAdmin || role == models.RoleCoordinator {
		return true, nil
	}

	var submission models.Submission
	if err := db.Select("id", "user_id").First(&submission, "id = ?", submissionID).Error; err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return submission.UserID == userID, nil
}

// CanUserReviewSubmission requires a reviewing role and that the user is not
// the author.
func (s *SubmissionService) CanUserReviewSubmission(ctx context.Context, userID, submissionID string) (bool, error) {
	db := s.db.WithContext(ctx)

	role, err := userRole(db, userID)
	if err != nil || role == "" {
		return false, err
	}
	if role != models.RoleReviewer && role != models.RoleCoordinator && role != models.RoleAdmin {
		return false, nil
	}

	var submission models.Submission
	if err := db.Select("id", "user_id").First(&submission, "id = ?", submissionID).Error; err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return submission.UserID != userID, nil
}

func (s *SubmissionService) GetEventSubmissionStats(ctx context.Context, eventID string) (*EventSubmissionStats, error) {
	counts, err := submissionCountsByStatus(s.db.WithContext(ctx), "event_id = ?", eventID)
	if err != nil {
		return nil, err
	}

	stats := &EventSubmissionStats{}
	for _, n := range counts {
		stats.Total += n
	}
	stats.ByStatus.Draft = counts[models.SubmissionDraft]
	stats.ByStatus.Submitted = counts[models.SubmissionSubmitted]
	stats.ByStatus.UnderReview = counts[models.SubmissionUnderReview]
	stats.ByStatus.Approved = counts[models.SubmissionApproved]
	stats.ByStatus.Rejected = counts[models.SubmissionRejected]
	stats.ByStatus.Revision = counts[models.SubmissionRevision]
	return stats, nil
}

func (s *SubmissionService) GetUserSubmissionStats(ctx context.Context, userID string) (*UserSubmissionStats, error) {
	counts, err := submissionCountsByStatus(s.db.WithContext(ctx), "user_id = ?", userID)
	if err != nil {
		return nil, err
	}

	stats := &UserSubmissionStats{
		Approved:    counts[models.SubmissionApproved],
		Rejected:    counts[models.SubmissionRejected],
		UnderReview: counts[models.SubmissionUnderReview],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

func submissionCountsByStatus(db *gorm.DB, cond string, arg string) (map[string]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	if err := db.Model(&models.Submission{}).
		Select("status, COUNT(*) AS total").
		Where(cond, arg).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}

func submissionWindowError(event *models.Event, now time.Time) error {
	switch {
	case !event.AllowSubmissions:
		return conflict("Este evento não aceita submissões de trabalhos!")
	case event.SubmissionStart != nil && now.Before(*event.SubmissionStart):
		return conflict("O período de submissão ainda não começou!")
	case event.SubmissionEnd != nil && now.After(*event.SubmissionEnd):
		return conflict("O período de submissão já encerrou!")
	}
	return nil
}

// ensureNoActiveSubmission allows at most one non-DRAFT submission per
// (event, user); exceptID skips the submission being promoted.
func ensureNoActiveSubmission(db *gorm.DB, eventID, userID, exceptID string) error {
	q := db.Model(&models.Submission{}).
		Where("event_id = ? AND user_id = ? AND status <> ?", eventID, userID, models.SubmissionDraft)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var active int64
	if err := q.Count(&active).Error; err != nil {
		return err
	}
	if active > 0 {
		return conflict("Você já possui uma submissão para este evento!")
	}
	return nil
}

// userRole returns "" when the user does not exist.
func userRole(db *gorm.DB, userID string) (string, error) {
	var user models.User
	if err := db.Select("id", "role").First(&user, "id = ?", userID).Error; err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return user.Role, nil
}
