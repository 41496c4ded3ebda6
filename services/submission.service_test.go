package services

import (
	"context"
	"testing"
	"time"

	"ninma/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubmissionService(t *testing.T) (*SubmissionService, *models.Event) {
	t.Helper()
	db := newTestDB(t)
	svc := NewSubmissionService(db)
	svc.now = clock
	owner := createUser(t, db, "coord", models.RoleCoordinator)
	return svc, openEvent(t, db, owner, nil)
}

func submit(t *testing.T, svc *SubmissionService, event *models.Event, author *models.User, status string) *models.Submission {
	t.Helper()
	sub, err := svc.CreateSubmission(context.Background(), SubmissionInput{
		EventID:  event.ID,
		UserID:   author.ID,
		Title:    "Ecocrítica e literatura",
		Abstract: "Um estudo.",
		Keywords: []string{"ecocrítica"},
		Authors:  []models.SubmissionAuthor{{Name: author.Name, Email: author.Email}},
		FileURL:  "/uploads/submissions/paper.pdf",
		Status:   status,
	})
	require.NoError(t, err)
	return sub
}

func underReview(t *testing.T, svc *SubmissionService, event *models.Event, author *models.User) *models.Submission {
	t.Helper()
	sub := submit(t, svc, event, author, "")
	sent, err := svc.SendToReview(context.Background(), sub.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionUnderReview, sent.Status)
	return sent
}

func TestCreateSubmissionRules(t *testing.T) {
	svc, event := newSubmissionService(t)
	ctx := context.Background()
	author := createUser(t, svc.db, "ana", models.RoleParticipant)

	sub := submit(t, svc, event, author, "")
	assert.Equal(t, models.SubmissionSubmitted, sub.Status)
	assert.Len(t, sub.Authors, 1)

	_, err := svc.CreateSubmission(ctx, SubmissionInput{EventID: event.ID, UserID: author.ID, Title: "Outro"})
	assert.True(t, IsKind(err, KindConflict))

	_, err = svc.CreateSubmission(ctx, SubmissionInput{EventID: "missing", UserID: author.ID, Title: "X"})
	assert.True(t, IsKind(err, KindNotFound))
}

func TestCreateSubmissionWindow(t *testing.T) {
	svc, event := newSubmissionService(t)
	author := createUser(t, svc.db, "ana", models.RoleParticipant)

	closed := fixedNow.Add(-time.Minute)
	require.NoError(t, svc.db.Model(event).Update("submission_end", closed).Error)
	_, err := svc.CreateSubmission(context.Background(), SubmissionInput{EventID: event.ID, UserID: author.ID, Title: "Tarde"})
	require.Error(t, err)
	assert.Equal(t, "O período de submissão já encerrou!", err.Error())

	require.NoError(t, svc.db.Model(event).Update("allow_submissions", false).Error)
	_, err = svc.CreateSubmission(context.Background(), SubmissionInput{EventID: event.ID, UserID: author.ID, Title: "Tarde"})
	require.Error(t, err)
	assert.Equal(t, "Este evento não aceita submissões de trabalhos!", err.Error())
}

func TestDraftsDoNotBlockNewSubmissions(t *testing.T) {
	svc, event := newSubmissionService(t)
	author := createUser(t, svc.db, "ana", models.RoleParticipant)

	draft := submit(t, svc, event, author, models.SubmissionDraft)
	submit(t, svc, event, author, "")

	require.NoError(t, svc.DeleteSubmission(context.Background(), draft.ID))
}

func TestUpdateOnlyWhileEditable(t *testing.T) {
	svc, event := newSubmissionService(t)
	ctx := context.Background()
	author := createUser(t, svc.db, "ana", models.RoleParticipant)

	draft := submit(t, svc, event, author, models.SubmissionDraft)
	updated, err := svc.UpdateSubmission(ctx, draft.ID, SubmissionUpdate{Title: strPtr("Novo título")})
	require.NoError(t, err)
	assert.Equal(t, "Novo título", updated.Title)

	updated, err = svc.UpdateSubmission(ctx, draft.ID, SubmissionUpdate{Status: strPtr(models.SubmissionSubmitted)})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSubmitted, updated.Status)

	_, err = svc.UpdateSubmission(ctx, draft.ID, SubmissionUpdate{Title: strPtr("Tarde demais")})
	assert.True(t, IsKind(err, KindConflict))

	assert.True(t, IsKind(svc.DeleteSubmission(ctx, draft.ID), KindConflict))
}

func TestSubmittingDraftFollowsCreateRules(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, svc *SubmissionService, event *models.Event, author *models.User)
		message string
	}{
		{
			name: "another active paper",
			prepare: func(t *testing.T, svc *SubmissionService, event *models.Event, author *models.User) {
				submit(t, svc, event, author, "")
			},
			message: "Você já possui uma submissão para este evento!",
		},
		{
			name: "window closed",
			prepare: func(t *testing.T, svc *SubmissionService, event *models.Event, author *models.User) {
				require.NoError(t, svc.db.Model(event).Update("submission_end", fixedNow.Add(-time.Hour)).Error)
			},
			message: "O período de submissão já encerrou!",
		},
		{
			name: "submissions disabled",
			prepare: func(t *testing.T, svc *SubmissionService, event *models.Event, author *models.User) {
				require.NoError(t, svc.db.Model(event).Update("allow_submissions", false).Error)
			},
			message: "Este evento não aceita submissões de trabalhos!",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, event := newSubmissionService(t)
			ctx := context.Background()
			author := createUser(t, svc.db, "ana", models.RoleParticipant)
			draft := submit(t, svc, event, author, models.SubmissionDraft)
			tt.prepare(t, svc, event, author)

			_, err := svc.UpdateSubmission(ctx, draft.ID, SubmissionUpdate{Status: strPtr(models.SubmissionSubmitted)})
			require.Error(t, err)
			assert.True(t, IsKind(err, KindConflict))
			assert.Equal(t, tt.message, err.Error())

			got, err := svc.GetSubmissionByID(ctx, draft.ID)
			require.NoError(t, err)
			assert.Equal(t, models.SubmissionDraft, got.Status)

			var active int64
			svc.db.Model(&models.Submission{}).
				Where("event_id = ? AND user_id = ? AND status <> ?", event.ID, author.ID, models.SubmissionDraft).
				Count(&active)
			assert.LessOrEqual(t, active, int64(1))
		})
	}
}

func TestRevisionCannotReturnToDraft(t *testing.T) {
	svc, event := newSubmissionService(t)
	ctx := context.Background()
	author := createUser(t, svc.db, "ana", models.RoleParticipant)
	reviewer := createUser(t, svc.db, "rev", models.RoleReviewer)
	sub := underReview(t, svc, event, author)

	_, err := svc.CreateReview(ctx, ReviewInput{SubmissionID: sub.ID, ReviewerID: reviewer.ID, Status: models.ReviewRevision})
	require.NoError(t, err)

	_, err = svc.UpdateSubmission(ctx, sub.ID, SubmissionUpdate{Status: strPtr(models.SubmissionDraft)})
	assert.True(t, IsKind(err, KindConflict))
}

func TestResubmissionOpensNewReviewRound(t *testing.T) {
	tests := []struct {
		name         string
		sameReviewer bool
	}{
		{"original reviewer approves", true},
		{"new reviewer approves", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, event := newSubmissionService(t)
			ctx := context.Background()
			author := createUser(t, svc.db, "ana", models.RoleParticipant)
			first := createUser(t, svc.db, "rev1", models.RoleReviewer)
			sub := underReview(t, svc, event, author)

			_, err := svc.CreateReview(ctx, ReviewInput{SubmissionID: sub.ID, ReviewerID: first.ID, Status: models.ReviewRevision})
			require.NoError(t, err)

			// Revisions are accepted after the submission window.
			require.NoError(t, svc.db.Model(event).Update("submission_end", fixedNow.Add(-time.Hour)).Error)
			resubmitted, err := svc.UpdateSubmission(ctx, sub.ID, SubmissionUpdate{
				Abstract: strPtr("Versão revisada."),
				Status:   strPtr(models.SubmissionSubmitted),
			})
			require.NoError(t, err)
			assert.Equal(t, models.SubmissionSubmitted, resubmitted.Status)
			assert.Equal(t, 2, resubmitted.ReviewRound)

			_, err = svc.SendToReview(ctx, sub.ID)
			require.NoError(t, err)

			approver := first
			if !tt.sameReviewer {
				approver = createUser(t, svc.db, "rev2", models.RoleReviewer)
			}
			review, err := svc.CreateReview(ctx, ReviewInput{SubmissionID: sub.ID, ReviewerID: approver.ID, Status: models.ReviewApproved})
			require.NoError(t, err)
			assert.Equal(t, 2, review.Round)

			got, err := svc.GetSubmissionByID(ctx, sub.ID)
			require.NoError(t, err)
			assert.Equal(t, models.SubmissionApproved, got.Status)
			assert.Len(t, got.Reviews, 2)
		})
	}
}

func TestSingleApprovalApprovesAndSecondReviewRejected(t *testing.T) {
	svc, event := newSubmissionService(t)
	ctx := context.Background()
	author := createUser(t, svc.db, "ana", models.RoleParticipant)
	reviewer := createUser(t, svc.db, "rev", models.RoleReviewer)
	sub := underReview(t, svc, event, author)

	review, err := svc.CreateReview(ctx, ReviewInput{
		SubmissionID: sub.ID,
		ReviewerID:   reviewer.ID,
		Status:       models.ReviewApproved,
		Rating:       intPtr(5),
		Comments:     "Excelente.",
	})
	require.NoError(t, err)
	require.NotNil(t, review.Reviewer)
	assert.Equal(t, reviewer.ID, review.Reviewer.ID)

	got, err := svc.GetSubmissionByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionApproved, got.Status)

	_, err = svc.CreateReview(ctx, ReviewInput{SubmissionID: sub.ID, ReviewerID: reviewer.ID, Status: models.ReviewApproved})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))

	var n int64
	svc.db.Model(&models.Review{}).Where("submission_id = ?", sub.ID).Count(&n)
	assert.EqualValues(t, 1, n)
}

func TestReviewDecisions(t *testing.T) {
	tests := []struct {
		decision string
		want     string
	}{
		{models.ReviewRejected, models.SubmissionRejected},
		{models.ReviewRevision, models.SubmissionRevision},
	}
	for _, tt := range tests {
		t.Run(tt.decision, func(t *testing.T) {
			svc, event := newSubmissionService(t)
			author := createUser(t, svc.db, "ana", models.RoleParticipant)
			reviewer := createUser(t, svc.db, "rev", models.RoleReviewer)
			sub := underReview(t, svc, event, author)

			_, err := svc.CreateReview(context.Background(), ReviewInput{SubmissionID: sub.ID, ReviewerID: reviewer.ID, Status: tt.decision})
			require.NoError(t, err)

			got, err := svc.GetSubmissionByID(context.Background(), sub.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Status)
		})
	}
}

func TestRevisionMakesSubmissionEditableAgain(t *testing.T) {
	svc, event := newSubmissionService(t)
	ctx := context.Background()
	author := createUser(t, svc.db, "ana", models.RoleParticipant)
	reviewer := createUser(t, svc.db, "rev", models.RoleReviewer)
	sub := underReview(t, svc, event, author)

	_, err := svc.CreateReview(ctx, ReviewInput{SubmissionID: sub.ID, ReviewerID: reviewer.ID, Status: models.ReviewRevision})
	require.NoError(t, err)

	_, err = svc.UpdateSubmission(ctx, sub.ID, SubmissionUpdate{Abstract: strPtr("Revisado.")})
	assert.NoError(t, err)
}

func TestReviewGuards(t *testing.T) {
	svc, event := newSubmissionService(t)
	ctx := context.Background()
	author := createUser(t, svc.db, "ana", models.RoleReviewer)

	sub := submit(t, svc, event, author, "")
	_, err := svc.CreateReview(ctx, ReviewInput{SubmissionID: sub.ID, ReviewerID: "someone", Status: models.ReviewApproved})
	assert.True(t, IsKind(err, KindConflict), "not under review yet")

	_, err = svc.SendToReview(ctx, sub.ID)
	require.NoError(t, err)
	_, err = svc.CreateReview(ctx, ReviewInput{SubmissionID: sub.ID, ReviewerID: author.ID, Status: models.ReviewApproved})
	assert.True(t, IsKind(err, KindForbidden), "author reviewing own paper")

	_, err = svc.CreateReview(ctx, ReviewInput{SubmissionID: sub.ID, ReviewerID: author.ID, Status: models.ReviewPending})
	assert.True(t, IsKind(err, KindValidation))

	_, err = svc.SendToReview(ctx, sub.ID)
	assert.True(t, IsKind(err, KindConflict))
}

func TestMixedReviewsWaitForConsensus(t *testing.T) {
	svc, event := newSubmissionService(t)
	ctx := context.Background()
	author := createUser(t, svc.db, "ana", models.RoleParticipant)
	sub := underReview(t, svc, event, author)

	// A pending review left by someone else keeps a later approval from deciding.
	require.NoError(t, svc.db.Create(&models.Review{
		SubmissionID: sub.ID,
		ReviewerID:   createUser(t, svc.db, "rev1", models.RoleReviewer).ID,
		Status:       models.ReviewPending,
		Round:        1,
		ReviewedAt:   fixedNow,
	}).Error)

	_, err := svc.CreateReview(ctx, ReviewInput{
		SubmissionID: sub.ID,
		ReviewerID:   createUser(t, svc.db, "rev2", models.RoleReviewer).ID,
		Status:       models.ReviewApproved,
	})
	require.NoError(t, err)

	got, err := svc.GetSubmissionByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionUnderReview, got.Status)
}

func TestSubmissionPermissions(t *testing.T) {
	svc, event := newSubmissionService(t)
	ctx := context.Background()
	author := createUser(t, svc.db, "ana", models.RoleReviewer)
	reviewer := createUser(t, svc.db, "rev", models.RoleReviewer)
	participant := createUser(t, svc.db, "pia", models.RoleParticipant)
	sub := submit(t, svc, event, author, "")

	ok, err := svc.CanUserReviewSubmission(ctx, reviewer.ID, sub.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = svc.CanUserReviewSubmission(ctx, author.ID, sub.ID)
	assert.False(t, ok)
	ok, _ = svc.CanUserReviewSubmission(ctx, participant.ID, sub.ID)
	assert.False(t, ok)

	ok, _ = svc.CanUserManageSubmission(ctx, author.ID, sub.ID)
	assert.True(t, ok)
	ok, _ = svc.CanUserManageSubmission(ctx, participant.ID, sub.ID)
	assert.False(t, ok)
}

func TestReviewerQueueAndStats(t *testing.T) {
	svc, event := newSubmissionService(t)
	ctx := context.Background()
	reviewer := createUser(t, svc.db, "rev", models.RoleReviewer)

	underReview(t, svc, event, createUser(t, svc.db, "ana", models.RoleParticipant))
	submit(t, svc, event, createUser(t, svc.db, "bia", models.RoleParticipant), "")
	submit(t, svc, event, createUser(t, svc.db, "caio", models.RoleParticipant), models.SubmissionDraft)

	queue, err := svc.GetReviewerSubmissions(ctx, reviewer.ID, 1, 10)
	require.NoError(t, err)
	assert.Len(t, queue.Submissions, 1)

	stats, err := svc.GetEventSubmissionStats(ctx, event.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Total)
	assert.EqualValues(t, 1, stats.ByStatus.UnderReview)
	assert.EqualValues(t, 1, stats.ByStatus.Submitted)
	assert.EqualValues(t, 1, stats.ByStatus.Draft)

	list, err := svc.ListSubmissions(ctx, SubmissionFilters{EventID: event.ID, Search: "ECOCR"}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, list.Pagination.Total)
}
