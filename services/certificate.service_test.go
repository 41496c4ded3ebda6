package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"ninma/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var verificationCodePattern = regexp.MustCompile(`^NINMA-20260310-[A-Z0-9]{5}$`)

func newCertificateService(t *testing.T) (*CertificateService, *models.Event) {
	t.Helper()
	db := newTestDB(t)
	svc := NewCertificateService(db)
	svc.now = clock
	owner := createUser(t, db, "coord", models.RoleCoordinator)
	return svc, openEvent(t, db, owner, nil)
}

func TestGenerateCertificate(t *testing.T) {
	svc, event := newCertificateService(t)
	ctx := context.Background()
	reg := createRegistration(t, svc.db, event, createUser(t, svc.db, "ana", models.RoleParticipant), models.RegistrationAttended)

	cert, err := svc.GenerateCertificate(ctx, CertificateInput{RegistrationID: reg.ID})
	require.NoError(t, err)
	assert.Regexp(t, verificationCodePattern, cert.VerificationCode)
	assert.Equal(t, event.ID, cert.EventID)
	assert.Equal(t, reg.UserID, cert.UserID)
	assert.Equal(t, 8, cert.Workload)
	assert.Equal(t, models.DefaultCertificateRole, cert.Role)
	require.NotNil(t, cert.ValidUntil)
	assert.True(t, cert.ValidUntil.Equal(fixedNow.AddDate(5, 0, 0)))
	require.NotNil(t, cert.Event)
	require.NotNil(t, cert.Event.CreatedBy)
	assert.Equal(t, "coord", cert.Event.CreatedBy.Name)

	_, err = svc.GenerateCertificate(ctx, CertificateInput{RegistrationID: reg.ID, Workload: intPtr(20)})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))
	assert.Equal(t, "Certificado já existe para esta inscrição!", err.Error())

	var n int64
	svc.db.Model(&models.Certificate{}).Where("registration_id = ?", reg.ID).Count(&n)
	assert.EqualValues(t, 1, n)
}

func TestGenerateCertificateOverrides(t *testing.T) {
	svc, event := newCertificateService(t)
	reg := createRegistration(t, svc.db, event, createUser(t, svc.db, "ana", models.RoleParticipant), models.RegistrationConfirmed)

	cert, err := svc.GenerateCertificate(context.Background(), CertificateInput{RegistrationID: reg.ID, Workload: intPtr(20), Role: "Palestrante"})
	require.NoError(t, err)
	assert.Equal(t, 20, cert.Workload)
	assert.Equal(t, "Palestrante", cert.Role)
}

func TestGenerateCertificateRefusals(t *testing.T) {
	svc, event := newCertificateService(t)
	ctx := context.Background()

	pending := createRegistration(t, svc.db, event, createUser(t, svc.db, "ana", models.RoleParticipant), models.RegistrationPending)
	_, err := svc.GenerateCertificate(ctx, CertificateInput{RegistrationID: pending.ID})
	assert.True(t, IsKind(err, KindConflict))

	_, err = svc.GenerateCertificate(ctx, CertificateInput{RegistrationID: "missing"})
	assert.True(t, IsKind(err, KindNotFound))

	require.NoError(t, svc.db.Model(event).Update("issue_certificates", false).Error)
	ok := createRegistration(t, svc.db, event, createUser(t, svc.db, "bia", models.RoleParticipant), models.RegistrationConfirmed)
	_, err = svc.GenerateCertificate(ctx, CertificateInput{RegistrationID: ok.ID})
	require.Error(t, err)
	assert.Equal(t, "Este evento não emite certificados!", err.Error())
}

func TestVerifyCertificate(t *testing.T) {
	svc, event := newCertificateService(t)
	ctx := context.Background()
	reg := createRegistration(t, svc.db, event, createUser(t, svc.db, "ana", models.RoleParticipant), models.RegistrationAttended)
	cert, err := svc.GenerateCertificate(ctx, CertificateInput{RegistrationID: reg.ID})
	require.NoError(t, err)

	got, err := svc.VerifyCertificate(ctx, cert.VerificationCode)
	require.NoError(t, err)
	assert.True(t, got.Valid)
	require.NotNil(t, got.Certificate)
	assert.Equal(t, "ana", got.Certificate.User.Name)

	got, err = svc.VerifyCertificate(ctx, "NINMA-00000000-XXXXX")
	require.NoError(t, err)
	assert.False(t, got.Valid)
	assert.Equal(t, "Certificado não encontrado", got.Reason)

	svc.now = func() time.Time { return fixedNow.AddDate(6, 0, 0) }
	got, err = svc.VerifyCertificate(ctx, cert.VerificationCode)
	require.NoError(t, err)
	assert.False(t, got.Valid)
	assert.Equal(t, "Certificado expirado", got.Reason)

	require.NoError(t, svc.db.Model(&models.Certificate{}).Where("id = ?", cert.ID).Update("valid_until", nil).Error)
	got, err = svc.VerifyCertificate(ctx, cert.VerificationCode)
	require.NoError(t, err)
	assert.True(t, got.Valid, "no expiry date means valid forever")
}

func TestGenerateEventCertificates(t *testing.T) {
	svc, event := newCertificateService(t)
	ctx := context.Background()

	issued := createRegistration(t, svc.db, event, createUser(t, svc.db, "ana", models.RoleParticipant), models.RegistrationAttended)
	_, err := svc.GenerateCertificate(ctx, CertificateInput{RegistrationID: issued.ID})
	require.NoError(t, err)

	createRegistration(t, svc.db, event, createUser(t, svc.db, "bia", models.RoleParticipant), models.RegistrationConfirmed)
	createRegistration(t, svc.db, event, createUser(t, svc.db, "caio", models.RoleParticipant), models.RegistrationAttended)
	createRegistration(t, svc.db, event, createUser(t, svc.db, "dora", models.RoleParticipant), models.RegistrationCancelled)

	result, err := svc.GenerateEventCertificates(ctx, event.ID, "")
	require.NoError(t, err)
	assert.Len(t, result.Success, 2)
	assert.Empty(t, result.Failed)

	again, err := svc.GenerateEventCertificates(ctx, event.ID, "")
	require.NoError(t, err)
	assert.Empty(t, again.Success)

	_, err = svc.GenerateEventCertificates(ctx, "missing", "")
	assert.True(t, IsKind(err, KindNotFound))
}

func TestCertificateStats(t *testing.T) {
	svc, event := newCertificateService(t)
	ctx := context.Background()

	for i, role := range []string{"", "Palestrante", ""} {
		reg := createRegistration(t, svc.db, event, createUser(t, svc.db, string(rune('a'+i)), models.RoleParticipant), models.RegistrationAttended)
		_, err := svc.GenerateCertificate(ctx, CertificateInput{RegistrationID: reg.ID, Role: role})
		require.NoError(t, err)
	}
	// Issued last year: counts in the total only.
	old := createRegistration(t, svc.db, event, createUser(t, svc.db, "old", models.RoleParticipant), models.RegistrationAttended)
	svc.now = func() time.Time { return fixedNow.AddDate(-1, 0, 0) }
	_, err := svc.GenerateCertificate(ctx, CertificateInput{RegistrationID: old.ID})
	require.NoError(t, err)
	svc.now = clock

	stats, err := svc.GetCertificateStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.Total)
	assert.EqualValues(t, 3, stats.ThisMonth)
	assert.EqualValues(t, 3, stats.ThisYear)
	assert.Equal(t, []RoleCount{{Role: "Palestrante", Count: 1}, {Role: "Participante", Count: 3}}, stats.ByRole)

	eventStats, err := svc.GetEventCertificateStats(ctx, event.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 4, eventStats.Total)
	assert.Len(t, eventStats.ByRole, 2)

	list, err := svc.ListCertificates(ctx, CertificateFilters{Role: "Palestrante"}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Pagination.Total)
}

func TestCanUserManageCertificates(t *testing.T) {
	svc, _ := newCertificateService(t)
	ctx := context.Background()

	for role, want := range map[string]bool{
		models.RoleAdmin:       true,
		models.RoleCoordinator: true,
		models.RoleReviewer:    false,
		models.RoleParticipant: false,
	} {
		user := createUser(t, svc.db, "u"+role, role)
		got, err := svc.CanUserManageCertificates(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got, role)
	}
}

func TestDeleteCertificate(t *testing.T) {
	svc, event := newCertificateService(t)
	ctx := context.Background()
	reg := createRegistration(t, svc.db, event, createUser(t, svc.db, "ana", models.RoleParticipant), models.RegistrationAttended)
	cert, err := svc.GenerateCertificate(ctx, CertificateInput{RegistrationID: reg.ID})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateCertificatePdfURL(ctx, cert.ID, "/certificates/x.pdf"))
	require.NoError(t, svc.DeleteCertificate(ctx, cert.ID))
	assert.True(t, IsKind(svc.DeleteCertificate(ctx, cert.ID), KindNotFound))
	assert.True(t, IsKind(svc.UpdateCertificatePdfURL(ctx, cert.ID, "x"), KindNotFound))
}
