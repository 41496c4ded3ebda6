package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"ninma/models"
	"ninma/utils"

	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

const (
	verificationCodePrefix = "NINMA"
	verificationCodeLength = 5
	verificationAttempts   = 5
	certificateValidYears  = 5
)

type CertificateService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCertificateService(db *gorm.DB) *CertificateService {
	return &CertificateService{db: db, now: time.Now}
}

// CertificateInput issues a certificate for one registration. A nil Workload
// takes the event's workload; an empty Role becomes "Participante".
type CertificateInput struct {
	RegistrationID string
	Workload       *int
	Role           string
}

type CertificateFilters struct {
	EventID   string
	UserID    string
	Role      string
	StartDate *time.Time
	EndDate   *time.Time
}

type CertificateList struct {
	Certificates []models.Certificate `json:"certificates"`
	Pagination   Pagination           `json:"pagination"`
}

type Verification struct {
	Valid       bool                `json:"valid"`
	Reason      string              `json:"reason,omitempty"`
	Certificate *models.Certificate `json:"certificate,omitempty"`
}

type RoleCount struct {
	Role  string `json:"role"`
	Count int64  `json:"count"`
}

type EventCertificateStats struct {
	Total  int64       `json:"total"`
	ByRole []RoleCount `json:"byRole"`
}

type CertificateStats struct {
	Total     int64       `json:"total"`
	ThisMonth int64       `json:"thisMonth"`
	ThisYear  int64       `json:"thisYear"`
	ByRole    []RoleCount `json:"byRole"`
}

func (s *CertificateService) GenerateCertificate(ctx context.Context, in CertificateInput) (*models.Certificate, error) {
	db := s.db.WithContext(ctx)

	var existing int64
	if err := db.Model(&models.Certificate{}).Where("registration_id = ?", in.RegistrationID).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, conflict("Certificado já existe para esta inscrição!")
	}

	var registration models.Registration
	if err := db.Preload("Event").First(&registration, "id = ?", in.RegistrationID).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("Inscrição não encontrada!")
		}
		return nil, err
	}
	if registration.Status != models.RegistrationConfirmed && registration.Status != models.RegistrationAttended {
		return nil, conflict("Apenas inscrições confirmadas ou com presença podem receber certificado!")
	}
	if registration.Event == nil || !registration.Event.IssueCertificates {
		return nil, conflict("Este evento não emite certificados!")
	}

	workload := registration.Event.Workload
	if in.Workload != nil {
		workload = *in.Workload
	}
	role := in.Role
	if role == "" {
		role = models.DefaultCertificateRole
	}

	issuedAt := s.now()
	validUntil := issuedAt.AddDate(certificateValidYears, 0, 0)

	for attempt := 0; attempt < verificationAttempts; attempt++ {
		code, err := newVerificationCode(issuedAt)
		if err != nil {
			return nil, err
		}

		var taken int64
		if err := db.Model(&models.Certificate{}).Where("verification_code = ?", code).Count(&taken).Error; err != nil {
			return nil, err
		}
		if taken > 0 {
			continue
		}

		certificate := models.Certificate{
			RegistrationID:   registration.ID,
			EventID:          registration.EventID,
			UserID:           registration.UserID,
			VerificationCode: code,
			Workload:         workload,
			Role:             role,
			IssuedAt:         issuedAt,
			ValidUntil:       &validUntil,
		}
		err = db.Omit("Event", "User", "Registration").Create(&certificate).Error
		if err == nil {
			return s.GetCertificateByID(ctx, certificate.ID)
		}
		if !isDuplicate(err) {
			return nil, err
		}

		// Either the registration got a certificate meanwhile or the code collided.
		if err := db.Model(&models.Certificate{}).Where("registration_id = ?", in.RegistrationID).Count(&existing).Error; err != nil {
			return nil, err
		}
		if existing > 0 {
			return nil, conflict("Certificado já existe para esta inscrição!")
		}
	}
	return nil, errors.New("could not allocate a unique verification code")
}

// GenerateEventCertificates issues certificates for every CONFIRMED or
// ATTENDED registration of the event that has none yet.
func (s *CertificateService) GenerateEventCertificates(ctx context.Context, eventID, role string) (*BulkResult[models.Certificate], error) {
	db := s.db.WithContext(ctx)

	var event models.Event
	if err := db.First(&event, "id = ?", eventID).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("Evento não encontrado!")
		}
		return nil, err
	}
	if !event.IssueCertificates {
		return nil, conflict("Este evento não emite certificados!")
	}

	var registrations []models.Registration
	if err := db.Preload("User").
		Where("event_id = ? AND status IN ?", eventID, []string{models.RegistrationConfirmed, models.RegistrationAttended}).
		Where("id NOT IN (?)", db.Model(&models.Certificate{}).Select("registration_id").Where("event_id = ?", eventID)).
		Order("registered_at ASC").
		Find(&registrations).Error; err != nil {
		return nil, err
	}

	result := newBulkResult[models.Certificate]()
	for _, reg := range registrations {
		cert, err := s.GenerateCertificate(ctx, CertificateInput{RegistrationID: reg.ID, Role: role})
		if err != nil {
			if !errors.As(err, new(*Error)) {
				log.Printf("[CERTIFICATE] Generation for registration %s failed: %v", reg.ID, err)
			}
			result.fail(reg.ID, publicError(err))
			continue
		}
		result.Success = append(result.Success, *cert)
	}
	return result, nil
}

func (s *CertificateService) GetCertificateByID(ctx context.Context, id string) (*models.Certificate, error) {
	var certificate models.Certificate
	if err := s.db.WithContext(ctx).
		Preload("Event.CreatedBy").
		Preload("User").
		Preload("Registration").
		First(&certificate, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("Certificado não encontrado!")
		}
		return nil, err
	}
	return &certificate, nil
}

func (s *CertificateService) GetCertificateByCode(ctx context.Context, code string) (*models.Certificate, error) {
	var certificate models.Certificate
	if err := s.db.WithContext(ctx).
		Preload("Event").
		Preload("User").
		First(&certificate, "verification_code = ?", code).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("Certificado não encontrado!")
		}
		return nil, err
	}
	return &certificate, nil
}

func (s *CertificateService) ListCertificates(ctx context.Context, f CertificateFilters, page, limit int) (*CertificateList, error) {
	page, limit = normalizePage(page, limit)

	q := s.db.WithContext(ctx).Model(&models.Certificate{})
	if f.EventID != "" {
		q = q.Where("event_id = ?", f.EventID)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.StartDate != nil {
		q = q.Where("issued_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("issued_at <= ?", *f.EndDate)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	certificates := []models.Certificate{}
	if err := q.Preload("Event").
		Preload("User").
		Order("issued_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&certificates).Error; err != nil {
		return nil, err
	}
	return &CertificateList{Certificates: certificates, Pagination: newPagination(page, limit, total)}, nil
}

// VerifyCertificate looks a code up. A certificate without ValidUntil never expires.
func (s *CertificateService) VerifyCertificate(ctx context.Context, code string) (*Verification, error) {
	certificate, err := s.GetCertificateByCode(ctx, code)
	if err != nil {
		if IsKind(err, KindNotFound) {
			return &Verification{Reason: "Certificado não encontrado"}, nil
		}
		return nil, err
	}
	if certificate.IsExpired(s.now()) {
		return &Verification{Reason: "Certificado expirado", Certificate: certificate}, nil
	}
	return &Verification{Valid: true, Certificate: certificate}, nil
}

func (s *CertificateService) DeleteCertificate(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Certificate{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("Certificado não encontrado!")
	}
	return nil
}

func (s *CertificateService) UpdateCertificatePdfURL(ctx context.Context, id, pdfURL string) error {
	res := s.db.WithContext(ctx).Model(&models.Certificate{}).Where("id = ?", id).Update("pdf_url", pdfURL)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("Certificado não encontrado!")
	}
	return nil
}

// CanUserManageCertificates is true for ADMIN and COORDINATOR.
func (s *CertificateService) CanUserManageCertificates(ctx context.Context, userID string) (bool, error) {
	role, err := userRole(s.db.WithContext(ctx), userID)
	if err != nil {
		return false, err
	}
	return role == models.RoleAdmin || role == models.RoleCoordinator, nil
}

func (s *CertificateService) GetEventCertificateStats(ctx context.Context, eventID string) (*EventCertificateStats, error) {
	db := s.db.WithContext(ctx)

	stats := &EventCertificateStats{}
	if err := db.Model(&models.Certificate{}).Where("event_id = ?", eventID).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	byRole, err := certificatesByRole(db.Where("event_id = ?", eventID))
	if err != nil {
		return nil, err
	}
	stats.ByRole = byRole
	return stats, nil
}

func (s *CertificateService) GetCertificateStats(ctx context.Context) (*CertificateStats, error) {
	db := s.db.WithContext(ctx)
	clock := now.With(s.now())

	stats := &CertificateStats{}
	if err := db.Model(&models.Certificate{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Certificate{}).Where("issued_at >= ?", clock.BeginningOfMonth()).Count(&stats.ThisMonth).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Certificate{}).Where("issued_at >= ?", clock.BeginningOfYear()).Count(&stats.ThisYear).Error; err != nil {
		return nil, err
	}
	byRole, err := certificatesByRole(db)
	if err != nil {
		return nil, err
	}
	stats.ByRole = byRole
	return stats, nil
}

func certificatesByRole(q *gorm.DB) ([]RoleCount, error) {
	var rows []RoleCount
	if err := q.Model(&models.Certificate{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Order("role").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].Role == "" {
			rows[i].Role = models.DefaultCertificateRole
		}
	}
	if rows == nil {
		rows = []RoleCount{}
	}
	return rows, nil
}

// newVerificationCode builds NINMA-YYYYMMDD-XXXXX from the UTC issue date.
func newVerificationCode(issuedAt time.Time) (string, error) {
	suffix, err := utils.RandomString(verificationCodeLength)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%s", verificationCodePrefix, issuedAt.UTC().Format("20060102"), suffix), nil
}
