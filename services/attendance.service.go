package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"log"
	"strings"
	"time"

	"ninma/models"

	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"
)

const (
	QRCodeType    = "ATTENDANCE_CHECKIN"
	QRCodeMaxAge  = 24 * time.Hour
	qrCodeSize    = 300
	csvEmpty      = "-"
	csvTimeLayout = "02/01/2006 15:04:05"
	csvPresent    = "Presente"
	csvAbsent     = "Ausente"
)

var qrForeground = color.RGBA{R: 0x8b, G: 0x7d, B: 0xb8, A: 0xff}

var csvHeader = []string{"Nome", "Email", "Instituição", "Curso", "Status", "Check-in", "Check-out", "Método", "Localização"}

type AttendanceService struct {
	db       *gorm.DB
	qrSecret []byte
	now      func() time.Time
}

// NewAttendanceService builds the service. When qrSecret is non-empty, QR
// payloads carry an HMAC-SHA256 signature and unsigned payloads are refused.
func NewAttendanceService(db *gorm.DB, qrSecret string) *AttendanceService {
	return &AttendanceService{db: db, qrSecret: []byte(qrSecret), now: time.Now}
}

type CheckinInput struct {
	RegistrationID string
	Method         string
	Location       string
	IPAddress      string
	UserAgent      string
	Notes          string
	RecordedByID   *string
}

type AttendanceFilters struct {
	Method    string
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
}

type AttendanceStats struct {
	Total      int64            `json:"total"`
	Present    int64            `json:"present"`
	Absent     int64            `json:"absent"`
	Percentage int              `json:"percentage"`
	ByMethod   map[string]int64 `json:"byMethod"`
}

// QRCodeData is the JSON document encoded in a check-in QR code.
type QRCodeData struct {
	Type           string `json:"type"`
	RegistrationID string `json:"registrationId"`
	EventID        string `json:"eventId"`
	Timestamp      int64  `json:"timestamp"` // unix millis
	Signature      string `json:"signature,omitempty"`
}

type QRValidation struct {
	Valid          bool   `json:"valid"`
	RegistrationID string `json:"registrationId,omitempty"`
	EventID        string `json:"eventId,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Checkin records the attendance and promotes the registration to ATTENDED.
func (s *AttendanceService) Checkin(ctx context.Context, in CheckinInput) (*models.Attendance, error) {
	method := in.Method
	if method == "" {
		method = models.MethodManual
	}
	if !models.IsValidAttendanceMethod(method) {
		return nil, validation("Método de presença inválido!")
	}

	var attendance models.Attendance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var registration models.Registration
		if err := tx.Preload("Attendance").First(&registration, "id = ?", in.RegistrationID).Error; err != nil {
			if isNotFound(err) {
				return notFound("Inscrição não encontrada!")
			}
			return err
		}
		if registration.Attendance != nil {
			return conflict("Check-in já realizado para esta inscrição!")
		}
		if registration.Status != models.RegistrationConfirmed {
			return conflict("Apenas inscrições confirmadas podem fazer check-in!")
		}

		attendance = models.Attendance{
			RegistrationID: registration.ID,
			CheckinAt:      s.now(),
			Method:         method,
			Location:       in.Location,
			IPAddress:      in.IPAddress,
			UserAgent:      in.UserAgent,
			Notes:          in.Notes,
			RecordedByID:   in.RecordedByID,
		}
		if err := tx.Omit("Registration").Create(&attendance).Error; err != nil {
			if isDuplicate(err) {
				return conflict("Check-in já realizado para esta inscrição!")
			}
			return err
		}
		return tx.Model(&models.Registration{}).
			Where("id = ?", registration.ID).
			Update("status", models.RegistrationAttended).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetAttendanceByRegistrationID(ctx, attendance.RegistrationID)
}

// Checkout stamps the check-out time once.
func (s *AttendanceService) Checkout(ctx context.Context, registrationID, notes string) (*models.Attendance, error) {
	db := s.db.WithContext(ctx)

	var attendance models.Attendance
	if err := db.First(&attendance, "registration_id = ?", registrationID).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("Check-in não encontrado!")
		}
		return nil, err
	}
	if attendance.CheckoutAt != nil {
		return nil, conflict("Check-out já realizado!")
	}

	updates := map[string]interface{}{"checkout_at": s.now()}
	if notes != "" {
		updates["notes"] = notes
	}
	res := db.Model(&models.Attendance{}).
		Where("id = ? AND checkout_at IS NULL", attendance.ID).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, conflict("Check-out já realizado!")
	}
	return s.GetAttendanceByRegistrationID(ctx, registrationID)
}

// CheckinWithQRCode validates a scanned payload and checks the registration in.
// eventID, when given, must match the event encoded in the payload.
func (s *AttendanceService) CheckinWithQRCode(ctx context.Context, qrData, eventID string, in CheckinInput) (*models.Attendance, error) {
	result := s.ValidateQRCodeData(qrData)
	if !result.Valid {
		return nil, validation(result.Error)
	}
	if eventID != "" && eventID != result.EventID {
		return nil, validation("QR Code pertence a outro evento!")
	}

	var registration models.Registration
	if err := s.db.WithContext(ctx).Select("id", "event_id").First(&registration, "id = ?", result.RegistrationID).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("Inscrição não encontrada!")
		}
		return nil, err
	}
	if registration.EventID != result.EventID {
		return nil, validation("QR Code não corresponde à inscrição!")
	}

	in.RegistrationID = result.RegistrationID
	in.Method = models.MethodQRCode
	return s.Checkin(ctx, in)
}

// BulkCheckin checks each registration independently.
func (s *AttendanceService) BulkCheckin(ctx context.Context, registrationIDs []string, method string, recordedByID *string) *BulkResult[string] {
	result := newBulkResult[string]()
	for _, id := range registrationIDs {
		if _, err := s.Checkin(ctx, CheckinInput{RegistrationID: id, Method: method, RecordedByID: recordedByID}); err != nil {
			if !errors.As(err, new(*Error)) {
				log.Printf("[ATTENDANCE] Bulk check-in of %s failed: %v", id, err)
			}
			result.fail(id, publicError(err))
			continue
		}
		result.Success = append(result.Success, id)
	}
	return result
}

// DeleteAttendance undoes a check-in: the attendance row goes and the
// registration returns to CONFIRMED.
func (s *AttendanceService) DeleteAttendance(ctx context.Context, registrationID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var attendance models.Attendance
		if err := tx.First(&attendance, "registration_id = ?", registrationID).Error; err != nil {
			if isNotFound(err) {
				return notFound("Presença não encontrada!")
			}
			return err
		}
		if err := tx.Delete(&attendance).Error; err != nil {
			return err
		}
		return tx.Model(&models.Registration{}).
			Where("id = ?", registrationID).
			Update("status", models.RegistrationConfirmed).Error
	})
}

func (s *AttendanceService) GetAttendanceByRegistrationID(ctx context.Context, registrationID string) (*models.Attendance, error) {
	var attendance models.Attendance
	if err := s.db.WithContext(ctx).
		Preload("Registration.User").
		Preload("Registration.Event").
		First(&attendance, "registration_id = ?", registrationID).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("Presença não encontrada!")
		}
		return nil, err
	}
	return &attendance, nil
}

func (s *AttendanceService) ListEventAttendances(ctx context.Context, eventID string, f AttendanceFilters) ([]models.Attendance, error) {
	q := s.db.WithContext(ctx).
		Joins("JOIN registrations ON registrations.id = attendances.registration_id").
		Where("registrations.event_id = ?", eventID)
	if f.Method != "" {
		q = q.Where("attendances.method = ?", f.Method)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Joins("JOIN users ON users.id = registrations.user_id").
			Where("LOWER(users.name) LIKE ? OR LOWER(users.email) LIKE ?", like, like)
	}
	if f.StartDate != nil {
		q = q.Where("attendances.checkin_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("attendances.checkin_at <= ?", *f.EndDate)
	}

	attendances := []models.Attendance{}
	err := q.Preload("Registration.User").
		Order("attendances.checkin_at DESC").
		Find(&attendances).Error
	return attendances, err
}

// GetEventAttendanceStats counts CONFIRMED and ATTENDED registrations as the
// expected audience; present is the number of attendance rows.
func (s *AttendanceService) GetEventAttendanceStats(ctx context.Context, eventID string) (*AttendanceStats, error) {
	db := s.db.WithContext(ctx)

	stats := &AttendanceStats{ByMethod: map[string]int64{
		models.MethodQRCode:    0,
		models.MethodManual:    0,
		models.MethodAutomatic: 0,
	}}
	if err := db.Model(&models.Registration{}).
		Where("event_id = ? AND status IN ?", eventID, []string{models.RegistrationConfirmed, models.RegistrationAttended}).
		Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		Method string
		Total  int64
	}
	if err := db.Model(&models.Attendance{}).
		Select("attendances.method, COUNT(*) AS total").
		Joins("JOIN registrations ON registrations.id = attendances.registration_id").
		Where("registrations.event_id = ?", eventID).
		Group("attendances.method").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.ByMethod[r.Method] = r.Total
		stats.Present += r.Total
	}

	stats.Absent = stats.Total - stats.Present
	if stats.Absent < 0 {
		stats.Absent = 0
	}
	if stats.Total > 0 {
		stats.Percentage = int(float64(stats.Present)/float64(stats.Total)*100 + 0.5)
	}
	return stats, nil
}

// GetEventRegistrationsWithAttendance lists the expected audience with their
// attendance, oldest registration first.
func (s *AttendanceService) GetEventRegistrationsWithAttendance(ctx context.Context, eventID, search string) ([]models.Registration, error) {
	q := s.db.WithContext(ctx).
		Where("registrations.event_id = ? AND registrations.status IN ?", eventID,
			[]string{models.RegistrationConfirmed, models.RegistrationAttended})
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Joins("JOIN users ON users.id = registrations.user_id").
			Where("LOWER(users.name) LIKE ? OR LOWER(users.email) LIKE ?", like, like)
	}

	registrations := []models.Registration{}
	err := q.Preload("User").
		Preload("Attendance").
		Order("registrations.registered_at ASC").
		Find(&registrations).Error
	return registrations, err
}

// ExportAttendanceToCSV renders the audience as CSV with every cell quoted.
func (s *AttendanceService) ExportAttendanceToCSV(ctx context.Context, eventID string) (string, error) {
	registrations, err := s.GetEventRegistrationsWithAttendance(ctx, eventID, "")
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	writeCSVRow(&sb, csvHeader)
	for _, reg := range registrations {
		var user models.User
		if reg.User != nil {
			user = *reg.User
		}
		row := []string{
			user.Name,
			user.Email,
			orDash(user.Institution),
			orDash(user.Course),
			csvAbsent,
			csvEmpty,
			csvEmpty,
			csvEmpty,
			csvEmpty,
		}
		if a := reg.Attendance; a != nil {
			row[4] = csvPresent
			row[5] = a.CheckinAt.Local().Format(csvTimeLayout)
			if a.CheckoutAt != nil {
				row[6] = a.CheckoutAt.Local().Format(csvTimeLayout)
			}
			row[7] = orDash(a.Method)
			row[8] = orDash(a.Location)
		}
		writeCSVRow(&sb, row)
	}
	return sb.String(), nil
}

// CanUserManageAttendances: ADMIN, COORDINATOR or the event creator.
func (s *AttendanceService) CanUserManageAttendances(ctx context.Context, userID, eventID string) (bool, error) {
	return canManageEvent(s.db.WithContext(ctx), userID, eventID)
}

// GenerateQRCodeData serializes a check-in payload stamped with the current time.
func (s *AttendanceService) GenerateQRCodeData(registrationID, eventID string) (string, error) {
	data := QRCodeData{
		Type:           QRCodeType,
		RegistrationID: registrationID,
		EventID:        eventID,
		Timestamp:      s.now().UnixMilli(),
	}
	if len(s.qrSecret) > 0 {
		data.Signature = s.sign(data)
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// GenerateQRCodePNG renders the payload as a PNG data URL.
func (s *AttendanceService) GenerateQRCodePNG(payload string) (string, error) {
	qr, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return "", err
	}
	qr.ForegroundColor = qrForeground
	png, err := qr.PNG(qrCodeSize)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// ValidateQRCodeData accepts payloads of the right type with both IDs that
// are at most QRCodeMaxAge old and, when signing is on, correctly signed.
func (s *AttendanceService) ValidateQRCodeData(raw string) QRValidation {
	var data QRCodeData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return QRValidation{Error: "QR Code inválido"}
	}
	if data.Type != QRCodeType {
		return QRValidation{Error: "QR Code inválido"}
	}
	if data.RegistrationID == "" || data.EventID == "" {
		return QRValidation{Error: "Dados incompletos no QR Code"}
	}
	age := s.now().UnixMilli() - data.Timestamp
	if age > QRCodeMaxAge.Milliseconds() {
		return QRValidation{Error: "QR Code expirado"}
	}
	if len(s.qrSecret) > 0 {
		want := s.sign(data)
		if !hmac.Equal([]byte(want), []byte(data.Signature)) {
			return QRValidation{Error: "Assinatura do QR Code inválida"}
		}
	}
	return QRValidation{Valid: true, RegistrationID: data.RegistrationID, EventID: data.EventID}
}

func (s *AttendanceService) sign(data QRCodeData) string {
	mac := hmac.New(sha256.New, s.qrSecret)
	fmt.Fprintf(mac, "%s|%s|%s|%d", data.Type, data.RegistrationID, data.EventID, data.Timestamp)
	return hex.EncodeToString(mac.Sum(nil))
}

func writeCSVRow(sb *strings.Builder, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(strings.ReplaceAll(cell, `"`, `""`))
		sb.WriteByte('"')
	}
	sb.WriteByte('\n')
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return csvEmpty
	}
	return v
}

// publicError keeps service messages and hides everything else.
func publicError(err error) error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return errors.New("unexpected error")
}
