package services

import (
	"bytes"
	"testing"
	"time"

	"ninma/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCertificate(t *testing.T) {
	svc := NewPDFService("https://ninma.example/")
	validUntil := fixedNow.AddDate(5, 0, 0)

	cert := &models.Certificate{
		VerificationCode: "NINMA-20260310-AB12C",
		Workload:         40,
		Role:             "Palestrante",
		IssuedAt:         fixedNow,
		ValidUntil:       &validUntil,
	}
	event := &models.Event{
		Title:     "Congresso Internacional de Educação Ambiental e Sustentabilidade nas Escolas Públicas Brasileiras",
		Type:      models.EventTypeCongress,
		StartDate: fixedNow,
		EndDate:   fixedNow.Add(48 * time.Hour),
		Location:  "São Luís, MA",
		CreatedBy: &models.User{Name: "Profª. Maria Núbia", Institution: "UFMA"},
	}
	user := &models.User{Name: "João Conceição", Institution: "Universidade Estadual"}

	out, err := svc.RenderCertificate(cert, event, user)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Greater(t, len(out), 1000)

	event.CreatedBy = nil
	event.Location = ""
	user.Institution = ""
	out, err = svc.RenderCertificate(cert, event, user)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = svc.RenderCertificate(cert, nil, user)
	assert.True(t, IsKind(err, KindValidation))
}

func TestPDFNaming(t *testing.T) {
	svc := NewPDFService("https://ninma.example/")
	cert := &models.Certificate{VerificationCode: "NINMA-20260310-AB12C"}

	assert.Equal(t, "https://ninma.example/api/certificates/verify/NINMA-20260310-AB12C", svc.VerificationURL(cert.VerificationCode))
	assert.Equal(t, "certificado-NINMA-20260310-AB12C.pdf", svc.FileName(cert))
}

func TestEventTypeLabel(t *testing.T) {
	assert.Equal(t, "Seminário", EventTypeLabel(models.EventTypeSeminar))
	assert.Equal(t, "Congresso", EventTypeLabel(models.EventTypeCongress))
	assert.Equal(t, "Evento", EventTypeLabel("UNKNOWN"))
}
