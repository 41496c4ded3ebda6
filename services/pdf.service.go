package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"ninma/models"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"
)

var eventTypeLabels = map[string]string{
	models.EventTypeConference: "Conferência",
	models.EventTypeWorkshop:   "Workshop",
	models.EventTypeSeminar:    "Seminário",
	models.EventTypeCourse:     "Curso",
	models.EventTypeWebinar:    "Webinar",
	models.EventTypeSymposium:  "Simpósio",
	models.EventTypeCongress:   "Congresso",
	models.EventTypeOther:      "Evento",
}

var roleTexts = map[string]string{
	"Participante": "participou do",
	"Palestrante":  "atuou como palestrante no",
	"Coordenador":  "atuou como coordenador do",
	"Organizador":  "atuou como organizador do",
	"Avaliador":    "atuou como avaliador no",
	"Autor":        "apresentou trabalho no",
}

type rgb struct{ r, g, b int }

var (
	brandPurple = rgb{124, 58, 237}
	brandOrange = rgb{251, 146, 60}
	textDark    = rgb{60, 60, 60}
	textMuted   = rgb{100, 100, 100}
)

// PDFService draws certificates on an A4 landscape page.
type PDFService struct {
	baseURL string
}

// NewPDFService takes the public base URL used in the verification link.
func NewPDFService(baseURL string) *PDFService {
	return &PDFService{baseURL: strings.TrimRight(baseURL, "/")}
}

// VerificationURL is the public page that validates code.
func (s *PDFService) VerificationURL(code string) string {
	return fmt.Sprintf("%s/api/certificates/verify/%s", s.baseURL, code)
}

// FileName is the download name of a rendered certificate.
func (s *PDFService) FileName(cert *models.Certificate) string {
	return fmt.Sprintf("certificado-%s.pdf", cert.VerificationCode)
}

func EventTypeLabel(eventType string) string {
	if label, ok := eventTypeLabels[eventType]; ok {
		return label
	}
	return eventTypeLabels[models.EventTypeOther]
}

// RenderCertificate returns the certificate as PDF bytes. The event's creator,
// when preloaded, signs as coordinator.
func (s *PDFService) RenderCertificate(cert *models.Certificate, event *models.Event, user *models.User) ([]byte, error) {
	if cert == nil || event == nil || user == nil {
		return nil, validation("Certificado, evento e usuário são obrigatórios para gerar o PDF!")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Certificado "+cert.VerificationCode, true)
	pdf.SetAuthor("ninma hub", true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	width, height := pdf.GetPageSize()
	centered := func(text string, y float64) {
		text = tr(text)
		pdf.Text((width-pdf.GetStringWidth(text))/2, y, text)
	}
	font := func(style string, size float64, c rgb) {
		pdf.SetFont("Helvetica", style, size)
		pdf.SetTextColor(c.r, c.g, c.b)
	}

	s.drawBorder(pdf, width, height)

	font("B", 18, brandPurple)
	centered("ninma hub", 25)
	font("", 10, textMuted)
	centered("Sistema de Gestão de Eventos Acadêmicos", 32)
	pdf.SetLineWidth(0.3)
	pdf.SetDrawColor(brandOrange.r, brandOrange.g, brandOrange.b)
	pdf.Line(width/2-80, 35, width/2+80, 35)

	font("B", 32, brandPurple)
	title := "CERTIFICADO"
	titleWidth := pdf.GetStringWidth(title)
	centered(title, 55)
	pdf.SetLineWidth(0.5)
	pdf.SetDrawColor(brandPurple.r, brandPurple.g, brandPurple.b)
	pdf.Line((width-titleWidth)/2, 57, (width+titleWidth)/2, 57)

	font("", 14, textDark)
	centered("Certificamos que", 70)

	font("B", 20, brandPurple)
	centered(user.Name, 82)

	y := 95.0
	if user.Institution != "" {
		font("I", 12, rgb{80, 80, 80})
		centered(user.Institution, 90)
		y = 100
	}

	roleText, ok := roleTexts[cert.Role]
	if !ok {
		roleText = roleTexts[models.DefaultCertificateRole]
	}
	font("", 14, textDark)
	centered(fmt.Sprintf("%s %s", roleText, EventTypeLabel(event.Type)), y)

	font("B", 16, brandOrange)
	lines := pdf.SplitText(tr(event.Title), width-80)
	y += 10
	for i, line := range lines {
		pdf.Text((width-pdf.GetStringWidth(line))/2, y+float64(i)*6, line)
	}

	font("", 12, textDark)
	y += float64(len(lines))*6 + 5
	centered(fmt.Sprintf("realizado no período de %s a %s", formatDate(event.StartDate), formatDate(event.EndDate)), y)
	if event.Location != "" {
		y += 6
		centered("em "+event.Location, y)
	}
	centered(fmt.Sprintf("com carga horária de %d horas", cert.Workload), y+6)

	if err := s.drawQRCode(pdf, cert.VerificationCode, height); err != nil {
		return nil, err
	}

	font("", 8, textMuted)
	pdf.Text(20, height-12, tr("Código de Verificação:"))
	pdf.SetFont("Helvetica", "B", 8)
	pdf.Text(20, height-8, cert.VerificationCode)
	pdf.SetFont("Helvetica", "", 8)
	issued := tr("Emitido em " + formatDate(cert.IssuedAt))
	pdf.Text(width-pdf.GetStringWidth(issued)-20, height-12, issued)

	signatureY := height - 35
	pdf.SetLineWidth(0.3)
	pdf.SetDrawColor(textMuted.r, textMuted.g, textMuted.b)
	pdf.Line(width-100, signatureY, width-20, signatureY)

	coordName, coordInst := "Coordenação do Evento", ""
	if event.CreatedBy != nil {
		coordName, coordInst = event.CreatedBy.Name, event.CreatedBy.Institution
	}
	font("B", 10, textMuted)
	coordName = tr(coordName)
	pdf.Text(width-60-pdf.GetStringWidth(coordName)/2, signatureY+5, coordName)
	if coordInst != "" {
		pdf.SetFont("Helvetica", "", 9)
		coordInst = tr(coordInst)
		pdf.Text(width-60-pdf.GetStringWidth(coordInst)/2, signatureY+10, coordInst)
	}

	font("I", 7, rgb{120, 120, 120})
	centered("Este certificado pode ser verificado em "+s.VerificationURL(cert.VerificationCode), height-4)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *PDFService) drawBorder(pdf *fpdf.Fpdf, width, height float64) {
	pdf.SetLineWidth(1)
	pdf.SetDrawColor(brandPurple.r, brandPurple.g, brandPurple.b)
	pdf.Rect(10, 10, width-20, height-20, "D")

	pdf.SetLineWidth(0.3)
	pdf.SetDrawColor(brandOrange.r, brandOrange.g, brandOrange.b)
	pdf.Rect(12, 12, width-24, height-24, "D")

	const corner = 15.0
	pdf.SetAlpha(0.1, "Normal")
	pdf.SetFillColor(brandPurple.r, brandPurple.g, brandPurple.b)
	for _, tri := range [][3]fpdf.PointType{
		{{X: 10, Y: 10}, {X: 10, Y: 10 + corner}, {X: 10 + corner, Y: 10}},
		{{X: width - 10, Y: 10}, {X: width - 10, Y: 10 + corner}, {X: width - 10 - corner, Y: 10}},
		{{X: 10, Y: height - 10}, {X: 10, Y: height - 10 - corner}, {X: 10 + corner, Y: height - 10}},
		{{X: width - 10, Y: height - 10}, {X: width - 10, Y: height - 10 - corner}, {X: width - 10 - corner, Y: height - 10}},
	} {
		pdf.Polygon(tri[:], "F")
	}
	pdf.SetAlpha(1, "Normal")
}

func (s *PDFService) drawQRCode(pdf *fpdf.Fpdf, code string, height float64) error {
	qr, err := qrcode.New(s.VerificationURL(code), qrcode.Medium)
	if err != nil {
		return err
	}
	qr.ForegroundColor = qrForeground
	png, err := qr.PNG(400)
	if err != nil {
		return err
	}

	const size = 25.0
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("verification-qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("verification-qr", 20, height-40, size, size, false, opts, 0, "")
	return pdf.Error()
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}
