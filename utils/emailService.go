package utils

import (
	"context"
	"fmt"
	"html"
	"log"
	"time"

	"ninma/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const emailTimeout = 15 * time.Second

// SendEmail delivers an HTML message through SendGrid. Without an API key the
// message is only logged.
func SendEmail(to []string, subject string, htmlBody string) error {
	cfg := config.AppConfig
	if cfg == nil || cfg.SendGridAPIKey == "" {
		log.Printf("[EMAIL] SendGrid not configured, skipping %q to %v", subject, to)
		return nil
	}

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(cfg.EmailSenderName, cfg.EmailSender))
	message.Subject = subject
	p := mail.NewPersonalization()
	for _, addr := range to {
		p.AddTos(mail.NewEmail("", addr))
	}
	message.AddPersonalizations(p)
	message.AddContent(mail.NewContent("text/html", htmlBody))

	ctx, cancel := context.WithTimeout(context.Background(), emailTimeout)
	defer cancel()

	resp, err := sendgrid.NewSendClient(cfg.SendGridAPIKey).SendWithContext(ctx, message)
	if err != nil {
		log.Printf("[EMAIL] Error sending %q to %v: %v", subject, to, err)
		return err
	}
	if resp.StatusCode >= 300 {
		log.Printf("[EMAIL] SendGrid rejected %q (status %d): %s", subject, resp.StatusCode, resp.Body)
		return fmt.Errorf("sendgrid status %d", resp.StatusCode)
	}
	log.Printf("[EMAIL] Sent %q to %v", subject, to)
	return nil
}

func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #7c3aed; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #3c3c3c; line-height: 1.6; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; }
			.btn { display: inline-block; padding: 12px 24px; background-color: #fb923c; color: #FFFFFF; text-decoration: none; border-radius: 4px; font-weight: bold; }
			.info-box { background: #F3EEFF; padding: 15px; border-radius: 4px; border-left: 4px solid #fb923c; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header"><h1>ninma hub</h1></div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">Sistema de Gestão de Eventos Acadêmicos</div>
		</div>
	</body>
	</html>
	`, html.EscapeString(title), bodyContent)
}

// --- Triggers ---

func SendWelcomeEmail(email, name string) {
	body := fmt.Sprintf(`
		<p>Olá, %s!</p>
		<p>Sua conta foi criada. Agora você pode se inscrever em eventos e enviar trabalhos.</p>
	`, html.EscapeString(name))

	go SendEmail([]string{email}, "Bem-vindo ao ninma hub", getEmailTemplate("Conta criada", body))
}

// SendRegistrationEmail confirms a registration or tells the participant it
// awaits approval.
func SendRegistrationEmail(email, name, eventTitle string, pending bool) {
	status := "confirmada"
	if pending {
		status = "recebida e aguarda aprovação da coordenação"
	}
	body := fmt.Sprintf(`
		<p>Olá, %s!</p>
		<p>Sua inscrição em <strong>%s</strong> foi %s.</p>
	`, html.EscapeString(name), html.EscapeString(eventTitle), status)

	go SendEmail([]string{email}, "Inscrição: "+eventTitle, getEmailTemplate("Inscrição", body))
}

func SendRegistrationApprovedEmail(email, name, eventTitle string) {
	body := fmt.Sprintf(`
		<p>Olá, %s!</p>
		<p>Sua inscrição em <strong>%s</strong> foi aprovada.</p>
	`, html.EscapeString(name), html.EscapeString(eventTitle))

	go SendEmail([]string{email}, "Inscrição aprovada: "+eventTitle, getEmailTemplate("Inscrição aprovada", body))
}

// SendReviewDecisionEmail tells the author that their paper changed status.
func SendReviewDecisionEmail(email, name, submissionTitle, status string) {
	labels := map[string]string{
		"APPROVED": "aprovado",
		"REJECTED": "rejeitado",
		"REVISION": "devolvido para revisão",
	}
	label, ok := labels[status]
	if !ok {
		return
	}
	body := fmt.Sprintf(`
		<p>Olá, %s!</p>
		<p>Seu trabalho <strong>%s</strong> foi %s.</p>
		<div class="info-box">Acesse a plataforma para ver os comentários dos avaliadores.</div>
	`, html.EscapeString(name), html.EscapeString(submissionTitle), label)

	go SendEmail([]string{email}, "Avaliação: "+submissionTitle, getEmailTemplate("Resultado da avaliação", body))
}

func SendCertificateEmail(email, name, eventTitle, verifyURL string) {
	body := fmt.Sprintf(`
		<p>Olá, %s!</p>
		<p>Seu certificado de <strong>%s</strong> foi emitido.</p>
		<a class="btn" href="%s">Verificar certificado</a>
	`, html.EscapeString(name), html.EscapeString(eventTitle), html.EscapeString(verifyURL))

	go SendEmail([]string{email}, "Certificado: "+eventTitle, getEmailTemplate("Certificado emitido", body))
}
