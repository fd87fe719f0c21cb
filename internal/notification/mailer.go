package notification

import (
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/models"
)

// Mailer sends workflow-milestone emails over SMTP. Every send is
// fire-and-forget from the caller's point of view: delivery failures are
// logged and never retried.
//
// With no SMTP username configured the mailer runs in mock mode and only
// logs what it would have sent.
type Mailer struct {
	cfg config.EmailConfig
	log *logger.Logger
}

func NewMailer(cfg config.EmailConfig, log *logger.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

func (m *Mailer) send(to, subject, htmlBody string) error {
	if m.cfg.SMTPUsername == "" {
		m.log.LogMail("mock", to, fmt.Sprintf("Subject: %s", subject))
		return nil
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %q <%s>\r\n", m.cfg.FromName, m.cfg.FromAddress))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	auth := smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	addr := m.cfg.SMTPHost + ":" + m.cfg.SMTPPort

	if err := smtp.SendMail(addr, auth, m.cfg.FromAddress, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s failed: %w", to, err)
	}

	m.log.LogMail("sent", to, subject)
	return nil
}

// SendWelcome greets a newly registered user.
func (m *Mailer) SendWelcome(user *models.User) error {
	html := fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
      <h1 style="color: #000;">Welcome to Fresh Life Style!</h1>
      <p>Hi %s,</p>
      <p>We're thrilled to have you join our community of creators and style icons.</p>
      <p>Start designing your unique apparel today.</p>
    </div>`, user.Name)
	return m.send(user.Email, "Welcome to Fresh Life Style!", html)
}

// SendOrderConfirmation acknowledges a committed order.
func (m *Mailer) SendOrderConfirmation(user *models.User, orderID string, amount float64) error {
	html := fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif;">
      <h1>Order Confirmed!</h1>
      <p>Thanks for your order, %s.</p>
      <p>Order ID: <strong>%s</strong></p>
      <p>Total: <strong>$%.2f</strong></p>
      <p>We'll notify you when it ships.</p>
    </div>`, user.Name, orderID, amount)
	return m.send(user.Email, fmt.Sprintf("Order Confirmation #%s", orderID), html)
}

// SendOrderShipped carries the tracking details, with the tracking URL
// also rendered as an inline QR code for phone cameras.
func (m *Mailer) SendOrderShipped(user *models.User, orderID, trackingNumber, trackingURL string) error {
	var trackingBlock string
	if trackingURL != "" {
		trackingBlock = fmt.Sprintf(`<p><a href="%s">Track your package</a></p>`, trackingURL)
		if png, err := qrcode.Encode(trackingURL, qrcode.Medium, 256); err == nil {
			trackingBlock += fmt.Sprintf(`<p><img src="data:image/png;base64,%s" alt="Tracking QR" width="128" height="128"/></p>`,
				base64.StdEncoding.EncodeToString(png))
		} else {
			m.log.Warn("MAIL", fmt.Sprintf("Failed to render tracking QR for order %s: %v", orderID, err))
		}
	}

	html := fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif;">
      <h1>Your Order has Shipped!</h1>
      <p>Good news! Your order #%s is on its way.</p>
      <p>Tracking Number: <strong>%s</strong></p>
      %s
    </div>`, orderID, trackingNumber, trackingBlock)
	return m.send(user.Email, fmt.Sprintf("Order Shipped #%s", orderID), html)
}
