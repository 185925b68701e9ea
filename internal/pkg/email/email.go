package email

import (
	"errors"
	"fmt"
	"html"

	"gopkg.in/gomail.v2"

	"github.com/qs3c/hms_go_server/config"
	"github.com/qs3c/hms_go_server/internal/pkg/queue"
)

var ErrUnknownTemplate = errors.New("unknown email template")

// Rendered 渲染后的邮件内容
type Rendered struct {
	Subject   string
	HTMLBody  string
	PlainBody string
}

type Service struct {
	cfg    *config.EmailConfig
	dialer *gomail.Dialer
}

func NewService(cfg *config.EmailConfig) *Service {
	return &Service{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
	}
}

// Send 渲染并发送队列中的邮件任务
func (s *Service) Send(job *queue.EmailJob) error {
	r, err := Render(job)
	if err != nil {
		return err
	}
	return s.sendEmail(job.To, r)
}

// Render 按模板名生成邮件主题和正文
func Render(job *queue.EmailJob) (*Rendered, error) {
	d := func(key string) string { return job.Data[key] }

	var subject, lead, detail string
	switch job.Template {
	case queue.TemplateCheckoutReminder:
		subject = fmt.Sprintf("Checkout reminder - %s", d("hotel_name"))
		lead = fmt.Sprintf("Hello %s,", d("guest_name"))
		detail = fmt.Sprintf("Your stay %s in room %s ends in about %s hour(s), at %s.",
			d("reference"), d("room"), d("hours_left"), d("check_out"))
	case queue.TemplateAutoCheckout:
		subject = fmt.Sprintf("You have been checked out - %s", d("hotel_name"))
		lead = fmt.Sprintf("Hello %s,", d("guest_name"))
		detail = fmt.Sprintf("Your stay %s in room %s passed its checkout time of %s and was closed automatically.",
			d("reference"), d("room"), d("check_out"))
	case queue.TemplateBookingConfirmed:
		subject = fmt.Sprintf("Booking confirmed - %s", d("reference"))
		lead = fmt.Sprintf("Hello %s,", d("guest_name"))
		detail = fmt.Sprintf("Your booking %s at %s from %s to %s is confirmed.",
			d("reference"), d("hotel_name"), d("check_in"), d("check_out"))
	case queue.TemplateRenewalSucceeded:
		subject = "Subscription renewed"
		lead = fmt.Sprintf("Hello %s,", d("tenant_name"))
		detail = fmt.Sprintf("Your %s subscription was renewed for %s %s. It is now valid until %s.",
			d("plan"), d("amount"), d("currency"), d("end_date"))
	case queue.TemplateRenewalFailed:
		subject = "Subscription renewal failed"
		lead = fmt.Sprintf("Hello %s,", d("tenant_name"))
		detail = fmt.Sprintf("We could not charge your saved payment method for the %s plan. Your subscription ends on %s.",
			d("plan"), d("end_date"))
	case queue.TemplateExpirationWarning:
		subject = fmt.Sprintf("Your subscription expires in %s day(s)", d("days_left"))
		lead = fmt.Sprintf("Hello %s,", d("tenant_name"))
		detail = fmt.Sprintf("Your %s subscription ends on %s. Renew before then to keep access to your dashboard.",
			d("plan"), d("end_date"))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, job.Template)
	}

	htmlBody := fmt.Sprintf(`
		<html>
		<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
			<h2>%s</h2>
			<p>%s</p>
			<p>%s</p>
			<p style="color: #6b7280; font-size: 12px;">This message was sent automatically. Please do not reply.</p>
		</body>
		</html>
	`, html.EscapeString(subject), html.EscapeString(lead), html.EscapeString(detail))

	plainBody := fmt.Sprintf("%s\n\n%s\n\n%s\n", subject, lead, detail)

	return &Rendered{Subject: subject, HTMLBody: htmlBody, PlainBody: plainBody}, nil
}

func (s *Service) sendEmail(to string, r *Rendered) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", r.Subject)
	m.SetBody("text/plain", r.PlainBody)
	m.AddAlternative("text/html", r.HTMLBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
