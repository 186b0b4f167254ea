package application

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/swastisunder/Nivaas/domain"
)

var (
	smtpServer     = "smtp.office365.com"
	smtpServerPort = 587
	smtpEmail      = os.Getenv("SMTP_AUTH_MAIL")
	smtpPassword   = os.Getenv("SMTP_AUTH_PASSWORD")
)

// Mailer sends courtesy mails. Every send is best-effort: failures are
// logged and never block the operation that triggered them. With no
// SMTP credentials configured the mailer is silent.
type Mailer struct {
	logger *logrus.Logger
}

func NewMailer(logger *logrus.Logger) *Mailer {
	return &Mailer{logger: logger}
}

func (mailer *Mailer) SendWelcome(username, email string) {
	body := fmt.Sprintf("Hello %s,\n\nWelcome to Nivaas! Your account is ready, browse the listings and book your next stay.\n", username)
	mailer.send(email, "Welcome to Nivaas", body)
}

func (mailer *Mailer) SendBookingConfirmation(email string, listingTitle string, booking *domain.Booking) {
	body := fmt.Sprintf(
		"Hello %s,\n\nYour booking for %s is confirmed.\nCheck-in: %s\nCheck-out: %s\nTotal price: %d (payment on arrival, cash only)\n",
		booking.Name,
		listingTitle,
		booking.CheckIn.Format("2006-01-02"),
		booking.CheckOut.Format("2006-01-02"),
		booking.TotalPrice,
	)
	mailer.send(email, "Your Nivaas booking is confirmed", body)
}

func (mailer *Mailer) send(to, subject, body string) {
	if smtpEmail == "" {
		return
	}

	message := gomail.NewMessage()
	message.SetHeader("From", smtpEmail)
	message.SetHeader("To", to)
	message.SetHeader("Subject", subject)
	message.SetBody("text", body)

	client := gomail.NewDialer(smtpServer, smtpServerPort, smtpEmail, smtpPassword)
	if err := client.DialAndSend(message); err != nil {
		mailer.logger.Errorf("sending mail to %s: %v", to, err)
	}
}
