// Package mailer renders and delivers the weekly parent progress report.
package mailer

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/mail.v2"

	"github.com/savagehomeschool/backend/internal/models"
)

// ChildWeek summarizes one child's activity for the report period.
type ChildWeek struct {
	Child            models.ChildSummary
	LessonsCompleted int
	XPEarned         int
}

// Sender delivers a rendered message. It exists so tests can capture
// mail instead of dialing SMTP.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPSender delivers mail through an SMTP server using gopkg.in/mail.v2.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPSender creates an SMTP-backed sender.
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send delivers a plain-text message.
func (s *SMTPSender) Send(to, subject, body string) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := mail.NewDialer(s.host, s.port, s.username, s.password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// RenderWeeklyReport renders the plain-text weekly report for a parent.
func RenderWeeklyReport(parentName string, weekEnding time.Time, children []ChildWeek) (subject, body string) {
	subject = fmt.Sprintf("Weekly learning report - %s", weekEnding.Format("January 2, 2006"))

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", parentName)
	fmt.Fprintf(&b, "Here is what your family accomplished in the week ending %s:\n\n", weekEnding.Format("January 2, 2006"))

	for _, cw := range children {
		fmt.Fprintf(&b, "%s (grade %d)\n", cw.Child.Username, cw.Child.GradeLevel)
		fmt.Fprintf(&b, "  Lessons completed this week: %d\n", cw.LessonsCompleted)
		fmt.Fprintf(&b, "  XP earned this week: %d\n", cw.XPEarned)
		fmt.Fprintf(&b, "  Total XP: %d (level %d)\n", cw.Child.TotalXP, cw.Child.CurrentLevel)
		if cw.Child.StreakDays > 1 {
			fmt.Fprintf(&b, "  Learning streak: %d days\n", cw.Child.StreakDays)
		}
		b.WriteString("\n")
	}

	if len(children) == 0 {
		b.WriteString("No child accounts are linked to your profile yet.\n\n")
	}

	b.WriteString("Keep up the great work!\n")
	return subject, b.String()
}
