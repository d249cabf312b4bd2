// internal/app/features/contact/compose.go
package contact

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"github.com/skms/website/internal/app/mailer"
	"github.com/skms/website/internal/domain/models"
)

//go:embed templates/*
var templateFS embed.FS

var (
	htmlTpls = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))
	textTpls = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt"))
)

const (
	submittedLayout = "2006/01/02, 15:04:05"

	notificationSubjectPrefix = "New Contact Form Message from "
	acknowledgementSubject    = "Thank you for contacting SKMS"
)

// johannesburg is South Africa Standard Time. Without a zone database the
// fixed UTC+2 offset gives the same result, since SAST has no DST.
var johannesburg = loadJohannesburg()

func loadJohannesburg() *time.Location {
	if loc, err := time.LoadLocation("Africa/Johannesburg"); err == nil {
		return loc
	}
	return time.FixedZone("SAST", 2*60*60)
}

// formatSubmitted renders t the way the en-ZA locale prints a date-time.
func formatSubmitted(t time.Time) string {
	return t.In(johannesburg).Format(submittedLayout)
}

// Addresses holds the resolved mail addresses for one deployment.
type Addresses struct {
	Sender   string // mail_from, else smtp_user
	Business string // business_email, else Sender
}

type notificationData struct {
	BusinessName string
	Name         string
	Email        string
	MailtoURL    string
	Phone        string
	Message      string
	Submitted    string
}

type acknowledgementData struct {
	Name            string
	BusinessName    string
	BusinessEmail   string
	BusinessPhone   string
	BusinessAddress string
	BusinessHours   []string
	Year            int
}

// composeNotification builds the email to the business. Reply-To is the
// submitter, so answering goes straight back to them.
func composeNotification(s models.SanitizedSubmission, addr Addresses) (mailer.Message, error) {
	data := notificationData{
		BusinessName: BusinessName,
		Name:         s.Name,
		Email:        s.Email,
		MailtoURL:    "mailto:" + s.Email,
		Phone:        s.Phone,
		Message:      s.Message,
		Submitted:    formatSubmitted(s.ReceivedAt),
	}
	html, text, err := render("notification", data)
	if err != nil {
		return mailer.Message{}, err
	}
	return mailer.Message{
		FromName:     notificationFromName,
		From:         addr.Sender,
		To:           addr.Business,
		ReplyTo:      s.Email,
		Subject:      notificationSubjectPrefix + s.Name,
		HTMLBody:     html,
		TextBody:     text,
		SubmissionID: s.ID,
	}, nil
}

// composeAcknowledgement builds the confirmation sent to the submitter.
func composeAcknowledgement(s models.SanitizedSubmission, addr Addresses) (mailer.Message, error) {
	data := acknowledgementData{
		Name:            s.Name,
		BusinessName:    BusinessName,
		BusinessEmail:   BusinessEmail,
		BusinessPhone:   BusinessPhone,
		BusinessAddress: BusinessAddress,
		BusinessHours:   BusinessHours,
		Year:            s.ReceivedAt.In(johannesburg).Year(),
	}
	html, text, err := render("acknowledgement", data)
	if err != nil {
		return mailer.Message{}, err
	}
	return mailer.Message{
		FromName:     acknowledgementFromName,
		From:         addr.Sender,
		To:           s.Email,
		Subject:      acknowledgementSubject,
		HTMLBody:     html,
		TextBody:     text,
		SubmissionID: s.ID,
	}, nil
}

func render(name string, data any) (html, text string, err error) {
	var hb, tb bytes.Buffer
	if err := htmlTpls.ExecuteTemplate(&hb, name+".html", data); err != nil {
		return "", "", fmt.Errorf("render %s html: %w", name, err)
	}
	if err := textTpls.ExecuteTemplate(&tb, name+".txt", data); err != nil {
		return "", "", fmt.Errorf("render %s text: %w", name, err)
	}
	return hb.String(), tb.String(), nil
}
