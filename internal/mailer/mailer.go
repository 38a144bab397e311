package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

const (
	FromName               = "Marketplace"
	SellerRejectedTemplate = "seller_rejected.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Compose renders the "subject" and "body" blocks of an embedded template.
func Compose(templateFile, to string, data any) (Message, error) {
	tmpl, err := template.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return Message{}, fmt.Errorf("parse template %s: %w", templateFile, err)
	}

	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		return Message{}, fmt.Errorf("render subject: %w", err)
	}

	body := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(body, "body", data); err != nil {
		return Message{}, fmt.Errorf("render body: %w", err)
	}

	return Message{
		To:      to,
		Subject: strings.TrimSpace(subject.String()),
		Body:    strings.TrimSpace(body.String()) + "\n",
	}, nil
}
