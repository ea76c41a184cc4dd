package mailer

import "strings"

// EmailJob is the JSON payload on the email queue. A job either names a Template rendered
// from Data or carries a ready Subject with Text and optional HTML bodies.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// NewTemplateJob builds a job rendered by the worker from template name.
func NewTemplateJob(to, template string, data map[string]any) EmailJob {
	return EmailJob{To: strings.TrimSpace(to), Template: template, Data: data}
}

func (j EmailJob) Templated() bool { return j.Template != "" }
