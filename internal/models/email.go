package models

import "strings"

// EmailEvent is the payload of the send-email handler
type EmailEvent struct {
	From    string `json:"from" validate:"required"`
	To      string `json:"to" validate:"required"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// Recipients splits the comma-separated To field into addresses
func (e *EmailEvent) Recipients() []string {
	var out []string
	for _, addr := range strings.Split(e.To, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// EmailResponse is returned by the send-email handler on success
type EmailResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// EmailSentMessage is the confirmation carried by a successful EmailResponse
const EmailSentMessage = "email sent successfully"
