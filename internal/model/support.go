package model

import "time"

// Support message categories offered by the contact form.
const (
	SupportGeneral   = "general"
	SupportOrder     = "order"
	SupportTechnical = "technical"
	SupportBilling   = "billing"
	SupportComplaint = "complaint"
	SupportFeedback  = "feedback"
)

// ContactRequest is the help-and-support contact form.
type ContactRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Category string `json:"category" validate:"omitempty,oneof=general order technical billing complaint feedback"`
	Subject  string `json:"subject" validate:"required"`
	Message  string `json:"message" validate:"required"`
}

// SupportMessage is a stored contact form submission.
type SupportMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Category  string    `json:"category"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// SupportReceipt acknowledges a submitted contact form.
type SupportReceipt struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// SupportAcknowledgement is shown once a contact form is accepted.
const SupportAcknowledgement = "Thank you for contacting us! We will get back to you within 24 hours."
