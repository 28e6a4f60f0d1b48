package domain

import (
	"net"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Field length limits for public submissions.
const (
	MaxNameLength    = 200
	MaxEmailLength   = 254
	MaxPhoneLength   = 40
	MaxSubjectLength = 200
	MaxMessageLength = 5000
	MaxCaptionLength = 300
	MaxQuoteLength   = 2000
)

// Contact is a message submitted through the public contact form.
type Contact struct {
	ID          int64
	Name        string
	Email       string
	Phone       string
	Subject     string
	Message     string
	SubmitterIP net.IP
	CreatedAt   time.Time
}

// ContactParams contains the fields of a contact form submission.
type ContactParams struct {
	Name        string
	Email       string
	Phone       string
	Subject     string
	Message     string
	SubmitterIP net.IP
}

// Normalize trims every field and applies Unicode NFC normalization so that
// visually identical submissions are stored identically.
func (p ContactParams) Normalize() ContactParams {
	return ContactParams{
		Name:        cleanText(p.Name),
		Email:       strings.ToLower(cleanText(p.Email)),
		Phone:       cleanText(p.Phone),
		Subject:     cleanText(p.Subject),
		Message:     cleanText(p.Message),
		SubmitterIP: p.SubmitterIP,
	}
}

// Validate checks that every field is present and within limits.
// Call Normalize first.
func (p ContactParams) Validate() error {
	const op = "contact.validate"
	var ve *ValidationError

	add := func(field, message string) {
		if ve == nil {
			ve = NewValidationError(op, field, message)
			return
		}
		ve.Add(field, message)
	}

	required := []struct {
		field string
		value string
		max   int
	}{
		{"name", p.Name, MaxNameLength},
		{"email", p.Email, MaxEmailLength},
		{"phone", p.Phone, MaxPhoneLength},
		{"subject", p.Subject, MaxSubjectLength},
		{"message", p.Message, MaxMessageLength},
	}
	for _, f := range required {
		switch {
		case f.value == "":
			add(f.field, "This field is required")
		case len(f.value) > f.max:
			add(f.field, "This field is too long")
		}
	}

	if p.Email != "" && len(p.Email) <= MaxEmailLength && !IsValidEmail(p.Email) {
		add("email", "Please enter a valid email address")
	}

	if ve != nil {
		return ve
	}
	return nil
}

// GalleryItem is an image shown in the public gallery.
type GalleryItem struct {
	ID        int64     `json:"id"`
	ImageURL  string    `json:"image_url"`
	ImageKey  string    `json:"-"`
	Caption   string    `json:"caption"`
	CreatedAt time.Time `json:"created_at"`
}

// Testimonial is a quote shown on the public site.
type Testimonial struct {
	ID         int64     `json:"id"`
	AuthorName string    `json:"author_name"`
	AuthorRole string    `json:"author_role"`
	Quote      string    `json:"quote"`
	CreatedAt  time.Time `json:"created_at"`
}

// TestimonialParams contains the fields for a new testimonial.
type TestimonialParams struct {
	AuthorName string
	AuthorRole string
	Quote      string
}

// Normalize trims and NFC-normalizes every field.
func (p TestimonialParams) Normalize() TestimonialParams {
	return TestimonialParams{
		AuthorName: cleanText(p.AuthorName),
		AuthorRole: cleanText(p.AuthorRole),
		Quote:      cleanText(p.Quote),
	}
}

// Validate checks required fields and lengths.
func (p TestimonialParams) Validate() error {
	const op = "testimonial.validate"
	if p.AuthorName == "" {
		return NewValidationError(op, "author_name", "Author name is required")
	}
	if len(p.AuthorName) > MaxNameLength {
		return NewValidationError(op, "author_name", "Author name is too long")
	}
	if len(p.AuthorRole) > MaxNameLength {
		return NewValidationError(op, "author_role", "Author role is too long")
	}
	if p.Quote == "" {
		return NewValidationError(op, "quote", "Quote is required")
	}
	if len(p.Quote) > MaxQuoteLength {
		return NewValidationError(op, "quote", "Quote is too long")
	}
	return nil
}

// GalleryUploadParams describes a new gallery image.
type GalleryUploadParams struct {
	Filename    string
	ContentType string
	Caption     string
	Size        int64
}

// Normalize trims and NFC-normalizes the caption.
func (p GalleryUploadParams) Normalize() GalleryUploadParams {
	p.Caption = cleanText(p.Caption)
	return p
}

// IsValidEmail performs basic email format validation: something before an
// @, and a dot somewhere in the domain part.
func IsValidEmail(email string) bool {
	atIndex := strings.Index(email, "@")
	if atIndex < 1 {
		return false
	}
	if atIndex >= len(email)-1 {
		return false
	}
	return strings.Contains(email[atIndex+1:], ".")
}

func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
