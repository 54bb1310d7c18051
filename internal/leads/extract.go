// Package leads pulls contact details out of visitor chat messages.
package leads

import "regexp"

var (
	emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s\-]{7,}\d`)
)

// Contact holds the first email and phone number found in a message.
type Contact struct {
	Email string
	Phone string
}

// Extract returns the contact details in message and whether any was found.
func Extract(message string) (Contact, bool) {
	c := Contact{
		Email: emailPattern.FindString(message),
		Phone: phonePattern.FindString(message),
	}
	return c, c.Email != "" || c.Phone != ""
}
