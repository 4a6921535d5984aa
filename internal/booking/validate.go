package booking

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	emailPattern  = regexp.MustCompile(`(?i)^\S+@\S+$`)
	cardPattern   = regexp.MustCompile(`^[0-9]{16}$`)
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/([0-9]{2})$`)
	cvvPattern    = regexp.MustCompile(`^[0-9]{3,4}$`)
)

// FieldErrors maps form fields to validation messages.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fe[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsEmail reports whether s looks like an email address.
func IsEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

func (fe FieldErrors) orNil() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// ValidateDetails checks the contact form.
func ValidateDetails(d Details) FieldErrors {
	fe := FieldErrors{}
	if strings.TrimSpace(d.ClientName) == "" {
		fe["client_name"] = "Name is required"
	}
	switch email := strings.TrimSpace(d.ClientEmail); {
	case email == "":
		fe["client_email"] = "Email is required"
	case !emailPattern.MatchString(email):
		fe["client_email"] = "Invalid email address"
	}
	if strings.TrimSpace(d.ClientPhone) == "" {
		fe["client_phone"] = "Phone number is required"
	}
	return fe
}

// ValidateCard checks the payment form.
func ValidateCard(c Card) FieldErrors {
	fe := FieldErrors{}
	checkPattern(fe, "card_number", c.Number, cardPattern, "Card number is required", "Please enter a valid 16-digit card number")
	checkPattern(fe, "expiry_date", c.Expiry, expiryPattern, "Expiry date is required", "Please enter MM/YY format")
	checkPattern(fe, "cvv", c.CVV, cvvPattern, "CVV is required", "Please enter a valid CVV")
	if strings.TrimSpace(c.Cardholder) == "" {
		fe["cardholder_name"] = "Cardholder name is required"
	}
	return fe
}

func checkPattern(fe FieldErrors, field, value string, re *regexp.Regexp, requiredMsg, invalidMsg string) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		fe[field] = requiredMsg
	case !re.MatchString(value):
		fe[field] = invalidMsg
	}
}
