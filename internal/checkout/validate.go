package checkout

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/asaskevich/govalidator"

	"frameshop/domain"
)

var phonePattern = regexp.MustCompile(`^[0-9\-\+ ]{9,15}$`)

// ValidationError lists every invalid field of a checkout request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid checkout request: %s", strings.Join(names, ", "))
}

// Request what the shopper fills in on the checkout form.
type Request struct {
	Customer  domain.Customer `json:"customer"`
	Shipping  domain.Shipping `json:"shipping"`
	PromoCode string          `json:"promo_code"`
	Note      string          `json:"note"`
}

// Normalize trims every field and lowercases the email.
func (r Request) Normalize() Request {
	r.Customer.Name = strings.TrimSpace(r.Customer.Name)
	r.Customer.Email = strings.ToLower(strings.TrimSpace(r.Customer.Email))
	r.Customer.Phone = strings.TrimSpace(r.Customer.Phone)
	r.Shipping.Address = strings.TrimSpace(r.Shipping.Address)
	r.Shipping.City = strings.TrimSpace(r.Shipping.City)
	r.Shipping.Zip = strings.TrimSpace(r.Shipping.Zip)
	r.Shipping.Region = strings.TrimSpace(r.Shipping.Region)
	r.Shipping.Country = strings.TrimSpace(r.Shipping.Country)
	r.PromoCode = strings.TrimSpace(r.PromoCode)
	r.Note = strings.TrimSpace(r.Note)
	return r
}

// Validate reports all problems at once; the request should be normalized first.
func (r Request) Validate() error {
	fields := map[string]string{}

	if r.Customer.Name == "" {
		fields["customer.name"] = "required"
	}
	if r.Customer.Email == "" {
		fields["customer.email"] = "required"
	} else if !govalidator.IsEmail(r.Customer.Email) {
		fields["customer.email"] = "not a valid email address"
	}
	if r.Customer.Phone != "" && !phonePattern.MatchString(r.Customer.Phone) {
		fields["customer.phone"] = "not a valid phone number"
	}

	required := map[string]string{
		"shipping.address": r.Shipping.Address,
		"shipping.city":    r.Shipping.City,
		"shipping.zip":     r.Shipping.Zip,
		"shipping.country": r.Shipping.Country,
	}
	for name, value := range required {
		if value == "" {
			fields[name] = "required"
		}
	}
	if len(r.Note) > 1000 {
		fields["note"] = "must be at most 1000 characters"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
