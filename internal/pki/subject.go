package pki

import (
	"crypto/x509/pkix"
	"fmt"
	"strings"
)

// Subject is the distinguished name of a certificate request.
type Subject struct {
	Country            string
	Province           string
	Locality           string
	Organization       string
	OrganizationalUnit string
	CommonName         string
}

// Validate checks the subject can be used in a certificate request.
func (s Subject) Validate() error {
	if strings.TrimSpace(s.CommonName) == "" {
		return fmt.Errorf("subject common name is required: %w", ErrCrypto)
	}

	if len(s.Country) > 2 {
		return fmt.Errorf("subject country %q must be a two letter code: %w", s.Country, ErrCrypto)
	}

	return nil
}

// Name converts the subject to a pkix.Name, leaving empty fields out.
func (s Subject) Name() pkix.Name {
	name := pkix.Name{CommonName: s.CommonName}

	if s.Country != "" {
		name.Country = []string{s.Country}
	}
	if s.Province != "" {
		name.Province = []string{s.Province}
	}
	if s.Locality != "" {
		name.Locality = []string{s.Locality}
	}
	if s.Organization != "" {
		name.Organization = []string{s.Organization}
	}
	if s.OrganizationalUnit != "" {
		name.OrganizationalUnit = []string{s.OrganizationalUnit}
	}

	return name
}

// OpenSSL renders the subject in the slash separated form accepted by `openssl req -subj`.
func (s Subject) OpenSSL() string {
	var b strings.Builder

	for _, field := range []struct{ key, value string }{
		{"C", s.Country},
		{"ST", s.Province},
		{"L", s.Locality},
		{"O", s.Organization},
		{"OU", s.OrganizationalUnit},
		{"CN", s.CommonName},
	} {
		if field.value == "" {
			continue
		}
		b.WriteString("/")
		b.WriteString(field.key)
		b.WriteString("=")
		b.WriteString(escapeSubjectValue(field.value))
	}

	return b.String()
}

func escapeSubjectValue(value string) string {
	return strings.NewReplacer(`\`, `\\`, `/`, `\/`).Replace(value)
}
