package certbase

import "github.com/wolfeidau/certbase/internal/pki"

// SubjectDefaults holds the distinguished name fields shared by every certificate.
// Empty fields are unset.
type SubjectDefaults struct {
	Country            string `yaml:"country"`
	Province           string `yaml:"province"`
	Locality           string `yaml:"locality"`
	Organization       string `yaml:"organization"`
	OrganizationalUnit string `yaml:"organizational_unit"`
}

// DefaultSubject returns the built-in subject defaults.
func DefaultSubject() SubjectDefaults {
	return SubjectDefaults{
		Country:            "CN",
		Organization:       "CertBase",
		OrganizationalUnit: "CertBase Certification",
	}
}

// Merge returns d with every non-empty field of override applied on top.
func (d SubjectDefaults) Merge(override SubjectDefaults) SubjectDefaults {
	if override.Country != "" {
		d.Country = override.Country
	}
	if override.Province != "" {
		d.Province = override.Province
	}
	if override.Locality != "" {
		d.Locality = override.Locality
	}
	if override.Organization != "" {
		d.Organization = override.Organization
	}
	if override.OrganizationalUnit != "" {
		d.OrganizationalUnit = override.OrganizationalUnit
	}
	return d
}

// BuildSubject applies built-in defaults < instance overrides < common name.
func BuildSubject(overrides SubjectDefaults, commonName string) pki.Subject {
	d := DefaultSubject().Merge(overrides)

	return pki.Subject{
		Country:            d.Country,
		Province:           d.Province,
		Locality:           d.Locality,
		Organization:       d.Organization,
		OrganizationalUnit: d.OrganizationalUnit,
		CommonName:         commonName,
	}
}
