package certbase

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wolfeidau/certbase/internal/pki"
)

func TestBuildSubject(t *testing.T) {
	tests := []struct {
		name       string
		overrides  SubjectDefaults
		commonName string
		want       pki.Subject
	}{
		{
			name:       "built-in defaults",
			commonName: "example.com",
			want: pki.Subject{
				Country:            "CN",
				Organization:       "CertBase",
				OrganizationalUnit: "CertBase Certification",
				CommonName:         "example.com",
			},
		},
		{
			name:       "instance overrides win over defaults",
			overrides:  SubjectDefaults{Country: "AU", Locality: "Melbourne"},
			commonName: "a.test",
			want: pki.Subject{
				Country:            "AU",
				Locality:           "Melbourne",
				Organization:       "CertBase",
				OrganizationalUnit: "CertBase Certification",
				CommonName:         "a.test",
			},
		},
		{
			name: "every field overridden",
			overrides: SubjectDefaults{
				Country:            "US",
				Province:           "CA",
				Locality:           "SF",
				Organization:       "Acme",
				OrganizationalUnit: "Dev",
			},
			commonName: "Acme CA",
			want: pki.Subject{
				Country:            "US",
				Province:           "CA",
				Locality:           "SF",
				Organization:       "Acme",
				OrganizationalUnit: "Dev",
				CommonName:         "Acme CA",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSubject(tt.overrides, tt.commonName)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("BuildSubject() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSubjectDefaults_Merge(t *testing.T) {
	base := DefaultSubject()
	merged := base.Merge(SubjectDefaults{Organization: "Acme"})

	want := SubjectDefaults{
		Country:            "CN",
		Organization:       "Acme",
		OrganizationalUnit: "CertBase Certification",
	}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(DefaultSubject(), base); diff != "" {
		t.Errorf("Merge() modified the receiver (-want +got):\n%s", diff)
	}
}
