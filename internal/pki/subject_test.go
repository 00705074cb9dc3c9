package pki

import (
	"crypto/x509/pkix"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestSubject_Name(t *testing.T) {
	s := Subject{
		Country:            "CN",
		Organization:       "CertBase",
		OrganizationalUnit: "CertBase Certification",
		CommonName:         "example.com",
	}

	want := pkix.Name{
		Country:            []string{"CN"},
		Organization:       []string{"CertBase"},
		OrganizationalUnit: []string{"CertBase Certification"},
		CommonName:         "example.com",
	}

	if diff := cmp.Diff(want, s.Name()); diff != "" {
		t.Errorf("Name() mismatch (-want +got):\n%s", diff)
	}
}

func TestSubject_OpenSSL(t *testing.T) {
	tests := []struct {
		name    string
		subject Subject
		want    string
	}{
		{
			name: "all fields in order",
			subject: Subject{
				Country:            "CN",
				Province:           "Zhejiang",
				Locality:           "Hangzhou",
				Organization:       "CertBase",
				OrganizationalUnit: "CertBase Certification",
				CommonName:         "example.com",
			},
			want: "/C=CN/ST=Zhejiang/L=Hangzhou/O=CertBase/OU=CertBase Certification/CN=example.com",
		},
		{
			name:    "empty fields are skipped",
			subject: Subject{CommonName: "a.test"},
			want:    "/CN=a.test",
		},
		{
			name:    "separators are escaped",
			subject: Subject{Organization: `A/B\C`, CommonName: "a.test"},
			want:    `/O=A\/B\\C/CN=a.test`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.subject.OpenSSL())
		})
	}
}

func TestSubject_Validate(t *testing.T) {
	t.Run("common name required", func(t *testing.T) {
		err := Subject{Country: "CN"}.Validate()
		require.Error(t, err)
		require.True(t, errors.Is(err, ErrCrypto))
	})

	t.Run("country must be two letters", func(t *testing.T) {
		err := Subject{Country: "CHN", CommonName: "a.test"}.Validate()
		require.True(t, errors.Is(err, ErrCrypto))
	})

	t.Run("valid subject", func(t *testing.T) {
		require.NoError(t, Subject{Country: "CN", CommonName: "a.test"}.Validate())
	})
}
