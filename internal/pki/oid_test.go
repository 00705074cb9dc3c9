package pki

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Simplified test - create certs with extension manually
func createCertWithExtension(oid asn1.ObjectIdentifier, value string) *x509.Certificate {
	valueBytes, _ := asn1.MarshalWithParams(value, "utf8")
	ext := pkix.Extension{
		Id:    oid,
		Value: valueBytes,
	}

	return &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName: "example.com",
		},
		NotBefore:  time.Now(),
		NotAfter:   time.Now().Add(24 * time.Hour),
		Extensions: []pkix.Extension{ext},
	}
}

func TestExtractIdentity(t *testing.T) {
	t.Run("extract host identity", func(t *testing.T) {
		cert := createCertWithExtension(OIDIdentity, "example.com")

		id, err := ExtractIdentity(cert)
		require.NoError(t, err)
		require.Equal(t, "example.com", id)
	})

	t.Run("extract reserved CA identity", func(t *testing.T) {
		cert := createCertWithExtension(OIDIdentity, "##ca##")

		id, err := ExtractIdentity(cert)
		require.NoError(t, err)
		require.Equal(t, "##ca##", id)
	})

	t.Run("missing extension returns error", func(t *testing.T) {
		cert := &x509.Certificate{
			Subject: pkix.Name{CommonName: "test"},
		}

		_, err := ExtractIdentity(cert)
		require.Error(t, err)
		require.Equal(t, ErrExtensionNotFound, err)
	})

	t.Run("other extensions are ignored", func(t *testing.T) {
		cert := createCertWithExtension(asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 99999, 1, 1}, "admin")

		_, err := ExtractIdentity(cert)
		require.Equal(t, ErrExtensionNotFound, err)
	})

	t.Run("malformed value returns error", func(t *testing.T) {
		cert := &x509.Certificate{
			Extensions: []pkix.Extension{{Id: OIDIdentity, Value: []byte{0xff}}},
		}

		_, err := ExtractIdentity(cert)
		require.Error(t, err)
		require.NotEqual(t, ErrExtensionNotFound, err)
	})
}

func TestIdentityExtensionRoundTrip(t *testing.T) {
	ext, err := identityExtension("a.test")
	require.NoError(t, err)
	require.True(t, ext.Id.Equal(OIDIdentity))
	require.False(t, ext.Critical)

	id, err := ExtractIdentity(&x509.Certificate{Extensions: []pkix.Extension{ext}})
	require.NoError(t, err)
	require.Equal(t, "a.test", id)
}
