package pki

import (
	"crypto"
	"crypto/rand"
	"crypto/x509"
	"fmt"
)

// Signer signs certificate templates with a PEM encoded CA key and certificate.
type Signer struct {
	key  crypto.Signer
	cert *x509.Certificate
}

// NewSigner parses the CA pair and checks that the key belongs to the certificate
// and that the certificate is allowed to sign certificates.
func NewSigner(keyPEM, certPEM []byte) (*Signer, error) {
	key, err := ParsePrivateKey(keyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to load CA key: %w", err)
	}

	cert, err := ParseCertificate(certPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to load CA certificate: %w", err)
	}

	if err := publicKeysEqual(key.Public(), cert.PublicKey); err != nil {
		return nil, fmt.Errorf("CA key and certificate do not match: %w: %w", ErrCrypto, err)
	}

	if !cert.IsCA || cert.KeyUsage&x509.KeyUsageCertSign == 0 {
		return nil, fmt.Errorf("certificate %q is not a signing CA: %w", cert.Subject.CommonName, ErrCrypto)
	}

	return &Signer{key: key, cert: cert}, nil
}

// SignCertificate signs a certificate template using the CA private key.
func (s *Signer) SignCertificate(template *x509.Certificate) ([]byte, error) {
	der, err := x509.CreateCertificate(rand.Reader, template, s.cert, template.PublicKey, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign certificate: %w: %w", ErrCrypto, err)
	}

	return der, nil
}

// Certificate returns the CA certificate.
func (s *Signer) Certificate() *x509.Certificate {
	return s.cert
}
