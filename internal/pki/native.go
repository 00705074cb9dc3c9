package pki

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"time"
)

const (
	// DefaultKeyBits is the RSA modulus size of generated keys.
	DefaultKeyBits = 2048

	// backdate absorbs clock skew between the issuing host and its clients.
	backdate = 5 * time.Minute
)

var _ Issuer = (*NativeIssuer)(nil)

// NativeIssuer issues certificates in process with crypto/x509.
type NativeIssuer struct {
	keyBits int
	now     func() time.Time
}

// NativeOption configures a NativeIssuer.
type NativeOption func(*NativeIssuer)

// WithKeyBits sets the RSA key size of generated keys.
func WithKeyBits(bits int) NativeOption {
	return func(n *NativeIssuer) {
		n.keyBits = bits
	}
}

// WithClock replaces the clock used for validity periods.
func WithClock(now func() time.Time) NativeOption {
	return func(n *NativeIssuer) {
		n.now = now
	}
}

// NewNativeIssuer creates an issuer generating RSA keys.
func NewNativeIssuer(opts ...NativeOption) *NativeIssuer {
	n := &NativeIssuer{
		keyBits: DefaultKeyBits,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// CreateSigningRequest generates an RSA key and a certificate request for the subject.
func (n *NativeIssuer) CreateSigningRequest(ctx context.Context, subject Subject) (*SigningRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("create signing request: %w: %w", ErrCrypto, err)
	}

	if err := subject.Validate(); err != nil {
		return nil, err
	}

	key, err := rsa.GenerateKey(rand.Reader, n.keyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w: %w", ErrCrypto, err)
	}

	template := &x509.CertificateRequest{
		Subject:            subject.Name(),
		SignatureAlgorithm: x509.SHA256WithRSA,
	}

	der, err := x509.CreateCertificateRequest(rand.Reader, template, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate request: %w: %w", ErrCrypto, err)
	}

	keyPEM, err := EncodePrivateKey(key)
	if err != nil {
		return nil, err
	}

	return &SigningRequest{
		CSR:        pem.EncodeToMemory(&pem.Block{Type: pemTypeRequest, Bytes: der}),
		PrivateKey: keyPEM,
	}, nil
}

// CreateCertificate issues a certificate for the request in params.
func (n *NativeIssuer) CreateCertificate(ctx context.Context, params CertificateParams) (*IssuedCertificate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("create certificate: %w: %w", ErrCrypto, err)
	}

	csr, err := ParseCertificateRequest(params.CSR)
	if err != nil {
		return nil, err
	}

	clientKey, err := ParsePrivateKey(params.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load client key: %w", err)
	}

	if err := publicKeysEqual(clientKey.Public(), csr.PublicKey); err != nil {
		return nil, fmt.Errorf("client key does not match certificate request: %w: %w", ErrCrypto, err)
	}

	template, err := n.template(csr, params)
	if err != nil {
		return nil, err
	}

	var der []byte

	switch {
	case params.SelfSigned():
		template.AuthorityKeyId = template.SubjectKeyId
		der, err = selfSign(template, clientKey)
	case len(params.SigningKey) == 0 || len(params.SigningCertificate) == 0:
		return nil, fmt.Errorf("signing key and certificate must be supplied together: %w", ErrCrypto)
	default:
		var signer *Signer
		signer, err = NewSigner(params.SigningKey, params.SigningCertificate)
		if err != nil {
			return nil, err
		}
		der, err = signer.SignCertificate(template)
	}
	if err != nil {
		return nil, err
	}

	return &IssuedCertificate{
		Certificate: EncodeCertificate(der),
		PrivateKey:  params.ClientKey,
	}, nil
}

func (n *NativeIssuer) template(csr *x509.CertificateRequest, params CertificateParams) (*x509.Certificate, error) {
	serial, err := newSerialNumber()
	if err != nil {
		return nil, err
	}

	ski, err := subjectKeyID(csr.PublicKey)
	if err != nil {
		return nil, err
	}

	now := n.now()

	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               csr.Subject,
		PublicKey:             csr.PublicKey,
		NotBefore:             now.Add(-backdate),
		NotAfter:              now.AddDate(0, 0, params.days()),
		SubjectKeyId:          ski,
		BasicConstraintsValid: true,
	}

	switch params.Policy {
	case PolicyCA:
		template.IsCA = true
		template.KeyUsage = x509.KeyUsageCertSign | x509.KeyUsageCRLSign | x509.KeyUsageDigitalSignature
	case PolicyLeaf:
		template.KeyUsage = x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment
		template.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}
		template.DNSNames, template.IPAddresses = subjectAltNames(csr.Subject.CommonName)
	default:
		return nil, fmt.Errorf("unknown certificate policy %d: %w", params.Policy, ErrCrypto)
	}

	if params.Identity != "" {
		ext, err := identityExtension(params.Identity)
		if err != nil {
			return nil, err
		}
		template.ExtraExtensions = append(template.ExtraExtensions, ext)
	}

	return template, nil
}

func selfSign(template *x509.Certificate, key crypto.Signer) ([]byte, error) {
	der, err := x509.CreateCertificate(rand.Reader, template, template, key.Public(), key)
	if err != nil {
		return nil, fmt.Errorf("failed to self-sign certificate: %w: %w", ErrCrypto, err)
	}

	return der, nil
}
