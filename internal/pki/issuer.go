package pki

import (
	"context"
	"errors"
)

// ErrCrypto is wrapped by every failure reported by an Issuer.
var ErrCrypto = errors.New("crypto operation failed")

// DefaultDays is the validity used when CertificateParams.Days is not set.
const DefaultDays = 36500

// Policy selects the X.509v3 extensions applied to an issued certificate.
type Policy int

const (
	// PolicyLeaf issues an end-entity server certificate.
	PolicyLeaf Policy = iota
	// PolicyCA issues a certificate allowed to sign other certificates.
	PolicyCA
)

func (p Policy) String() string {
	switch p {
	case PolicyCA:
		return "ca"
	case PolicyLeaf:
		return "leaf"
	default:
		return "unknown"
	}
}

// SigningRequest is a PEM encoded certificate request and the private key it was signed with.
type SigningRequest struct {
	CSR        []byte
	PrivateKey []byte
}

// CertificateParams describes a certificate to issue from a signing request.
type CertificateParams struct {
	// CSR is the PEM encoded certificate request.
	CSR []byte
	// ClientKey is the PEM encoded key of the request. It signs the certificate
	// when no signing pair is given and is returned with the certificate.
	ClientKey []byte
	// SigningKey and SigningCertificate are the PEM encoded CA pair. Both absent
	// means the certificate is self-signed.
	SigningKey         []byte
	SigningCertificate []byte
	// Days is the validity period, DefaultDays when zero.
	Days int
	// Policy selects CA or leaf extensions.
	Policy Policy
	// Identity is recorded in the OIDIdentity extension when set.
	Identity string
}

// SelfSigned reports whether no signing pair was supplied.
func (p CertificateParams) SelfSigned() bool {
	return len(p.SigningKey) == 0 && len(p.SigningCertificate) == 0
}

func (p CertificateParams) days() int {
	if p.Days <= 0 {
		return DefaultDays
	}
	return p.Days
}

// IssuedCertificate is a PEM encoded certificate and its private key.
type IssuedCertificate struct {
	Certificate []byte
	PrivateKey  []byte
}

// Issuer creates certificate requests and certificates.
// Implementations include NativeIssuer (crypto/x509) and OpenSSLIssuer (openssl binary).
type Issuer interface {
	// CreateSigningRequest generates a key pair and a certificate request for the subject.
	CreateSigningRequest(ctx context.Context, subject Subject) (*SigningRequest, error)

	// CreateCertificate issues a certificate for the request, signed by the
	// signing pair or self-signed when the pair is absent.
	CreateCertificate(ctx context.Context, params CertificateParams) (*IssuedCertificate, error)
}
