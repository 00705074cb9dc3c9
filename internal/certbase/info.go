package certbase

import (
	"context"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"time"

	"github.com/mr-tron/base58"

	"github.com/wolfeidau/certbase/internal/pki"
	"github.com/wolfeidau/certbase/internal/store"
)

// CertInfo summarises a stored certificate.
type CertInfo struct {
	Identity     string    `json:"identity"`
	CommonName   string    `json:"common_name"`
	Subject      string    `json:"subject"`
	Issuer       string    `json:"issuer"`
	SerialNumber string    `json:"serial_number"`
	Fingerprint  string    `json:"fingerprint"`
	NotBefore    time.Time `json:"not_before"`
	NotAfter     time.Time `json:"not_after"`
	IsCA         bool      `json:"is_ca"`
	DNSNames     []string  `json:"dns_names,omitempty"`
	IPAddresses  []string  `json:"ip_addresses,omitempty"`
	PathCert     string    `json:"path_cert"`
	PathKey      string    `json:"path_key"`
}

// NewCertInfo creates a CertInfo from an X.509 certificate.
// The fingerprint is the base58 encoded SHA-256 of the DER certificate.
func NewCertInfo(cert *x509.Certificate) *CertInfo {
	fingerprint := sha256.Sum256(cert.Raw)

	// Fall back to CN if the identity extension is missing
	identity, err := pki.ExtractIdentity(cert)
	if err != nil {
		identity = cert.Subject.CommonName
	}

	info := &CertInfo{
		Identity:     identity,
		CommonName:   cert.Subject.CommonName,
		Subject:      cert.Subject.String(),
		Issuer:       cert.Issuer.String(),
		SerialNumber: cert.SerialNumber.Text(16),
		Fingerprint:  base58.Encode(fingerprint[:]),
		NotBefore:    cert.NotBefore,
		NotAfter:     cert.NotAfter,
		IsCA:         cert.IsCA,
		DNSNames:     cert.DNSNames,
	}

	for _, ip := range cert.IPAddresses {
		info.IPAddresses = append(info.IPAddresses, ip.String())
	}

	return info
}

// Expired reports whether the certificate is outside its validity period at now.
func (i *CertInfo) Expired(now time.Time) bool {
	return now.Before(i.NotBefore) || now.After(i.NotAfter)
}

// Inspect describes the stored certificate of hostname, ErrCertNotFound when absent.
func (c *CertBase) Inspect(ctx context.Context, hostname string) (*CertInfo, error) {
	host, err := NormalizeHostname(hostname)
	if err != nil {
		return nil, err
	}

	if !c.store.Exists(host) {
		return nil, fmt.Errorf("%s: %w", host, ErrCertNotFound)
	}

	return c.inspect(host)
}

// InspectCA describes the stored CA certificate, ErrCANotFound when absent.
func (c *CertBase) InspectCA(ctx context.Context) (*CertInfo, error) {
	if !c.IsCAExist() {
		return nil, ErrCANotFound
	}

	return c.inspect(store.CAIdentity)
}

func (c *CertBase) inspect(name string) (*CertInfo, error) {
	pair, err := c.load(name)
	if err != nil {
		return nil, err
	}

	cert, err := pair.Certificate()
	if err != nil {
		return nil, err
	}

	layout := c.store.Layout()

	info := NewCertInfo(cert)
	info.PathCert = layout.Path(name, store.KindCert)
	info.PathKey = layout.Path(name, store.KindKey)

	return info, nil
}
