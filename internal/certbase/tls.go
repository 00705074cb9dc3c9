package certbase

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"

	"github.com/wolfeidau/certbase/internal/pki"
)

// TLSConfig returns a server configuration minting a certificate per SNI name.
// Certificates come from GetCertByHost and are cached in memory.
func (c *CertBase) TLSConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: c.getCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}

func (c *CertBase) getCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	if hello.ServerName == "" {
		return nil, ErrMissingSNI
	}

	ctx := hello.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	return c.TLSCertificate(ctx, hello.ServerName)
}

// TLSCertificate returns the parsed certificate of hostname with the CA appended to its chain.
// Concurrent calls for the same host share a single issuance.
func (c *CertBase) TLSCertificate(ctx context.Context, hostname string) (*tls.Certificate, error) {
	host, err := NormalizeHostname(hostname)
	if err != nil {
		return nil, err
	}

	if cached, ok := c.cachedTLSCertificate(host); ok {
		return cached, nil
	}

	v, err, _ := c.group.Do(host, func() (any, error) {
		if cached, ok := c.cachedTLSCertificate(host); ok {
			return cached, nil
		}

		cert, err := c.loadTLSCertificate(ctx, host)
		if err != nil {
			return nil, err
		}

		c.tlsCache.Store(host, cert)
		return cert, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*tls.Certificate), nil
}

func (c *CertBase) loadTLSCertificate(ctx context.Context, host string) (*tls.Certificate, error) {
	pair, err := c.GetCertByHost(ctx, host)
	if err != nil {
		return nil, err
	}

	ca, err := c.GetCACert(ctx)
	if err != nil {
		return nil, err
	}

	cert, err := pair.TLSCertificate()
	if err != nil {
		return nil, err
	}

	caCert, err := ca.Certificate()
	if err != nil {
		return nil, err
	}

	cert.Certificate = append(cert.Certificate, caCert.Raw)

	return &cert, nil
}

// CertPool returns a pool trusting the CA, for clients of servers using TLSConfig.
func (c *CertBase) CertPool(ctx context.Context) (*x509.CertPool, error) {
	ca, err := c.GetCACert(ctx)
	if err != nil {
		return nil, err
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(ca.Cert) {
		return nil, fmt.Errorf("failed to add ca certificate to pool: %w", pki.ErrCrypto)
	}

	return pool, nil
}

// cachedTLSCertificate returns the cached certificate of host. Under ReuseVerify
// an expired entry is evicted.
func (c *CertBase) cachedTLSCertificate(host string) (*tls.Certificate, bool) {
	v, ok := c.tlsCache.Load(host)
	if !ok {
		return nil, false
	}

	cert := v.(*tls.Certificate)
	if c.reuse == ReuseVerify && cert.Leaf != nil && c.now().After(cert.Leaf.NotAfter) {
		c.tlsCache.Delete(host)
		return nil, false
	}

	return cert, true
}

func (c *CertBase) clearTLSCache() {
	c.tlsCache.Clear()
}
