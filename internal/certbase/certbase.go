package certbase

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/wolfeidau/certbase/internal/pki"
	"github.com/wolfeidau/certbase/internal/store"
)

// KeyCertPair is the PEM encoded private key and certificate of an identity.
type KeyCertPair struct {
	Key  []byte
	Cert []byte
}

// TLSCertificate parses the pair for use in a tls.Config.
func (p *KeyCertPair) TLSCertificate() (tls.Certificate, error) {
	cert, err := tls.X509KeyPair(p.Cert, p.Key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to load key pair: %w: %w", pki.ErrCrypto, err)
	}
	return cert, nil
}

// Certificate parses the certificate of the pair.
func (p *KeyCertPair) Certificate() (*x509.Certificate, error) {
	return pki.ParseCertificate(p.Cert)
}

// CertList is the content of a storage root.
type CertList struct {
	// CA is the reserved CA identity when a CA is present, empty otherwise.
	CA    string   `json:"ca"`
	Hosts []string `json:"certs"`
}

// Options configures a CertBase.
type Options struct {
	// Store holds key material. When nil a file store is opened at Root.
	Store store.Store
	// Root is the storage directory used when Store is nil.
	Root string
	// Issuer creates keys and certificates, a NativeIssuer when nil.
	Issuer pki.Issuer
	// Subject overrides the built-in subject defaults.
	Subject SubjectDefaults
	// Days is the validity of issued certificates, pki.DefaultDays when zero.
	Days int
	// ReusePolicy governs stored host certificates, ReuseAlways when empty.
	ReusePolicy ReusePolicy
	Logger      zerolog.Logger
	// Now is the clock used by ReuseVerify, time.Now when nil.
	Now func() time.Time
}

// CertBase manages a local CA and the host certificates it signs.
type CertBase struct {
	store   store.Store
	issuer  pki.Issuer
	subject SubjectDefaults
	days    int
	reuse   ReusePolicy
	log     zerolog.Logger
	now     func() time.Time

	tlsCache sync.Map // host -> *tls.Certificate
	group    singleflight.Group
}

// New creates a CertBase from opts.
func New(opts Options) (*CertBase, error) {
	st := opts.Store
	if st == nil {
		if opts.Root == "" {
			return nil, errors.New("storage root is required")
		}
		st = store.NewFileStore(opts.Root)
	}

	issuer := opts.Issuer
	if issuer == nil {
		issuer = pki.NewNativeIssuer()
	}

	reuse, err := ParseReusePolicy(string(opts.ReusePolicy))
	if err != nil {
		return nil, err
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &CertBase{
		store:   st,
		issuer:  issuer,
		subject: opts.Subject,
		days:    opts.Days,
		reuse:   reuse,
		log:     opts.Logger,
		now:     now,
	}, nil
}

// Root returns the storage root directory.
func (c *CertBase) Root() string {
	return c.store.Layout().Root
}

// IsCAExist reports whether the CA key and certificate are both present.
func (c *CertBase) IsCAExist() bool {
	return c.store.Exists(store.CAIdentity)
}

// CreateCACert issues a self-signed CA certificate and persists it.
// It fails with ErrCAAlreadyExists when a CA is present, leaving storage untouched.
func (c *CertBase) CreateCACert(ctx context.Context, commonName string) (*KeyCertPair, error) {
	if c.IsCAExist() {
		return nil, ErrCAAlreadyExists
	}

	req, err := c.issuer.CreateSigningRequest(ctx, BuildSubject(c.subject, commonName))
	if err != nil {
		return nil, fmt.Errorf("failed to create ca signing request: %w", err)
	}

	issued, err := c.issuer.CreateCertificate(ctx, pki.CertificateParams{
		CSR:       req.CSR,
		ClientKey: req.PrivateKey,
		Days:      c.days,
		Policy:    pki.PolicyCA,
		Identity:  store.CAIdentity,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ca certificate: %w", err)
	}

	pair, err := c.save(store.CAIdentity, issued)
	if err != nil {
		return nil, err
	}

	c.clearTLSCache()

	c.logIssued(c.log.Info().Str("common_name", commonName), store.CAIdentity, pair).Msg("created ca certificate")

	return pair, nil
}

// GetCACert returns the stored CA pair, ErrCANotFound when absent.
func (c *CertBase) GetCACert(ctx context.Context) (*KeyCertPair, error) {
	if !c.IsCAExist() {
		return nil, ErrCANotFound
	}

	return c.load(store.CAIdentity)
}

// GetCertByHost returns the stored certificate for hostname, issuing and
// persisting a CA-signed one when none is stored or the reuse policy rejects it.
func (c *CertBase) GetCertByHost(ctx context.Context, hostname string) (*KeyCertPair, error) {
	host, err := NormalizeHostname(hostname)
	if err != nil {
		return nil, err
	}

	if c.store.Exists(host) {
		pair, err := c.load(host)
		if err != nil {
			return nil, err
		}

		reason := c.rejectReason(ctx, pair)
		if reason == nil {
			c.log.Debug().Str("host", host).Msg("reusing host certificate")
			return pair, nil
		}

		c.log.Info().Str("host", host).Err(reason).Msg("reissuing host certificate")
	}

	ca, err := c.GetCACert(ctx)
	if err != nil {
		return nil, err
	}

	req, err := c.issuer.CreateSigningRequest(ctx, BuildSubject(c.subject, host))
	if err != nil {
		return nil, fmt.Errorf("failed to create signing request for %s: %w", host, err)
	}

	issued, err := c.issuer.CreateCertificate(ctx, pki.CertificateParams{
		CSR:                req.CSR,
		ClientKey:          req.PrivateKey,
		SigningKey:         ca.Key,
		SigningCertificate: ca.Cert,
		Days:               c.days,
		Policy:             pki.PolicyLeaf,
		Identity:           host,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate for %s: %w", host, err)
	}

	pair, err := c.save(host, issued)
	if err != nil {
		return nil, err
	}

	c.tlsCache.Delete(host)

	c.logIssued(c.log.Info(), host, pair).Msg("issued host certificate")

	return pair, nil
}

// RemoveCert deletes the stored pair of hostname. It reports false when nothing was stored.
func (c *CertBase) RemoveCert(ctx context.Context, hostname string) (bool, error) {
	host, err := NormalizeHostname(hostname)
	if err != nil {
		return false, err
	}

	removed, err := c.store.RemoveAll(c.store.Layout().Dir(host))
	if err != nil {
		return false, err
	}

	c.tlsCache.Delete(host)

	c.log.Info().Str("host", host).Bool("removed", removed).Msg("removed host certificate")

	return removed, nil
}

// RemoveAllCerts deletes the storage root including the CA.
func (c *CertBase) RemoveAllCerts(ctx context.Context) error {
	root := c.store.Layout().Root

	if _, err := c.store.RemoveAll(root); err != nil {
		return err
	}

	c.clearTLSCache()

	c.log.Info().Str("root", root).Msg("removed all certificates")

	return nil
}

// ListCerts returns the CA identity, when present, and the stored host names.
func (c *CertBase) ListCerts(ctx context.Context) (*CertList, error) {
	hosts, err := c.store.ListHosts()
	if err != nil {
		return nil, err
	}

	list := &CertList{Hosts: hosts}
	if c.IsCAExist() {
		list.CA = store.CAIdentity
	}

	return list, nil
}

func (c *CertBase) rejectReason(ctx context.Context, pair *KeyCertPair) error {
	if c.reuse != ReuseVerify {
		return nil
	}

	var ca *KeyCertPair
	if c.IsCAExist() {
		loaded, err := c.GetCACert(ctx)
		if err != nil {
			return err
		}
		ca = loaded
	}

	return verifyLeaf(pair, ca, c.now())
}

func (c *CertBase) load(name string) (*KeyCertPair, error) {
	layout := c.store.Layout()

	key, err := c.store.Read(layout.Path(name, store.KindKey))
	if err != nil {
		return nil, err
	}

	cert, err := c.store.Read(layout.Path(name, store.KindCert))
	if err != nil {
		return nil, err
	}

	return &KeyCertPair{Key: key, Cert: cert}, nil
}

// save writes the key before the certificate, so an interrupted write leaves
// an identity that Exists reports absent.
func (c *CertBase) save(name string, issued *pki.IssuedCertificate) (*KeyCertPair, error) {
	layout := c.store.Layout()

	key, err := c.store.Write(layout.Path(name, store.KindKey), issued.PrivateKey)
	if err != nil {
		return nil, err
	}

	cert, err := c.store.Write(layout.Path(name, store.KindCert), issued.Certificate)
	if err != nil {
		return nil, err
	}

	return &KeyCertPair{Key: key, Cert: cert}, nil
}

func (c *CertBase) logIssued(ev *zerolog.Event, name string, pair *KeyCertPair) *zerolog.Event {
	layout := c.store.Layout()

	ev = ev.Str("host", name).
		Str("path_cert", layout.Path(name, store.KindCert)).
		Str("path_key", layout.Path(name, store.KindKey))

	if cert, err := pair.Certificate(); err == nil {
		ev = ev.Str("serial_number", cert.SerialNumber.Text(16)).Time("not_after", cert.NotAfter)
	}

	return ev
}
