package certbase

import (
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/wolfeidau/certbase/internal/pki"
)

// ReusePolicy decides whether a stored host certificate is returned as is.
type ReusePolicy string

const (
	// ReuseAlways trusts any certificate present in storage.
	ReuseAlways ReusePolicy = "always"
	// ReuseVerify re-issues a stored certificate that is expired, unparsable,
	// or not signed by the current CA.
	ReuseVerify ReusePolicy = "verify"
)

// ParseReusePolicy parses a policy name, an empty name selecting ReuseAlways.
func ParseReusePolicy(s string) (ReusePolicy, error) {
	switch ReusePolicy(s) {
	case "", ReuseAlways:
		return ReuseAlways, nil
	case ReuseVerify:
		return ReuseVerify, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownReusePolicy)
	}
}

var errCANotLoaded = errors.New("ca certificate could not be loaded")

// verifyLeaf checks a stored host pair is usable and signed by ca.
func verifyLeaf(pair *KeyCertPair, ca *KeyCertPair, now time.Time) error {
	if ca == nil {
		return errCANotLoaded
	}

	if _, err := tls.X509KeyPair(pair.Cert, pair.Key); err != nil {
		return fmt.Errorf("key pair: %w", err)
	}

	cert, err := pki.ParseCertificate(pair.Cert)
	if err != nil {
		return err
	}

	if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
		return fmt.Errorf("certificate valid from %s until %s", cert.NotBefore.Format(time.RFC3339), cert.NotAfter.Format(time.RFC3339))
	}

	caCert, err := pki.ParseCertificate(ca.Cert)
	if err != nil {
		return err
	}

	if err := cert.CheckSignatureFrom(caCert); err != nil {
		return fmt.Errorf("not signed by current ca: %w", err)
	}

	return nil
}
