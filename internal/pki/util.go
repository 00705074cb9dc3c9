package pki

import (
	"crypto"
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // subject key identifiers are defined as SHA-1 by RFC 5280
	"crypto/x509"
	"fmt"
	"math/big"
	"net"
)

// newSerialNumber returns a random non-zero serial of at most 128 bits.
func newSerialNumber() (*big.Int, error) {
	limit := new(big.Int).Lsh(big.NewInt(1), 128)

	serial, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w: %w", ErrCrypto, err)
	}

	if serial.Sign() == 0 {
		serial = big.NewInt(1)
	}

	return serial, nil
}

// subjectKeyID is the SHA-1 of the PKIX encoded public key.
func subjectKeyID(pub crypto.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w: %w", ErrCrypto, err)
	}

	sum := sha1.Sum(der) //nolint:gosec
	return sum[:], nil
}

// subjectAltNames derives the SAN entries of a leaf from its common name.
func subjectAltNames(commonName string) (dnsNames []string, ips []net.IP) {
	if ip := net.ParseIP(commonName); ip != nil {
		return nil, []net.IP{ip}
	}

	return []string{commonName}, nil
}
