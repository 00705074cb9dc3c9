package pki

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"
)

// OIDIdentity records the storage identity a certificate was issued for.
// It sits under the private arc 1.3.6.1.4.1.99999.2.x. Value: UTF8String
var OIDIdentity = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 99999, 2, 1}

// ErrExtensionNotFound is returned when a required extension is missing
var ErrExtensionNotFound = errors.New("extension not found")

// identityExtension builds the non-critical OIDIdentity extension.
func identityExtension(identity string) (pkix.Extension, error) {
	value, err := asn1.MarshalWithParams(identity, "utf8")
	if err != nil {
		return pkix.Extension{}, fmt.Errorf("failed to marshal identity: %w: %w", ErrCrypto, err)
	}

	return pkix.Extension{Id: OIDIdentity, Value: value}, nil
}

// ExtractIdentity extracts the storage identity from the OIDIdentity extension
func ExtractIdentity(cert *x509.Certificate) (string, error) {
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(OIDIdentity) {
			var identity string
			if _, err := asn1.Unmarshal(ext.Value, &identity); err != nil {
				return "", fmt.Errorf("failed to unmarshal identity: %w", err)
			}
			return identity, nil
		}
	}
	return "", ErrExtensionNotFound
}
