package pki

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed policies/*.ext
var policyFiles embed.FS

// extensionFile renders the openssl extension file for a certificate.
func extensionFile(policy Policy, commonName, identity string) ([]byte, error) {
	var name string

	switch policy {
	case PolicyCA:
		name = "policies/ca.ext"
	case PolicyLeaf:
		name = "policies/leaf.ext"
	default:
		return nil, fmt.Errorf("unknown certificate policy %d: %w", policy, ErrCrypto)
	}

	base, err := policyFiles.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy %s: %w: %w", name, ErrCrypto, err)
	}

	var b strings.Builder
	b.Write(base)

	if policy == PolicyLeaf {
		dnsNames, ips := subjectAltNames(commonName)
		entries := make([]string, 0, 1)
		for _, dns := range dnsNames {
			entries = append(entries, "DNS:"+dns)
		}
		for _, ip := range ips {
			entries = append(entries, "IP:"+ip.String())
		}
		fmt.Fprintf(&b, "subjectAltName = %s\n", strings.Join(entries, ", "))
	}

	// The value is written as DER so config syntax such as '#' comments never applies to it.
	if identity != "" {
		ext, err := identityExtension(identity)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&b, "%s = DER:%X\n", OIDIdentity.String(), ext.Value)
	}

	return []byte(b.String()), nil
}
