package store

import (
	"path/filepath"
)

// CAIdentity is the reserved identity name of the root CA. '#' is not valid in
// a hostname so it never collides with a host identity.
const CAIdentity = "##ca##"

const (
	caDir    = "ca"
	caBase   = "ca"
	hostsDir = "certs"
)

// Kind identifies one of the two files owned by an identity.
type Kind string

const (
	KindKey  Kind = "key"
	KindCert Kind = "cert"
)

// Extension returns the file extension used for the kind.
func (k Kind) Extension() string {
	if k == KindCert {
		return "crt"
	}
	return "key"
}

// Layout resolves identity names to paths below a storage root.
//
//	{root}/ca/ca.key, {root}/ca/ca.crt
//	{root}/certs/{host}/{host}.key, {root}/certs/{host}/{host}.crt
type Layout struct {
	Root string
}

// HostsDir returns the directory holding one subdirectory per host identity.
func (l Layout) HostsDir() string {
	return filepath.Join(l.Root, hostsDir)
}

// Dir returns the directory exclusively owned by the identity.
func (l Layout) Dir(name string) string {
	if name == CAIdentity {
		return filepath.Join(l.Root, caDir)
	}
	return filepath.Join(l.HostsDir(), name)
}

// Path returns the file path of the given kind for the identity.
func (l Layout) Path(name string, kind Kind) string {
	base := name
	if name == CAIdentity {
		base = caBase
	}
	return filepath.Join(l.Dir(name), base+"."+kind.Extension())
}
