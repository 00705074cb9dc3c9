package certbase

import (
	"fmt"
	"net"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

const maxHostnameLength = 253

// hostnameProfile is the lookup profile without STD3 rules, so underscores
// used by docker-compose services and DNS records are accepted.
var hostnameProfile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(false),
	idna.StrictDomainName(false),
)

// NormalizeHostname maps a hostname to the identity it is stored under.
//
// Surrounding space, a port, IPv6 brackets and a trailing dot are removed.
// IP addresses are returned in canonical form. Names are lowercased and
// converted to their IDNA ASCII form, keeping a leading "*." wildcard label.
// Names that could escape the storage root are rejected with ErrInvalidHostname.
func NormalizeHostname(raw string) (string, error) {
	host := strings.TrimSpace(raw)
	if host == "" {
		return "", fmt.Errorf("empty hostname: %w", ErrInvalidHostname)
	}

	if strings.ContainsAny(host, `/\`) {
		return "", fmt.Errorf("hostname %q contains a path separator: %w", raw, ErrInvalidHostname)
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	host = strings.TrimSuffix(host, ".")

	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}

	prefix := ""
	if strings.HasPrefix(host, "*.") {
		prefix = "*."
		host = host[2:]
	}

	for _, label := range strings.Split(host, ".") {
		if label == "" {
			return "", fmt.Errorf("hostname %q has an empty label: %w", raw, ErrInvalidHostname)
		}
	}

	for _, r := range host {
		if r < utf8.RuneSelf && !isHostnameByte(byte(r)) {
			return "", fmt.Errorf("hostname %q contains %q: %w", raw, r, ErrInvalidHostname)
		}
	}

	ascii, err := hostnameProfile.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("hostname %q: %w: %w", raw, ErrInvalidHostname, err)
	}

	name := prefix + ascii
	if len(name) > maxHostnameLength {
		return "", fmt.Errorf("hostname %q is longer than %d bytes: %w", raw, maxHostnameLength, ErrInvalidHostname)
	}

	return name, nil
}

func isHostnameByte(b byte) bool {
	return b >= 'a' && b <= 'z' ||
		b >= 'A' && b <= 'Z' ||
		b >= '0' && b <= '9' ||
		b == '-' || b == '_' || b == '.'
}
