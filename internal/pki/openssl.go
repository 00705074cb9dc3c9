package pki

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultOpenSSLPath is the binary looked up on PATH when no path is configured.
const DefaultOpenSSLPath = "openssl"

var _ Issuer = (*OpenSSLIssuer)(nil)

// OpenSSLIssuer issues certificates by running an openssl binary.
type OpenSSLIssuer struct {
	path    string
	keyBits int
}

// NewOpenSSLIssuer creates an issuer running the openssl binary at path.
func NewOpenSSLIssuer(path string) *OpenSSLIssuer {
	if path == "" {
		path = DefaultOpenSSLPath
	}

	return &OpenSSLIssuer{path: path, keyBits: DefaultKeyBits}
}

// Path returns the openssl binary the issuer runs.
func (o *OpenSSLIssuer) Path() string {
	return o.path
}

// CreateSigningRequest runs `openssl req` to generate a key and a certificate request.
func (o *OpenSSLIssuer) CreateSigningRequest(ctx context.Context, subject Subject) (*SigningRequest, error) {
	if err := subject.Validate(); err != nil {
		return nil, err
	}

	var req *SigningRequest

	err := withWorkDir(func(dir string) error {
		keyPath := filepath.Join(dir, "client.key")
		csrPath := filepath.Join(dir, "client.csr")

		if err := o.run(ctx, "req", "-new",
			"-newkey", "rsa:"+strconv.Itoa(o.keyBits),
			"-nodes",
			"-sha256",
			"-batch",
			"-subj", subject.OpenSSL(),
			"-keyout", keyPath,
			"-out", csrPath,
		); err != nil {
			return err
		}

		csr, err := os.ReadFile(csrPath)
		if err != nil {
			return fmt.Errorf("failed to read certificate request: %w: %w", ErrCrypto, err)
		}

		key, err := os.ReadFile(keyPath)
		if err != nil {
			return fmt.Errorf("failed to read private key: %w: %w", ErrCrypto, err)
		}

		req = &SigningRequest{CSR: csr, PrivateKey: key}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return req, nil
}

// CreateCertificate runs `openssl x509 -req` to issue a certificate for the request.
func (o *OpenSSLIssuer) CreateCertificate(ctx context.Context, params CertificateParams) (*IssuedCertificate, error) {
	csr, err := ParseCertificateRequest(params.CSR)
	if err != nil {
		return nil, err
	}

	clientKey, err := ParsePrivateKey(params.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load client key: %w", err)
	}

	if err := publicKeysEqual(clientKey.Public(), csr.PublicKey); err != nil {
		return nil, fmt.Errorf("client key does not match certificate request: %w: %w", ErrCrypto, err)
	}

	if !params.SelfSigned() {
		if len(params.SigningKey) == 0 || len(params.SigningCertificate) == 0 {
			return nil, fmt.Errorf("signing key and certificate must be supplied together: %w", ErrCrypto)
		}
		if _, err := NewSigner(params.SigningKey, params.SigningCertificate); err != nil {
			return nil, err
		}
	}

	ext, err := extensionFile(params.Policy, csr.Subject.CommonName, params.Identity)
	if err != nil {
		return nil, err
	}

	serial, err := newSerialNumber()
	if err != nil {
		return nil, err
	}

	var cert []byte

	err = withWorkDir(func(dir string) error {
		files := map[string][]byte{
			"client.csr": params.CSR,
			"client.key": params.ClientKey,
			"policy.ext": ext,
		}
		if !params.SelfSigned() {
			files["ca.key"] = params.SigningKey
			files["ca.crt"] = params.SigningCertificate
		}

		for name, content := range files {
			if err := os.WriteFile(filepath.Join(dir, name), content, 0o600); err != nil {
				return fmt.Errorf("failed to stage %s: %w: %w", name, ErrCrypto, err)
			}
		}

		certPath := filepath.Join(dir, "client.crt")
		args := []string{"x509", "-req",
			"-in", filepath.Join(dir, "client.csr"),
			"-days", strconv.Itoa(params.days()),
			"-sha256",
			"-extfile", filepath.Join(dir, "policy.ext"),
			"-set_serial", "0x" + serial.Text(16),
			"-out", certPath,
		}

		if params.SelfSigned() {
			args = append(args, "-signkey", filepath.Join(dir, "client.key"))
		} else {
			args = append(args, "-CA", filepath.Join(dir, "ca.crt"), "-CAkey", filepath.Join(dir, "ca.key"))
		}

		if err := o.run(ctx, args...); err != nil {
			return err
		}

		data, err := os.ReadFile(certPath)
		if err != nil {
			return fmt.Errorf("failed to read certificate: %w: %w", ErrCrypto, err)
		}

		cert = data
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := ParseCertificate(cert); err != nil {
		return nil, err
	}

	return &IssuedCertificate{
		Certificate: cert,
		PrivateKey:  params.ClientKey,
	}, nil
}

func (o *OpenSSLIssuer) run(ctx context.Context, args ...string) error {
	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, o.path, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("openssl %s failed: %w: %w", args[0], ErrCrypto, err)
		}
		return fmt.Errorf("openssl %s failed: %s: %w: %w", args[0], msg, ErrCrypto, err)
	}

	return nil
}

// withWorkDir runs fn in a private temporary directory removed afterwards.
func withWorkDir(fn func(dir string) error) error {
	dir, err := os.MkdirTemp("", "certbase-openssl-*")
	if err != nil {
		return fmt.Errorf("failed to create work directory: %w: %w", ErrCrypto, err)
	}
	defer os.RemoveAll(dir)

	return fn(dir)
}
