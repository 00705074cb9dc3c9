package pki

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

const (
	pemTypeCertificate = "CERTIFICATE"
	pemTypeRequest     = "CERTIFICATE REQUEST"
	pemTypePrivateKey  = "PRIVATE KEY"
)

// EncodeCertificate PEM encodes a DER certificate.
func EncodeCertificate(der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: pemTypeCertificate, Bytes: der})
}

// EncodePrivateKey PEM encodes a private key in PKCS#8 form.
func EncodePrivateKey(key crypto.Signer) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w: %w", ErrCrypto, err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: pemTypePrivateKey, Bytes: der}), nil
}

// ParseCertificate decodes the first CERTIFICATE block of a PEM buffer.
func ParseCertificate(data []byte) (*x509.Certificate, error) {
	block, err := decodeBlock(data, pemTypeCertificate)
	if err != nil {
		return nil, err
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w: %w", ErrCrypto, err)
	}

	return cert, nil
}

// ParseCertificateRequest decodes a PEM certificate request and checks its signature.
func ParseCertificateRequest(data []byte) (*x509.CertificateRequest, error) {
	block, err := decodeBlock(data, pemTypeRequest, "NEW CERTIFICATE REQUEST")
	if err != nil {
		return nil, err
	}

	csr, err := x509.ParseCertificateRequest(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate request: %w: %w", ErrCrypto, err)
	}

	if err := csr.CheckSignature(); err != nil {
		return nil, fmt.Errorf("invalid certificate request signature: %w: %w", ErrCrypto, err)
	}

	return csr, nil
}

// ParsePrivateKey decodes a PEM private key in PKCS#8, PKCS#1 or SEC 1 form.
func ParsePrivateKey(data []byte) (crypto.Signer, error) {
	block, err := decodeBlock(data, pemTypePrivateKey, "RSA PRIVATE KEY", "EC PRIVATE KEY")
	if err != nil {
		return nil, err
	}

	var key any

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		key, err = x509.ParseECPrivateKey(block.Bytes)
	default:
		key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w: %w", ErrCrypto, err)
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("private key of type %T cannot sign: %w", key, ErrCrypto)
	}

	return signer, nil
}

func decodeBlock(data []byte, types ...string) (*pem.Block, error) {
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, fmt.Errorf("no %s PEM block found: %w", types[0], ErrCrypto)
		}

		for _, t := range types {
			if block.Type == t {
				return block, nil
			}
		}
	}
}

// publicKeysEqual compares public keys of any standard algorithm.
func publicKeysEqual(a, b crypto.PublicKey) error {
	type equaler interface {
		Equal(crypto.PublicKey) bool
	}

	ka, ok := a.(equaler)
	if !ok {
		return errors.New("unsupported public key type")
	}

	if !ka.Equal(b) {
		return errors.New("public keys do not match")
	}

	return nil
}
