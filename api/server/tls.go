// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/ava-labs/avalanchego/utils/perms"
)

const rsaKeyBits = 2048

var (
	ErrPrivateKeyNotPKCS8 = errors.New("API server accepts only PKCS8 private keys")
	ErrParsingKeyPair     = errors.New("failed parsing key pair")
	ErrParsingPrivateKey  = errors.New("failed parsing private key")
)

// InitKeyPair generates a self-signed TLS key/cert pair for the API server.
// The key and cert are written to [keyPath] and [certPath]. If there is
// already a file at [keyPath], returns nil.
func InitKeyPair(keyPath, certPath string) error {
	if _, err := os.Stat(keyPath); !os.IsNotExist(err) {
		return nil
	}

	certBytes, keyBytes, err := NewCertAndKeyBytes()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(certPath), perms.ReadWriteExecute); err != nil {
		return fmt.Errorf("couldn't create path for cert: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(keyPath), perms.ReadWriteExecute); err != nil {
		return fmt.Errorf("couldn't create path for key: %w", err)
	}
	if err := os.WriteFile(certPath, certBytes, perms.ReadOnly); err != nil {
		return fmt.Errorf("couldn't write cert file: %w", err)
	}
	if err := os.WriteFile(keyPath, keyBytes, perms.ReadOnly); err != nil {
		return fmt.Errorf("couldn't write key file: %w", err)
	}
	return nil
}

// LoadTLSConfig reads the key pair at [keyPath] and [certPath] into a server
// side TLS config.
func LoadTLSConfig(keyPath, certPath string) (*tls.Config, error) {
	certBytes, err := os.ReadFile(certPath)
	if err != nil {
		return nil, err
	}
	keyBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, err
	}
	cert, err := LoadTLSCertFromBytes(keyBytes, certBytes)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{*cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func LoadTLSCertFromBytes(keyBytes, certBytes []byte) (*tls.Certificate, error) {
	keyDERBlock, _ := pem.Decode(keyBytes)
	if keyDERBlock == nil {
		return nil, ErrParsingPrivateKey
	}
	if _, err := x509.ParsePKCS8PrivateKey(keyDERBlock.Bytes); err != nil {
		return nil, ErrPrivateKeyNotPKCS8
	}

	cert, err := tls.X509KeyPair(certBytes, keyBytes)
	if err != nil {
		return nil, ErrParsingKeyPair
	}

	cert.Leaf, err = x509.ParseCertificate(cert.Certificate[0])
	return &cert, err
}

// NewCertAndKeyBytes creates a new private key and a certificate it signed
// itself. Returns the PEM representations of both.
func NewCertAndKeyBytes() ([]byte, []byte, error) {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't generate rsa key: %w", err)
	}

	certTemplate := newCertTemplate()
	certBytes, err := x509.CreateCertificate(rand.Reader, certTemplate, certTemplate, &key.PublicKey, key)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't create certificate: %w", err)
	}
	var certBuff bytes.Buffer
	if err := pem.Encode(&certBuff, &pem.Block{Type: "CERTIFICATE", Bytes: certBytes}); err != nil {
		return nil, nil, fmt.Errorf("couldn't write cert file: %w", err)
	}

	privBytes, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't marshal private key: %w", err)
	}
	var keyBuff bytes.Buffer
	if err := pem.Encode(&keyBuff, &pem.Block{Type: "PRIVATE KEY", Bytes: privBytes}); err != nil {
		return nil, nil, fmt.Errorf("couldn't write private key: %w", err)
	}
	return certBuff.Bytes(), keyBuff.Bytes(), nil
}

func newCertTemplate() *x509.Certificate {
	return &x509.Certificate{
		SerialNumber:          big.NewInt(0),
		NotBefore:             time.Date(2000, time.January, 0, 0, 0, 0, 0, time.UTC),
		NotAfter:              time.Now().AddDate(100, 0, 0),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
	}
}
