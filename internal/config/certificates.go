package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"golang.org/x/crypto/pkcs12"

	"walletpay/pkg/utils"
)

// HasCertificate reports whether any merchant identity certificate is configured.
func (c ApplePayConfig) HasCertificate() bool {
	return c.P12Path != "" || (c.CertPath != "" && c.KeyPath != "")
}

// LoadMerchantCertificate loads the merchant identity certificate. It never
// touches the network; a P12 bundle takes precedence over a PEM pair.
func LoadMerchantCertificate(cfg ApplePayConfig) (tls.Certificate, error) {
	if !cfg.HasCertificate() {
		return tls.Certificate{}, utils.ErrCertificatesNotConfigured
	}

	if cfg.P12Path != "" {
		data, err := os.ReadFile(cfg.P12Path)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("%w: %s", utils.ErrCertificateFilesNotFound, cfg.P12Path)
		}
		key, cert, err := pkcs12.Decode(data, cfg.P12Password)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("%w: decode %s: %v", utils.ErrCertificateInvalid, cfg.P12Path, err)
		}
		return tls.Certificate{
			Certificate: [][]byte{cert.Raw},
			PrivateKey:  key,
			Leaf:        cert,
		}, nil
	}

	for _, path := range []string{cfg.CertPath, cfg.KeyPath} {
		if _, err := os.Stat(path); err != nil {
			return tls.Certificate{}, fmt.Errorf("%w: %s", utils.ErrCertificateFilesNotFound, path)
		}
	}
	pair, err := tls.LoadX509KeyPair(cfg.CertPath, cfg.KeyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("%w: %v", utils.ErrCertificateInvalid, err)
	}
	if pair.Leaf == nil && len(pair.Certificate) > 0 {
		leaf, err := x509.ParseCertificate(pair.Certificate[0])
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("%w: %v", utils.ErrCertificateInvalid, err)
		}
		pair.Leaf = leaf
	}
	return pair, nil
}
