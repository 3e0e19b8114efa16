package server

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
)

// snsHost matches the SNS endpoints allowed to serve signing certificates and
// subscription confirmations.
var snsHost = regexp.MustCompile(`^sns\.[a-z0-9-]+\.amazonaws\.com(\.cn)?$`)

const maxCertSize = 64 * 1024

// ErrUntrustedMessage is returned for SNS messages that fail verification.
var ErrUntrustedMessage = errors.New("untrusted sns message")

// CertFetcher loads the certificate published at an SNS SigningCertURL.
type CertFetcher func(ctx context.Context, certURL string) (*x509.Certificate, error)

// SNSVerifier authenticates SNS HTTP(S) messages.
type SNSVerifier struct {
	fetch CertFetcher

	mu    sync.Mutex
	certs map[string]*x509.Certificate
}

// NewSNSVerifier creates a verifier that loads signing certificates with fetch.
func NewSNSVerifier(fetch CertFetcher) *SNSVerifier {
	return &SNSVerifier{
		fetch: fetch,
		certs: make(map[string]*x509.Certificate),
	}
}

// verify checks the message signature and, for confirmations, the SubscribeURL.
func (v *SNSVerifier) verify(ctx context.Context, msg snsMessage) error {
	if err := CheckSNSURL(msg.SigningCertURL); err != nil {
		return fmt.Errorf("%w: signing cert: %v", ErrUntrustedMessage, err)
	}
	if msg.Type == "SubscriptionConfirmation" || msg.Type == "UnsubscribeConfirmation" {
		if err := CheckSNSURL(msg.SubscribeURL); err != nil {
			return fmt.Errorf("%w: subscribe url: %v", ErrUntrustedMessage, err)
		}
	}

	var hash crypto.Hash
	switch msg.SignatureVersion {
	case "1":
		hash = crypto.SHA1
	case "2":
		hash = crypto.SHA256
	default:
		return fmt.Errorf("%w: unsupported signature version %q", ErrUntrustedMessage, msg.SignatureVersion)
	}

	sig, err := base64.StdEncoding.DecodeString(msg.Signature)
	if err != nil {
		return fmt.Errorf("%w: decode signature: %v", ErrUntrustedMessage, err)
	}

	cert, err := v.certificate(ctx, msg.SigningCertURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUntrustedMessage, err)
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("%w: signing cert is not RSA", ErrUntrustedMessage)
	}

	if err := rsa.VerifyPKCS1v15(pub, hash, digest(hash, msg.stringToSign()), sig); err != nil {
		return fmt.Errorf("%w: bad signature", ErrUntrustedMessage)
	}
	return nil
}

func (v *SNSVerifier) certificate(ctx context.Context, certURL string) (*x509.Certificate, error) {
	v.mu.Lock()
	cert, ok := v.certs[certURL]
	v.mu.Unlock()
	if ok {
		return cert, nil
	}

	cert, err := v.fetch(ctx, certURL)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.certs[certURL] = cert
	v.mu.Unlock()
	return cert, nil
}

// CheckSNSURL accepts only https URLs on an SNS endpoint host.
func CheckSNSURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse %q: %w", raw, err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("%q is not https", raw)
	}
	if u.Port() != "" || !snsHost.MatchString(strings.ToLower(u.Hostname())) {
		return fmt.Errorf("host %q is not an sns endpoint", u.Host)
	}
	return nil
}

// HTTPCertFetcher downloads PEM certificates with client and verifies them
// against roots for the URL's host. A nil roots pool uses the system pool.
func HTTPCertFetcher(client *http.Client, roots *x509.CertPool) CertFetcher {
	return func(ctx context.Context, certURL string) (*x509.Certificate, error) {
		u, err := url.Parse(certURL)
		if err != nil {
			return nil, fmt.Errorf("parse cert url: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, certURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create cert request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch signing cert: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("signing cert returned status %d", resp.StatusCode)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxCertSize))
		if err != nil {
			return nil, fmt.Errorf("read signing cert: %w", err)
		}

		block, _ := pem.Decode(data)
		if block == nil || block.Type != "CERTIFICATE" {
			return nil, errors.New("signing cert is not a PEM certificate")
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse signing cert: %w", err)
		}

		if _, err := cert.Verify(x509.VerifyOptions{
			DNSName:   u.Hostname(),
			Roots:     roots,
			KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
		}); err != nil {
			return nil, fmt.Errorf("verify signing cert: %w", err)
		}
		return cert, nil
	}
}

func digest(hash crypto.Hash, data []byte) []byte {
	if hash == crypto.SHA1 {
		sum := sha1.Sum(data)
		return sum[:]
	}
	sum := sha256.Sum256(data)
	return sum[:]
}
