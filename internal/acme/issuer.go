package acme

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-acme/lego/v4/certificate"
	"github.com/go-acme/lego/v4/challenge/http01"
	"github.com/go-acme/lego/v4/lego"
	"github.com/go-acme/lego/v4/registration"
)

// user implements registration.User for lego
type user struct {
	email        string
	registration *registration.Resource
	key          crypto.PrivateKey
}

func (u *user) GetEmail() string                        { return u.email }
func (u *user) GetRegistration() *registration.Resource { return u.registration }
func (u *user) GetPrivateKey() crypto.PrivateKey        { return u.key }

// IssueResult is a successfully obtained certificate
type IssueResult struct {
	CertPem  string
	KeyPem   string
	Issuer   string
	NotAfter time.Time
}

// Issuer obtains certificates via ACME HTTP-01. The account is
// registered lazily on first use and reused for the process lifetime.
type Issuer struct {
	email        string
	directoryURL string
	httpPort     string

	mu     sync.Mutex
	client *lego.Client
}

// NewIssuer creates an ACME issuer
func NewIssuer(email, directoryURL, httpPort string) *Issuer {
	if directoryURL == "" {
		directoryURL = lego.LEDirectoryProduction
	}
	if httpPort == "" {
		httpPort = "80"
	}
	return &Issuer{
		email:        email,
		directoryURL: directoryURL,
		httpPort:     httpPort,
	}
}

// ensureClient registers the ACME account on first use
func (i *Issuer) ensureClient() (*lego.Client, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.client != nil {
		return i.client, nil
	}

	accountKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate account key: %w", err)
	}

	u := &user{email: i.email, key: accountKey}
	config := lego.NewConfig(u)
	config.CADirURL = i.directoryURL

	client, err := lego.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create lego client: %w", err)
	}

	if err := client.Challenge.SetHTTP01Provider(
		http01.NewProviderServer("", i.httpPort),
	); err != nil {
		return nil, fmt.Errorf("failed to set HTTP-01 provider: %w", err)
	}

	reg, err := client.Registration.Register(registration.RegisterOptions{
		TermsOfServiceAgreed: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register ACME account: %w", err)
	}
	u.registration = reg

	i.client = client
	return client, nil
}

// Issue obtains a certificate for the hostname
func (i *Issuer) Issue(hostname string) (*IssueResult, error) {
	client, err := i.ensureClient()
	if err != nil {
		return nil, err
	}

	certs, err := client.Certificate.Obtain(certificate.ObtainRequest{
		Domains: []string{hostname},
		Bundle:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to obtain certificate: %w", err)
	}

	issuer, notAfter, err := parseLeaf(certs.Certificate)
	if err != nil {
		return nil, err
	}

	return &IssueResult{
		CertPem:  string(certs.Certificate),
		KeyPem:   string(certs.PrivateKey),
		Issuer:   issuer,
		NotAfter: notAfter,
	}, nil
}

// parseLeaf extracts issuer CN and expiry from the bundled PEM
func parseLeaf(certPem []byte) (string, time.Time, error) {
	block, _ := pem.Decode(certPem)
	if block == nil {
		return "", time.Time{}, errors.New("failed to decode certificate PEM")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to parse certificate: %w", err)
	}

	return cert.Issuer.CommonName, cert.NotAfter, nil
}
