// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package sharepoint

import (
	"crypto"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/netSkope/spo-retention-tool/internal/config"
	"software.sslmate.com/src/go-pkcs12"
)

// Authentication modes accepted in configuration and the interactive menu.
const (
	AuthModeSecret      = "secret"
	AuthModeCertificate = "certificate"
	AuthModeDeviceCode  = "devicecode"
)

// NewCredential builds the Azure AD credential selected by cfg.AuthMode.
// Device-code is the default when no mode is configured; the menu offers the
// same three modes interactively.
func NewCredential(cfg *config.Config) (azcore.TokenCredential, error) {
	switch cfg.AuthMode {
	case AuthModeSecret:
		return azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, nil)
	case AuthModeCertificate:
		pfxData, err := os.ReadFile(cfg.PfxPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read PFX file: %w", err)
		}
		return newCertCredential(cfg.TenantID, cfg.ClientID, pfxData, cfg.PfxPassword)
	case "", AuthModeDeviceCode:
		return azidentity.NewDeviceCodeCredential(&azidentity.DeviceCodeCredentialOptions{
			TenantID: cfg.TenantID,
			ClientID: cfg.ClientID,
		})
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}
}

func newCertCredential(tenantID, clientID string, pfxData []byte, password string) (azcore.TokenCredential, error) {
	// go-pkcs12 handles SHA-256 and other modern PFX algorithms that the
	// stdlib decoder rejects.
	key, cert, caCerts, err := pkcs12.DecodeChain(pfxData, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decode PFX: %w", err)
	}

	privKey, ok := key.(crypto.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("decoded key is not a valid crypto.PrivateKey")
	}

	// Leaf certificate first, then the chain.
	certs := []*x509.Certificate{cert}
	certs = append(certs, caCerts...)

	opts := &azidentity.ClientCertificateCredentialOptions{
		SendCertificateChain: true,
	}
	return azidentity.NewClientCertificateCredential(tenantID, clientID, certs, privKey, opts)
}
