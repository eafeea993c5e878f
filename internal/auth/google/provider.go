// Package google implements Google OpenID Connect login for the directory.
// It handles OIDC service discovery, the authorization-code exchange, and ID
// token verification, and exposes the verified profile claims used to
// reconcile directory accounts.
package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const issuerURL = "https://accounts.google.com"

// Config carries the OAuth client registration for Google login
type Config struct {
	Enabled      bool
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Profile holds the verified identity claims extracted from a Google ID token
type Profile struct {
	Subject string
	Email   string
	Name    string
}

// Provider wraps the Google OIDC provider
type Provider struct {
	verifier *oidc.IDTokenVerifier
	config   *oauth2.Config
}

// NewProvider initializes the Google provider with the given context,
// allowing callers to set deadlines for the OIDC discovery request.
func NewProvider(ctx context.Context, cfg *Config) (*Provider, error) {
	if !cfg.Enabled {
		return nil, errors.New("google login is not enabled")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("google client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, errors.New("google client secret is required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("google redirect URL is required")
	}

	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create google OIDC provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	return &Provider{verifier: verifier, config: oauth2Config}, nil
}

// AuthURL returns the OAuth2 authorization URL for the given state
func (p *Provider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades the authorization code for tokens and returns the verified
// profile from the ID token.
func (p *Provider) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, errors.New("token response contains no id_token")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse ID token claims: %w", err)
	}
	if !claims.EmailVerified {
		return nil, errors.New("google account email is not verified")
	}

	return &Profile{
		Subject: idToken.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
	}, nil
}
