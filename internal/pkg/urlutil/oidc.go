package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// IssuerURL normalizes an identity provider domain into its issuer URL.
// "tenant.eu.auth0.com" and "https://tenant.eu.auth0.com/" both become
// "https://tenant.eu.auth0.com".
func IssuerURL(domain string) string {
	domain = strings.TrimSpace(domain)
	domain = strings.TrimRight(domain, "/")
	if !strings.HasPrefix(domain, "http://") && !strings.HasPrefix(domain, "https://") {
		domain = "https://" + domain
	}
	return domain
}

// OIDCDiscoveryURL builds the OIDC discovery document URL for the given issuer.
// Returns a URL like: {issuer}/.well-known/openid-configuration
func OIDCDiscoveryURL(issuer string) string {
	return fmt.Sprintf("%s/.well-known/openid-configuration", strings.TrimRight(issuer, "/"))
}

// AuthorizeEndpoint returns {issuer}/authorize
func AuthorizeEndpoint(domain string) string {
	return IssuerURL(domain) + "/authorize"
}

// TokenEndpoint returns {issuer}/oauth/token
func TokenEndpoint(domain string) string {
	return IssuerURL(domain) + "/oauth/token"
}

// LogoutURL builds the provider logout URL that returns the browser to returnTo.
// Returns a URL like: {issuer}/v2/logout?client_id={clientID}&returnTo={returnTo}
func LogoutURL(domain, clientID, returnTo string) string {
	q := url.Values{}
	q.Set("client_id", clientID)
	if returnTo != "" {
		q.Set("returnTo", returnTo)
	}
	return IssuerURL(domain) + "/v2/logout?" + q.Encode()
}
