package config

import "net/http"

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// EndpointSecurityConfig maps "METHOD route-template" to the required level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Health checks and provider notifications
	http.MethodGet + " /healthz":                          SecurityPublic,
	http.MethodPost + " /v1/payments/callback/{provider}": SecurityPublic,
	http.MethodGet + " /sandbox/checkout/{reference}":     SecurityPublic,

	// Availability is readable without an account
	http.MethodGet + " /v1/equipment/{id}/availability":        SecurityPublic,
	http.MethodGet + " /v1/equipment/{id}/availability/stream": SecurityPublic,
	http.MethodGet + " /v1/equipment/{id}/quote":               SecurityPublic,
}

// GetSecurityLevel returns the security level for a route
func GetSecurityLevel(method, pathTemplate string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method+" "+pathTemplate]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
