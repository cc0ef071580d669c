package config

type SecurityLevel int

const (
	SecurityPublic   SecurityLevel = iota // No authentication
	SecurityResident                      // Any valid access token
	SecurityStaff                         // Access token with a staff role
)

// EndpointSecurityConfig maps HTTP routes ("METHOD template") and gRPC
// full method names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Operational
	"GET /healthz": SecurityPublic,
	"GET /metrics": SecurityPublic,

	// Requests
	"POST /api/v1/requests/{type}":            SecurityResident,
	"GET /api/v1/requests/{type}/{id}":        SecurityResident,
	"PUT /api/v1/requests/{type}/{id}/status": SecurityStaff,
	"DELETE /api/v1/requests/{type}/{id}":     SecurityStaff,
	"GET /api/v1/availability/{type}":         SecurityResident,

	// Ledger
	"GET /api/v1/transactions":                SecurityResident,
	"GET /api/v1/transactions/{id}":           SecurityResident,
	"POST /api/v1/transactions/{id}/decision": SecurityStaff,
	"POST /api/v1/transactions/sync":          SecurityStaff,

	// gRPC
	"/grpc.health.v1.Health/Check": SecurityPublic,
	"/grpc.health.v1.Health/Watch": SecurityPublic,
	"/grpc.health.v1.Health/List":  SecurityPublic,
}

// GetSecurityLevel returns the security level for a given route or method
func GetSecurityLevel(method string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityStaff
}
