// Package common contains shared constants, sentinel errors and the typed
// error used across AuthKeeper components.
package common

const (
	// AuthorizationHeader carries "Bearer <access token>" on HTTP requests.
	AuthorizationHeader = "Authorization"

	// AuthorizationMetadataKey is the gRPC metadata key for the same value.
	// gRPC lower-cases metadata keys.
	AuthorizationMetadataKey = "authorization"

	BearerScheme = "Bearer"

	RoleUser  = "user"
	RoleAdmin = "admin"
)
