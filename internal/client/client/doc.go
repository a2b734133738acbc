// Package client is a small HTTP client for the AuthKeeper API.
package client
