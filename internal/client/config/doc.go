// Package config loads runtime configuration for the authctl CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment variables AUTHCTL_SERVER_URL, AUTHCTL_TOKEN_FILE and
//     AUTHCTL_TIMEOUT.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-s string   base URL of the auth server HTTP API
//	-f string   file that keeps the last token pair
//	-t int      request timeout (seconds)
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "token_file": "/home/me/.config/authkeeper/tokens.json",
//	  "timeout": "10s"
//	}
package config
