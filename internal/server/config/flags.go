package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
)

// parseFlags overlays command-line flags onto config:
//
//	-a string   HTTP bind address
//	-g string   gRPC bind address
//	-d string   PostgreSQL DSN
//	-s string   JWT secret
//	-m string   JWT algorithm (HS256, HS384, HS512)
//	-t int      access token ttl, seconds
//	-r int      refresh token ttl, seconds
//	-p string   password pepper
//	-u string   admin username
//	-w string   admin password
//	-debug      debug mode
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-m", "-t", "-r", "-p", "-u", "-w", "-debug"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "JWT secret")
	fs.StringVar(&config.SigningAlgorithm, "m", config.SigningAlgorithm, "JWT signing algorithm")

	accessTTL := fs.Int("t", int(config.AccessTokenValidityDuration.Seconds()), "access token ttl (seconds)")
	refreshTTL := fs.Int("r", int(config.RefreshTokenValidityDuration.Seconds()), "refresh token ttl (seconds)")

	fs.StringVar(&config.PasswordPepper, "p", config.PasswordPepper, "password pepper")
	fs.StringVar(&config.AdminUsername, "u", config.AdminUsername, "admin username")
	fs.StringVar(&config.AdminPassword, "w", config.AdminPassword, "admin password")
	fs.BoolVar(&config.Debug, "debug", config.Debug, "debug mode")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTTL) * time.Second
	config.RefreshTokenValidityDuration = time.Duration(*refreshTTL) * time.Second
	return nil
}
