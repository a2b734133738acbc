package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
	"github.com/dmitrijs2005/authkeeper/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations accept "15m" or a
// number of seconds. Pointer fields distinguish "absent" from "false".
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn"`
	DatabaseTimeout              timex.Duration `json:"db_timeout"`
	SecretKey                    string         `json:"jwt_secret"`
	SigningAlgorithm             string         `json:"jwt_algorithm"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_ttl"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_ttl"`
	PasswordPepper               string         `json:"password_pepper"`
	Debug                        *bool          `json:"debug"`
	AdminUsername                string         `json:"admin_username"`
	AdminPassword                string         `json:"admin_password"`
}

// parseJson overlays the file named by -c/-config onto config. Only
// fields present in the file replace existing values.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		return err
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.SigningAlgorithm, c.SigningAlgorithm)
	setString(&config.PasswordPepper, c.PasswordPepper)
	setString(&config.AdminUsername, c.AdminUsername)
	setString(&config.AdminPassword, c.AdminPassword)

	if c.DatabaseTimeout.Duration != 0 {
		config.DatabaseTimeout = c.DatabaseTimeout.Duration
	}
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.Debug != nil {
		config.Debug = *c.Debug
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
