// Package config holds the process configuration of the chaincode. It is
// loaded once in main and passed explicitly to whatever needs it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "CHAINCODE"

// Config describes how the chaincode process starts.
type Config struct {
	// ServerAddress switches the process to chaincode-as-a-service mode when set.
	ServerAddress string
	// ChaincodeID is the package id the peer knows this chaincode by.
	ChaincodeID string
	TLS         TLSConfig
	// LogSpec is a flogging spec such as "info" or "skillverify.store=debug:info".
	LogSpec string
}

// TLSConfig points at the PEM files used by the chaincode server.
type TLSConfig struct {
	Disabled         bool
	KeyFile          string
	CertFile         string
	ClientCACertFile string
}

// Load reads configuration from the environment and, when path is not empty,
// from the YAML file at path. Environment variables win over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.address", "")
	v.SetDefault("id", "")
	v.SetDefault("tls.disabled", true)
	v.SetDefault("tls.key.file", "")
	v.SetDefault("tls.cert.file", "")
	v.SetDefault("tls.client.cacert.file", "")
	v.SetDefault("log.spec", "info")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read '%s': %w", path, err)
		}
	}

	cfg := &Config{
		ServerAddress: strings.TrimSpace(v.GetString("server.address")),
		ChaincodeID:   strings.TrimSpace(v.GetString("id")),
		TLS: TLSConfig{
			Disabled:         v.GetBool("tls.disabled"),
			KeyFile:          v.GetString("tls.key.file"),
			CertFile:         v.GetString("tls.cert.file"),
			ClientCACertFile: v.GetString("tls.client.cacert.file"),
		},
		LogSpec: v.GetString("log.spec"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunAsServer reports whether the chaincode should listen instead of dialing the peer.
func (c *Config) RunAsServer() bool {
	return c.ServerAddress != ""
}

// Validate checks that server mode has what it needs.
func (c *Config) Validate() error {
	if !c.RunAsServer() {
		return nil
	}
	if c.ChaincodeID == "" {
		return errors.New("config: CHAINCODE_ID is required when CHAINCODE_SERVER_ADDRESS is set")
	}
	if !c.TLS.Disabled && (c.TLS.KeyFile == "" || c.TLS.CertFile == "") {
		return errors.New("config: TLS is enabled but CHAINCODE_TLS_KEY_FILE or CHAINCODE_TLS_CERT_FILE is missing")
	}
	return nil
}

// TLSProperties loads the PEM files into the form shim.ChaincodeServer expects.
func (c *Config) TLSProperties() (shim.TLSProperties, error) {
	if c.TLS.Disabled {
		return shim.TLSProperties{Disabled: true}, nil
	}
	key, err := os.ReadFile(c.TLS.KeyFile)
	if err != nil {
		return shim.TLSProperties{}, fmt.Errorf("config: failed to read TLS key: %w", err)
	}
	cert, err := os.ReadFile(c.TLS.CertFile)
	if err != nil {
		return shim.TLSProperties{}, fmt.Errorf("config: failed to read TLS cert: %w", err)
	}
	props := shim.TLSProperties{Key: key, Cert: cert}
	if c.TLS.ClientCACertFile != "" {
		props.ClientCACerts, err = os.ReadFile(c.TLS.ClientCACertFile)
		if err != nil {
			return shim.TLSProperties{}, fmt.Errorf("config: failed to read client CA certs: %w", err)
		}
	}
	return props, nil
}
