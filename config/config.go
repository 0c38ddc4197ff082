// eTAO - Encrypted TAO Graph Query Engine
// Copyright (C) 2025 eTAO-project
//
// This file is part of eTAO.
//
// eTAO is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// eTAO is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with eTAO. If not, see <https://www.gnu.org/licenses/>.

// Package config loads the engine configuration from a dotenv file and the
// process environment, with an optional YAML file for server settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingKey is returned when a required environment variable is absent.
var ErrMissingKey = errors.New("missing configuration key")

// DatabaseConfig holds the SQL store connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

// KeyConfig holds the cipher key material. Keys are loaded once at start
// and live for the process lifetime.
type KeyConfig struct {
	OPEKey string
	AESKey string
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	CacheSize  int    `yaml:"cache_size"`
	Encrypt    bool   `yaml:"encrypt"`
}

// Config is the full engine configuration.
type Config struct {
	Database DatabaseConfig
	Keys     KeyConfig
	Server   ServerConfig
}

// Load reads the dotenv file at envPath (values already present in the
// process environment win) and assembles the configuration.
func Load(envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envPath, err)
		}
	}

	host, err := requireEnv("DATABASE_HOST")
	if err != nil {
		return nil, err
	}
	portStr, err := requireEnv("DATABASE_PORT_NUM")
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE_PORT_NUM %q: %w", portStr, err)
	}
	user, err := requireEnv("DATABASE_USERNAME")
	if err != nil {
		return nil, err
	}
	password, err := requireEnv("DATABASE_PASSWORD")
	if err != nil {
		return nil, err
	}
	name, err := requireEnv("DATABASE_NAME")
	if err != nil {
		return nil, err
	}
	opeKey, err := requireEnv("OPE_KEY")
	if err != nil {
		return nil, err
	}
	aesKey, err := requireEnv("AES_KEY")
	if err != nil {
		return nil, err
	}

	return &Config{
		Database: DatabaseConfig{
			Host:     host,
			Port:     port,
			User:     user,
			Password: password,
			Name:     name,
		},
		Keys: KeyConfig{
			OPEKey: opeKey,
			AESKey: aesKey,
		},
		Server: ServerConfig{
			ListenAddr: "localhost:8080",
			Encrypt:    true,
		},
	}, nil
}

// LoadServerFile overlays server settings from a YAML file.
func (c *Config) LoadServerFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read server config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &c.Server); err != nil {
		return fmt.Errorf("failed to parse server config %s: %w", path, err)
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = "localhost:8080"
	}
	return nil
}

// ConnString renders the pgx connection string.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

func requireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingKey, key)
	}
	return v, nil
}
