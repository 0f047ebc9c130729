// Package config loads the server configuration from YAML.
package config
