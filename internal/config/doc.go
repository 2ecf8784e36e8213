// Package config provides configuration structures and utilities for sitecrawl.
// It holds the validated command-line settings, the optional YAML site
// configuration file and domain validation.
package config
