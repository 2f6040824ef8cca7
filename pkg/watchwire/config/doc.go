// Package config provides typed access to client configuration loaded
// from YAML or JSON files.
//
// Config wraps a plain map so partially specified files work: every
// accessor takes a default returned when the key is missing or has the
// wrong type. Well-known watchwire keys are listed as constants.
package config
