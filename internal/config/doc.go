// Package config resolves datebook's settings from a YAML file, environment
// variables and command-line flags, in increasing order of priority.
package config
