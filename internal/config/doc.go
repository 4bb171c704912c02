// Package config loads the chatstream CLI configuration.
//
// Values are layered, later sources winning:
//
//  1. defaults
//  2. chatstream.yaml (or the file named with WithFile)
//  3. .env (or the file named with WithEnvFile)
//  4. CHATSTREAM_* environment variables
//
// Command line flags are applied on top by the CLI itself.
package config
