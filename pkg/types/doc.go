// Package types defines small shared types used across the launcher packages.
// Mode is the serving mode selected at startup from the presence of the TLS
// certificate and key.
package types
