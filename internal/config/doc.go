// Package config loads the Lichtwerk TOML configuration.
//
// Load picks the file (explicit path, $LICHTWERK_CONFIG,
// ~/.config/lichtwerk/config.toml, then ./lichtwerk.toml), layers it over
// Default, applies the LICHTWERK_API_TOKEN and LICHTWERK_BACKEND_URL
// overrides and validates the result. Paths in the returned Config are
// absolute.
package config
