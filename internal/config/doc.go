// Package config loads harvester configuration from an optional JSON
// config file, falling back to well-defined defaults so the harvester
// can run completely unconfigured.
package config
