// Package config defines the gatekeeper configuration, its defaults, and
// its validation rules.
//
// Configuration is loaded from a YAML file, defaults are applied for any
// omitted field, and environment variables of the form GATEKEEPER_SECTION_FIELD
// (e.g. GATEKEEPER_GATES_MAX_FOLLOWUP_ATTEMPTS) override both. The final
// configuration is validated before the process starts; an inconsistent
// threshold set is a startup failure, never a runtime gate outcome.
//
// The gates section can also be hot-reloaded at runtime through Watcher,
// which re-reads and re-validates the file on change and keeps serving the
// previous configuration when the new one is invalid.
package config
