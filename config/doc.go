// Package config loads the cross-reference configuration.
//
// A configuration has three sections:
//
//	properties:            # ordered; position is priority
//	  - P214
//	  - P227
//	mappings:              # pinned key -> target key, applied at startup
//	  P214/113230702: Q42
//	mnemonics:             # short name -> property
//	  viaf: P214
//
// YAML and JSON documents keep the order of mappings and mnemonics as written.
// TOML tables have no order, so their keys are sorted.
package config
