// Package types defines the public data model of regionkit: grid coordinates,
// sector runs, allocation records, compression schemes, relocation plans and
// the typed error taxonomy shared by every package.
//
// Design goals:
//   - Small, copyable value types instead of object graphs.
//   - Paranoid bounds checking; never panic on malformed input.
//   - Typed errors with stable categories (io/corrupt/too-large/plan/...).
//
// This package has no dependencies beyond the standard library.
package types
