// Package opaque tracks opaque reference types across a declaration group and
// derives their lifecycle entry points: free/release, methods, equality,
// hashing and sequence operations.
package opaque
