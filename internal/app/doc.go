// Package app wires the engine together: it loads the HCL model, builds
// the registry, scopes, and executors, and drives the iteration loop.
package app
