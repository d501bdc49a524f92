// Package daemon wires the queue store and workflow manager into a single
// lifecycle with flock-based locking to prevent multiple instances from
// processing the same queue. It also exposes the queue administration
// operations the CLI surfaces.
package daemon
