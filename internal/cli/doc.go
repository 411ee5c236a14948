// Package cli implements the docstore command line.
package cli
