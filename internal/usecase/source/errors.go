// Package source seeds feed sources from a YAML file into the source
// repository. Sources already registered under the same feed URL are kept
// as they are.
package source

import "errors"

var (
	// ErrEmptySeed indicates that the seed file declares no sources.
	ErrEmptySeed = errors.New("seed file contains no sources")

	// ErrDuplicateSource indicates that the seed file lists the same feed URL twice.
	ErrDuplicateSource = errors.New("duplicate feed URL in seed file")
)
