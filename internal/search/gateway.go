// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries the remote paper index and turns its responses
// into validated Paper records. It keeps no state between calls; caching
// belongs to the stores.
package search

import (
	"context"
	"errors"

	"github.com/pdiddy/research-mcp/pkg/types"
)

var (
	// ErrRemoteUnavailable wraps network failures, timeouts, and non-200
	// answers from the remote index.
	ErrRemoteUnavailable = errors.New("remote index unavailable")

	// ErrRemoteFormat wraps responses that could not be parsed into
	// Paper records.
	ErrRemoteFormat = errors.New("remote index response malformed")
)

// Gateway searches the remote index for a topic. Results are returned in
// the index's relevance order. Implementations clamp maxResults to their
// configured ceiling.
type Gateway interface {
	Search(ctx context.Context, topic string, maxResults int) ([]types.Paper, error)
}

// IsRemoteFailure reports whether err is one of the gateway's typed
// failures, which callers may answer from a stale cache.
func IsRemoteFailure(err error) bool {
	return errors.Is(err, ErrRemoteUnavailable) || errors.Is(err, ErrRemoteFormat)
}
