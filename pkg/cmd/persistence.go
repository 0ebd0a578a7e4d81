// Package cmd holds wiring shared by the flowdeck binaries.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dukex/flowdeck/pkg/persistence"
	"github.com/dukex/flowdeck/pkg/persistence/file"
	"github.com/dukex/flowdeck/pkg/persistence/postgresql"
)

// NewPersistence picks a backend from the database URL scheme. URLs without a
// known scheme are treated as a file root.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
