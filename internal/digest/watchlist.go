package digest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/nanobot-dev/nanobridge/internal/paths"
)

const watchlistFileName = "watchlist.toml"

// Watchlist holds additional digest targets beyond the configured defaults.
type Watchlist struct {
	Repos    []string `toml:"repos"`
	Services []string `toml:"services"`
}

// DefaultWatchlistPath returns the user's watchlist file location.
func DefaultWatchlistPath() (string, error) {
	root, err := paths.ConfigRoot()
	if err != nil {
		return "", err
	}

	return filepath.Join(root, watchlistFileName), nil
}

// LoadWatchlist reads the watchlist from path. A missing file yields an
// empty watchlist, not an error.
func LoadWatchlist(path string) (*Watchlist, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path from controlled config directory
	if err != nil {
		if os.IsNotExist(err) {
			return &Watchlist{}, nil
		}

		return nil, fmt.Errorf("read watchlist: %w", err)
	}

	var wl Watchlist
	if err := toml.Unmarshal(data, &wl); err != nil {
		return nil, fmt.Errorf("parse watchlist: %w", err)
	}

	return &wl, nil
}

// SaveWatchlist writes the watchlist to path.
func SaveWatchlist(path string, wl *Watchlist) error {
	data, err := toml.Marshal(wl)
	if err != nil {
		return fmt.Errorf("marshal watchlist: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create watchlist directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write watchlist: %w", err)
	}

	return nil
}
