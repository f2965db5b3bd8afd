// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package readwise

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pdiddy/highlight-sync/pkg/types"
)

// SaveCache writes the export snapshot to path as indented JSON. The file is
// written to a temp name first and renamed into place.
func SaveCache(path string, books []types.Book) error {
	data, err := json.MarshalIndent(books, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding export snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing export snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming export snapshot: %w", err)
	}
	return nil
}

// LoadCache reads the export snapshot at path. When the file is missing or
// corrupt the export is fetched from the API via client and written to path
// before being returned, so repeated test runs hit the network once.
func LoadCache(ctx context.Context, client *Client, path string) ([]types.Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading cache file %s: %w", path, err)
		}
		return refreshCache(ctx, client, path)
	}

	var books []types.Book
	if err := json.Unmarshal(data, &books); err != nil {
		// Corrupt snapshot: refetch and overwrite.
		return refreshCache(ctx, client, path)
	}
	return books, nil
}

func refreshCache(ctx context.Context, client *Client, path string) ([]types.Book, error) {
	books, err := client.FetchExport(ctx, "")
	if err != nil {
		return nil, err
	}
	if err := SaveCache(path, books); err != nil {
		return nil, err
	}
	return books, nil
}
