package state

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadURLs reads a JSON array of URL strings.
func LoadURLs(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator supplied URL list
	if err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}
	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		return nil, fmt.Errorf("failed to parse URL list %s: %w", path, err)
	}
	return urls, nil
}

// SaveURLs writes urls as an indented JSON array.
func SaveURLs(path string, urls []string) error {
	if urls == nil {
		urls = []string{}
	}
	data, err := json.MarshalIndent(urls, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode URL list: %w", err)
	}
	return writeFileAtomic(path, append(data, '\n'))
}
