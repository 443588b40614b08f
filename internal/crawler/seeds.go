package crawler

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadSeeds reads one seed URL per line. Blank lines and lines starting
// with '#' are skipped.
func ReadSeeds(r io.Reader) ([]string, error) {
	seeds := make([]string, 0)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seeds = append(seeds, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read seeds: %w", err)
	}
	return seeds, nil
}

// LoadSeeds reads the seeds file at path.
func LoadSeeds(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // operator supplied seeds file
	if err != nil {
		return nil, fmt.Errorf("failed to open seeds file: %w", err)
	}
	defer f.Close()
	return ReadSeeds(f)
}
