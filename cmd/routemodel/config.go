package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// clientServerName is the key of the routemodel entry under mcpServers
const clientServerName = "routemodel"

// stdioEntry launches routemodel as an MCP stdio server from a desktop client.
type stdioEntry struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// generateClientConfig writes a Claude Desktop config that launches this
// binary with -mcp. With mergeOnly the rest of an existing file is kept.
// The Bing Maps key is never written; the client must supply BING_MAPS_KEY
// in its environment.
func generateClientConfig(path string, mergeOnly bool) error {
	target, err := clientConfigPath(path)
	if err != nil {
		return err
	}

	doc := map[string]json.RawMessage{}
	if mergeOnly {
		if doc, err = readClientConfig(target); err != nil {
			return err
		}
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating routemodel binary: %w", err)
	}
	servers := map[string]json.RawMessage{}
	if raw, ok := doc["mcpServers"]; ok {
		if err := json.Unmarshal(raw, &servers); err != nil {
			return fmt.Errorf("%s: mcpServers is not an object: %w", target, err)
		}
	}
	if servers[clientServerName], err = json.Marshal(stdioEntry{Command: exe, Args: []string{"-mcp"}}); err != nil {
		return err
	}
	if doc["mcpServers"], err = json.Marshal(servers); err != nil {
		return err
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding client config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(target, out, 0600); err != nil {
		return fmt.Errorf("writing client config: %w", err)
	}
	return nil
}

// readClientConfig loads an existing config; a missing file is empty.
func readClientConfig(path string) (map[string]json.RawMessage, error) {
	doc := map[string]json.RawMessage{}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading client config: %w", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s is not a JSON object: %w", path, err)
	}
	return doc, nil
}

// clientConfigPath accepts only relative .json paths that stay inside the
// working directory.
func clientConfigPath(path string) (string, error) {
	switch {
	case path == "":
		return "", errors.New("client config path is empty")
	case filepath.Ext(path) != ".json":
		return "", fmt.Errorf("client config %q must be a .json file", path)
	case filepath.IsAbs(path):
		return "", fmt.Errorf("client config %q must be relative to the working directory", path)
	}

	clean := filepath.Clean(path)
	if !filepath.IsLocal(clean) {
		return "", fmt.Errorf("client config %q escapes the working directory", path)
	}
	return clean, nil
}
