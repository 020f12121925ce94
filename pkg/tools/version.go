package tools

import (
	"context"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/routemodel/pkg/version"
)

// VersionInfo is the get_version result.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
	Module    string `json:"module,omitempty"`
	// VCS carries the vcs.* stamps the toolchain embeds, without the prefix
	VCS map[string]string `json:"vcs,omitempty"`
}

// GetVersionTool returns the get_version tool definition
func GetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the version and build information of the routemodel service"),
	)
}

// HandleGetVersion reports the ldflags build metadata plus whatever the
// binary's embedded build info adds.
func HandleGetVersion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return WithParsedInput("get_version", func(ctx context.Context, _ struct{}, _ *slog.Logger) (any, error) {
		return buildVersionInfo(), nil
	})(ctx, req)
}

func buildVersionInfo() VersionInfo {
	meta := version.Info()
	vi := VersionInfo{
		Version:   meta["version"],
		Commit:    meta["commit"],
		BuildDate: meta["build_date"],
		GoVersion: meta["go_version"],
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return vi
	}
	vi.Module = bi.Main.Path
	for _, s := range bi.Settings {
		key, found := strings.CutPrefix(s.Key, "vcs.")
		if !found {
			continue
		}
		if vi.VCS == nil {
			vi.VCS = map[string]string{}
		}
		vi.VCS[key] = s.Value
	}
	// ldflags win; the VCS stamp only fills an unset commit
	if rev := vi.VCS["revision"]; rev != "" && (vi.Commit == "" || vi.Commit == "unknown") {
		vi.Commit = rev
	}
	return vi
}
