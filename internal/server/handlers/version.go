package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"

	"github.com/fulmenhq/gofulmen/appidentity"
)

// AppVersion is injected from main via SetVersionInfo
var (
	AppVersion   = "dev"
	AppCommit    = "unknown"
	AppBuildDate = "unknown"
	appIdentity  *appidentity.Identity
)

// reportedModules are the dependencies listed by /version.
var reportedModules = map[string]string{
	"github.com/fulmenhq/gofulmen":           "gofulmen",
	"google.golang.org/genai":                "genai",
	"github.com/sashabaranov/go-openai":      "go_openai",
	"github.com/liushuangls/go-anthropic/v2": "go_anthropic",
	"github.com/PuerkitoBio/goquery":         "goquery",
}

// SetVersionInfo sets the version information for the handler
func SetVersionInfo(version, commit, buildDate string) {
	AppVersion = version
	AppCommit = commit
	AppBuildDate = buildDate
}

// SetAppIdentity sets the app identity for the handler
func SetAppIdentity(identity *appidentity.Identity) {
	appIdentity = identity
}

// VersionResponse represents the version information response
type VersionResponse struct {
	App          AppInfo           `json:"app"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
	Runtime      RuntimeInfo       `json:"runtime"`
}

// AppInfo contains application version details
type AppInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}

// RuntimeInfo contains runtime environment information
type RuntimeInfo struct {
	Platform      string `json:"platform"`
	NumCPU        int    `json:"num_cpu"`
	NumGoroutines int    `json:"num_goroutines"`
}

// VersionHandler serves GET /version.
func VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{
		App: AppInfo{
			Name:      binaryName(),
			Version:   AppVersion,
			Commit:    AppCommit,
			BuildDate: AppBuildDate,
			GoVersion: runtime.Version(),
		},
		Dependencies: dependencyVersions(),
		Runtime: RuntimeInfo{
			Platform:      runtime.GOOS + "/" + runtime.GOARCH,
			NumCPU:        runtime.NumCPU(),
			NumGoroutines: runtime.NumGoroutine(),
		},
	})
}

// binaryName prefers the app identity and falls back to argv[0].
func binaryName() string {
	if appIdentity != nil && appIdentity.BinaryName != "" {
		return appIdentity.BinaryName
	}
	if len(os.Args) > 0 && os.Args[0] != "" {
		return filepath.Base(os.Args[0])
	}
	return "mimin"
}

// dependencyVersions reports the build versions of reportedModules. Test
// binaries and builds without module info report none.
func dependencyVersions() map[string]string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	out := make(map[string]string, len(reportedModules))
	for _, dep := range info.Deps {
		name, ok := reportedModules[dep.Path]
		if !ok {
			continue
		}
		if dep.Replace != nil {
			out[name] = dep.Replace.Version
		} else {
			out[name] = dep.Version
		}
	}
	return out
}
