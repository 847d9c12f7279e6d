// Package version - данные сборки, подставляются через -ldflags:
//
//	-X deliveroo-agent/internal/version.BuildDate=2024-10-01
//	-X deliveroo-agent/internal/version.BuildCommit=abc123
package version

import (
	"errors"
	"fmt"
	"runtime"
	"time"
)

var (
	Version     = "dev"
	BuildDate   string // YYYY-MM-DD (UTC)
	BuildCommit string
	BuildBranch string
)

// epoch - день первой сборки агента, номер сборки считается от него
var epoch = time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC)

var (
	ErrNoBuildDate  = errors.New("build date is empty")
	ErrBeforeEpoch  = errors.New("build date is before epoch")
	ErrBadBuildDate = errors.New("invalid build date")
)

// Info - данные сборки в структурированном виде
type Info struct {
	Version   string `json:"version"`
	Build     int    `json:"build"`
	BuildDate string `json:"buildDate,omitempty"`
	Commit    string `json:"commit,omitempty"`
	Branch    string `json:"branch,omitempty"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// BuildNumber - дни от epoch до даты сборки
func BuildNumber(date string) (int, error) {
	if date == "" {
		return 0, ErrNoBuildDate
	}
	t, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", ErrBadBuildDate, date, err)
	}
	if t.Before(epoch) {
		return 0, fmt.Errorf("%s: %w", date, ErrBeforeEpoch)
	}
	// часы, а не AddDate: обе даты в UTC
	return int(t.Sub(epoch).Hours() / 24), nil
}

func Get() Info {
	build, _ := BuildNumber(BuildDate)
	return Info{
		Version:   Version,
		Build:     build,
		BuildDate: BuildDate,
		Commit:    BuildCommit,
		Branch:    BuildBranch,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String - строка для логов при старте
func String() string {
	info := Get()
	if info.BuildDate == "" {
		return fmt.Sprintf("deliveroo-agent %s (local build)", info.Version)
	}
	return fmt.Sprintf("deliveroo-agent %s build %d (%s) commit[%s] branch[%s]",
		info.Version,
		info.Build,
		info.BuildDate,
		coalesce(info.Commit, "unknown"),
		coalesce(info.Branch, "unknown"),
	)
}

func coalesce(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
