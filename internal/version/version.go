package version

import (
	"fmt"
	"log"
	"strings"

	"github.com/vigil-sh/vigil/theme"
)

var (
	Name        = "vigil"
	Description = "HTTP health watchdog with config failover"
	Version     = "v0.1.0"
	Commit      = "none"
	Date        = "nowish"
)

const (
	GithubHomeText  = "github.com/vigil-sh/vigil"
	GithubHomeUri   = "https://github.com/vigil-sh/vigil"
	GithubLatestUri = "https://github.com/vigil-sh/vigil/releases/latest"
)

func PrintVersionInfo(extendedInfo bool, vlog *log.Logger) {
	githubUri := theme.Hyperlink(GithubHomeUri, GithubHomeText)
	latestUri := theme.Hyperlink(GithubLatestUri, Version)

	var b strings.Builder

	b.WriteString(theme.ColourSplash(`
╔──────────────────────────────────────────────╗
│  ██╗   ██╗██╗ ██████╗ ██╗██╗                 │
│  ██║   ██║██║██╔════╝ ██║██║                 │
│  ██║   ██║██║██║  ███╗██║██║                 │
│  ╚██╗ ██╔╝██║██║   ██║██║██║                 │
│   ╚████╔╝ ██║╚██████╔╝██║███████╗            │
│    ╚═══╝  ╚═╝ ╚═════╝ ╚═╝╚══════╝            │` + "\n"))

	b.WriteString(theme.ColourSplash("│  "))
	b.WriteString(theme.StyleUrl(githubUri))
	b.WriteString("  ")
	b.WriteString(theme.ColourVersion(latestUri))
	b.WriteString("\n")
	b.WriteString(theme.ColourSplash("╚──────────────────────────────────────────────╝"))

	if extendedInfo {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf(" Commit: %s\n", Commit))
		b.WriteString(fmt.Sprintf("  Built: %s\n", Date))
	}

	vlog.Println(b.String())
}
