package app

import (
	"fmt"
	"strings"

	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/sitepipe/internal/ui/style"
)

// Banner renders the startup summary of cfg.
func Banner(cfg domain.BuildConfig, version string) string {
	rows := [][2]string{
		{"project", cfg.Name},
		{"mode", string(cfg.Mode)},
		{"scripts", string(cfg.BundleStrategy)},
		{"refresh", cfg.RefreshType()},
	}

	var b strings.Builder
	b.WriteString(style.Title.Render("sitepipe " + version))
	b.WriteString("\n")
	for _, row := range rows {
		_, _ = fmt.Fprintf(&b, "  %s %s\n", style.Label.Width(8).Render(row[0]), style.Value.Render(row[1]))
	}
	b.WriteString("\n")
	return b.String()
}
