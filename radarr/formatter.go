package radarr

import (
	"fmt"
	"strings"
)

// FormatLibraryStatus renders a library status line block for the detail page
func FormatLibraryStatus(status *LibraryStatus) string {
	var sb strings.Builder
	sb.WriteString("Radarr: ")

	if status == nil || !status.InLibrary {
		sb.WriteString("not in library\n")
		return sb.String()
	}

	var parts []string
	if status.HasFile {
		parts = append(parts, "downloaded")
	} else {
		parts = append(parts, "missing")
	}
	if status.Monitored {
		parts = append(parts, "monitored")
	} else {
		parts = append(parts, "unmonitored")
	}
	sb.WriteString("in library (" + strings.Join(parts, ", ") + ")\n")

	var lines []string
	if !status.Added.IsZero() {
		lines = append(lines, "Added: "+status.Added.Format("2006-01-02"))
	}
	if status.SizeOnDisk > 0 {
		lines = append(lines, "Size: "+formatSize(status.SizeOnDisk))
	}
	for i, line := range lines {
		branch := "├──"
		if i == len(lines)-1 {
			branch = "╰──"
		}
		fmt.Fprintf(&sb, "%s %s\n", branch, line)
	}

	return sb.String()
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
