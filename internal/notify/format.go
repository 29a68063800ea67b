package notify

import (
	"fmt"
	"strings"

	"hhbot/internal/domain"
)

// FormatPosting renders the notification text for one posting.
func FormatPosting(p domain.Posting) string {
	var b strings.Builder
	b.WriteString("🚀 New vacancy!\n")
	fmt.Fprintf(&b, "📌 %s\n", p.Title)
	if p.Company != "" {
		fmt.Fprintf(&b, "🏢 %s\n", p.Company)
	}
	if p.Region != "" {
		fmt.Fprintf(&b, "📍 %s\n", p.Region)
	}
	fmt.Fprintf(&b, "💰 %s\n", p.Salary)
	if p.Experience != "" {
		fmt.Fprintf(&b, "🧑‍💻 %s\n", p.Experience)
	}
	fmt.Fprintf(&b, "🏠 %s\n", p.WorkFormat)
	if !p.PublishedAt.IsZero() {
		fmt.Fprintf(&b, "⏳ %s\n", p.PublishedAt.Format("02.01.2006 15:04"))
	}
	fmt.Fprintf(&b, "🔗 %s", p.Link)
	return b.String()
}
