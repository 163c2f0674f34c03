package workflow

import (
	"fmt"
	"strings"
)

func PacketSummary(res *Result) string {
	var b strings.Builder
	b.WriteString("Packet Summary:\n")
	fmt.Fprintf(&b, "• Combined %d files\n", res.FilesCombined)
	if res.CoverIncluded {
		b.WriteString("• Cover page: Included\n")
	} else {
		b.WriteString("• Cover page: Not included\n")
	}
	if len(res.Posts) > 0 {
		fmt.Fprintf(&b, "• Social posts: Created %d posts\n", len(res.Posts))
	} else {
		b.WriteString("• Social posts: Not created\n")
	}
	fmt.Fprintf(&b, "• Property: %s\n", orDefault(res.Street, "No address specified"))
	fmt.Fprintf(&b, "• Location: %s", orDefault(res.CityState, "No location specified"))

	if res.Packet != nil && len(res.Packet.Skipped) > 0 {
		fmt.Fprintf(&b, "\n• Skipped: %d files", len(res.Packet.Skipped))
	}
	return b.String()
}

func SocialSummary(res *Result) string {
	labels := make([]string, 0, len(res.Posts))
	for _, p := range res.Posts {
		labels = append(labels, p.Type.Label())
	}

	var b strings.Builder
	b.WriteString("Social Posts Created:\n")
	fmt.Fprintf(&b, "• Created %d social media posts\n", len(res.Posts))
	fmt.Fprintf(&b, "• Property: %s\n", res.Street)
	fmt.Fprintf(&b, "• Location: %s\n", res.CityState)
	fmt.Fprintf(&b, "• Posts: %s", strings.Join(labels, ", "))
	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
