package address

import (
	"strings"
	"unicode"
)

const (
	DefaultPacketName = "Listing Packet"
	packetSuffix      = " - Packet.pdf"
	socialSuffix      = " - Instagram.png"
)

// Parse splits a free-text address into a street line and a city/state line.
//
// Three or more comma separated parts keep the first as the street and join
// the next two as the city/state. Two parts split directly. Without commas
// the last word becomes the city/state and the rest the street.
func Parse(full string) (street, cityState string) {
	parts := strings.Split(full, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch {
	case len(parts) >= 3:
		return parts[0], parts[1] + ", " + parts[2]
	case len(parts) == 2:
		return parts[0], parts[1]
	}

	words := strings.Fields(full)
	if len(words) >= 2 {
		return strings.Join(words[:len(words)-1], " "), words[len(words)-1]
	}
	return full, ""
}

// Join is the inverse of Parse for display purposes.
func Join(street, cityState string) string {
	switch {
	case street != "" && cityState != "":
		return street + ", " + cityState
	case street != "":
		return street
	default:
		return cityState
	}
}

// PacketFilename names the combined PDF after the street, or generically.
func PacketFilename(street string) string {
	street = strings.TrimSpace(street)
	if street == "" {
		return DefaultPacketName + ".pdf"
	}
	return SafeName(street) + packetSuffix
}

// SocialFilename names a social post image after the street and post label.
func SocialFilename(street, label string) string {
	safe := SafeName(street)
	if safe == "" {
		safe = DefaultPacketName
	}
	return safe + " - " + label + socialSuffix
}

// SafeName keeps letters, digits, spaces, '-' and '_'.
func SafeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
