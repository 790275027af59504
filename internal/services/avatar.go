package services

import (
	"encoding/base64"
	"fmt"
	"hash/crc32"
	"html"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	defaultAgentName = "Player"
	defaultUserName  = "Guest"
)

var upper = cases.Upper(language.Und)

// letterAvatar renders a placeholder avatar for name: its upper-cased first
// character in white over a colour derived from crc32(name), as a base64
// SVG data URI. The same name always yields the same image.
func letterAvatar(name string) string {
	initial := ""
	if r, size := utf8.DecodeRuneInString(name); r != utf8.RuneError || size > 1 {
		initial = upper.String(name[:size])
	}
	color := fmt.Sprintf("#%06X", crc32.ChecksumIEEE([]byte(name))&0xFFFFFF)

	svg := `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="100">` +
		`<rect width="100" height="100" fill="` + color + `"/>` +
		`<text x="50" y="50" font-size="50" text-anchor="middle" dy=".35em" fill="white">` + html.EscapeString(initial) + `</text>` +
		`</svg>`
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}

// displayIdentity returns the nickname and avatar to show for a sender,
// applying the per-kind default name and the letter avatar fallback.
func displayIdentity(nickname, avatar string, agent bool) (string, string) {
	if nickname == "" {
		nickname = defaultUserName
		if agent {
			nickname = defaultAgentName
		}
	}
	if avatar == "" {
		avatar = letterAvatar(nickname)
	}
	return nickname, avatar
}
