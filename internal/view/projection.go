// Package view derives renderable state from the session: message
// alignment, avatar lookup, and inline media classification. Everything
// here is a pure function; the session owns all state.
package view

import (
	"strings"

	"letschat/internal/session"
)

// Side tells the renderer which side of the pane a message bubble sits on.
type Side int

const (
	SideOther Side = iota
	SideSelf
)

// BodyKind classifies a message body for rendering.
type BodyKind int

const (
	BodyText BodyKind = iota
	BodyImage
)

// IsSelf reports whether a display name is the local user. Comparison is
// exact; no case folding or trimming.
func IsSelf(name, identity string) bool {
	return name == identity
}

// BubbleSide picks the pane side for a message. Display styling only; it
// never affects log order.
func BubbleSide(msg session.ChatMessage, identity string) Side {
	if IsSelf(msg.Sender, identity) {
		return SideSelf
	}
	return SideOther
}

// AvatarFor looks up a sender's avatar in the presence directory. A sender
// who has left or never registered yields an empty URL; that is a tolerated
// miss, not an error.
func AvatarFor(users []session.UserProfile, sender string) string {
	for _, u := range users {
		if u.Name == sender {
			return u.AvatarURL
		}
	}
	return ""
}

// Classify decides whether a body renders as an inline image or plain text.
// The heuristic is a case-sensitive ".gif" suffix match, nothing more — no
// other extensions and no MIME sniffing.
func Classify(body string) BodyKind {
	if strings.HasSuffix(body, ".gif") {
		return BodyImage
	}
	return BodyText
}
