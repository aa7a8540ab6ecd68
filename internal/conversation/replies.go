package conversation

import "strings"

// Reply is a transport-free outbound effect of a state transition.
type Reply struct {
	Text           string
	Keyboard       [][]string
	RemoveKeyboard bool
}

// MenuKeyboard is the admin menu shown as a one-time reply keyboard.
var MenuKeyboard = [][]string{
	{"Users", "History"},
	{"Delete User", "Exit"},
}

var emojiMap = map[string][]string{
	"welcome": {"😎", "🚀", "✨"},
	"error":   {"😬", "😅", "🙈"},
	"admin":   {"👑", "😎", "🔐"},
	"success": {"✅", "🎉", "👍"},
	"general": {"😊", "👍", "🤗"},
	"date":    {"📅", "🕒"},
	"tanishk": {"🎤", "🎵"},
}

// Emoji picks a decorative suffix for a reply category. General replies
// about the date or the founder get their specific emoji instead.
func Emoji(category, messageContent string) string {
	lower := strings.ToLower(messageContent)
	if category == "general" && strings.Contains(lower, "date") {
		return emojiMap["date"][0]
	}
	if category == "general" && strings.Contains(lower, "tanishk sharma") {
		return emojiMap["tanishk"][0]
	}
	if set, ok := emojiMap[category]; ok {
		return set[0]
	}
	return "😊"
}
