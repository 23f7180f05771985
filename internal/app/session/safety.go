package session

import "strings"

// crisisPhrases are matched case-insensitively as substrings, before any
// call to the remote assistant. A match is policy, not an error: the
// session answers locally with helplineText and skips dispatch entirely.
var crisisPhrases = []string{
	"kill myself",
	"killing myself",
	"suicide",
	"end my life",
}

const helplineText = "If you're in the UK, please call Samaritans at 116 123. In the US, call 988. You're not alone, and help is available."

func screenForCrisis(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range crisisPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
