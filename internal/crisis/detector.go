// Package crisis scores free-text chat messages against a lexicon of
// crisis-indicative phrases. The signal is advisory: it selects the
// escalation response path and is stored with the turn for audit, but it
// never blocks a message.
package crisis

import (
	"strings"
)

// matchThreshold is the number of distinct lexicon phrases a message must
// contain before the crisis flag fires. A single hit is treated as
// insufficient signal; requiring corroboration keeps false positives down.
const matchThreshold = 2

// lexicon is the fixed set of crisis-indicative phrases, matched
// case-insensitively as substrings.
var lexicon = []string{
	// Suicide ideation
	"suicide",
	"kill myself",
	"end it all",
	"not worth living",
	"better off dead",
	"want to die",
	"wish i was dead",
	"end my life",
	"take my own life",

	// Self-harm
	"hurt myself",
	"self harm",
	"cutting",
	"cut myself",
	"harm myself",
	"self injury",
	"burning myself",
	"hitting myself",

	// Hopelessness
	"hopeless",
	"no point",
	"nothing matters",
	"give up",
	"can't go on",
	"no way out",
	"trapped",
	"worthless",
	"burden",
	"everyone hates me",

	// Concrete means
	"overdose",
	"pills",
	"rope",
	"bridge",
	"jump",
	"gun",
	"knife",
}

// Matches returns the distinct lexicon phrases found in the message.
func Matches(message string) []string {
	lower := strings.ToLower(message)
	var found []string
	for _, phrase := range lexicon {
		if strings.Contains(lower, phrase) {
			found = append(found, phrase)
		}
	}
	return found
}

// Detect reports whether the message carries enough crisis signal to warrant
// the escalation response path.
func Detect(message string) bool {
	return len(Matches(message)) >= matchThreshold
}
