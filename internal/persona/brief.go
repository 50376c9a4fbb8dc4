// Package persona assembles the natural-language briefings fed to the
// text-completion oracle. All output is deterministic given its inputs so it
// can be asserted in tests and reproduced from stored rows.
package persona

import (
	"fmt"
	"strings"

	"github.com/dostlabs/dost-server/internal/domain"
)

// ProfileBrief renders a structured synopsis of the user: name, field of
// study, lifestyle numbers, and one line per declared challenge. Optional
// inputs that are absent (nil lifestyle, zero challenges) are omitted rather
// than rendered as placeholders.
func ProfileBrief(user *domain.UserProfile, lifestyle *domain.LifestyleProfile, challenges []domain.ChallengeSelection) string {
	var b strings.Builder

	b.WriteString("Here is the context for the student you are talking to:\n")
	fmt.Fprintf(&b, "- Their name is %s.\n", user.FirstName)
	if user.FieldOfStudy != "" {
		fmt.Fprintf(&b, "- They study %s.\n", user.FieldOfStudy)
	}
	if lifestyle != nil {
		fmt.Fprintf(&b, "- Their lifestyle info: Sleeps %d hours/night, Stress Level is %d/10.\n",
			lifestyle.SleepHrs, lifestyle.StressLevel)
	}
	if len(challenges) > 0 {
		b.WriteString("- The main challenges they've identified are:\n")
		for _, c := range challenges {
			fmt.Fprintf(&b, "  - Under '%s', the specific issue is '%s' and the description is '%s'.\n",
				c.Category, c.Subcategory, c.Description)
		}
	}

	return b.String()
}

// ChatSystemPrompt builds the system context that seeds a new conversational
// session from a profile brief.
func ChatSystemPrompt(brief string) string {
	return "You are a friendly and empathetic student wellness chatbot named 'Dost'. " +
		"Your purpose is to provide support and practical advice in a mix of English and Hindi (Hinglish). " +
		"Keep your responses concise, supportive, and easy to understand.\n\n" +
		brief +
		"\nBegin the conversation by warmly greeting them by their first name and gently " +
		"acknowledging one of their key challenges (e.g., stress or a specific category they chose). " +
		"Ask them how you can help today."
}

// Greeting is the fixed assistant opening turn for a new session.
func Greeting(firstName string) string {
	return fmt.Sprintf("Hi %s! I'm Dost, your personal wellness friend. "+
		"I can see you're dealing with a few things, and that's completely okay. "+
		"We can talk about it. What's on your mind right now?", firstName)
}

// AffirmationPrompt builds the one-shot prompt for a short personalized
// affirmation. Uniqueness across calls is requested from the oracle, not
// enforced locally.
func AffirmationPrompt(brief string) string {
	return "You are an empathetic wellness assistant. " +
		"Generate ONE short, positive, uplifting affirmation. " +
		"Make it motivational, relevant to their challenges and lifestyle.\n\n" +
		brief +
		"\nKeep it under 20 words. " +
		"Avoid quotes, numbering, or extra explanations. " +
		"Return just the affirmation text. " +
		"Make it unique."
}
