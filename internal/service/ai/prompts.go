package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/zenora/backend/internal/model/companion"
	"github.com/zhouzirui/zenora/backend/internal/model/mood"
)

// Helpline is a crisis line surfaced by the crisis protocol.
type Helpline struct {
	Name   string
	Number string
	Hours  string
}

func (h Helpline) String() string {
	if h.Hours == "" {
		return fmt.Sprintf("%s: %s", h.Name, h.Number)
	}
	return fmt.Sprintf("%s: %s (%s)", h.Name, h.Number, h.Hours)
}

// Helplines are Indian crisis lines, most widely available first.
var Helplines = []Helpline{
	{Name: "Tele-MANAS", Number: "14416", Hours: "24/7, toll-free"},
	{Name: "KIRAN Mental Health Helpline", Number: "1800-599-0019", Hours: "24/7, toll-free"},
	{Name: "AASRA", Number: "+91-9820466726", Hours: "24/7"},
	{Name: "Vandrevala Foundation", Number: "+91-9999666555", Hours: "24/7"},
	{Name: "iCall", Number: "+91-9152987821", Hours: "Mon-Sat, 10am-8pm"},
}

// MinCrisisHelplines is how many helplines a crisis reply must name.
const MinCrisisHelplines = 3

// CrisisPrompt is used whenever self-harm risk is suspected.
func CrisisPrompt(p companion.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, %s. The user may be in crisis and experiencing thoughts of self-harm.\n\n", p.Name, p.Tagline)
	b.WriteString("CRITICAL RESPONSE PROTOCOL, follow every step in this order:\n")
	b.WriteString("1. Express immediate care and concern for them.\n")
	b.WriteString("2. Acknowledge their pain without judgment and remind them they are not alone.\n")
	fmt.Fprintf(&b, "3. Share at least %d of these helplines, with their phone numbers exactly as written:\n", MinCrisisHelplines)
	for _, h := range Helplines {
		b.WriteString("   - ")
		b.WriteString(h.String())
		b.WriteString("\n")
	}
	b.WriteString("4. Encourage them to reach out to someone they trust right now.\n")
	b.WriteString("5. Remind them that this feeling is temporary and that help is available.\n\n")
	b.WriteString("Be warm and direct, and keep the focus on their immediate safety. ")
	fmt.Fprintf(&b, "Respond in %s unless the user has explicitly asked for another language.", languageOf(p))
	return b.String()
}

// CompanionPrompt is the supportive prompt, tuned to the current affect.
func CompanionPrompt(p companion.Profile, a mood.Analysis) string {
	lang := languageOf(p)

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, %s", p.Name, p.Tagline)
	if p.Audience != "" {
		fmt.Fprintf(&b, " for %s", p.Audience)
	}
	b.WriteString(".\n\nGuidelines:\n")
	fmt.Fprintf(&b, "- ALWAYS respond in %s by default.\n", lang)
	b.WriteString("- If the user explicitly asks for another language (for example \"speak in Hindi\" or \"हिंदी में बात करें\"), switch to it.\n")
	b.WriteString("- If the user writes in another language for 2 or more consecutive messages, adapt to that language.\n")
	fmt.Fprintf(&b, "- Once you have switched, keep using that language until the user asks to go back to %s.\n", lang)
	b.WriteString("- Acknowledge their feelings before offering any suggestion.\n")
	b.WriteString("- Be supportive without being prescriptive; avoid clinical labels and diagnoses.\n")
	b.WriteString("- Use simple, accessible language and avoid jargon.\n")
	b.WriteString("- Be culturally sensitive to the Indian context: family dynamics, community ties and spirituality matter.\n")
	b.WriteString("- Avoid Western-centric advice; draw on familiar ideas such as balance and inner peace when they fit.\n")
	for _, boundary := range p.Boundaries {
		fmt.Fprintf(&b, "- Remember you are %s.\n", boundary)
	}

	emotions := "none detected"
	if len(a.Emotions) > 0 {
		emotions = strings.Join(a.Emotions, ", ")
	}
	fmt.Fprintf(&b, "\nCurrent user emotion: %s (intensity: %d/10)\n", a.Sentiment, a.Intensity)
	fmt.Fprintf(&b, "Detected emotions: %s\n\n", emotions)
	b.WriteString(toneHint(a))
	return b.String()
}

// SelectPrompt picks the crisis prompt whenever the keyword detector fired
// or the classifier graded the risk as high.
func SelectPrompt(p companion.Profile, crisis bool, a mood.Analysis) string {
	if crisis || a.CrisisLevel == mood.CrisisHigh {
		return CrisisPrompt(p)
	}
	return CompanionPrompt(p, a)
}

// CrisisMessage is the static reply used when no model reply is available
// during a crisis.
func CrisisMessage(p companion.Profile) string {
	var b strings.Builder
	b.WriteString("I'm really sorry you're going through this, and I'm glad you told me. ")
	b.WriteString("You don't have to face this alone. Please reach out for support right now:\n")
	b.WriteString(helplineList(MinCrisisHelplines))
	b.WriteString("\nIf you can, reach out to someone you trust and let them know how you're feeling. ")
	b.WriteString("This feeling is temporary, and help is available.")
	return b.String()
}

// EnsureHelplines appends a helpline footer when reply names none of them.
func EnsureHelplines(reply string) string {
	for _, h := range Helplines {
		if strings.Contains(reply, h.Number) {
			return reply
		}
	}
	footer := "If you are in immediate danger or thinking about ending your life, please call:\n" + helplineList(MinCrisisHelplines)
	reply = strings.TrimRight(reply, " \n")
	if reply == "" {
		return footer
	}
	return reply + "\n\n" + footer
}

func helplineList(n int) string {
	n = min(n, len(Helplines))
	var b strings.Builder
	for _, h := range Helplines[:n] {
		b.WriteString("- ")
		b.WriteString(h.String())
		b.WriteString("\n")
	}
	return b.String()
}

func toneHint(a mood.Analysis) string {
	switch {
	case a.Sentiment == mood.Negative && a.Intensity >= mood.DefaultThreshold:
		return "They are struggling right now. Slow down, validate first and keep any suggestion small and gentle."
	case a.Sentiment == mood.Negative:
		return "Respond with gentle empathy appropriate to their emotional state."
	case a.Sentiment == mood.Positive:
		return "Share in their good feeling warmly and encourage what is working for them."
	default:
		return "Respond with empathy appropriate to their emotional state."
	}
}

func languageOf(p companion.Profile) string {
	if p.Language == "" {
		return "English"
	}
	return p.Language
}
