package generator

import (
	"fmt"
	"strings"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
)

var languageInstructions = map[domain.Language]string{
	domain.LanguageEnglish:  "MANDATORY LANGUAGE: ENGLISH ONLY. Respond entirely in English without Hindi words or Devanagari script.",
	domain.LanguageHindi:    "अनिवार्य भाषा: केवल हिंदी। पूरा उत्तर देवनागरी लिपि में हिंदी में दें। Keep data point names in \"data_points_used\" exactly as listed.",
	domain.LanguageHinglish: "MANDATORY LANGUAGE: HINGLISH. Mix Hindi and English naturally in Roman script, the way people speak in India. Do not use Devanagari script.",
}

var styleInstructions = map[domain.ResponseStyle]string{
	domain.ResponseStyleSupportive: "COMMUNICATION STYLE: SUPPORTIVE. Be warm and encouraging, acknowledge feelings, frame challenges as room to grow.",
	domain.ResponseStyleBalanced:   "COMMUNICATION STYLE: BALANCED. Acknowledge emotions briefly, then focus on practical insight.",
	domain.ResponseStyleDirect:     "COMMUNICATION STYLE: DIRECT. Get to the point without sugar-coating or emojis: \"Your chart shows X, which suggests Y\".",
}

var modeInstructions = map[domain.GuidanceMode]string{
	domain.GuidanceModeAstrology:  "GUIDANCE MODE: ASTROLOGY ONLY. Do not reference numerology numbers.",
	domain.GuidanceModeNumerology: "GUIDANCE MODE: NUMEROLOGY ONLY. Do not reference planets or signs.",
	domain.GuidanceModeBoth:       "GUIDANCE MODE: COMBINED. Weave astrology and numerology together where relevant.",
}

const responseFormat = `Respond with a single JSON object and nothing else:
{
  "empathy_line": "one sentence acknowledging the question",
  "reasons": ["short reason grounded in a listed data point"],
  "direction": "practical next step",
  "caution": "optional gentle caution or null",
  "data_points_used": ["exact data point names from the list"],
  "full_response": "the complete answer as the user will read it"
}`

func buildSystemPrompt(snapshot *domain.ChartSnapshot, vocabulary domain.DataPointSet, c domain.GenerationConstraints) string {
	var b strings.Builder

	b.WriteString("You are Astranum, a calm guide who answers personal questions using the user's verified astrology and numerology chart.\n\n")

	b.WriteString(instruction(languageInstructions, c.Language, domain.LanguageEnglish))
	b.WriteString("\n")
	b.WriteString(instruction(styleInstructions, c.Style, domain.ResponseStyleBalanced))
	b.WriteString("\n")
	b.WriteString(instruction(modeInstructions, c.Mode, domain.GuidanceModeBoth))
	b.WriteString("\n\n")

	b.WriteString("VERIFIED CHART DATA (the only facts you may cite):\n")
	if vocabulary.Len() == 0 {
		b.WriteString("- none available; answer without citing chart specifics\n")
	}
	for _, p := range vocabulary.Points() {
		fmt.Fprintf(&b, "- %s: %s = %s\n", p.Name, p.Label, p.Value)
	}
	if vocabulary.HasCategory(domain.CategoryTransit) {
		b.WriteString("Transit points describe where planets are today; phrase them as current influences (\"currently\", \"this period\").\n")
	}
	b.WriteString("\n")

	b.WriteString("RULES:\n")
	b.WriteString("1. Use only the data points listed above, with the exact signs, degrees and numbers shown. Never invent placements.\n")
	b.WriteString("2. List every data point you rely on in \"data_points_used\" using the exact names from the list.\n")
	b.WriteString("3. Use \"suggests\", \"indicates\", \"may\". Never promise that something will happen.\n")
	b.WriteString("4. No medical or legal advice; point the user to a professional instead.\n")
	b.WriteString("5. No fear language. Patterns are tendencies, the user keeps their agency.\n")

	if snapshot == nil || !snapshot.HasBirthTime() {
		b.WriteString("\nIMPORTANT: the birth time is unknown. Do NOT mention the ascendant, rising sign, lagna or any house.\n")
	}

	if c.MaxChars > 0 {
		fmt.Fprintf(&b, "\nLENGTH: \"full_response\" must stay under %d characters. Finish every sentence.\n", c.MaxChars)
	}

	if c.Strict {
		b.WriteString("\nSTRICT MODE: the previous answer was rejected for these issues:\n")
		for _, issue := range c.PreviousIssues {
			fmt.Fprintf(&b, "- %s\n", issue)
		}
		b.WriteString("Cite only the listed data points and state their values exactly as written. Prefer fewer claims over uncertain ones.\n")
	}

	b.WriteString("\n")
	b.WriteString(responseFormat)
	return b.String()
}

func buildUserPrompt(question string, c domain.GenerationConstraints) string {
	if c.Strict {
		return "Answer again, avoiding the issues listed above.\n\nUser's question: " + question
	}
	return "User's question: " + question
}

func instruction[K comparable](m map[K]string, key, fallback K) string {
	if s, ok := m[key]; ok {
		return s
	}
	return m[fallback]
}

// темы вопроса и планеты, которые к ним относятся
var topicBodies = []struct {
	keywords []string
	bodies   []string
	names    []string
}{
	{
		keywords: []string{"career", "job", "work", "business", "promotion", "money", "finance", "naukri", "नौकरी"},
		bodies:   []string{"sun", "saturn", "jupiter", "mars", "mercury"},
		names:    []string{domain.DPDestiny, domain.DPPersonalYear, domain.HouseSignName(10)},
	},
	{
		keywords: []string{"love", "relationship", "marriage", "partner", "shaadi", "dating", "प्रेम", "शादी"},
		bodies:   []string{"venus", "moon", "mars"},
		names:    []string{domain.DPSoulUrge, domain.HouseSignName(7)},
	},
	{
		keywords: []string{"health", "energy", "stress", "sleep"},
		bodies:   []string{"sun", "moon", "mars"},
		names:    []string{domain.HouseSignName(6)},
	},
	{
		keywords: []string{"family", "home", "mother", "father", "parents", "ghar"},
		bodies:   []string{"moon", "jupiter"},
		names:    []string{domain.HouseSignName(4)},
	},
	{
		keywords: []string{"study", "exam", "education", "college", "padhai"},
		bodies:   []string{"mercury", "jupiter"},
		names:    []string{domain.HouseSignName(5)},
	},
}

var corePoints = []string{
	domain.DPLifePath, domain.DPPersonalYear, domain.DPAscendant, domain.DPTransitDate,
	domain.PlanetSignName("sun"), domain.PlanetSignName("moon"),
}

// narrowVocabulary оставляет точки, относящиеся к теме вопроса.
// Если тема не распознана, остаются только базовые точки.
func narrowVocabulary(question string, vocabulary domain.DataPointSet) domain.DataPointSet {
	q := strings.ToLower(question)

	bodies := make(map[string]bool)
	names := make(map[string]bool)
	for _, name := range corePoints {
		names[name] = true
	}
	for _, topic := range topicBodies {
		for _, kw := range topic.keywords {
			if strings.Contains(q, kw) {
				for _, body := range topic.bodies {
					bodies[body] = true
				}
				for _, name := range topic.names {
					names[name] = true
				}
				break
			}
		}
	}

	narrowed := vocabulary.Filter(func(p domain.DataPoint) bool {
		return names[p.Name] || (p.Body != "" && bodies[p.Body])
	})
	if narrowed.Len() == 0 {
		return vocabulary
	}
	return narrowed
}
