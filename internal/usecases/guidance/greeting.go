package guidance

import (
	"strings"
	"unicode"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
)

var greetings = map[string]bool{
	"hi":            true, "hello": true, "hey": true, "hola": true, "namaste": true, "namaskar": true, "namaskaram": true,
	"pranam":        true, "pranaam": true, "sat sri akal": true, "jai shri krishna": true, "ram ram": true,
	"good morning":  true, "good afternoon": true, "good evening": true, "good night": true,
	"howdy":         true, "sup": true, "yo": true, "hii": true, "hiii": true, "hiiii": true, "helo": true, "heya": true,
	"greetings":     true, "salaam": true, "assalam": true, "vanakkam": true, "kemon acho": true,
	"how are you":   true, "how r u": true, "whats up": true, "wassup": true, "wazzup": true,
	"hows it going": true, "how do you do": true,
}

// IsGreeting короткое приветствие, на которое отвечаем без карты и без списания квоты
func IsGreeting(text string) bool {
	normalized := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '_' {
			return unicode.ToLower(r)
		}
		return -1
	}, text)

	words := strings.Fields(normalized)
	switch {
	case len(words) == 0:
		return false
	case len(words) <= 2 && greetings[strings.Join(words, " ")]:
		return true
	case greetings[words[0]] && len(words) <= 4:
		return true
	}
	return false
}

type greetingTemplate struct {
	hello     string
	empathy   string
	body      string
	direction string
}

var greetingTemplates = map[domain.Language]greetingTemplate{
	domain.LanguageEnglish: {
		hello:     "Namaste",
		empathy:   "%s! Welcome to Astranum.",
		body:      "What would you like to explore today?\n\n• Astrology: your planetary positions, transits and cosmic influences\n• Numerology: your life path, destiny number and personal cycles\n• Both: a combined reading of your complete chart\n\nJust ask me anything about your chart, or tell me what's on your mind!",
		direction: "What would you like to explore about your chart today?",
	},
	domain.LanguageHindi: {
		hello:     "नमस्ते",
		empathy:   "%s!",
		body:      "आज आप क्या जानना चाहेंगे?\n\n• ज्योतिष: आपके ग्रहों की स्थिति, गोचर और ब्रह्मांडीय प्रभाव\n• अंकशास्त्र: आपका जीवन पथ अंक, भाग्य अंक और व्यक्तिगत चक्र\n• दोनों: आपकी पूरी कुंडली का विश्लेषण\n\nअपनी कुंडली के बारे में कुछ भी पूछें!",
		direction: "आज आप अपनी कुंडली के बारे में क्या जानना चाहेंगे?",
	},
	domain.LanguageHinglish: {
		hello:     "Namaste",
		empathy:   "%s!",
		body:      "Aaj aap kya jaanna chahenge?\n\n• Astrology: aapke planets ki position, transits aur cosmic influences\n• Numerology: aapka life path number, destiny number aur personal cycles\n• Both: aapki complete chart ka analysis\n\nApni chart ke baare mein kuch bhi puchho!",
		direction: "Aaj aap apni chart ke baare mein kya jaanna chahenge?",
	},
}

func greetingResponse(profile *domain.UserProfile, language domain.Language) *domain.GuidanceResponse {
	t, ok := greetingTemplates[language]
	if !ok {
		t = greetingTemplates[domain.LanguageEnglish]
	}

	hello := t.hello
	if name := firstName(profile.FullName); name != "" {
		hello += ", " + name
	}
	empathy := strings.Replace(t.empathy, "%s", hello, 1)

	return &domain.GuidanceResponse{
		EmpathyLine:    empathy,
		Reasons:        []string{},
		Direction:      t.direction,
		DataPointsUsed: []string{},
		Validation: domain.ValidationResult{
			Passed: true,
			Issues: []string{},
		},
		FullResponse: empathy + "\n\n" + t.body,
		Mode:         profile.GuidanceMode,
		Language:     language,
		IsGreeting:   true,
	}
}

func firstName(full string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
