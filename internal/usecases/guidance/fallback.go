package guidance

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
)

// приоритет фактов для ответа из шаблона
var fallbackPriority = []string{
	domain.DPLifePath,
	domain.PlanetSignName("sun"),
	domain.PlanetSignName("moon"),
	domain.DPDestiny,
	domain.DPPersonalYear,
	domain.DPNakshatra,
}

const fallbackMaxPoints = 3

type fallbackTemplate struct {
	empathy   string
	reason    string // label, value
	direction string
	caution   string
}

var fallbackTemplates = map[domain.Language]fallbackTemplate{
	domain.LanguageEnglish: {
		empathy:   "I understand you're seeking clarity right now.",
		reason:    "Your %s is %s.",
		direction: "Take a calm step today toward what matters most to you, and trust your own judgement.",
		caution:   "This is a short reading based only on your verified chart data.",
	},
	domain.LanguageHindi: {
		empathy:   "मैं समझता हूँ कि आप अभी स्पष्टता चाहते हैं।",
		reason:    "आपका %s %s है।",
		direction: "आज उस दिशा में एक शांत कदम उठाइए जो आपके लिए सबसे ज़रूरी है, और अपने विवेक पर भरोसा रखिए।",
		caution:   "यह केवल आपकी सत्यापित कुंडली के आधार पर एक संक्षिप्त उत्तर है।",
	},
	domain.LanguageHinglish: {
		empathy:   "Main samajhta hoon ki aap abhi clarity dhoondh rahe hain.",
		reason:    "Aapka %s %s hai.",
		direction: "Aaj us cheez ki taraf ek calm step lijiye jo aapke liye sabse important hai, aur apne judgement par trust rakhiye.",
		caution:   "Yeh sirf aapke verified chart data par based ek short reading hai.",
	},
}

// Fallback безопасный ответ из шаблона, когда модель дважды не прошла проверку.
// Упоминает только факты словаря и укладывается в лимит длины.
func Fallback(vocabulary domain.DataPointSet, language domain.Language, maxChars int) *domain.CandidateAnswer {
	t, ok := fallbackTemplates[language]
	if !ok {
		t = fallbackTemplates[domain.LanguageEnglish]
	}

	var (
		reasons []string
		used    []string
	)
	for _, name := range fallbackPriority {
		if len(used) == fallbackMaxPoints {
			break
		}
		point, ok := vocabulary.Get(name)
		if !ok || point.Value == "" {
			continue
		}
		reasons = append(reasons, fmt.Sprintf(t.reason, point.Label, point.Value))
		used = append(used, point.Name)
	}

	caution := t.caution
	answer := &domain.CandidateAnswer{
		EmpathyLine:    t.empathy,
		Reasons:        reasons,
		Direction:      t.direction,
		Caution:        &caution,
		DataPointsUsed: used,
	}
	answer.FullResponse = fallbackText(answer)
	if maxChars <= 0 {
		return answer
	}

	// сначала убираем осторожность и причины с конца, затем обрезаем текст
	if utf8.RuneCountInString(answer.FullResponse) > maxChars {
		answer.Caution = nil
		answer.FullResponse = fallbackText(answer)
	}
	for utf8.RuneCountInString(answer.FullResponse) > maxChars && len(answer.Reasons) > 1 {
		answer.Reasons = answer.Reasons[:len(answer.Reasons)-1]
		answer.DataPointsUsed = answer.DataPointsUsed[:len(answer.DataPointsUsed)-1]
		answer.FullResponse = fallbackText(answer)
	}
	answer.FullResponse = truncateRunes(answer.FullResponse, maxChars)
	return answer
}

func fallbackText(a *domain.CandidateAnswer) string {
	parts := make([]string, 0, len(a.Reasons)+3)
	parts = append(parts, a.EmpathyLine)
	parts = append(parts, a.Reasons...)
	parts = append(parts, a.Direction)
	if a.Caution != nil {
		parts = append(parts, *a.Caution)
	}
	return strings.Join(parts, " ")
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max]))
}
