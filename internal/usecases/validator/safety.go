package validator

import (
	"fmt"
	"regexp"
	"strings"
)

type safetyRule struct {
	kind string
	re   *regexp.Regexp
}

var safetyRules = []safetyRule{
	{"prediction certainty", regexp.MustCompile(`(?i)\b(will definitely|will certainly|guaranteed to|100% (?:sure|certain)|there is no doubt|it is certain that|you are destined to)\b`)},
	{"medical advice", regexp.MustCompile(`(?i)\b(stop taking (?:your )?(?:medication|medicine|pills)|no need (?:to see|for) a doctor|instead of (?:a doctor|treatment)|will cure)\b`)},
	{"legal advice", regexp.MustCompile(`(?i)\b(you should sue|file a (?:lawsuit|case)|you will win the case|no need for a lawyer)\b`)},
	{"fear", regexp.MustCompile(`(?i)\b(you are cursed|curse on you|doomed|disaster awaits|you will die|death is near)\b`)},
	{"dependency", regexp.MustCompile(`(?i)\b(only (?:i|we) can help|consult (?:me|us) before every|do not decide without (?:me|us))\b`)},
}

func checkSafety(text string, _ Ground) []string {
	var issues []string
	for _, rule := range safetyRules {
		if m := rule.re.FindString(text); m != "" {
			issues = append(issues, fmt.Sprintf("unsafe content (%s): %q", rule.kind, strings.ToLower(m)))
		}
	}
	return issues
}
