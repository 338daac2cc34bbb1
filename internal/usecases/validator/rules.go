package validator

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
)

const degreeTolerance = 1.0

var (
	bodyPattern = strings.Join(domain.Planets, "|")
	signPattern = strings.ToLower(strings.Join(domain.ZodiacSigns, "|"))
)

type numericClaim struct {
	name  string
	label string
	re    *regexp.Regexp
}

func numberClaim(subject string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + subject + `(?:\s+number)?(?:\s*(?:is|was|of|=|:))?\s*(?:an?\s+)?(\d{1,2})\b`)
}

var numericClaims = []numericClaim{
	{domain.DPLifePath, "Life Path number", numberClaim(`life[\s-]*path`)},
	{domain.DPDestiny, "Destiny number", numberClaim(`(?:destiny|expression)`)},
	{domain.DPSoulUrge, "Soul Urge number", numberClaim(`(?:soul[\s-]*urge|heart'?s[\s-]+desire)`)},
	{domain.DPPersonality, "Personality number", numberClaim(`personality\s+number`)},
	{domain.DPBirthdayNumber, "Birthday number", numberClaim(`birth[\s-]*day\s+number`)},
	{domain.DPMaturity, "Maturity number", numberClaim(`maturity`)},
	{domain.DPPersonalYear, "Personal Year number", numberClaim(`personal\s+year`)},
}

var (
	// "moon in Leo", "moon sign is Cancer", "Saturn is currently in Pisces", "sun sign: Aries"
	bodySignClaim = regexp.MustCompile(`(?i)\b(?P<transit>transit(?:ing)?\s+)?(?P<body>` + bodyPattern + `)(?:'s)?(?:\s+sign)?(?:\s+(?:is|was))?(?P<now>\s+(?:currently|now))?(?:\s+(?:in|placed\s+in|transiting)|\s*[:=])?\s+(?P<sign>` + signPattern + `)\b`)

	// "Leo moon", "Cancer rising"; "in Leo moon" относится к предыдущей планете
	signBodyClaim = regexp.MustCompile(`(?i)(?P<prep>\b(?:in|into)\s+)?\b(?P<sign>` + signPattern + `)\s+(?P<body>` + bodyPattern + `|rising|ascendant|lagna)\b`)

	// "rising sign is Virgo", "lagna: Virgo"
	ascendantSignClaim = regexp.MustCompile(`(?i)\b(?:ascendant|rising\s+sign|lagna)(?:\s+sign)?(?:\s+(?:is|was))?(?:\s+in|\s*[:=])?\s+(?P<sign>` + signPattern + `)\b`)

	// "sun at 14°", "Moon in Cancer at 4.2 degrees"
	degreeClaim = regexp.MustCompile(`(?i)\b(?P<transit>transit(?:ing)?\s+)?(?P<body>` + bodyPattern + `|ascendant|lagna)\b[^.\d]{0,30}?(?P<degree>\d{1,2}(?:\.\d+)?)\s*(?:°|degrees?\b|deg\b)`)

	timeSensitiveMention = regexp.MustCompile(`(?i)\b(ascendant|lagna|rising\s+sign|(?:` + signPattern + `)\s+rising|(?:1st|2nd|3rd|[4-9]th|1[0-2]th|first|second|third|fourth|fifth|sixth|seventh|eighth|ninth|tenth|eleventh|twelfth)\s+house|house\s+(?:of\s+)?\d{1,2})\b`)
)

func fabricated(what string) string {
	return fmt.Sprintf("fabricated specific: %s is not in the verified chart data", what)
}

func contradiction(label, stated, actual string) string {
	return fmt.Sprintf("contradiction: %s stated as %s, chart says %s", label, stated, actual)
}

func checkDataPointsUsed(c *domain.CandidateAnswer, g Ground) []string {
	var issues []string
	for _, raw := range c.DataPointsUsed {
		name := domain.NormalizeDataPointName(raw)
		if name == "" {
			continue
		}
		if point, ok := g.Vocabulary.Get(name); ok {
			if stated := domain.CitedValue(raw); stated != "" {
				if issue, bad := citedContradiction(point, stated); bad {
					issues = append(issues, issue)
				}
			}
			continue
		}
		if domain.IsTimeSensitiveName(name) && !g.HasBirthTime() {
			issues = append(issues, fmt.Sprintf("data point %s requires a known birth time", name))
			continue
		}
		issues = append(issues, fmt.Sprintf("hallucinated data point: %s", raw))
	}
	return issues
}

var (
	leadingNumber = regexp.MustCompile(`^\d+`)
	leadingDegree = regexp.MustCompile(`^\d{1,3}(?:\.\d+)?`)
	citedSign     = regexp.MustCompile(`^[A-Za-z]+`)
)

// citedContradiction сверяет значение из ссылки "lifePath=7" со значением в карте
func citedContradiction(point domain.DataPoint, stated string) (string, bool) {
	switch point.Kind {
	case domain.KindNumber:
		n, err := strconv.Atoi(leadingNumber.FindString(stated))
		if actual, ok := point.Int(); err != nil || !ok || n != actual {
			return contradiction(point.Label, stated, point.Value), true
		}
	case domain.KindSign:
		sign, ok := domain.CanonicalSign(citedSign.FindString(stated))
		actual, known := domain.CanonicalSign(point.Value)
		if !known {
			actual = point.Value
		}
		if !ok || sign != actual {
			return contradiction(point.Label, stated, point.Value), true
		}
	case domain.KindDegree:
		deg, err := strconv.ParseFloat(leadingDegree.FindString(stated), 64)
		if actual, ok := point.Float(); err != nil || !ok || math.Abs(actual-deg) > degreeTolerance {
			return contradiction(point.Label, stated, point.Value+"°"), true
		}
	default:
		if !strings.HasPrefix(compact(stated), compact(point.Value)) {
			return contradiction(point.Label, stated, point.Value), true
		}
	}
	return "", false
}

func compact(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

func checkSnapshotConsistency(_ *domain.CandidateAnswer, g Ground) []string {
	if g.HasBirthTime() {
		return nil
	}
	inconsistent := g.Snapshot != nil && g.Snapshot.Astrology != nil && g.Snapshot.Astrology.HasTimeSensitiveFields()
	for _, p := range g.Vocabulary.Points() {
		if p.TimeSensitive {
			inconsistent = true
			break
		}
	}
	if inconsistent {
		return []string{"chart data carries ascendant or houses without a birth time"}
	}
	return nil
}

func checkNumericClaims(text string, g Ground) []string {
	var issues []string
	for _, claim := range numericClaims {
		for _, m := range claim.re.FindAllStringSubmatch(text, -1) {
			stated, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			point, ok := g.Vocabulary.Get(claim.name)
			if !ok {
				issues = append(issues, fabricated(fmt.Sprintf("%s %d", claim.label, stated)))
				continue
			}
			if actual, ok := point.Int(); ok && actual != stated {
				issues = append(issues, contradiction(claim.label, strconv.Itoa(stated), point.Value))
			}
		}
	}
	return issues
}

type signClaim struct {
	body    string
	sign    string
	transit bool
}

func collectSignClaims(text string) []signClaim {
	var claims []signClaim

	for _, m := range bodySignClaim.FindAllStringSubmatch(text, -1) {
		claims = append(claims, signClaim{
			body:    strings.ToLower(m[bodySignClaim.SubexpIndex("body")]),
			sign:    m[bodySignClaim.SubexpIndex("sign")],
			transit: m[bodySignClaim.SubexpIndex("transit")] != "" || m[bodySignClaim.SubexpIndex("now")] != "",
		})
	}

	for _, m := range signBodyClaim.FindAllStringSubmatch(text, -1) {
		if m[signBodyClaim.SubexpIndex("prep")] != "" {
			continue
		}
		body := strings.ToLower(m[signBodyClaim.SubexpIndex("body")])
		if body == "rising" || body == "lagna" {
			body = domain.DPAscendant
		}
		claims = append(claims, signClaim{body: body, sign: m[signBodyClaim.SubexpIndex("sign")]})
	}

	for _, m := range ascendantSignClaim.FindAllStringSubmatch(text, -1) {
		claims = append(claims, signClaim{body: domain.DPAscendant, sign: m[ascendantSignClaim.SubexpIndex("sign")]})
	}
	return claims
}

func checkSignClaims(text string, g Ground) []string {
	var issues []string
	for _, claim := range collectSignClaims(text) {
		sign, ok := domain.CanonicalSign(claim.sign)
		if !ok {
			continue
		}

		if claim.transit {
			// транзиты проверяются только когда они есть в словаре
			if point, ok := g.Vocabulary.FindBody(claim.body, domain.KindSign, domain.CategoryTransit); ok && point.Value != sign {
				issues = append(issues, contradiction(point.Label, sign, point.Value))
			}
			continue
		}

		point, ok := g.Vocabulary.FindBody(claim.body, domain.KindSign, domain.CategoryAstrology)
		if !ok {
			if claim.body == domain.DPAscendant && !g.HasBirthTime() {
				continue
			}
			if transit, ok := g.Vocabulary.FindBody(claim.body, domain.KindSign, domain.CategoryTransit); ok && transit.Value == sign {
				continue
			}
			issues = append(issues, fabricated(fmt.Sprintf("%s in %s", domain.PlanetLabel(claim.body), sign)))
			continue
		}
		if point.Value != sign {
			issues = append(issues, contradiction(point.Label, sign, point.Value))
		}
	}
	return issues
}

func checkDegreeClaims(text string, g Ground) []string {
	var issues []string
	for _, m := range degreeClaim.FindAllStringSubmatch(text, -1) {
		body := strings.ToLower(m[degreeClaim.SubexpIndex("body")])
		if body == "lagna" {
			body = domain.DPAscendant
		}
		stated, err := strconv.ParseFloat(m[degreeClaim.SubexpIndex("degree")], 64)
		if err != nil {
			continue
		}
		statedText := strconv.FormatFloat(stated, 'f', -1, 64) + "°"

		category := domain.CategoryAstrology
		if m[degreeClaim.SubexpIndex("transit")] != "" {
			category = domain.CategoryTransit
		}

		point, ok := g.Vocabulary.FindBody(body, domain.KindDegree, category)
		if !ok {
			if category == domain.CategoryTransit || (body == domain.DPAscendant && !g.HasBirthTime()) {
				continue
			}
			issues = append(issues, fabricated(fmt.Sprintf("%s at %s", domain.PlanetLabel(body), statedText)))
			continue
		}
		if actual, ok := point.Float(); ok && math.Abs(actual-stated) > degreeTolerance {
			issues = append(issues, contradiction(point.Label, statedText, point.Value+"°"))
		}
	}
	return issues
}

func checkTimeSensitiveMentions(text string, g Ground) []string {
	if g.HasBirthTime() {
		return nil
	}
	var issues []string
	for _, m := range timeSensitiveMention.FindAllString(text, -1) {
		issues = append(issues, fmt.Sprintf("mentions %s without a known birth time", strings.ToLower(m)))
	}
	return issues
}

func checkLength(c *domain.CandidateAnswer, g Ground) []string {
	if g.MaxResponseChars <= 0 {
		return nil
	}
	if n := utf8.RuneCountInString(servedText(c)); n > g.MaxResponseChars {
		return []string{fmt.Sprintf("response is %d characters, limit is %d", n, g.MaxResponseChars)}
	}
	return nil
}
