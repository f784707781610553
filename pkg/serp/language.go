package serp

import (
	"strings"

	"golang.org/x/text/language"
)

// splitLanguage maps a BCP-47 tag like "pt-BR" to the provider's hl
// (interface language) and gl (country) parameters. Unparseable tags fall
// back to a naive split so a bad input still produces a usable query.
func splitLanguage(tag string) (hl, gl string) {
	parsed, err := language.Parse(tag)
	if err != nil {
		parts := strings.SplitN(tag, "-", 2)
		hl = strings.ToLower(parts[0])
		if len(parts) == 2 {
			gl = strings.ToLower(parts[1])
		}
		if hl == "" {
			hl = "en"
		}
		return hl, gl
	}

	base, confidence := parsed.Base()
	if confidence != language.No {
		hl = base.String()
	} else {
		hl = "en"
	}
	// Only an explicitly spelled region becomes gl; inferred regions would
	// skew results for bare tags like "en".
	if region, confidence := parsed.Region(); confidence == language.Exact && region.IsCountry() {
		gl = strings.ToLower(region.String())
	}
	return hl, gl
}
