// Package keyword derives the canonical search keyword used for rank
// sampling and cache-key composition.
package keyword

import "strings"

const minLength = 3

// Normalize derives a search keyword from raw query text, falling back to
// the business's primary category when the query carries no usable intent.
//
// When the query embeds the full business name alongside other terms
// ("bakery acme" for the business "Acme"), the name is stripped so the
// grid samples the category rather than a navigational query. A query
// that is nothing but the business name collapses to the category: the
// two cannot be distinguished, so the generic intent wins.
func Normalize(rawQuery, businessName, primaryCategory string) string {
	category := strings.ToLower(strings.TrimSpace(primaryCategory))

	kw := strings.ToLower(strings.TrimSpace(rawQuery))
	if kw == "" {
		return category
	}

	name := strings.ToLower(strings.TrimSpace(businessName))
	if name != "" && len(kw) > len(name) && strings.Contains(kw, name) {
		kw = strings.Join(strings.Fields(strings.Replace(kw, name, "", 1)), " ")
	}

	if len(kw) < minLength || kw == name {
		return category
	}
	return kw
}
