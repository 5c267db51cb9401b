package images

import (
	"sort"
	"strings"
)

// Curated pools keyed by normalized category. Pool order matters: it breaks
// scoring ties, so the strongest generic shot sits first.
var categoryPools = map[string][]Candidate{
	"beaches": {
		{URL: "https://images.unsplash.com/photo-1507525428034-b723cf961d3e", Photographer: "Sean Oulashin", PhotographerURL: "https://unsplash.com/@oulashin", Category: "Beaches", Keywords: []string{"beach", "sand", "ocean", "tropical"}},
		{URL: "https://images.unsplash.com/photo-1519046904884-53103b34b206", Photographer: "Frank McKenna", PhotographerURL: "https://unsplash.com/@frankiefoto", Category: "Beaches", Keywords: []string{"beach", "waves", "coast"}},
		{URL: "https://images.unsplash.com/photo-1506953823976-52e1fdc0149a", Photographer: "Datingscout", PhotographerURL: "https://unsplash.com/@datingscout", Category: "Beaches", Keywords: []string{"island", "lagoon", "palm", "maldives"}},
		{URL: "https://images.unsplash.com/photo-1473116763249-2faaef81ccda", Photographer: "Shifaaz Shamoon", PhotographerURL: "https://unsplash.com/@sotti", Category: "Beaches", Keywords: []string{"sunset", "beach", "shore"}},
	},
	"cities": {
		{URL: "https://images.unsplash.com/photo-1477959858617-67f85cf4f1df", Photographer: "Pedro Lastra", PhotographerURL: "https://unsplash.com/@peterlaster", Category: "Cities", Keywords: []string{"skyline", "city", "architecture"}},
		{URL: "https://images.unsplash.com/photo-1480714378408-67cf0d13bc1b", Photographer: "Mike C. Valdivia", PhotographerURL: "https://unsplash.com/@mikezzkartz", Category: "Cities", Keywords: []string{"city", "street", "night", "urban"}},
		{URL: "https://images.unsplash.com/photo-1449824913935-59a10b8d2000", Photographer: "Chris Barbalis", PhotographerURL: "https://unsplash.com/@cbarbalis", Category: "Cities", Keywords: []string{"downtown", "buildings", "skyline"}},
		{URL: "https://images.unsplash.com/photo-1502602898657-3e91760cbb34", Photographer: "Chris Karidis", PhotographerURL: "https://unsplash.com/@chriskaridis", Category: "Cities", Keywords: []string{"paris", "europe", "eiffel", "city"}},
	},
	"culture": {
		{URL: "https://images.unsplash.com/photo-1493976040374-85c8e12f0c0e", Photographer: "Sorasak", PhotographerURL: "https://unsplash.com/@boontohhgraphy", Category: "Culture", Keywords: []string{"temple", "japan", "tradition", "kimono"}},
		{URL: "https://images.unsplash.com/photo-1533669955142-6a73332af4db", Photographer: "San Fermin Pamplona", PhotographerURL: "https://unsplash.com/@sanfermin", Category: "Culture", Keywords: []string{"festival", "crowd", "tradition"}},
		{URL: "https://images.unsplash.com/photo-1564507592333-c60657eea523", Photographer: "Annie Spratt", PhotographerURL: "https://unsplash.com/@anniespratt", Category: "Culture", Keywords: []string{"india", "taj mahal", "heritage", "monument"}},
	},
	"food": {
		{URL: "https://images.unsplash.com/photo-1414235077428-338989a2e8c0", Photographer: "Jay Wennington", PhotographerURL: "https://unsplash.com/@jaywennington", Category: "Food", Keywords: []string{"restaurant", "dining", "food"}},
		{URL: "https://images.unsplash.com/photo-1504674900247-0877df9cc836", Photographer: "Lily Banse", PhotographerURL: "https://unsplash.com/@lvnatikk", Category: "Food", Keywords: []string{"food", "plate", "cuisine"}},
		{URL: "https://images.unsplash.com/photo-1533777857889-4be7c70b33f7", Photographer: "Louis Hansel", PhotographerURL: "https://unsplash.com/@louishansel", Category: "Food", Keywords: []string{"street food", "market", "cooking"}},
	},
	"adventure": {
		{URL: "https://images.unsplash.com/photo-1551632811-561732d1e306", Photographer: "Toomas Tartes", PhotographerURL: "https://unsplash.com/@toomastartes", Category: "Adventure", Keywords: []string{"hiking", "mountains", "trail", "backpack"}},
		{URL: "https://images.unsplash.com/photo-1522163182402-834f871fd851", Photographer: "Jakob Owens", PhotographerURL: "https://unsplash.com/@jakobowens1", Category: "Adventure", Keywords: []string{"surfing", "ocean", "sport"}},
		{URL: "https://images.unsplash.com/photo-1464822759023-fed622ff2c3b", Photographer: "Kalen Emsley", PhotographerURL: "https://unsplash.com/@kalenemsley", Category: "Adventure", Keywords: []string{"mountains", "summit", "climbing"}},
	},
	"nature": {
		{URL: "https://images.unsplash.com/photo-1441974231531-c6227db76b6e", Photographer: "Casey Horner", PhotographerURL: "https://unsplash.com/@mischievous_penguins", Category: "Nature", Keywords: []string{"forest", "trees", "light"}},
		{URL: "https://images.unsplash.com/photo-1470071459604-3b5ec3a7fe05", Photographer: "Dave Hoefler", PhotographerURL: "https://unsplash.com/@davehoefler", Category: "Nature", Keywords: []string{"mountains", "fog", "valley"}},
		{URL: "https://images.unsplash.com/photo-1433086966358-54859d0ed716", Photographer: "Robert Lukeman", PhotographerURL: "https://unsplash.com/@robertlukeman", Category: "Nature", Keywords: []string{"waterfall", "green", "stream"}},
	},
	"travel": {
		{URL: "https://images.unsplash.com/photo-1488646953014-85cb44e25828", Photographer: "Jaime Reimer", PhotographerURL: "https://unsplash.com/@jaimereimer", Category: "Travel", Keywords: []string{"travel", "map", "journey"}},
		{URL: "https://images.unsplash.com/photo-1469854523086-cc02fe5d8800", Photographer: "Dino Reichmuth", PhotographerURL: "https://unsplash.com/@dinoreichmuth", Category: "Travel", Keywords: []string{"road trip", "van", "desert", "travel"}},
		{URL: "https://images.unsplash.com/photo-1503220317375-aaad61436b1b", Photographer: "Mantas Hesthaven", PhotographerURL: "https://unsplash.com/@mantashesthaven", Category: "Travel", Keywords: []string{"traveler", "backpack", "airport"}},
		{URL: "https://images.unsplash.com/photo-1502920917128-1aa500764cbd", Photographer: "Jamie Street", PhotographerURL: "https://unsplash.com/@jamie452", Category: "Travel", Keywords: []string{"drone", "coast", "aerial", "travel"}},
	},
}

// Deterministic last-resort image per category, used when even the curated
// pool selection comes up empty.
var categoryDefaults = map[string]Candidate{
	"beaches":   categoryPools["beaches"][0],
	"cities":    categoryPools["cities"][0],
	"culture":   categoryPools["culture"][0],
	"food":      categoryPools["food"][0],
	"adventure": categoryPools["adventure"][0],
	"nature":    categoryPools["nature"][0],
	"travel":    categoryPools["travel"][0],
}

// normalizeCategory maps a classification category onto a pool key,
// defaulting to the generic travel pool.
func normalizeCategory(category string) string {
	key := strings.ToLower(strings.TrimSpace(category))
	if _, ok := categoryPools[key]; ok {
		return key
	}
	return "travel"
}

func poolFor(category string) []Candidate {
	return categoryPools[normalizeCategory(category)]
}

func defaultFor(category string) Candidate {
	return categoryDefaults[normalizeCategory(category)]
}

// searchTerms builds the ordered fallback list of queries: first keyword,
// region, category, then plain "travel", each padded with the two longest
// title words for specificity.
func searchTerms(keywords []string, region, category, title string) []string {
	suffix := strings.Join(longestWords(title, 2), " ")

	var bases []string
	if len(keywords) > 0 && keywords[0] != "" {
		bases = append(bases, keywords[0])
	}
	if region != "" {
		bases = append(bases, region)
	}
	if category != "" {
		bases = append(bases, category)
	}
	bases = append(bases, "travel")

	seen := map[string]struct{}{}
	var terms []string
	for _, base := range bases {
		term := strings.ToLower(strings.TrimSpace(base))
		if suffix != "" {
			term = term + " " + suffix
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	return terms
}

// longestWords picks the n longest words of a title, original order kept.
func longestWords(title string, n int) []string {
	words := strings.Fields(strings.ToLower(title))

	type indexed struct {
		word string
		pos  int
	}
	ranked := make([]indexed, 0, len(words))
	for i, w := range words {
		w = strings.Trim(w, ".,!?:;\"'()[]")
		if len(w) > 3 {
			ranked = append(ranked, indexed{word: w, pos: i})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return len(ranked[i].word) > len(ranked[j].word)
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].pos < ranked[j].pos })

	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.word
	}
	return out
}
