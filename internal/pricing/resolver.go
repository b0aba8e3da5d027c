// Package pricing resolves a single unit price from the heterogeneous vendor
// payloads embedded in collection rows, and caches fresh vendor payloads with
// a 24-hour TTL.
package pricing

import (
	"encoding/json"
	"math"
	"sort"
)

// variantPriority is the fixed resolution order for tcgplayer foil/edition
// variants. Resolution must not depend on the producing API's field ordering,
// so the priority table decides which variant wins when several carry a
// market price. Variants not listed here are tried afterwards in sorted-key
// order.
var variantPriority = []string{
	"normal",
	"holofoil",
	"reverseHolofoil",
	"1stEditionNormal",
	"1stEditionHolofoil",
	"unlimited",
	"unlimitedHolofoil",
}

// Resolved is the outcome of price resolution for one row. Known=false means
// neither vendor payload yielded a usable number; such rows contribute 0 to a
// collection total but remain distinguishable from an actual $0 price.
type Resolved struct {
	Amount float64 `json:"amount"`
	Known  bool    `json:"known"`
	Source string  `json:"source,omitempty"`
}

// Resolve produces one unit price from raw vendor payloads:
//
//  1. tcgplayer: the first variant in priority order whose market field is a
//     finite number greater than zero.
//  2. cardmarket fallback: averageSellPrice, then trendPrice, then lowPrice;
//     the first finite number wins.
//  3. otherwise unknown.
//
// Non-numeric strings, null, and NaN are treated as absent, never coerced to
// zero. Malformed payloads are likewise treated as absent so a single corrupt
// snapshot cannot poison a whole collection scan.
func Resolve(tcgplayer, cardmarket []byte) Resolved {
	if amount, variant, ok := resolveTCGPlayer(tcgplayer); ok {
		return Resolved{Amount: amount, Known: true, Source: "tcgplayer:" + variant}
	}
	if amount, field, ok := resolveCardmarket(cardmarket); ok {
		return Resolved{Amount: amount, Known: true, Source: "cardmarket:" + field}
	}
	return Resolved{}
}

func resolveTCGPlayer(raw []byte) (float64, string, bool) {
	variants := pricesObject(raw)
	if len(variants) == 0 {
		return 0, "", false
	}

	tried := make(map[string]bool, len(variantPriority))
	for _, name := range variantPriority {
		tried[name] = true
		if amount, ok := marketOf(variants[name]); ok {
			return amount, name, true
		}
	}

	// Unlisted variants, in sorted order for determinism.
	rest := make([]string, 0, len(variants))
	for name := range variants {
		if !tried[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		if amount, ok := marketOf(variants[name]); ok {
			return amount, name, true
		}
	}
	return 0, "", false
}

func marketOf(variant any) (float64, bool) {
	tier, ok := variant.(map[string]any)
	if !ok {
		return 0, false
	}
	if amount, ok := finiteNumber(tier["market"]); ok && amount > 0 {
		return amount, true
	}
	return 0, false
}

// cardmarketFallback is the strict field order tried when no tcgplayer
// variant carries a market price.
var cardmarketFallback = []string{"averageSellPrice", "trendPrice", "lowPrice"}

func resolveCardmarket(raw []byte) (float64, string, bool) {
	fields := pricesObject(raw)
	if len(fields) == 0 {
		return 0, "", false
	}
	for _, name := range cardmarketFallback {
		if amount, ok := finiteNumber(fields[name]); ok {
			return amount, name, true
		}
	}
	return 0, "", false
}

// pricesObject decodes a raw vendor payload and returns its price mapping.
// Payloads arrive either as the bare mapping or wrapped in a "prices" field
// alongside url/updatedAt metadata; both shapes are accepted.
func pricesObject(raw []byte) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	if inner, ok := doc["prices"].(map[string]any); ok {
		return inner
	}
	return doc
}

func finiteNumber(v any) (float64, bool) {
	n, ok := v.(float64)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
