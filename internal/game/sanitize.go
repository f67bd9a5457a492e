package game

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	constants "wordshift/internal/constants"
	util "wordshift/internal/util"
)

// NormalizeWord uppercases and strips everything that is not A-Z.
func NormalizeWord(raw string) string {
	upper := strings.ToUpper(raw)
	var b strings.Builder
	b.Grow(len(upper))
	for i := 0; i < len(upper); i++ {
		if upper[i] >= 'A' && upper[i] <= 'Z' {
			b.WriteByte(upper[i])
		}
	}
	return b.String()
}

// IsCampaignWord reports whether a normalized word has campaign shape:
// 4-8 uppercase letters.
func IsCampaignWord(word string) bool {
	if len(word) < constants.MinWordLength || len(word) > constants.MaxWordLength {
		return false
	}
	for i := 0; i < len(word); i++ {
		if word[i] < 'A' || word[i] > 'Z' {
			return false
		}
	}
	return true
}

// IsReadableWord applies the moderation writer's readability filter:
// campaign shape, at least one vowel (Y included), no letter three in a row.
func IsReadableWord(word string) bool {
	if !IsCampaignWord(word) {
		return false
	}
	if !strings.ContainsAny(word, "AEIOUY") {
		return false
	}
	for i := 2; i < len(word); i++ {
		if word[i] == word[i-1] && word[i] == word[i-2] {
			return false
		}
	}
	return true
}

// SanitizeRoomID uppercases, strips non-alphanumerics and rejects anything
// that is not exactly the fixed code length. Returns "" when invalid.
func SanitizeRoomID(raw string) string {
	upper := strings.ToUpper(raw)
	var b strings.Builder
	b.Grow(len(upper))
	for i := 0; i < len(upper); i++ {
		c := upper[i]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	id := b.String()
	if len(id) != constants.RoomIDLength {
		return ""
	}
	return id
}

// SanitizeRoomName collapses whitespace and trims; empty names default to
// "Room <ID>".
func SanitizeRoomName(raw, roomID string) string {
	name := strings.Join(strings.Fields(raw), " ")
	if name == "" {
		return "Room " + roomID
	}
	if len(name) > constants.MaxRoomNameLength {
		name = name[:constants.MaxRoomNameLength]
	}
	return name
}

// SanitizeMutators deduplicates, drops unrecognized keys and caps the list.
func SanitizeMutators(raw []string) []string {
	out := []string{}
	seen := map[string]struct{}{}
	for _, item := range raw {
		key := strings.TrimSpace(item)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		if _, ok := constants.AllowedMutators[key]; !ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
		if len(out) >= constants.MaxMutatorKeys {
			break
		}
	}
	return out
}

// MakeUniqueName fits baseName into the room's name space: uppercase, capped
// length, numeric suffixes 2..99 on collision, then a random 4-digit tail.
func MakeUniqueName(baseName string, usedNames map[string]struct{}) string {
	base := strings.ToUpper(baseName)
	if len(base) > constants.MaxPlayerNameLen {
		base = base[:constants.MaxPlayerNameLen]
	}
	if base == "" {
		base = "PLAYER"
	}
	if _, taken := usedNames[base]; !taken {
		return base
	}
	for n := 2; n <= 99; n++ {
		suffix := fmt.Sprintf("%d", n)
		keep := constants.MaxPlayerNameLen - len(suffix)
		if keep < 1 {
			keep = 1
		}
		if keep > len(base) {
			keep = len(base)
		}
		candidate := base[:keep] + suffix
		if _, taken := usedNames[candidate]; !taken {
			return candidate
		}
	}
	prefix := base
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	fallback := fmt.Sprintf("%s%d", prefix, util.RandomInt(9000)+1000)
	for {
		if _, taken := usedNames[fallback]; !taken {
			return fallback
		}
		fallback = fmt.Sprintf("%s%d", prefix, util.RandomInt(9000)+1000)
	}
}

// ChooseRandom picks a uniform element, or "" for an empty list.
func ChooseRandom(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[util.RandomInt(len(list))]
}

// FilterByLength keeps words of exactly n letters.
func FilterByLength(words []string, n int) []string {
	return lo.Filter(words, func(w string, _ int) bool { return len(w) == n })
}
