package game

import (
	"strconv"
	"strings"
	"testing"

	constants "wordshift/internal/constants"
)

func TestNormalizeWord(t *testing.T) {
	if got := NormalizeWord(" spark! "); got != "SPARK" {
		t.Errorf("Expected SPARK, got %q", got)
	}
	if got := NormalizeWord("123"); got != "" {
		t.Errorf("Expected empty string, got %q", got)
	}
}

func TestIsCampaignWord(t *testing.T) {
	for word, want := range map[string]bool{
		"WORD":      true,
		"ABSOLUTE":  true,
		"CAT":       false,
		"LONGWORDS": false,
		"word":      false,
		"":          false,
	} {
		if got := IsCampaignWord(word); got != want {
			t.Errorf("IsCampaignWord(%q) = %v, want %v", word, got, want)
		}
	}
}

func TestIsReadableWord(t *testing.T) {
	if IsReadableWord("BCDFG") {
		t.Error("Vowelless word should not be readable")
	}
	if IsReadableWord("BAAAD") {
		t.Error("Triple letter run should not be readable")
	}
	if !IsReadableWord("RHYTHM") {
		t.Error("Y counts as a vowel")
	}
}

func TestSanitizeRoomID(t *testing.T) {
	if got := SanitizeRoomID("ab-c1 2x"); got != "ABC12X" {
		t.Errorf("Expected ABC12X, got %q", got)
	}
	if got := SanitizeRoomID("TOOLONG1"); got != "" {
		t.Errorf("Expected rejection of wrong length, got %q", got)
	}
	if got := SanitizeRoomID(""); got != "" {
		t.Errorf("Expected empty, got %q", got)
	}
}

func TestSanitizeRoomName(t *testing.T) {
	if got := SanitizeRoomName("  my   cool  room ", "AB12CD"); got != "my cool room" {
		t.Errorf("Expected collapsed whitespace, got %q", got)
	}
	if got := SanitizeRoomName("", "AB12CD"); got != "Room AB12CD" {
		t.Errorf("Expected default name, got %q", got)
	}
	long := strings.Repeat("x", 100)
	if got := SanitizeRoomName(long, "AB12CD"); len(got) != constants.MaxRoomNameLength {
		t.Errorf("Expected cap at %d, got %d", constants.MaxRoomNameLength, len(got))
	}
}

func TestSanitizeMutators(t *testing.T) {
	got := SanitizeMutators([]string{"fog", "fog", "bogus", " ", "mirror"})
	if len(got) != 2 || got[0] != "fog" || got[1] != "mirror" {
		t.Errorf("Expected [fog mirror], got %v", got)
	}
}

func TestMakeUniqueName(t *testing.T) {
	used := map[string]struct{}{"SPARK": {}}
	if got := MakeUniqueName("spark", used); got != "SPARK2" {
		t.Errorf("Expected SPARK2, got %q", got)
	}
	if got := MakeUniqueName("spark", map[string]struct{}{}); got != "SPARK" {
		t.Errorf("Expected SPARK, got %q", got)
	}
	if got := MakeUniqueName("", map[string]struct{}{}); got != "PLAYER" {
		t.Errorf("Expected PLAYER, got %q", got)
	}
	long := MakeUniqueName("ABCDEFGHIJKLMNOP", map[string]struct{}{})
	if len(long) > constants.MaxPlayerNameLen {
		t.Errorf("Name exceeds cap: %q", long)
	}
}

func TestMakeUniqueNameExhaustsSuffixes(t *testing.T) {
	used := map[string]struct{}{"ZEBRA": {}}
	for n := 2; n <= 99; n++ {
		used["ZEBRA"+strconv.Itoa(n)] = struct{}{}
	}
	got := MakeUniqueName("zebra", used)
	if _, taken := used[got]; taken {
		t.Errorf("Fallback name %q collides", got)
	}
	if !strings.HasPrefix(got, "ZEBRA") {
		t.Errorf("Fallback should keep the prefix, got %q", got)
	}
}
