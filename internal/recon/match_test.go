package recon

import "testing"

func tuple(name, father, address, contact string) IdentityTuple {
	return IdentityTuple{
		Name:               NormalizeIdentity(name),
		FatherOrSpouseName: NormalizeIdentity(father),
		Address:            NormalizeIdentity(address),
		Contact:            NormalizeIdentity(contact),
	}
}

func TestNormalizeIdentity(t *testing.T) {
	if got := NormalizeIdentity("  Ram   Kumar  "); got != "ram kumar" {
		t.Fatalf("got %q", got)
	}
	if got := NormalizeIdentity(""); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestMatchIdentitySameName(t *testing.T) {
	a := tuple("Ram Kumar", "Shyam Lal", "Village Rampur", "9876543210")
	b := tuple("RAM KUMAR", "Shyam Lal", "Village  Rampur", "9876543210")
	m := MatchIdentity(a, b)
	if !m.IsMatch {
		t.Fatalf("expected match, diff=%v", m.TotalDifference)
	}
	if m.TotalDifference != 0 {
		t.Fatalf("expected zero difference, got %v", m.TotalDifference)
	}
}

func TestMatchIdentityTypo(t *testing.T) {
	a := tuple("Ram Kumar", "Shyam Lal", "", "")
	b := tuple("Ram Kumaar", "Shyam Lal", "", "")
	if m := MatchIdentity(a, b); !m.IsMatch {
		t.Fatalf("one-letter typo should still match, diff=%v", m.TotalDifference)
	}
}

func TestMatchIdentityDifferentName(t *testing.T) {
	a := tuple("Ram Kumar", "", "", "")
	b := tuple("Mohan Singh", "", "", "")
	if m := MatchIdentity(a, b); m.IsMatch {
		t.Fatal("unrelated names must not match")
	}
}

// Blank fields carry no information: they are excluded from the distance
// sum instead of counting as mismatches.
func TestMatchIdentityBlankFieldsNonDiscriminating(t *testing.T) {
	a := tuple("Ram Kumar", "Shyam Lal", "Village Rampur", "")
	b := tuple("Ram Kumar", "", "", "")
	if m := MatchIdentity(a, b); !m.IsMatch {
		t.Fatalf("blank fields should not block a name match, diff=%v", m.TotalDifference)
	}
}

func TestMatchIdentityEmptyNamesNeverMatch(t *testing.T) {
	a := tuple("", "Shyam Lal", "Village Rampur", "9876543210")
	b := tuple("", "Shyam Lal", "Village Rampur", "9876543210")
	if m := MatchIdentity(a, b); m.IsMatch {
		t.Fatal("nameless tuples must never merge")
	}
}

func TestLevenshteinSimilarity(t *testing.T) {
	if got := levenshteinSimilarity("abc", "abc"); got != 1 {
		t.Fatalf("identical = %v", got)
	}
	if got := levenshteinSimilarity("abcd", "abce"); got != 0.75 {
		t.Fatalf("one edit over four = %v", got)
	}
	if got := levenshteinSimilarity("", "abc"); got != 0 {
		t.Fatalf("empty vs non-empty = %v", got)
	}
}
