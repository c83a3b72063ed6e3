package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyCoversEverySkillCode(t *testing.T) {
	for _, code := range SkillCodes() {
		domainID, subjectID, ok := Classify(code)
		assert.True(t, ok, "code %q should classify", code)
		assert.NotEmpty(t, domainID, "code %q", code)
		assert.NotEmpty(t, subjectID, "code %q", code)
	}
}

func TestClassifyMathPrefixes(t *testing.T) {
	cases := map[string][2]string{
		"H.A.": {"algebra", "math"},
		"P.C.": {"advanced-math", "math"},
		"Q.G.": {"problem-solving-data-analysis", "math"},
		"S.D.": {"geometry-trigonometry", "math"},
	}
	for code, want := range cases {
		domainID, subjectID, ok := Classify(code)
		assert.True(t, ok)
		assert.Equal(t, want[0], domainID)
		assert.Equal(t, want[1], subjectID)
	}
}

func TestClassifyEnglishMembership(t *testing.T) {
	cases := map[string]string{
		"CID": "information-ideas",
		"WIC": "craft-structure",
		"TRA": "expression-ideas",
		"FSS": "standard-english-conventions",
	}
	for code, wantDomain := range cases {
		domainID, subjectID, ok := Classify(code)
		assert.True(t, ok)
		assert.Equal(t, wantDomain, domainID)
		assert.Equal(t, "english", subjectID)
	}
}

func TestClassifyUnknownCode(t *testing.T) {
	for _, code := range []string{"", "ZZZ.UNKNOWN", "X.A.", "cid"} {
		domainID, subjectID, ok := Classify(code)
		assert.False(t, ok, "code %q should not classify", code)
		assert.Empty(t, domainID)
		assert.Empty(t, subjectID)
	}
}

func TestSkillIDResolvesKnownAndRejectsUnknown(t *testing.T) {
	id, ok := SkillID("H.A.")
	assert.True(t, ok)
	assert.Equal(t, "linear-equations-one-var", id)

	id, ok = SkillID("ZZZ")
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestNoDomainClaimsAnotherDomainsCode(t *testing.T) {
	seen := map[string]string{}
	for _, code := range SkillCodes() {
		domainID, _, _ := Classify(code)
		if prev, dup := seen[code]; dup {
			t.Fatalf("code %s claimed by %s and %s", code, prev, domainID)
		}
		seen[code] = domainID
	}
}

func TestDomainsForTest(t *testing.T) {
	assert.Equal(t, ReadingDomains, DomainsForTest(TestReadingWriting))
	assert.Equal(t, MathDomains, DomainsForTest(TestMath))
	assert.Nil(t, DomainsForTest(7))

	for _, code := range append(append([]string{}, ReadingDomains...), MathDomains...) {
		_, ok := Domains[code]
		assert.True(t, ok, "domain %q missing from Domains table", code)
	}
}
