// Package taxonomy maps College Board skill codes onto the internal
// skill/domain/subject identifiers used by the questions table. All lookups
// are pure functions over static tables; unknown codes report !ok instead of
// failing so callers can count the record as skipped.
package taxonomy

import "strings"

// skillIDs maps vendor skill codes to internal skill slugs. Math codes carry
// a trailing dot ("H.A."), English codes are bare three-letter codes.
var skillIDs = map[string]string{
	// Math - Algebra (H)
	"H.A.": "linear-equations-one-var",
	"H.B.": "linear-functions",
	"H.C.": "linear-equations-two-var",
	"H.D.": "systems-linear-equations",
	"H.E.": "linear-inequalities",

	// Math - Advanced Math (P)
	"P.A.": "equivalent-expressions",
	"P.B.": "nonlinear-equations-systems",
	"P.C.": "nonlinear-functions",

	// Math - Problem Solving & Data Analysis (Q)
	"Q.A.": "ratios-rates-proportions",
	"Q.B.": "percentages",
	"Q.C.": "one-variable-data",
	"Q.D.": "two-variable-data",
	"Q.E.": "probability-conditional",
	"Q.F.": "inference-statistics",
	"Q.G.": "statistical-claims",

	// Math - Geometry & Trigonometry (S)
	"S.A.": "area-volume",
	"S.B.": "lines-angles-triangles",
	"S.C.": "right-triangles-trigonometry",
	"S.D.": "circles",

	// English - Information & Ideas
	"CID": "central-ideas-details",
	"INF": "inferences",
	"COE": "command-evidence",

	// English - Craft & Structure
	"WIC": "words-in-context",
	"TSP": "text-structure-purpose",
	"CTC": "cross-text-connections",

	// English - Expression of Ideas
	"SYN": "rhetorical-synthesis",
	"TRA": "transitions",

	// English - Standard English Conventions
	"BOU": "boundaries",
	"FSS": "form-structure-sense",
}

// SkillID resolves a vendor skill code to the internal skill slug.
func SkillID(code string) (string, bool) {
	id, ok := skillIDs[code]
	return id, ok
}

// SkillCodes returns every vendor skill code known to the mapping table.
func SkillCodes() []string {
	codes := make([]string, 0, len(skillIDs))
	for code := range skillIDs {
		codes = append(codes, code)
	}
	return codes
}

// Classify resolves a vendor skill code to (domain, subject). Math codes are
// matched by single-letter prefix, English codes by exact membership.
func Classify(code string) (domainID, subjectID string, ok bool) {
	switch {
	case strings.HasPrefix(code, "H."):
		return "algebra", "math", true
	case strings.HasPrefix(code, "P."):
		return "advanced-math", "math", true
	case strings.HasPrefix(code, "Q."):
		return "problem-solving-data-analysis", "math", true
	case strings.HasPrefix(code, "S."):
		return "geometry-trigonometry", "math", true
	}

	switch code {
	case "CID", "INF", "COE":
		return "information-ideas", "english", true
	case "WIC", "TSP", "CTC":
		return "craft-structure", "english", true
	case "SYN", "TRA":
		return "expression-ideas", "english", true
	case "BOU", "FSS":
		return "standard-english-conventions", "english", true
	}

	return "", "", false
}

// DomainInfo describes one vendor domain code.
type DomainInfo struct {
	TestID int
	Name   string
}

const (
	TestReadingWriting = 1
	TestMath           = 2
)

// Domains enumerates the eight vendor domain codes and the test each
// belongs to.
var Domains = map[string]DomainInfo{
	"INI": {TestID: TestReadingWriting, Name: "Information and Ideas"},
	"CAS": {TestID: TestReadingWriting, Name: "Craft and Structure"},
	"EOI": {TestID: TestReadingWriting, Name: "Expression of Ideas"},
	"SEC": {TestID: TestReadingWriting, Name: "Standard English Conventions"},

	"H": {TestID: TestMath, Name: "Algebra"},
	"P": {TestID: TestMath, Name: "Advanced Math"},
	"Q": {TestID: TestMath, Name: "Problem Solving and Data Analysis"},
	"S": {TestID: TestMath, Name: "Geometry and Trigonometry"},
}

// Ordered domain lists, used when importing a whole test so runs walk
// partitions in a stable order.
var (
	ReadingDomains = []string{"INI", "CAS", "EOI", "SEC"}
	MathDomains    = []string{"H", "P", "Q", "S"}
)

// DefaultEventIDs are the assessment administrations imported when no
// explicit event list is given.
var DefaultEventIDs = []int{99, 100, 102}

// DomainsForTest returns the ordered domain codes of a test, or nil for an
// unknown test id.
func DomainsForTest(testID int) []string {
	switch testID {
	case TestReadingWriting:
		return ReadingDomains
	case TestMath:
		return MathDomains
	}
	return nil
}
