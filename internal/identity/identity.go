// Package identity decides whether two rows from different tables describe the
// same candidate.
package identity

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	NameWeight  = 2.0
	IDWeight    = 3.0
	PhoneWeight = 1.0
	// MaxScore is the score of two identical identities that both carry a phone.
	MaxScore = NameWeight + IDWeight + PhoneWeight
)

// Identity is the tuple used to recognise a candidate across tables.
// Phone is E.164 without the leading '+', empty when unknown.
type Identity struct {
	Name           string
	RegistrationID string
	Phone          string
}

// WithoutPhone returns a copy of the identity with the phone dropped.
func (id Identity) WithoutPhone() Identity {
	id.Phone = ""
	return id
}

// Match is the outcome of comparing two identities.
type Match struct {
	Score float64
	// Max is the best score attainable for the fields both sides carry.
	Max float64
}

// Normalized returns Score/Max in [0,1].
func (m Match) Normalized() float64 {
	if m.Max == 0 {
		return 0
	}
	return m.Score / m.Max
}

// Score computes 2*name + 3*registration + phone similarity. The phone term is
// 1 only when both phones are present and equal.
func Score(a, b Identity) float64 {
	return NameWeight*Similarity(a.Name, b.Name) +
		IDWeight*Similarity(a.RegistrationID, b.RegistrationID) +
		PhoneWeight*phoneEqual(a.Phone, b.Phone)
}

// Compare scores a against b and records the attainable maximum, which drops
// to 5 when either side has no phone.
func Compare(a, b Identity) Match {
	attainable := NameWeight + IDWeight
	if a.Phone != "" && b.Phone != "" {
		attainable += PhoneWeight
	}
	return Match{Score: Score(a, b), Max: attainable}
}

func phoneEqual(a, b string) float64 {
	if a == "" || b == "" || a != b {
		return 0
	}
	return 1
}

// Similarity returns 2*LCS/(len(a)+len(b)) over the folded runes of a and b.
// Two empty strings are identical.
func Similarity(a, b string) float64 {
	ra := []rune(fold(a))
	rb := []rune(fold(b))

	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}

	return 2 * float64(lcs(ra, rb)) / float64(total)
}

func fold(s string) string {
	s = norm.NFC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

func lcs(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
