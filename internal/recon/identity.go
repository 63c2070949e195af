package recon

import (
	"strings"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// IdentityTuple is the comparable form of a partner's identity fields.
type IdentityTuple struct {
	Name               string
	FatherOrSpouseName string
	Address            string
	Contact            string
}

// NormalizeIdentity trims, collapses internal whitespace and case-folds a
// stored identity field so that names typed differently across entries
// compare equal when they only differ in spacing or case.
func NormalizeIdentity(s string) string {
	return foldCaser.String(strings.Join(strings.Fields(s), " "))
}

// Identity builds the normalized tuple for an entry.
func Identity(e PurchaseEntry) IdentityTuple {
	return IdentityTuple{
		Name:               NormalizeIdentity(e.Name),
		FatherOrSpouseName: NormalizeIdentity(e.FatherOrSpouseName),
		Address:            NormalizeIdentity(e.Address),
		Contact:            NormalizeIdentity(e.Contact),
	}
}

// Empty reports whether every identity field is blank after normalization.
func (t IdentityTuple) Empty() bool {
	return t.Name == "" && t.FatherOrSpouseName == "" && t.Address == "" && t.Contact == ""
}
