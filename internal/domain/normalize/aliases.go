package normalize

// Alias folds a known raw spelling into one canonical display name.
type Alias struct {
	Pattern   string // matched case-insensitively after trimming
	Canonical string
}

// defaultAliases is the fixed table of special cases observed in real
// controller metadata. Extendable at runtime via WithAliases; deliberately
// not a fuzzy matcher.
var defaultAliases = []Alias{
	{Pattern: "the beatles", Canonical: "The Beatles"},
	{Pattern: "beatles", Canonical: "The Beatles"},
	{Pattern: "beatles, the", Canonical: "The Beatles"},
	{Pattern: "rolling stones", Canonical: "The Rolling Stones"},
	{Pattern: "rolling stones, the", Canonical: "The Rolling Stones"},
	{Pattern: "guns n roses", Canonical: "Guns N' Roses"},
	{Pattern: "guns 'n' roses", Canonical: "Guns N' Roses"},
	{Pattern: "guns n' roses", Canonical: "Guns N' Roses"},
	{Pattern: "ac dc", Canonical: "AC/DC"},
	{Pattern: "acdc", Canonical: "AC/DC"},
	{Pattern: "tame impala.", Canonical: "Tame Impala"},
}
