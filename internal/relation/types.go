package relation

// Type identifies the kind of relationship between two users.
type Type string

const (
	TypeDating     Type = "DATING"
	TypeBestFriend Type = "BEST_FRIEND"
	TypeBrother    Type = "BROTHER"
	TypeSister     Type = "SISTER"
	TypeBeefing    Type = "BEEFING"

	// TypeCrush is the only directed type: A's crush on B and B's crush on A
	// are independent edges and may coexist.
	TypeCrush Type = "CRUSH"
)

// All lists every recognized relation type.
var All = []Type{TypeDating, TypeBestFriend, TypeBrother, TypeSister, TypeBeefing, TypeCrush}

// Valid reports whether t is a recognized relation type.
func (t Type) Valid() bool {
	for _, known := range All {
		if t == known {
			return true
		}
	}
	return false
}

// Directed reports whether t models one-way sentiment. For undirected types a
// single canonical edge represents the mutual relationship.
func (t Type) Directed() bool {
	return t == TypeCrush
}

// Canonicalize normalizes an edge's endpoints. Directed edges keep their
// direction; undirected edges are stored with the smaller ID first so the
// (from_id, to_id) uniqueness constraint holds regardless of who proposed.
func Canonicalize(t Type, a, b uint) (uint, uint) {
	if t.Directed() || a < b {
		return a, b
	}
	return b, a
}
