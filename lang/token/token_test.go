package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	for k := Kind(0); k < maxKind; k++ {
		require.NotEmpty(t, k.String())
	}
}

func TestLookup(t *testing.T) {
	for k := Kind(0); k < maxKind; k++ {
		name := names[k]
		want := IDENT
		if k >= AND && k <= WHILE {
			want = k
		}
		require.Equal(t, want, Lookup(name), "lookup(%q)", name)
	}

	require.Equal(t, IDENT, Lookup("Class"), "keywords are case-sensitive")
	require.Equal(t, IDENT, Lookup("x"))
}
