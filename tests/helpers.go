package tests

import (
	"math/rand"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
)

func randomBytes(n int) []byte {
	a := make([]byte, n)
	rand.Read(a) //nolint:staticcheck // SA1019: rand.Read has been deprecated since Go 1.20
	return a
}

func fieldInt(t *testing.T, fields []stackitem.Item, i int) int64 {
	v, err := fields[i].TryInteger()
	require.NoError(t, err)
	return v.Int64()
}

func fieldBytes(t *testing.T, fields []stackitem.Item, i int) []byte {
	v, err := fields[i].TryBytes()
	require.NoError(t, err)
	return v
}

func fieldBool(t *testing.T, fields []stackitem.Item, i int) bool {
	v, err := fields[i].TryBool()
	require.NoError(t, err)
	return v
}
