package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseNoArgs(t *testing.T) {
	for _, expr := range []string{"smash()", "view()", " smash() ", "smash() # drain it"} {
		call, err := Parse(expr)
		require.NoError(t, err, expr)
		require.Empty(t, call.Args, expr)
	}

	call, err := Parse("smash()")
	require.NoError(t, err)
	require.Equal(t, "smash", call.Name)
}

func TestParseNumberArg(t *testing.T) {
	call, err := Parse("insert(100)")
	require.NoError(t, err)
	require.Equal(t, "insert", call.Name)
	require.Len(t, call.Args, 1)
	require.NotNil(t, call.Args[0].Number)
	require.Equal(t, float64(100), *call.Args[0].Number)

	amount, err := call.Amount(0)
	require.NoError(t, err)
	require.Equal(t, uint64(100), amount)
}

func TestParseStringArg(t *testing.T) {
	call, err := Parse(`transfer("0xabc", 3)`)
	require.NoError(t, err)
	require.Equal(t, "transfer", call.Name)
	require.Len(t, call.Args, 2)
	require.NotNil(t, call.Args[0].String)
	require.Equal(t, "0xabc", *call.Args[0].String)
	require.NotNil(t, call.Args[1].Number)
	require.Equal(t, float64(3), *call.Args[1].Number)
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, expr := range []string{"", "smash", "smash(", "(100)", "insert(100,)"} {
		_, err := Parse(expr)
		require.Error(t, err, expr)
	}
}

func TestAmountValidation(t *testing.T) {
	call, err := Parse("insert(1.5)")
	require.NoError(t, err)
	_, err = call.Amount(0)
	require.Error(t, err)

	call, err = Parse(`insert("ten")`)
	require.NoError(t, err)
	_, err = call.Amount(0)
	require.Error(t, err)

	call, err = Parse("insert()")
	require.NoError(t, err)
	_, err = call.Amount(0)
	require.Error(t, err)
}

func TestCallString(t *testing.T) {
	call, err := Parse(`insert(100)`)
	require.NoError(t, err)
	require.Equal(t, "insert(100)", call.String())
}
