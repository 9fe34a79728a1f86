package numbering

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	require.Equal(t, "CMD-000042", Format("CMD", 42))
	require.Equal(t, "FACT-000001", Format("FACT", 1))
	require.Equal(t, "BL-123456", Format("BL", 123456))
}

func TestParseSuffix(t *testing.T) {
	require.EqualValues(t, 7, ParseSuffix("CMD-000007"))
	require.EqualValues(t, 123456, ParseSuffix("BL-123456"))
	require.Zero(t, ParseSuffix("CMD-"))
	require.Zero(t, ParseSuffix("garbage"))
	require.Zero(t, ParseSuffix("CMD-xyz"))
}

func TestFormatRoundTrip(t *testing.T) {
	// last = CMD-000007 => next = CMD-000008
	last := Format("CMD", 7)
	next := Format("CMD", ParseSuffix(last)+1)
	require.Equal(t, "CMD-000008", next)
}
