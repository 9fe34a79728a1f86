package shared

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculerLigne(t *testing.T) {
	// qty=3, price=100, discount=10%, VAT=20%
	m := CalculerLigne(3, 100, 10, 20)
	require.InDelta(t, 270, m.MontantHT, 0.001)
	require.InDelta(t, 54, m.MontantTVA, 0.001)
	require.InDelta(t, 324, m.MontantTTC, 0.001)
}

func TestCalculerLigneSansRemise(t *testing.T) {
	m := CalculerLigne(2, 150, 0, 20)
	require.InDelta(t, 300, m.MontantHT, 0.001)
	require.InDelta(t, 60, m.MontantTVA, 0.001)
	require.InDelta(t, 360, m.MontantTTC, 0.001)
}

func TestCalculerDocumentSansRemiseGlobale(t *testing.T) {
	lignes := []LigneMontants{
		CalculerLigne(3, 100, 10, 20),
		CalculerLigne(1, 500, 0, 10),
	}
	doc := CalculerDocument(lignes, 0)
	require.InDelta(t, 770, doc.MontantHT, 0.001)
	require.InDelta(t, 104, doc.MontantTVA, 0.001)
	require.InDelta(t, 874, doc.MontantTTC, 0.001)
	require.Zero(t, doc.RemiseMontant)

	// sum(ttc) == sum(ht) + sum(tva)
	require.InDelta(t, doc.MontantHT+doc.MontantTVA, doc.MontantTTC, 0.001)
}

func TestCalculerDocumentAvecRemiseGlobale(t *testing.T) {
	lignes := []LigneMontants{
		CalculerLigne(1, 1000, 0, 10), // line VAT rate deliberately not 20%
	}
	doc := CalculerDocument(lignes, 10)
	require.InDelta(t, 900, doc.MontantHT, 0.001)
	// VAT recomputed at the flat 20% rate on the discounted HT.
	require.InDelta(t, 180, doc.MontantTVA, 0.001)
	require.InDelta(t, 1080, doc.MontantTTC, 0.001)
	require.InDelta(t, 100, doc.RemiseMontant, 0.001)
}

func TestArrondir(t *testing.T) {
	require.Equal(t, 12.35, Arrondir(12.345))
	require.Equal(t, 0.1, Arrondir(0.10000000001))
	require.Equal(t, -3.33, Arrondir(-3.3349))
}

func TestFormatMontant(t *testing.T) {
	// French locale: decimal comma, grouped thousands
	require.True(t, strings.HasSuffix(FormatMontant(1234.5), "234,50 MAD"))
	require.Equal(t, "0,00 MAD", FormatMontant(0))
	require.True(t, strings.HasSuffix(FormatMontant(600), "600,00 MAD"))
}
