// Package shared holds the pure monetary calculations used by every document type.
package shared

import "math"

// TauxTVADefaut is the flat VAT rate applied when a document-level discount
// forces totals to be recomputed, and the default for imported lines.
const TauxTVADefaut = 20.0

// LigneMontants carries the computed amounts of one document line.
type LigneMontants struct {
	MontantHT  float64
	MontantTVA float64
	MontantTTC float64
}

// DocumentMontants carries the computed amounts of a whole document.
type DocumentMontants struct {
	MontantHT     float64
	MontantTVA    float64
	MontantTTC    float64
	RemiseMontant float64
}

// CalculerLigne computes the amounts of a single line: HT after the line
// discount, VAT at the line's own rate, and the tax-inclusive total.
func CalculerLigne(quantite, prixUnitaireHT, remisePourcentage, tvaPourcentage float64) LigneMontants {
	montantHT := quantite * prixUnitaireHT * (1 - remisePourcentage/100)
	montantTVA := montantHT * (tvaPourcentage / 100)
	return LigneMontants{
		MontantHT:  montantHT,
		MontantTVA: montantTVA,
		MontantTTC: montantHT + montantTVA,
	}
}

// CalculerDocument sums line amounts and applies the document-level discount.
// Without a global discount the per-line VAT amounts are kept as computed.
// With one, VAT is recomputed at the flat 20% rate on the discounted HT;
// individual line rates are intentionally ignored at that point, matching the
// established billing behaviour of the business.
func CalculerDocument(lignes []LigneMontants, tauxRemise float64) DocumentMontants {
	var totalHT, totalTVA float64
	for _, l := range lignes {
		totalHT += l.MontantHT
		totalTVA += l.MontantTVA
	}

	if tauxRemise <= 0 {
		return DocumentMontants{
			MontantHT:  totalHT,
			MontantTVA: totalTVA,
			MontantTTC: totalHT + totalTVA,
		}
	}

	remise := totalHT * (tauxRemise / 100)
	netHT := totalHT - remise
	tva := netHT * (TauxTVADefaut / 100)
	return DocumentMontants{
		MontantHT:     netHT,
		MontantTVA:    tva,
		MontantTTC:    netHT + tva,
		RemiseMontant: remise,
	}
}

// Arrondir rounds a monetary value to two decimals for presentation.
// Internal computation keeps full float precision.
func Arrondir(v float64) float64 {
	return math.Round(v*100) / 100
}
