package engine

// RemoveVig2 converts two-way decimal odds to fair probabilities by
// stripping the bookmaker's overround.
func RemoveVig2(yes, no float64) (float64, float64) {
	rawYes := 1.0 / yes
	rawNo := 1.0 / no
	total := rawYes + rawNo
	return rawYes / total, rawNo / total
}

// RemoveVig3 converts three-way decimal odds to fair probabilities.
func RemoveVig3(a, b, c float64) (float64, float64, float64) {
	rawA := 1.0 / a
	rawB := 1.0 / b
	rawC := 1.0 / c
	total := rawA + rawB + rawC
	return rawA / total, rawB / total, rawC / total
}
