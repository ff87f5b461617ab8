package assessment

// Score thresholds. Each satisfied criterion is worth PointsPerCriterion.
const (
	MaxCarbonFootprint        = 100.0  // strictly below
	MaxWaterUsage             = 1000.0 // strictly below
	MaxWasteGenerated         = 50.0   // strictly below
	MinRenewableEnergyPercent = 50.0   // strictly above

	PointsPerCriterion = 25
	MaxScore           = 4 * PointsPerCriterion
)

// Score computes the environmental score of an assessment, from 0 to 100.
// BiodegradabilityScore and ToxicityLevel are recorded but not scored.
func Score(a Assessment) int {
	score := 0
	if a.CarbonFootprint < MaxCarbonFootprint {
		score += PointsPerCriterion
	}
	if a.WaterUsage < MaxWaterUsage {
		score += PointsPerCriterion
	}
	if a.WasteGenerated < MaxWasteGenerated {
		score += PointsPerCriterion
	}
	if a.RenewableEnergyPercent > MinRenewableEnergyPercent {
		score += PointsPerCriterion
	}
	return score
}
