package assessment

import (
	"time"

	"carbon-scribe/impact-ledger/pkg/ledger"
)

// Assessment is a recorded environmental-impact measurement for a process
type Assessment struct {
	ID                     int64     `json:"id"`
	Assessor               string    `json:"assessor"`
	ProcessID              int64     `json:"process_id"`
	CarbonFootprint        float64   `json:"carbon_footprint"`
	WaterUsage             float64   `json:"water_usage"`
	WasteGenerated         float64   `json:"waste_generated"`
	EnergyConsumption      float64   `json:"energy_consumption"`
	RenewableEnergyPercent float64   `json:"renewable_energy_percent"`
	BiodegradabilityScore  float64   `json:"biodegradability_score"`
	ToxicityLevel          float64   `json:"toxicity_level"`
	AssessmentDate         time.Time `json:"assessment_date"`
	Verified               bool      `json:"verified"`
}

// AssessmentData carries the measured values of a submission. Values are
// accepted as-is, including negative or out-of-range numbers.
type AssessmentData struct {
	ProcessID              int64   `json:"process_id"`
	CarbonFootprint        float64 `json:"carbon_footprint"`
	WaterUsage             float64 `json:"water_usage"`
	WasteGenerated         float64 `json:"waste_generated"`
	EnergyConsumption      float64 `json:"energy_consumption"`
	RenewableEnergyPercent float64 `json:"renewable_energy_percent"`
	BiodegradabilityScore  float64 `json:"biodegradability_score"`
	ToxicityLevel          float64 `json:"toxicity_level"`
}

// SubmitResult is returned by Submit
type SubmitResult struct {
	ledger.Result
	AssessmentID int64 `json:"assessment_id,omitempty"`
}

// ScoreResult is the JSON shape of a score lookup; Score is null when the
// assessment does not exist.
type ScoreResult struct {
	AssessmentID int64 `json:"assessment_id"`
	Score        *int  `json:"score"`
}

// Summary counts registry contents
type Summary struct {
	Total    int `json:"total"`
	Verified int `json:"verified"`
}

func newAssessment(id int64, assessor string, data AssessmentData, now time.Time) Assessment {
	return Assessment{
		ID:                     id,
		Assessor:               assessor,
		ProcessID:              data.ProcessID,
		CarbonFootprint:        data.CarbonFootprint,
		WaterUsage:             data.WaterUsage,
		WasteGenerated:         data.WasteGenerated,
		EnergyConsumption:      data.EnergyConsumption,
		RenewableEnergyPercent: data.RenewableEnergyPercent,
		BiodegradabilityScore:  data.BiodegradabilityScore,
		ToxicityLevel:          data.ToxicityLevel,
		AssessmentDate:         now,
		Verified:               false,
	}
}
