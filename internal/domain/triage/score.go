package triage

// Priority labels derived from the score. Presentation only; the queue
// sorts on the raw score.
const (
	PriorityCritical = "Critical"
	PriorityHigh     = "High"
	PriorityMedium   = "Medium"
	PriorityLow      = "Low"
)

// Score computes the clinical urgency of a vitals snapshot. Each vital
// contributes the points of the worst band it crosses, checked most severe
// first, and a missing vital contributes nothing. Pure function.
func Score(v *VitalSignsRecord) int {
	if v == nil {
		return 0
	}
	return temperatureScore(v.Temperature) +
		heartRateScore(v.HeartRate) +
		bloodPressureScore(v.BloodPressureSys, v.BloodPressureDia) +
		oxygenScore(v.OxygenSaturation)
}

// Classify maps a score to its priority label.
func Classify(score int) string {
	switch {
	case score >= 6:
		return PriorityCritical
	case score >= 3:
		return PriorityHigh
	case score >= 1:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func temperatureScore(t *float64) int {
	if t == nil {
		return 0
	}
	switch {
	case *t < 35 || *t > 39:
		return 3
	case *t < 36 || *t > 38:
		return 2
	case *t < 36.1 || *t > 37.2:
		return 1
	}
	return 0
}

func heartRateScore(hr *int) int {
	if hr == nil {
		return 0
	}
	switch {
	case *hr < 50 || *hr > 120:
		return 3
	case *hr < 60 || *hr > 100:
		return 2
	}
	return 0
}

// bloodPressureScore treats systolic and diastolic as one vital: the worst
// band either side crosses. A side that is missing is simply not evaluated.
func bloodPressureScore(sys, dia *int) int {
	exceeds := func(v *int, limit int) bool { return v != nil && *v > limit }
	switch {
	case exceeds(sys, 180) || exceeds(dia, 110):
		return 3
	case exceeds(sys, 140) || exceeds(dia, 90):
		return 2
	case exceeds(sys, 120) || exceeds(dia, 80):
		return 1
	}
	return 0
}

func oxygenScore(spo2 *int) int {
	if spo2 == nil {
		return 0
	}
	switch {
	case *spo2 < 90:
		return 3
	case *spo2 < 95:
		return 2
	case *spo2 < 98:
		return 1
	}
	return 0
}
