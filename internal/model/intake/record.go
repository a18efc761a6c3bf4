// Package intake defines the structured record extracted from a finished
// interview transcript. The record is derived output: it is recomputed per
// report and never persisted.
package intake

import "fmt"

// Anthropometry holds the measurements every fitting session must collect.
// Fields are pointers so a value absent from the model output is
// distinguishable from zero and fails validation.
type Anthropometry struct {
	BodyHeight     *float64 `json:"body_height"`
	SternumHandle  *float64 `json:"sternum_handle"`
	InnerLegLength *float64 `json:"inner_leg_length"`
	ShoulderWidth  *float64 `json:"shoulder_width"`
	ArmSpan        *float64 `json:"arm_span"`
}

// BicycleDimensions holds the optional bike geometry collected step by step
// at the end of the interview.
type BicycleDimensions struct {
	SaddleHeight            *float64 `json:"saddle_height"`
	SaddleModel             *string  `json:"saddle_model"`
	SaddleSize              *string  `json:"saddle_size"`
	SaddleTilt              *float64 `json:"saddle_tilt"`
	SeatpostOffset          *float64 `json:"seatpost_offset"`
	SaddleToBottomBracket   *float64 `json:"saddle_to_bottom_bracket"`
	SaddleToHandlebarCenter *float64 `json:"saddle_to_handlebar_center"`
	SaddleToShifter         *float64 `json:"saddle_to_shifter"`
	HeightDifference        *float64 `json:"height_difference"`
	StemLength              *float64 `json:"stem_length"`
	StemAngle               *float64 `json:"stem_angle"`
	HandlebarWidth          *float64 `json:"handlebar_width"`
	HandlebarModel          *string  `json:"handlebar_model"`
	SpacerHeight            *float64 `json:"spacer_height"`
	CrankLength             *float64 `json:"crank_length"`
	ShifterAngle            *float64 `json:"shifter_angle"`
}

// Record is the structured output of the extraction pipeline.
type Record struct {
	Anthropometry          Anthropometry     `json:"anthropometry"`
	AnthropometryNotes     string            `json:"anthropometry_notes"`
	SportsHistory          string            `json:"sports_history"`
	SportsHistoryNotes     string            `json:"sports_history_notes"`
	PositionProblems       string            `json:"position_problems"`
	PositionProblemsNotes  string            `json:"position_problems_notes"`
	OrthopedicProfile      string            `json:"orthopedic_profile"`
	MotorProfile           string            `json:"motor_profile"`
	MotorProfileNotes      string            `json:"motor_profile_notes"`
	BicycleDimensions      BicycleDimensions `json:"bicycle_dimensions"`
	BicycleDimensionsNotes string            `json:"bicycle_dimensions_notes"`
}

// Validate enforces the required part of the schema. Optional bike dimensions
// may be nil; the anthropometry block may not.
func (r *Record) Validate() error {
	required := map[string]*float64{
		"anthropometry.body_height":      r.Anthropometry.BodyHeight,
		"anthropometry.sternum_handle":   r.Anthropometry.SternumHandle,
		"anthropometry.inner_leg_length": r.Anthropometry.InnerLegLength,
		"anthropometry.shoulder_width":   r.Anthropometry.ShoulderWidth,
		"anthropometry.arm_span":         r.Anthropometry.ArmSpan,
	}
	for name, value := range required {
		if value == nil {
			return fmt.Errorf("required field %s is missing", name)
		}
	}
	return nil
}

// ToMap flattens the record into a template substitution mapping. Absent
// optional values map to empty strings so templates render cleanly.
func (r *Record) ToMap() map[string]any {
	m := map[string]any{
		"anthropometry_notes":      r.AnthropometryNotes,
		"sports_history":           r.SportsHistory,
		"sports_history_notes":     r.SportsHistoryNotes,
		"position_problems":        r.PositionProblems,
		"position_problems_notes":  r.PositionProblemsNotes,
		"orthopedic_profile":       r.OrthopedicProfile,
		"motor_profile":            r.MotorProfile,
		"motor_profile_notes":      r.MotorProfileNotes,
		"bicycle_dimensions_notes": r.BicycleDimensionsNotes,
	}

	putFloat(m, "body_height", r.Anthropometry.BodyHeight)
	putFloat(m, "sternum_handle", r.Anthropometry.SternumHandle)
	putFloat(m, "inner_leg_length", r.Anthropometry.InnerLegLength)
	putFloat(m, "shoulder_width", r.Anthropometry.ShoulderWidth)
	putFloat(m, "arm_span", r.Anthropometry.ArmSpan)

	putFloat(m, "saddle_height", r.BicycleDimensions.SaddleHeight)
	putString(m, "saddle_model", r.BicycleDimensions.SaddleModel)
	putString(m, "saddle_size", r.BicycleDimensions.SaddleSize)
	putFloat(m, "saddle_tilt", r.BicycleDimensions.SaddleTilt)
	putFloat(m, "seatpost_offset", r.BicycleDimensions.SeatpostOffset)
	putFloat(m, "saddle_to_bottom_bracket", r.BicycleDimensions.SaddleToBottomBracket)
	putFloat(m, "saddle_to_handlebar_center", r.BicycleDimensions.SaddleToHandlebarCenter)
	putFloat(m, "saddle_to_shifter", r.BicycleDimensions.SaddleToShifter)
	putFloat(m, "height_difference", r.BicycleDimensions.HeightDifference)
	putFloat(m, "stem_length", r.BicycleDimensions.StemLength)
	putFloat(m, "stem_angle", r.BicycleDimensions.StemAngle)
	putFloat(m, "handlebar_width", r.BicycleDimensions.HandlebarWidth)
	putString(m, "handlebar_model", r.BicycleDimensions.HandlebarModel)
	putFloat(m, "spacer_height", r.BicycleDimensions.SpacerHeight)
	putFloat(m, "crank_length", r.BicycleDimensions.CrankLength)
	putFloat(m, "shifter_angle", r.BicycleDimensions.ShifterAngle)

	return m
}

func putFloat(m map[string]any, key string, v *float64) {
	if v == nil {
		m[key] = ""
		return
	}
	m[key] = *v
}

func putString(m map[string]any, key string, v *string) {
	if v == nil {
		m[key] = ""
		return
	}
	m[key] = *v
}
