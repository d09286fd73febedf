// Package scoring converts raw internal-assessment and assignment marks into
// the 50-point CIE total. ComputeTotal and Formula describe the same rule; the
// template carries Formula and uploads are recomputed with ComputeTotal.
package scoring

import (
	"math"
	"sort"

	"github.com/volatiletech/null/v8"
)

// LabCredits is the credit count whose courses carry a lab component.
const LabCredits = 4

// MaxTotal is the largest total the policy can produce.
const MaxTotal = 50

// Marks holds one student's raw marks; absent values are invalid.
type Marks struct {
	IA1     null.Float64
	IA2     null.Float64
	IA3     null.Float64
	ASG1    null.Float64
	ASG2    null.Float64
	LabCIE  null.Float64
	LabTest null.Float64
}

// HasLab reports whether courses with the given credits include lab columns.
func HasLab(credits int) bool { return credits == LabCredits }

// ComputeTotal returns the ceiling of the weighted CIE total.
//
// IA scores are out of 40 and the best two of three are averaged, a missing
// IA counting as 0. Assignments are out of 25. Four-credit courses weigh IA to
// 15, the assignment mean to 10 and add the lab marks; every other course
// weighs IA to 25 and the assignment sum to 25.
func ComputeTotal(credits int, m Marks) int {
	// Terms are summed in the order Formula lists them inside SUM; the
	// conversions keep each term rounded on its own so no step is fused.
	hi, mid := bestTwo(orZero(m.IA1), orZero(m.IA2), orZero(m.IA3))

	var total float64
	if HasLab(credits) {
		total = float64(hi/2/40*15) + float64(mid/2/40*15)
		total = float64(total + float64(assignmentMean(m)/25*10))
		total = float64(total + orZero(m.LabCIE))
		total = float64(total + orZero(m.LabTest))
	} else {
		total = float64(hi/2/40*25) + float64(mid/2/40*25)
		total = float64(total + float64((orZero(m.ASG1)+orZero(m.ASG2))/50*25))
	}
	return int(math.Ceil(total))
}

// bestTwo returns the highest and the middle of three IA scores.
func bestTwo(a, b, c float64) (hi, mid float64) {
	s := []float64{a, b, c}
	sort.Float64s(s)
	return s[2], s[1]
}

func assignmentMean(m Marks) float64 {
	switch {
	case m.ASG1.Valid && m.ASG2.Valid:
		return (m.ASG1.Float64 + m.ASG2.Float64) / 2
	case m.ASG1.Valid:
		return m.ASG1.Float64
	case m.ASG2.Valid:
		return m.ASG2.Float64
	}
	return 0
}

func orZero(v null.Float64) float64 {
	if !v.Valid {
		return 0
	}
	return v.Float64
}
