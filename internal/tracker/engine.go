package tracker

// Milestones are the progress thresholds that produce notifications.
var Milestones = []int{25, 50, 75, 100}

// DeriveProgress converts task counts into an integer percentage.
//
// The result is 0 when there are no tasks, otherwise 100*c/(c+r) rounded half up.
func DeriveProgress(completed, remaining int) int {
	total := completed + remaining
	if total <= 0 || completed <= 0 {
		return 0
	}
	return (200*completed + total) / (2 * total)
}

// CrossedMilestones returns, in ascending order, every milestone m with previous < m <= current.
func CrossedMilestones(previous, current int) []int {
	var crossed []int
	for _, m := range Milestones {
		if previous < m && m <= current {
			crossed = append(crossed, m)
		}
	}
	return crossed
}
