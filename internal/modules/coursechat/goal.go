package coursechat

import "strconv"

// DefaultLessonCountOptions is the closed option vocabulary offered by the
// lesson-count prompt.
var DefaultLessonCountOptions = []string{
	"3-5 lessons",
	"5-10 lessons",
	"10-20 lessons",
	"20-30 lessons",
}

// GoalRange is the learner's desired lesson count interval. Min <= Max.
type GoalRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Midpoint is the size of the first batch of ideas for this goal.
func (g GoalRange) Midpoint() int {
	return (g.Min + g.Max) / 2
}

// ParseGoalRange reads a lesson-count option such as "5-10 lessons".
//
// Two numbers give {first, second}, reordered if the text lists the larger
// first. One number n gives {n, n+2}. Zero or more than two numbers, or a
// number too large for an int, give nil.
func ParseGoalRange(option string) *GoalRange {
	nums, ok := digitRuns(option)
	if !ok {
		return nil
	}
	switch len(nums) {
	case 1:
		return &GoalRange{Min: nums[0], Max: nums[0] + 2}
	case 2:
		lo, hi := nums[0], nums[1]
		if lo > hi {
			lo, hi = hi, lo
		}
		return &GoalRange{Min: lo, Max: hi}
	default:
		return nil
	}
}

// digitRuns returns every maximal run of ASCII digits in s, in order. It
// reports false if a run does not fit in an int.
func digitRuns(s string) ([]int, bool) {
	var out []int
	start := -1
	ok := true
	flush := func(end int) {
		if start < 0 {
			return
		}
		n, err := strconv.Atoi(s[start:end])
		if err != nil {
			ok = false
		}
		out = append(out, n)
		start = -1
	}
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(s))
	return out, ok
}
