package round

import "strings"

// Mask renders the keyword for non-drawers at hint level 1..3.
// Level 1 blanks every non-space character, level 2 also shows the first character,
// level 3 also shows one interior character found by scanning outward from the middle.
// Characters are joined by single spaces; a space in the keyword passes through as a space.
func Mask(keyword string, level int) string {
	runes := []rune(keyword)
	reveal := make([]bool, len(runes))
	if level >= 2 && len(runes) > 0 && runes[0] != ' ' {
		reveal[0] = true
	}
	if level >= 3 {
		if i := interiorIndex(runes); i >= 0 {
			reveal[i] = true
		}
	}

	out := make([]string, len(runes))
	for i, r := range runes {
		switch {
		case r == ' ':
			out[i] = " "
		case reveal[i]:
			out[i] = string(r)
		default:
			out[i] = "_"
		}
	}
	return strings.Join(out, " ")
}

// interiorIndex scans mid, mid-1, mid+1, mid-2, ... for a non-space index other than 0
// with no space neighbour, falling back to any non-space index other than 0.
func interiorIndex(runes []rune) int {
	n := len(runes)
	if n < 2 {
		return -1
	}
	isSpace := func(i int) bool { return i >= 0 && i < n && runes[i] == ' ' }
	strict := func(i int) bool { return !isSpace(i) && !isSpace(i-1) && !isSpace(i+1) }
	loose := func(i int) bool { return !isSpace(i) }

	mid := n / 2
	for _, ok := range []func(int) bool{strict, loose} {
		for d := 0; d <= n; d++ {
			for _, i := range []int{mid - d, mid + d} {
				if i > 0 && i < n && ok(i) {
					return i
				}
				if d == 0 {
					break
				}
			}
		}
	}
	return -1
}
