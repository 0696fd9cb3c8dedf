package scrape

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseYears expands a list like "2025,2024-2020" into years in the order
// given, without duplicates. Descending ranges count down.
func ParseYears(list string) ([]int, error) {
	var years []int
	seen := make(map[int]bool)
	add := func(y int) {
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}

	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if from, to, ok := strings.Cut(part, "-"); ok {
			start, err := strconv.Atoi(strings.TrimSpace(from))
			if err != nil {
				return nil, fmt.Errorf("invalid year range %q", part)
			}
			end, err := strconv.Atoi(strings.TrimSpace(to))
			if err != nil {
				return nil, fmt.Errorf("invalid year range %q", part)
			}
			step := 1
			if start > end {
				step = -1
			}
			for y := start; y != end+step; y += step {
				add(y)
			}
			continue
		}

		y, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid year %q", part)
		}
		add(y)
	}
	return years, nil
}
