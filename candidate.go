package quizpilot

import (
	"sort"
	"strconv"
	"strings"
)

// modelScore ranks a model identifier by the version embedded in its name.
// Names follow the family-major.minor-tier convention (gemini-2.0-pro);
// anything unparseable scores zero and keeps its declaration order.
type modelScore struct {
	major int
	minor int
	pro   int
}

func scoreModel(name string) modelScore {
	var s modelScore

	parts := strings.Split(name, "-")
	if len(parts) >= 2 {
		ver := strings.SplitN(parts[1], ".", 2)
		s.major, _ = strconv.Atoi(ver[0])
		if len(ver) == 2 {
			s.minor, _ = strconv.Atoi(ver[1])
		}
	}
	if strings.Contains(name, "pro") {
		s.pro = 1
	}
	return s
}

func (s modelScore) less(other modelScore) bool {
	if s.major != other.major {
		return s.major < other.major
	}
	if s.minor != other.minor {
		return s.minor < other.minor
	}
	return s.pro < other.pro
}

// RankCandidates orders the listed model identifiers for a turn's attempt
// loop: the caller's preferred model first (only when the source actually
// lists it), then the remainder by version heuristic (newest first, pro
// over flash), with declaration order breaking remaining ties. Duplicates
// are dropped.
func RankCandidates(listed []string, preferred string) []string {
	seen := make(map[string]bool, len(listed))
	deduped := make([]string, 0, len(listed))
	for _, m := range listed {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		deduped = append(deduped, m)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return scoreModel(deduped[j]).less(scoreModel(deduped[i]))
	})

	if preferred == "" || !seen[preferred] {
		return deduped
	}

	ranked := make([]string, 0, len(deduped))
	ranked = append(ranked, preferred)
	for _, m := range deduped {
		if m != preferred {
			ranked = append(ranked, m)
		}
	}
	return ranked
}
