package ctc

import (
	"bufio"
	"os"
	"strings"

	"golang.org/x/xerrors"
)

// LoadDict reads one symbol per line. Line 0 is the CTC blank and is never emitted.
func LoadDict(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("ctc: opening dict %s: %w", path, err)
	}
	defer file.Close()

	var symbols []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		symbols = append(symbols, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, xerrors.Errorf("ctc: reading dict %s: %w", path, err)
	}
	if len(symbols) < 2 {
		return nil, xerrors.Errorf("ctc: dict %s has no symbols", path)
	}
	return symbols, nil
}

// argmax returns the best class per time step of a steps x classes score matrix.
func argmax(scores []float32, classes int) []int {
	if classes <= 0 {
		return nil
	}

	steps := len(scores) / classes
	best := make([]int, steps)
	for t := 0; t < steps; t++ {
		row := scores[t*classes : (t+1)*classes]
		idx := 0
		for c, s := range row {
			if s > row[idx] {
				idx = c
			}
		}
		best[t] = idx
	}
	return best
}

// greedyDecode collapses repeats and drops blanks (index 0).
func greedyDecode(indices []int, dict []string) string {
	var sb strings.Builder
	last := -1
	for _, idx := range indices {
		if idx != 0 && idx != last && idx < len(dict) {
			sb.WriteString(dict[idx])
		}
		last = idx
	}
	return sb.String()
}
