// internal/diff/diff.go
package diff

import (
	"bytes"
	"fmt"
)

// Line represents a single line in a diff with its type and content
type Line struct {
	Type    LineType
	Content string
	OldNum  int
	NewNum  int
}

// LineType indicates whether a line was added, removed, or is context
type LineType int

const (
	Context LineType = iota
	Addition
	Deletion
)

// DiffResult contains the complete diff information. Lines is the full
// alignment of both inputs: Context+Deletion lines reproduce the old content
// and Context+Addition lines reproduce the new content, in order. Hunks
// groups the changed regions for display.
type DiffResult struct {
	Lines []Line
	Hunks []Hunk
	Stats struct {
		Additions int
		Deletions int
		Changes   int
	}
}

// Hunk represents a continuous section of changes
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Lines    []Line
}

// Engine provides diffing capabilities
type Engine struct {
	contextLines int
}

// NewEngine creates a new diff engine with specified context lines
func NewEngine(contextLines int) *Engine {
	return &Engine{
		contextLines: contextLines,
	}
}

// Diff generates a line-by-line diff between two contents
func (e *Engine) Diff(oldContent, newContent []byte) (*DiffResult, error) {
	oldLines := splitLines(oldContent)
	newLines := splitLines(newContent)

	result := &DiffResult{}

	// Generate LCS (Longest Common Subsequence) matrix
	lcs := e.computeLCS(oldLines, newLines)

	// Align both inputs against the LCS
	result.Lines = e.alignLines(oldLines, newLines, lcs)

	// Group changed regions with context for display
	result.Hunks = e.buildHunks(result.Lines)

	// Calculate stats
	for _, line := range result.Lines {
		switch line.Type {
		case Addition:
			result.Stats.Additions++
		case Deletion:
			result.Stats.Deletions++
		}
	}
	result.Stats.Changes = result.Stats.Additions + result.Stats.Deletions

	return result, nil
}

func splitLines(content []byte) [][]byte {
	if len(content) == 0 {
		return nil
	}
	return bytes.Split(bytes.TrimSuffix(content, []byte{'\n'}), []byte{'\n'})
}

// computeLCS creates a matrix for longest common subsequence
func (e *Engine) computeLCS(oldLines, newLines [][]byte) [][]int {
	matrix := make([][]int, len(oldLines)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(newLines)+1)
	}

	for i := 1; i <= len(oldLines); i++ {
		for j := 1; j <= len(newLines); j++ {
			if bytes.Equal(oldLines[i-1], newLines[j-1]) {
				matrix[i][j] = matrix[i-1][j-1] + 1
			} else {
				matrix[i][j] = max(matrix[i-1][j], matrix[i][j-1])
			}
		}
	}

	return matrix
}

// alignLines backtracks through the LCS matrix, producing one Line per line
// of either input in forward order.
func (e *Engine) alignLines(oldLines, newLines [][]byte, lcs [][]int) []Line {
	var lines []Line

	i, j := len(oldLines), len(newLines)
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && bytes.Equal(oldLines[i-1], newLines[j-1]):
			lines = append(lines, Line{
				Type:    Context,
				Content: string(oldLines[i-1]),
				OldNum:  i,
				NewNum:  j,
			})
			i--
			j--
		case j > 0 && (i == 0 || lcs[i][j-1] >= lcs[i-1][j]):
			lines = append(lines, Line{
				Type:    Addition,
				Content: string(newLines[j-1]),
				NewNum:  j,
			})
			j--
		default:
			lines = append(lines, Line{
				Type:    Deletion,
				Content: string(oldLines[i-1]),
				OldNum:  i,
			})
			i--
		}
	}

	// Backtracking walked newest-first; reverse into document order.
	for a, b := 0, len(lines)-1; a < b; a, b = a+1, b-1 {
		lines[a], lines[b] = lines[b], lines[a]
	}

	return lines
}

// buildHunks groups runs of changed lines, padded with surrounding context.
func (e *Engine) buildHunks(lines []Line) []Hunk {
	var hunks []Hunk

	idx := 0
	for idx < len(lines) {
		if lines[idx].Type == Context {
			idx++
			continue
		}

		// Found a change; include preceding context
		start := max(0, idx-e.contextLines)

		// Extend through the change run and any context gap small enough to
		// stay inside one hunk
		end := idx
		lastChange := idx
		for end < len(lines) {
			if lines[end].Type != Context {
				lastChange = end
				end++
				continue
			}
			if end-lastChange > 2*e.contextLines {
				break
			}
			end++
		}
		end = min(len(lines), lastChange+e.contextLines+1)

		hunk := Hunk{Lines: append([]Line(nil), lines[start:end]...)}
		for _, line := range hunk.Lines {
			switch line.Type {
			case Context:
				hunk.OldLines++
				hunk.NewLines++
			case Addition:
				hunk.NewLines++
			case Deletion:
				hunk.OldLines++
			}
		}
		hunk.OldStart, hunk.NewStart = hunkStart(hunk.Lines)
		hunks = append(hunks, hunk)

		idx = end
	}

	return hunks
}

// hunkStart derives 1-based start positions from the first line carrying
// each number.
func hunkStart(lines []Line) (oldStart, newStart int) {
	for _, l := range lines {
		if oldStart == 0 && l.OldNum > 0 {
			oldStart = l.OldNum
		}
		if newStart == 0 && l.NewNum > 0 {
			newStart = l.NewNum
		}
		if oldStart > 0 && newStart > 0 {
			break
		}
	}
	return oldStart, newStart
}

// Format returns a string representation of the diff
func (r *DiffResult) Format() string {
	var buf bytes.Buffer

	for _, hunk := range r.Hunks {
		fmt.Fprintf(&buf, "@@ -%d,%d +%d,%d @@\n",
			hunk.OldStart, hunk.OldLines,
			hunk.NewStart, hunk.NewLines)

		for _, line := range hunk.Lines {
			switch line.Type {
			case Addition:
				buf.WriteString("+ ")
			case Deletion:
				buf.WriteString("- ")
			case Context:
				buf.WriteString("  ")
			}
			buf.WriteString(line.Content)
			buf.WriteString("\n")
		}
	}

	return buf.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
