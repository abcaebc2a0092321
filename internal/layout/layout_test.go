package layout

import (
	"math/rand"
	"strings"
	"testing"

	"contest-translator/internal/document"
)

func run(text string, x, y float64) document.TextRun {
	return document.TextRun{Text: text, X: x, Y: y}
}

func TestReconstructPage_ReadingOrder(t *testing.T) {
	tests := []struct {
		name     string
		runs     []document.TextRun
		expected string
	}{
		{
			name:     "empty page",
			runs:     nil,
			expected: "",
		},
		{
			name: "single line left to right",
			runs: []document.TextRun{
				run("world", 100, 700),
				run("Hello", 10, 700),
			},
			expected: "Hello world\n",
		},
		{
			name: "lines ordered top to bottom by descending y",
			runs: []document.TextRun{
				run("bottom", 10, 100),
				run("top", 10, 700),
				run("middle", 10, 400),
			},
			expected: "top\nmiddle\nbottom\n",
		},
		{
			name: "y jitter within tolerance stays on one line",
			runs: []document.TextRun{
				run("b", 50, 698.5),
				run("a", 10, 700),
				run("c", 90, 701.2),
			},
			expected: "a b c\n",
		},
		{
			name: "exactly tolerance apart splits lines",
			runs: []document.TextRun{
				run("upper", 10, 705),
				run("lower", 10, 700),
			},
			expected: "upper\nlower\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReconstructPage(tt.runs)
			if got != tt.expected {
				t.Errorf("ReconstructPage() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// Runs whose y values are pairwise more than the tolerance apart must
// reconstruct identically under any input permutation.
func TestReconstructPage_OrderIndependent(t *testing.T) {
	runs := []document.TextRun{
		run("A", 10, 700), run("problem", 60, 700),
		run("Given", 10, 650), run("an", 70, 650), run("array", 100, 650),
		run("Output", 10, 600),
		run("42", 10, 550),
	}

	want := ReconstructPage(runs)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		shuffled := make([]document.TextRun, len(runs))
		copy(shuffled, runs)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		if got := ReconstructPage(shuffled); got != want {
			t.Fatalf("permutation %d: ReconstructPage() = %q, want %q", i, got, want)
		}
	}
}

func TestReconstructPage_LineCountMatchesClusters(t *testing.T) {
	// 4 clusters: 700/699 merge, 650, 600/604 merge, 550.
	runs := []document.TextRun{
		run("a", 10, 700), run("b", 50, 699),
		run("c", 10, 650),
		run("d", 10, 600), run("e", 50, 604),
		run("f", 10, 550),
	}
	got := ReconstructPage(runs)
	lines := strings.Count(got, "\n")
	if lines != 4 {
		t.Errorf("expected 4 lines, got %d in %q", lines, got)
	}
}

// First-cluster-within-tolerance wins: cluster centers are never
// re-canonicalized, so a run close to an existing cluster joins it even if a
// later-created cluster would be nearer.
func TestReconstructPage_FirstClusterWins(t *testing.T) {
	runs := []document.TextRun{
		run("a", 10, 700),
		run("b", 50, 704), // joins cluster 700 (diff 4 < 5)
		run("c", 90, 708), // diff 8 from 700: new cluster, even though diff 4 from b
	}
	got := ReconstructPage(runs)
	want := "c\na b\n"
	if got != want {
		t.Errorf("ReconstructPage() = %q, want %q", got, want)
	}
}

func TestFormatPage(t *testing.T) {
	got := FormatPage(3, "line1\nline2\n")
	want := "--- Page 3 ---\nline1\nline2\n\n\n"
	if got != want {
		t.Errorf("FormatPage() = %q, want %q", got, want)
	}

	// Empty page still gets its delimiter.
	got = FormatPage(1, "")
	want = "--- Page 1 ---\n\n\n"
	if got != want {
		t.Errorf("FormatPage() = %q, want %q", got, want)
	}
}
