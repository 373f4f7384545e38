// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package tui

import "testing"

func TestFuzzyMatchEmptyPattern(t *testing.T) {
	result := FuzzyMatch("anything", nil, nil)
	if result.Score != 0 || result.Positions != nil {
		t.Errorf("expected zero result for empty pattern, got %+v", result)
	}
}

func TestFuzzyMatchExact(t *testing.T) {
	result := FuzzyMatch("fix the login flow", []rune("login"), nil)
	if result.Score == 0 {
		t.Fatal("expected a match")
	}
	if len(result.Positions) != 5 {
		t.Errorf("expected 5 matched positions, got %v", result.Positions)
	}
}

func TestFuzzyMatchCaseInsensitive(t *testing.T) {
	lower := FuzzyMatch("Fix The LOGIN Flow", []rune("login"), nil)
	upper := FuzzyMatch("Fix The LOGIN Flow", []rune("LOGIN"), nil)
	if lower.Score == 0 || upper.Score == 0 {
		t.Fatal("expected matches regardless of case")
	}
	if lower.Score != upper.Score {
		t.Errorf("case should not affect score: %d vs %d", lower.Score, upper.Score)
	}
}

func TestFuzzyMatchSubsequence(t *testing.T) {
	result := FuzzyMatch("deploy staging environment", []rune("dse"), nil)
	if result.Score == 0 {
		t.Fatal("expected subsequence match")
	}
	if len(result.Positions) != 3 {
		t.Errorf("expected 3 matched positions, got %v", result.Positions)
	}
}

func TestFuzzyMatchNoMatch(t *testing.T) {
	result := FuzzyMatch("release notes", []rune("xyz"), nil)
	if result.Score != 0 {
		t.Errorf("expected no match, got score %d", result.Score)
	}
	if result.Positions != nil {
		t.Errorf("expected nil positions on miss, got %v", result.Positions)
	}
}

func TestFuzzyMatchPrefersWordBoundary(t *testing.T) {
	// fzf's bonus scoring favors matches starting at word
	// boundaries over mid-word runs.
	boundary := FuzzyMatch("task runner", []rune("run"), nil)
	midWord := FuzzyMatch("pruned trees", []rune("run"), nil)
	if boundary.Score <= midWord.Score {
		t.Errorf("boundary match should outscore mid-word: %d vs %d",
			boundary.Score, midWord.Score)
	}
}

func TestFuzzyMatchReusedSlab(t *testing.T) {
	slab := NewSlab()
	titles := []string{"first task", "second task", "third thing"}
	for _, title := range titles {
		if FuzzyMatch(title, []rune("t"), slab).Score == 0 {
			t.Errorf("expected %q to match with shared slab", title)
		}
	}
}
