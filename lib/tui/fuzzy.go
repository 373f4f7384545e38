// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"
	"sync"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// FuzzyResult is the outcome of matching one text against a filter
// pattern: fzf's score (zero means no match) and the matched rune
// positions for highlighting.
type FuzzyResult struct {
	Score     int
	Positions []int
}

var fzfInit sync.Once

// FuzzyMatch runs fzf's FuzzyMatchV2 algorithm case-insensitively.
// Pass a reusable slab when matching many candidates in a loop; nil
// allocates internally.
func FuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 {
		return FuzzyResult{}
	}
	fzfInit.Do(func() { algo.Init("default") })

	// Lowercase both sides: fzf's caseSensitive=false only folds the
	// pattern, so an uppercase text would otherwise miss.
	chars := util.ToChars([]byte(strings.ToLower(text)))
	lowered := []rune(strings.ToLower(string(pattern)))

	result, positions := algo.FuzzyMatchV2(false, false, true, &chars, lowered, true, slab)
	if result.Score <= 0 {
		return FuzzyResult{}
	}
	out := FuzzyResult{Score: result.Score}
	if positions != nil {
		out.Positions = *positions
	}
	return out
}

// NewSlab allocates a scratch slab sized for interactive filtering.
func NewSlab() *util.Slab {
	return util.MakeSlab(100*1024, 2048)
}
