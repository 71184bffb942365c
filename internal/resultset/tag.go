package resultset

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Kind classifies what a result filename says about its shading state.
type Kind int

const (
	// KindUnknown means the filename carries a state marker that could not be parsed.
	KindUnknown Kind = iota

	// KindBaseline is the unshaded case (state 0).
	KindBaseline

	// KindShadingState is a dynamic shading configuration (state 1..K).
	KindShadingState
)

func (k Kind) String() string {
	switch k {
	case KindBaseline:
		return "baseline"
	case KindShadingState:
		return "shading-state"
	default:
		return "unknown"
	}
}

// StateTag is the parsed shading state of one result file.
type StateTag struct {
	Kind  Kind
	State int // 0 for KindBaseline, >= 1 for KindShadingState
}

func (t StateTag) String() string {
	switch t.Kind {
	case KindBaseline:
		return "baseline"
	case KindShadingState:
		return fmt.Sprintf("shadingState_%d", t.State)
	default:
		return "unknown"
	}
}

// Known reports whether the tag resolved to a state index.
func (t StateTag) Known() bool {
	return t.Kind != KindUnknown
}

const (
	suffixDown   = "_down"
	suffixUp     = "_up"
	stateMarker  = "_state_"
	tokenDivider = "_"
)

// stem returns the base filename without its extension.
func stem(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// hasBlindSuffix reports whether the stem ends in _down or _up, the Daysim
// naming for the closed and open position of a single blind group.
func hasBlindSuffix(s string) bool {
	return strings.HasSuffix(s, suffixDown) || strings.HasSuffix(s, suffixUp)
}

// ParseStateTag derives the shading state from a result filename.
//
//	room_3_down.ill      -> shading state 1
//	room_3_up.ill        -> baseline
//	room_3.ill           -> baseline
//	room_state_2_3.ill   -> shading state 1 (state markers are 1-based)
//	room_state_x_3.ill   -> unknown
func ParseStateTag(name string) StateTag {
	s := stem(name)
	switch {
	case strings.HasSuffix(s, suffixDown):
		return StateTag{Kind: KindShadingState, State: 1}
	case strings.HasSuffix(s, suffixUp):
		return StateTag{Kind: KindBaseline}
	}

	parts := strings.SplitN(s, stateMarker, 2)
	if len(parts) == 1 {
		return StateTag{Kind: KindBaseline}
	}

	token := strings.SplitN(parts[1], tokenDivider, 2)[0]
	n, err := strconv.Atoi(token)
	if err != nil || n < 1 {
		return StateTag{Kind: KindUnknown}
	}
	if n == 1 {
		return StateTag{Kind: KindBaseline}
	}
	return StateTag{Kind: KindShadingState, State: n - 1}
}

// ChunkKey returns the numeric ordering token of a result chunk: the last
// underscore-delimited token of the stem, or the second-to-last one when the
// stem ends in _down or _up.
func ChunkKey(name string) (int, error) {
	s := stem(name)
	tokens := strings.Split(s, tokenDivider)
	pos := len(tokens) - 1
	if hasBlindSuffix(s) {
		pos--
	}
	if pos < 0 {
		return 0, fmt.Errorf("resultset: %s has no chunk number", filepath.Base(name))
	}
	n, err := strconv.Atoi(tokens[pos])
	if err != nil {
		return 0, fmt.Errorf("resultset: %s: chunk token %q is not a number", filepath.Base(name), tokens[pos])
	}
	return n, nil
}

// TrailingNumber returns the last underscore-delimited token of the stem as an
// integer. Point files and behavior profiles are ordered by it.
func TrailingNumber(name string) (int, error) {
	s := stem(name)
	token := s[strings.LastIndex(s, tokenDivider)+1:]
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("resultset: %s: trailing token %q is not a number", filepath.Base(name), token)
	}
	return n, nil
}
