package resultset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrNoBaseline is returned when no branch resolves to state 0.
	ErrNoBaseline = errors.New("resultset: no baseline result files")

	// ErrChunkCountMismatch is returned when a shading state is split into a
	// different number of chunks than the baseline.
	ErrChunkCountMismatch = errors.New("resultset: chunk count differs from baseline")

	// ErrRowRangeMismatch is returned when a shading-state chunk holds a
	// different number of points than its baseline counterpart.
	ErrRowRangeMismatch = errors.New("resultset: chunk row range differs from baseline")

	// ErrStateCollision is returned by FileSet.CollisionError when two
	// branches resolved to the same shading state.
	ErrStateCollision = errors.New("resultset: two branches claim the same shading state")
)

// Collision records a branch that overwrote an earlier branch's state slot.
type Collision struct {
	State    int
	Previous string // first file of the branch that was replaced
	Replaced string // first file of the branch that won
}

// FileSet maps each shading state to its ordered chunk files.
type FileSet struct {
	States     map[int][]string
	Collisions []Collision
}

// Chunks returns the ordered chunk files for a state, or nil.
func (fs *FileSet) Chunks(state int) []string {
	return fs.States[state]
}

// Baseline returns the chunk files of state 0.
func (fs *FileSet) Baseline() []string {
	return fs.States[0]
}

// StateIndexes returns the states present in ascending order.
func (fs *FileSet) StateIndexes() []int {
	idx := make([]int, 0, len(fs.States))
	for s := range fs.States {
		idx = append(idx, s)
	}
	sort.Ints(idx)
	return idx
}

// ShadingStateCount returns the number of non-baseline states.
func (fs *FileSet) ShadingStateCount() int {
	n := len(fs.States)
	if _, ok := fs.States[0]; ok {
		n--
	}
	return n
}

// Validate checks that a baseline exists and that every state has the same
// number of chunks as the baseline.
func (fs *FileSet) Validate() error {
	base, ok := fs.States[0]
	if !ok || len(base) == 0 {
		return ErrNoBaseline
	}
	for _, s := range fs.StateIndexes() {
		if n := len(fs.States[s]); n != len(base) {
			return fmt.Errorf("%w: state %d has %d chunks, baseline has %d", ErrChunkCountMismatch, s, n, len(base))
		}
	}
	return nil
}

// CollisionError returns ErrStateCollision describing every recorded
// collision, or nil when there were none.
func (fs *FileSet) CollisionError() error {
	if len(fs.Collisions) == 0 {
		return nil
	}
	parts := make([]string, 0, len(fs.Collisions))
	for _, c := range fs.Collisions {
		parts = append(parts, fmt.Sprintf("state %d: %s replaced by %s",
			c.State, filepath.Base(c.Previous), filepath.Base(c.Replaced)))
	}
	return fmt.Errorf("%w: %s", ErrStateCollision, strings.Join(parts, "; "))
}

// SortChunks orders result files by their chunk number. If any name has no
// numeric chunk token, the files are returned in their original order along
// with the error.
func SortChunks(files []string) ([]string, error) {
	return sortByKey(files, ChunkKey)
}

// SortByTrailingNumber orders files by the last numeric token of their name,
// keeping the original order on failure.
func SortByTrailingNumber(files []string) ([]string, error) {
	return sortByKey(files, TrailingNumber)
}

func sortByKey(files []string, key func(string) (int, error)) ([]string, error) {
	out := make([]string, len(files))
	copy(out, files)

	keys := make(map[string]int, len(files))
	for _, f := range files {
		k, err := key(f)
		if err != nil {
			return out, err
		}
		keys[f] = k
	}

	sort.SliceStable(out, func(i, j int) bool {
		return keys[out[i]] < keys[out[j]]
	})
	return out, nil
}

// Sort orders each branch's chunks and assigns every branch to a shading
// state using the tag of its first file. One branch holds the files of one
// shading state. When firstBranchOnly is set only the first branch is used,
// which is all a baseline-only run needs.
//
// Two branches that resolve to the same state are not arbitrated: the later
// branch wins and the collision is recorded on the returned FileSet.
// Recoverable problems are returned as warnings.
func Sort(branches [][]string, firstBranchOnly bool) (*FileSet, []string) {
	count := len(branches)
	if firstBranchOnly && count > 1 {
		count = 1
	}

	var warnings []string
	fs := &FileSet{States: make(map[int][]string, count)}

	for i := 0; i < count; i++ {
		files, err := SortChunks(branches[i])
		if err != nil {
			warnings = append(warnings, fmt.Sprintf(
				"can't sort the files based on the file names, keeping branch %d in the given order: %v", i, err))
		}
		if len(files) == 0 {
			warnings = append(warnings, fmt.Sprintf("branch %d has no result files", i))
			continue
		}

		state := i
		tag := ParseStateTag(files[0])
		if tag.Known() {
			state = tag.State
		} else {
			warnings = append(warnings, fmt.Sprintf(
				"can't read the shading state of %s, using branch position %d", filepath.Base(files[0]), i))
		}

		if prev, ok := fs.States[state]; ok {
			fs.Collisions = append(fs.Collisions, Collision{
				State:    state,
				Previous: prev[0],
				Replaced: files[0],
			})
		}
		fs.States[state] = files
	}

	return fs, warnings
}

// GroupBranches splits a flat list of result files into one branch per
// shading state tag. Branches come back in ascending state order with
// unparseable files collected in a final branch.
func GroupBranches(paths []string) [][]string {
	byState := make(map[int][]string)
	var unknown []string
	for _, p := range paths {
		tag := ParseStateTag(p)
		if !tag.Known() {
			unknown = append(unknown, p)
			continue
		}
		byState[tag.State] = append(byState[tag.State], p)
	}

	states := make([]int, 0, len(byState))
	for s := range byState {
		states = append(states, s)
	}
	sort.Ints(states)

	branches := make([][]string, 0, len(states)+1)
	for _, s := range states {
		branches = append(branches, byState[s])
	}
	if len(unknown) > 0 {
		branches = append(branches, unknown)
	}
	return branches
}

// Discover lists the .ill files in dir and groups them into branches.
func Discover(dir string) ([][]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("resultset: read %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".ill") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("resultset: no .ill files in %s", dir)
	}
	return GroupBranches(paths), nil
}
