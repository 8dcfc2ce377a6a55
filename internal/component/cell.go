package component

import (
	"fmt"

	"github.com/retracehq/retrace/internal/ir"
)

// Cell is the atomic unit of reactive state: a current Value plus a gated
// transition operation.
//
// Callers MUST route all changes through Set or Apply. Read returns the
// stored Value directly (no defensive copy); the instance detects in-place
// mutation of a read value by comparing the value's canonical hash against
// the hash recorded at the last commit. Go cannot freeze a map the way a
// JS harness freezes an object, but a content hash catches the same defect:
// state that changed without a transition.
type Cell struct {
	name string
	val  ir.Value
	hash string // canonical hash recorded at last commit
	gen  int64  // clock seq of last commit, 0 before first transition
}

// NewCell creates a cell holding the initial value.
// Returns an error if the initial value has no canonical form.
func NewCell(name string, initial ir.Value) (*Cell, error) {
	h, err := ir.OutputHash(initial)
	if err != nil {
		return nil, &ViolationError{
			Code:    ErrCodeUnhashableState,
			Message: fmt.Sprintf("initial value has no canonical form: %v", err),
			Cell:    name,
		}
	}
	return &Cell{name: name, val: initial, hash: h}, nil
}

// Name returns the declared cell name.
func (c *Cell) Name() string {
	return c.name
}

// Read returns the current committed value.
//
// The returned Value is shared, not copied. Mutating it in place is a
// contract violation that the next commit or render will detect.
func (c *Cell) Read() ir.Value {
	return c.val
}

// Generation returns the clock seq of the last commit, 0 if none.
func (c *Cell) Generation() int64 {
	return c.gen
}

// Set commits a new value.
// The commit is stamped with seq and re-hashes the stored value, so a prior
// in-place mutation is detected before the new value lands.
func (c *Cell) Set(v ir.Value, seq int64) error {
	return c.commit(v, seq)
}

// Apply commits the result of applying f to the CURRENT committed value.
//
// f receives the value as of commit time, not as of whenever the caller
// captured a reference. Two Apply calls in one handler therefore stack:
// the second sees the first's result.
func (c *Cell) Apply(f func(ir.Value) ir.Value, seq int64) error {
	if err := c.verify(); err != nil {
		return err
	}
	return c.commit(f(c.val), seq)
}

// commit installs v as the current value at seq.
func (c *Cell) commit(v ir.Value, seq int64) error {
	if err := c.verify(); err != nil {
		return err
	}
	h, err := ir.OutputHash(v)
	if err != nil {
		return &ViolationError{
			Code:    ErrCodeUnhashableState,
			Message: fmt.Sprintf("transition result has no canonical form: %v", err),
			Cell:    c.name,
		}
	}
	c.val = v
	c.hash = h
	c.gen = seq
	return nil
}

// verify checks that the stored value still matches the hash recorded at the
// last commit. A mismatch means a caller mutated a read value in place.
func (c *Cell) verify() error {
	h, err := ir.OutputHash(c.val)
	if err != nil {
		return &ViolationError{
			Code:    ErrCodeUnhashableState,
			Message: fmt.Sprintf("committed value lost its canonical form: %v", err),
			Cell:    c.name,
		}
	}
	if h != c.hash {
		return &ViolationError{
			Code:    ErrCodeMutatedInPlace,
			Message: "value read from cell was mutated in place instead of transitioned",
			Cell:    c.name,
			Details: map[string]string{
				"committed_hash": c.hash,
				"observed_hash":  h,
				"observed_value": ir.Format(c.val),
			},
		}
	}
	return nil
}
