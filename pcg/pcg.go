// Package pcg implements the 32-bit permuted-congruential generator the
// simulation uses for every random draw. The textual state form is
// "<state> <stream>" so serialized simulations restart bit-exact.
package pcg

import (
	"fmt"
	"math"
	"strings"

	"github.com/goccy/go-json"
)

const multiplier = 6364136223846793005

// PCG32 is a pcg32 generator: 64-bit LCG state with an XSH-RR output
// permutation and a per-instance odd increment selecting the stream.
type PCG32 struct {
	State uint64
	Inc   uint64
}

// New returns a generator seeded with initState on stream initSeq.
func New(initState, initSeq uint64) PCG32 {
	var p PCG32
	p.Seed(initState, initSeq)
	return p
}

// Seed reinitializes the generator, following the reference pcg32 seeding
// sequence.
func (p *PCG32) Seed(initState, initSeq uint64) {
	p.State = 0
	p.Inc = initSeq<<1 | 1
	p.Next()
	p.State += initState
	p.Next()
}

// Next advances the generator and returns the next 32-bit output.
func (p *PCG32) Next() uint32 {
	old := p.State
	p.State = old*multiplier + p.Inc
	xorshifted := uint32(((old >> 18) ^ old) >> 27)
	rot := uint32(old >> 59)
	return xorshifted>>rot | xorshifted<<((-rot)&31)
}

// Float01 returns a float in [0, 1) using the full 32-bit output.
func (p *PCG32) Float01() float32 {
	f := float32(float64(p.Next()) / (1 << 32))
	if f >= 1 {
		// Outputs just below 2^32 round up to 1 in float32.
		return math.Nextafter32(1, 0)
	}
	return f
}

// String renders the textual state, "<state> <stream>".
func (p PCG32) String() string {
	return fmt.Sprintf("%d %d", p.State, p.Inc)
}

// Parse restores the generator from its textual state.
func (p *PCG32) Parse(s string) error {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return fmt.Errorf("pcg: state %q is not \"<state> <stream>\"", s)
	}
	var state, inc uint64
	if _, err := fmt.Sscanf(fields[0]+" "+fields[1], "%d %d", &state, &inc); err != nil {
		return fmt.Errorf("pcg: bad state %q: %w", s, err)
	}
	p.State = state
	p.Inc = inc
	return nil
}

// MarshalJSON emits the {"state": "..."} object the state envelope uses.
func (p PCG32) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`{"state":%q}`, p.String())), nil
}

// UnmarshalJSON restores from the {"state": "..."} object.
func (p *PCG32) UnmarshalJSON(data []byte) error {
	var obj struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	return p.Parse(obj.State)
}
