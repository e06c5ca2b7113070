package modifier

import (
	"math"
	"math/rand"
	"sync"

	"github.com/gosnmp/gosnmp"
	"github.com/snmpfleet/snmpsim/internal/mib"
)

// Modifier mutates the current stored value for one OID on each read. The
// key argument identifies one binding (the Agent Assembler passes
// "<context>|<dotted OID>"); a single Modifier instance is shared across
// every OID its ModifierBinding prefix matches, so per-binding
// progression state is tracked internally keyed by it, the way the
// teacher's stateful variations track state keyed by PDU name.
type Modifier interface {
	Modify(key string, current mib.Variable) mib.Variable
}

// stepValue applies the bounded-uniform-step rule of spec §4.3 in signed
// 64-bit space: reset to minimum if current is out of bounds, then add
// step, wrapping past maximum by minimum+(step-distanceToMax-1) and
// clamping underflow to minimum.
func stepValue(current, minimum, maximum, step int64) int64 {
	if current < minimum || current > maximum {
		current = minimum
	}
	tentative := current + step
	if tentative > maximum {
		distanceToMax := maximum - current
		return minimum + (step - distanceToMax - 1)
	}
	if tentative < minimum {
		return minimum
	}
	return tentative
}

// stepValueUnsigned is stepValue's uint64 counterpart for Counter64, whose
// natural range exceeds what int64 can represent.
func stepValueUnsigned(current, minimum, maximum, step uint64) uint64 {
	if current < minimum || current > maximum {
		current = minimum
	}
	tentative := current + step
	if tentative > maximum || tentative < current {
		distanceToMax := maximum - current
		return minimum + (step - distanceToMax - 1)
	}
	if tentative < minimum {
		return minimum
	}
	return tentative
}

// boundedStepModifier implements the shared Integer32/UInt32/Gauge32/
// Counter32/TimeTicks/SysUpTime algorithm over int64 arithmetic.
type boundedStepModifier struct {
	syntax           gosnmp.Asn1BER
	minimum, maximum int64
	minStep, maxStep int64

	mu      sync.Mutex
	rng     *rand.Rand
	current map[string]int64
}

func newBoundedStepModifier(syntax gosnmp.Asn1BER, minimum, maximum, minStep, maxStep, seed int64) *boundedStepModifier {
	if seed == 0 {
		seed = 1
	}
	return &boundedStepModifier{
		syntax:  syntax,
		minimum: minimum,
		maximum: maximum,
		minStep: minStep,
		maxStep: maxStep,
		rng:     rand.New(rand.NewSource(seed)),
		current: map[string]int64{},
	}
}

func (m *boundedStepModifier) Modify(key string, current mib.Variable) mib.Variable {
	base, ok := toSignedPayload(current)
	if !ok {
		return current
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cur, exists := m.current[key]
	if !exists {
		cur = base
	}

	step := m.minStep
	if m.maxStep > m.minStep {
		step = m.minStep + m.rng.Int63n(m.maxStep-m.minStep+1)
	}

	next := stepValue(cur, m.minimum, m.maximum, step)
	m.current[key] = next

	return fromSignedPayload(m.syntax, next)
}

// counter64Modifier implements the same rule in full uint64 space.
type counter64Modifier struct {
	minimum, maximum uint64
	minStep, maxStep uint64

	mu      sync.Mutex
	rng     *rand.Rand
	current map[string]uint64
}

func newCounter64Modifier(minimum, maximum, minStep, maxStep uint64, seed int64) *counter64Modifier {
	if seed == 0 {
		seed = 1
	}
	return &counter64Modifier{
		minimum: minimum,
		maximum: maximum,
		minStep: minStep,
		maxStep: maxStep,
		rng:     rand.New(rand.NewSource(seed)),
		current: map[string]uint64{},
	}
}

func (m *counter64Modifier) Modify(key string, current mib.Variable) mib.Variable {
	if current.Syntax() != gosnmp.Counter64 {
		return current
	}
	base := current.Uint64()

	m.mu.Lock()
	defer m.mu.Unlock()

	cur, exists := m.current[key]
	if !exists {
		cur = base
	}

	step := m.minStep
	if m.maxStep > m.minStep {
		step = m.minStep + uint64(m.rng.Int63n(int64(m.maxStep-m.minStep+1)))
	}

	next := stepValueUnsigned(cur, m.minimum, m.maximum, step)
	m.current[key] = next

	return mib.Counter64Value(next)
}

func toSignedPayload(v mib.Variable) (int64, bool) {
	switch v.Syntax() {
	case gosnmp.Integer, gosnmp.Gauge32, gosnmp.Counter32, gosnmp.TimeTicks:
		return v.Int64(), true
	default:
		return 0, false
	}
}

func fromSignedPayload(syntax gosnmp.Asn1BER, v int64) mib.Variable {
	switch syntax {
	case gosnmp.Integer:
		return mib.Integer32(int32(v))
	case gosnmp.Gauge32:
		return mib.UInt32(uint32(v))
	case gosnmp.Counter32:
		return mib.Counter32Value(uint32(v))
	case gosnmp.TimeTicks:
		return mib.TimeTicksValue(uint32(v))
	default:
		return mib.Integer32(int32(v))
	}
}

// Natural extremes per spec §4.3 ("bounds default to each type's natural
// extremes").
const (
	int32Min  = int64(math.MinInt32)
	int32Max  = int64(math.MaxInt32)
	uint32Max = int64(math.MaxUint32)
	uint64Max = uint64(math.MaxUint64)
)
