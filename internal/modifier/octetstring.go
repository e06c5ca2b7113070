package modifier

import (
	"math/rand"
	"sync"

	"github.com/snmpfleet/snmpsim/internal/mib"
)

// octetStringModifier picks from a configured list of values, either
// uniformly at random or in rotation, per spec §4.3.
type octetStringModifier struct {
	values []string
	rotate bool

	mu    sync.Mutex
	rng   *rand.Rand
	index map[string]int
}

func newOctetStringModifier(values []string, mode string, seed int64) *octetStringModifier {
	if seed == 0 {
		seed = 1
	}
	return &octetStringModifier{
		values: values,
		rotate: mode == "rotate",
		rng:    rand.New(rand.NewSource(seed)),
		index:  map[string]int{},
	}
}

func (m *octetStringModifier) Modify(key string, current mib.Variable) mib.Variable {
	if len(m.values) == 0 {
		return current
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.rotate {
		return mib.OctetStringValue(m.values[m.rng.Intn(len(m.values))])
	}

	i := m.index[key]
	v := m.values[i%len(m.values)]
	m.index[key] = i + 1
	return mib.OctetStringValue(v)
}
