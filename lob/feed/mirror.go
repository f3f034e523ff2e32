package feed

import (
	"math/big"
	"sync"
)

// Mirror maintains a local price-level view of one market's book from stream
// updates. Each semibook prices in its own frame, so the best level on
// either side is the lowest tick.
type Mirror struct {
	base, quote string

	mu   sync.RWMutex
	asks map[int64]*big.Int
	bids map[int64]*big.Int

	changeCallbacks []func(Update)
}

// NewMirror tracks the book of one market; updates for other markets are
// ignored.
func NewMirror(base, quote string) *Mirror {
	return &Mirror{
		base:  base,
		quote: quote,
		asks:  make(map[int64]*big.Int),
		bids:  make(map[int64]*big.Int),
	}
}

// OnChange registers a callback fired after every applied update. Register
// before the feed starts; not safe to call concurrently with Apply.
func (m *Mirror) OnChange(cb func(Update)) {
	m.changeCallbacks = append(m.changeCallbacks, cb)
}

// Apply folds one update into the mirror. A zero volume clears the level.
func (m *Mirror) Apply(u Update) {
	if u.Base != m.base || u.Quote != m.quote {
		return
	}
	volume, ok := new(big.Int).SetString(u.Volume, 10)
	if !ok {
		return
	}

	m.mu.Lock()
	side := m.asks
	if u.Side == "bids" {
		side = m.bids
	}
	if volume.Sign() == 0 {
		delete(side, u.Tick)
	} else {
		side[u.Tick] = volume
	}
	m.mu.Unlock()

	// Callbacks run outside the lock so they may read the mirror.
	for _, cb := range m.changeCallbacks {
		cb(u)
	}
}

// BestAsk returns the lowest-tick ask level.
func (m *Mirror) BestAsk() (int64, *big.Int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return best(m.asks)
}

// BestBid returns the lowest-tick bid level.
func (m *Mirror) BestBid() (int64, *big.Int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return best(m.bids)
}

// Depth counts live levels on one side ("asks" or "bids").
func (m *Mirror) Depth(side string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if side == "bids" {
		return len(m.bids)
	}
	return len(m.asks)
}

func best(side map[int64]*big.Int) (int64, *big.Int, bool) {
	found := false
	var bestTick int64
	for tick := range side {
		if !found || tick < bestTick {
			bestTick = tick
			found = true
		}
	}
	if !found {
		return 0, nil, false
	}
	return bestTick, new(big.Int).Set(side[bestTick]), true
}
