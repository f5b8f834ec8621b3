package mana

// Color represents one of the five mana colors or colorless.
type Color string

const (
	White     Color = "W"
	Blue      Color = "U"
	Black     Color = "B"
	Red       Color = "R"
	Green     Color = "G"
	Colorless Color = "C"
)

// payOrder is the order in which leftover colors are consumed when paying a
// generic cost: colorless first, then WUBRG. Payment must be deterministic so
// that tests and reconnecting clients see identical pool states.
var payOrder = []Color{Colorless, White, Blue, Black, Red, Green}

// Colors lists every pool color in canonical payment order.
func Colors() []Color {
	return payOrder
}

// Pool is a player's mana pool. All mutation happens on the engine tick
// goroutine, so the pool carries no lock.
type Pool struct {
	White     int `json:"W"`
	Blue      int `json:"U"`
	Black     int `json:"B"`
	Red       int `json:"R"`
	Green     int `json:"G"`
	Colorless int `json:"C"`
}

// Get returns the amount of the given color in the pool.
func (p *Pool) Get(c Color) int {
	switch c {
	case White:
		return p.White
	case Blue:
		return p.Blue
	case Black:
		return p.Black
	case Red:
		return p.Red
	case Green:
		return p.Green
	case Colorless:
		return p.Colorless
	default:
		return 0
	}
}

// Add adds amount mana of the given color. Non-positive amounts are ignored.
func (p *Pool) Add(c Color, amount int) {
	if amount <= 0 {
		return
	}
	p.set(c, p.Get(c)+amount)
}

// Total returns the total mana across all colors.
func (p *Pool) Total() int {
	return p.White + p.Blue + p.Black + p.Red + p.Green + p.Colorless
}

// Reset empties the pool.
func (p *Pool) Reset() {
	*p = Pool{}
}

// CanPay reports whether the pool covers the cost: every color-specific
// amount from its own counter, plus enough leftover for the generic part.
func (p *Pool) CanPay(cost Cost) bool {
	leftover := 0
	for _, c := range payOrder {
		have := p.Get(c)
		need := cost.Colored(c)
		if have < need {
			return false
		}
		leftover += have - need
	}
	return leftover >= cost.Generic()
}

// Pay deducts the cost from the pool. Colored amounts are paid from their own
// counters; the generic amount is then paid from the remainder in payOrder
// (colorless preferred). Returns false and leaves the pool untouched if the
// cost cannot be covered.
func (p *Pool) Pay(cost Cost) bool {
	if !p.CanPay(cost) {
		return false
	}
	for _, c := range payOrder {
		p.set(c, p.Get(c)-cost.Colored(c))
	}
	generic := cost.Generic()
	for _, c := range payOrder {
		if generic == 0 {
			break
		}
		spend := min(p.Get(c), generic)
		p.set(c, p.Get(c)-spend)
		generic -= spend
	}
	return true
}

// Refund adds the cost back into the pool. The generic part is refunded as
// colorless; the exact colors spent are not tracked, which only matters on a
// failed spell resolution where the intermediate pool state is never shown to
// the client.
func (p *Pool) Refund(cost Cost) {
	for _, c := range payOrder {
		p.Add(c, cost.Colored(c))
	}
	p.Add(Colorless, cost.Generic())
}

func (p *Pool) set(c Color, v int) {
	switch c {
	case White:
		p.White = v
	case Blue:
		p.Blue = v
	case Black:
		p.Black = v
	case Red:
		p.Red = v
	case Green:
		p.Green = v
	case Colorless:
		p.Colorless = v
	}
}
