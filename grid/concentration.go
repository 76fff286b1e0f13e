package grid

// Substance identifies a diffusing quantity held by every tile.
type Substance uint8

const (
	Virus Substance = iota
	Antibody

	NumSubstances = 2
)

// String returns the substance's config/persistence name.
func (s Substance) String() string {
	switch s {
	case Virus:
		return "virus"
	case Antibody:
		return "antibody"
	default:
		return "unknown"
	}
}

// Concentration is a scalar balance clamped to [0,1].
type Concentration struct {
	balance float64
}

// Balance returns the current amount.
func (c *Concentration) Balance() float64 {
	return c.balance
}

// IsFull reports whether the balance has reached the cap.
func (c *Concentration) IsFull() bool {
	return c.balance >= 1
}

// IsEmpty reports whether nothing is held.
func (c *Concentration) IsEmpty() bool {
	return c.balance <= 0
}

// TryDeposit adds up to amount and returns how much was accepted.
// Non-positive amounts are rejected.
func (c *Concentration) TryDeposit(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	room := 1 - c.balance
	if room <= 0 {
		return 0
	}
	if amount >= room {
		c.balance = 1
		return room
	}
	c.balance += amount
	return amount
}

// TryWithdraw removes up to amount and returns how much was removed.
func (c *Concentration) TryWithdraw(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	if amount > c.balance {
		amount = c.balance
	}
	c.balance -= amount
	if c.balance < 0 {
		c.balance = 0
	}
	return amount
}

// TryWithdrawFraction removes fraction (clamped to [0,1]) of the current
// balance and returns the amount removed.
func (c *Concentration) TryWithdrawFraction(fraction float64) float64 {
	if fraction <= 0 {
		return 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return c.TryWithdraw(c.balance * fraction)
}

// Fill saturates the balance.
func (c *Concentration) Fill() {
	c.balance = 1
}

// Empty drops the balance to zero.
func (c *Concentration) Empty() {
	c.balance = 0
}

// Set replaces the balance, clamped to [0,1]. Used by level loading.
func (c *Concentration) Set(v float64) {
	switch {
	case v < 0:
		v = 0
	case v > 1:
		v = 1
	}
	c.balance = v
}
