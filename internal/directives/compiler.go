package directives

import (
	"log/slog"
	"sync"

	"lichtwerk/internal/logging"
)

// LockState reports whether the owning job is locked.
type LockState interface {
	Locked() bool
}

// Compiler holds the live directive selections of one job.
type Compiler struct {
	mu      sync.Mutex
	lock    LockState
	pricing Pricing
	logger  *slog.Logger

	style   Style
	window  Window
	sky     Sky
	retouch map[RetouchFlag]bool
	notes   string
}

// New returns an empty compiler guarded by lock.
func New(lock LockState, pricing Pricing, logger *slog.Logger) *Compiler {
	if pricing.surcharges == nil {
		pricing = DefaultPricing()
	}
	return &Compiler{
		lock:    lock,
		pricing: pricing,
		logger:  logging.NewComponentLogger(logger, "directives"),
		retouch: make(map[RetouchFlag]bool),
	}
}

func (c *Compiler) locked() bool {
	return c.lock != nil && c.lock.Locked()
}

// mutate runs fn under the compiler mutex unless the job is locked.
func (c *Compiler) mutate(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locked() {
		return
	}
	fn()
}

// ApplyDefaults replaces the live selections with defaults read from the job.
func (c *Compiler) ApplyDefaults(d Directives) error {
	if err := d.Validate(); err != nil {
		return err
	}
	c.mutate(func() {
		c.style, c.window, c.sky, c.notes = d.Style, d.Window, d.Sky, d.Notes
		c.retouch = make(map[RetouchFlag]bool, len(d.Retouch))
		for _, flag := range d.Retouch {
			c.retouch[flag] = true
		}
	})
	return nil
}

// SetStyle selects a style, replacing any earlier choice. The empty string
// clears it.
func (c *Compiler) SetStyle(value string) error {
	if c.locked() {
		return nil
	}
	style, err := ParseStyle(value)
	if err != nil {
		return err
	}
	c.mutate(func() { c.style = style })
	return nil
}

// SetWindow selects a window treatment.
func (c *Compiler) SetWindow(value string) error {
	if c.locked() {
		return nil
	}
	window, err := ParseWindow(value)
	if err != nil {
		return err
	}
	c.mutate(func() { c.window = window })
	return nil
}

// SetSky selects a sky treatment.
func (c *Compiler) SetSky(value string) error {
	if c.locked() {
		return nil
	}
	sky, err := ParseSky(value)
	if err != nil {
		return err
	}
	c.mutate(func() { c.sky = sky })
	return nil
}

// SetRetouch toggles one retouch flag. Enabling a flag returns its cost
// advisory; disabling returns nil. A locked job ignores the call.
func (c *Compiler) SetRetouch(value string, enabled bool) (*Advisory, error) {
	if c.locked() {
		return nil, nil
	}
	flag, err := ParseRetouchFlag(value)
	if err != nil {
		return nil, err
	}
	var advisory *Advisory
	c.mutate(func() {
		if !enabled {
			delete(c.retouch, flag)
			return
		}
		c.retouch[flag] = true
		a := c.pricing.advisory(flag)
		advisory = &a
	})
	if advisory != nil {
		c.logger.Info("retouch surcharge advisory",
			logging.String("flag", string(flag)),
			logging.Int64("amount", advisory.Amount),
			logging.String("currency", advisory.Currency),
		)
	}
	return advisory, nil
}

// SetNotes replaces the freeform notes.
func (c *Compiler) SetNotes(notes string) {
	c.mutate(func() { c.notes = notes })
}

// Compile returns an immutable snapshot of the current selections with
// retouch flags in display order.
func (c *Compiler) Compile() Directives {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := Directives{
		Style:   c.style,
		Window:  c.window,
		Sky:     c.sky,
		Notes:   c.notes,
		Retouch: make([]RetouchFlag, 0, len(c.retouch)),
	}
	for _, flag := range flags {
		if c.retouch[flag] {
			out.Retouch = append(out.Retouch, flag)
		}
	}
	return out
}

// Advisories lists the advisory for every active retouch flag.
func (c *Compiler) Advisories() []Advisory {
	compiled := c.Compile()
	out := make([]Advisory, 0, len(compiled.Retouch))
	for _, flag := range compiled.Retouch {
		out = append(out, c.pricing.advisory(flag))
	}
	return out
}

// EstimatedSurcharge sums the surcharges of all active flags and returns the
// minor-unit total with its formatted form.
func (c *Compiler) EstimatedSurcharge() (int64, string) {
	var total int64
	for _, advisory := range c.Advisories() {
		total += advisory.Amount
	}
	return total, c.pricing.Format(total)
}

// Pricing returns the pricing table used for advisories.
func (c *Compiler) Pricing() Pricing {
	return c.pricing
}
