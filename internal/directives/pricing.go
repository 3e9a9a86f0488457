package directives

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// defaultSurcharges are per-flag surcharges in minor units (cents).
var defaultSurcharges = map[RetouchFlag]int64{
	RetouchObjectRemoval:  900,
	RetouchLawnGreening:   500,
	RetouchDayToDusk:      2500,
	RetouchVirtualStaging: 3500,
	RetouchFireplace:      500,
	RetouchTVScreen:       400,
	RetouchPowerLines:     700,
}

// Pricing turns retouch flags into cost advisories.
type Pricing struct {
	unit       currency.Unit
	tag        language.Tag
	surcharges map[RetouchFlag]int64
}

// DefaultPricing returns EUR pricing with the built-in surcharge table.
func DefaultPricing() Pricing {
	p, _ := NewPricing("EUR", nil)
	return p
}

// NewPricing builds pricing for an ISO 4217 currency code. Overrides replace
// the built-in surcharge for the named flags.
func NewPricing(code string, overrides map[string]int64) (Pricing, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return Pricing{}, fmt.Errorf("%w: currency %q", ErrUnknownOption, code)
	}
	surcharges := make(map[RetouchFlag]int64, len(defaultSurcharges))
	for flag, amount := range defaultSurcharges {
		surcharges[flag] = amount
	}
	for key, amount := range overrides {
		flag, err := ParseRetouchFlag(key)
		if err != nil {
			return Pricing{}, err
		}
		if amount < 0 {
			return Pricing{}, fmt.Errorf("%w: negative surcharge for %s", ErrUnknownOption, flag)
		}
		surcharges[flag] = amount
	}
	return Pricing{unit: unit, tag: language.German, surcharges: surcharges}, nil
}

// Currency returns the ISO code of the pricing currency.
func (p Pricing) Currency() string {
	return p.unit.String()
}

// Surcharge returns the minor-unit surcharge for flag.
func (p Pricing) Surcharge(flag RetouchFlag) int64 {
	return p.surcharges[flag]
}

// Format renders a minor-unit amount in the pricing currency.
func (p Pricing) Format(minor int64) string {
	printer := message.NewPrinter(p.tag)
	return printer.Sprint(currency.Symbol(p.unit.Amount(float64(minor) / 100)))
}

// Advisory is a non-blocking cost notice for an enabled retouch flag.
type Advisory struct {
	Flag     RetouchFlag `json:"flag"`
	Amount   int64       `json:"amount"`
	Currency string      `json:"currency"`
	Message  string      `json:"message"`
}

func (p Pricing) advisory(flag RetouchFlag) Advisory {
	amount := p.Surcharge(flag)
	printer := message.NewPrinter(p.tag)
	return Advisory{
		Flag:     flag,
		Amount:   amount,
		Currency: p.Currency(),
		Message:  printer.Sprintf("%s: Aufpreis %s pro Bild", flag.Label(), p.Format(amount)),
	}
}
