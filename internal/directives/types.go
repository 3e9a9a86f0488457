package directives

import (
	"fmt"
	"slices"
	"strings"

	"lichtwerk/internal/services"
)

// ErrUnknownOption reports a selection outside the closed option lists.
var ErrUnknownOption = fmt.Errorf("%w: unknown directive option", services.ErrValidation)

// Style is the global colour grading look.
type Style string

const (
	StyleNatural   Style = "natural"
	StyleBright    Style = "bright"
	StyleWarm      Style = "warm"
	StyleEditorial Style = "editorial"
)

// Window is the treatment of views through windows.
type Window string

const (
	WindowNatural Window = "natural"
	WindowPulled  Window = "pulled"
	WindowBright  Window = "bright"
)

// Sky is the treatment of exterior skies.
type Sky string

const (
	SkyKeep     Sky = "keep"
	SkyBlue     Sky = "blue"
	SkyDramatic Sky = "dramatic"
	SkySunset   Sky = "sunset"
)

// RetouchFlag is one independent retouch service.
type RetouchFlag string

const (
	RetouchObjectRemoval  RetouchFlag = "object_removal"
	RetouchLawnGreening   RetouchFlag = "lawn_greening"
	RetouchDayToDusk      RetouchFlag = "day_to_dusk"
	RetouchVirtualStaging RetouchFlag = "virtual_staging"
	RetouchFireplace      RetouchFlag = "fireplace"
	RetouchTVScreen       RetouchFlag = "tv_screen"
	RetouchPowerLines     RetouchFlag = "power_lines"
)

var (
	styles  = []Style{StyleNatural, StyleBright, StyleWarm, StyleEditorial}
	windows = []Window{WindowNatural, WindowPulled, WindowBright}
	skies   = []Sky{SkyKeep, SkyBlue, SkyDramatic, SkySunset}
	flags   = []RetouchFlag{
		RetouchObjectRemoval,
		RetouchLawnGreening,
		RetouchDayToDusk,
		RetouchVirtualStaging,
		RetouchFireplace,
		RetouchTVScreen,
		RetouchPowerLines,
	}
)

var flagLabels = map[RetouchFlag]string{
	RetouchObjectRemoval:  "Objektentfernung",
	RetouchLawnGreening:   "Rasen begrünen",
	RetouchDayToDusk:      "Tag-zu-Dämmerung",
	RetouchVirtualStaging: "Virtuelles Home Staging",
	RetouchFireplace:      "Kaminfeuer",
	RetouchTVScreen:       "TV-Bildschirm ersetzen",
	RetouchPowerLines:     "Stromleitungen entfernen",
}

// Styles lists the selectable styles in display order.
func Styles() []Style { return slices.Clone(styles) }

// Windows lists the selectable window treatments in display order.
func Windows() []Window { return slices.Clone(windows) }

// Skies lists the selectable sky treatments in display order.
func Skies() []Sky { return slices.Clone(skies) }

// RetouchFlags lists the known retouch flags in display order.
func RetouchFlags() []RetouchFlag { return slices.Clone(flags) }

// Label returns the customer-facing name of the flag.
func (f RetouchFlag) Label() string {
	if label, ok := flagLabels[f]; ok {
		return label
	}
	return string(f)
}

// ParseStyle validates a style value. The empty string clears the selection.
func ParseStyle(value string) (Style, error) {
	return parseOption(value, styles, "style")
}

// ParseWindow validates a window treatment.
func ParseWindow(value string) (Window, error) {
	return parseOption(value, windows, "window")
}

// ParseSky validates a sky treatment.
func ParseSky(value string) (Sky, error) {
	return parseOption(value, skies, "sky")
}

// ParseRetouchFlag validates a retouch flag name.
func ParseRetouchFlag(value string) (RetouchFlag, error) {
	flag, err := parseOption(value, flags, "retouch flag")
	if err == nil && flag == "" {
		return "", fmt.Errorf("%w: empty retouch flag", ErrUnknownOption)
	}
	return flag, err
}

func parseOption[T ~string](value string, known []T, category string) (T, error) {
	normalized := T(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", nil
	}
	if slices.Contains(known, normalized) {
		return normalized, nil
	}
	return "", fmt.Errorf("%w: %s %q", ErrUnknownOption, category, value)
}

// Directives is the editing payload handed to production at lock time.
type Directives struct {
	Style   Style         `json:"style,omitempty" yaml:"style,omitempty"`
	Window  Window        `json:"window,omitempty" yaml:"window,omitempty"`
	Sky     Sky           `json:"sky,omitempty" yaml:"sky,omitempty"`
	Retouch []RetouchFlag `json:"retouch" yaml:"retouch,omitempty"`
	Notes   string        `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// HasRetouch reports whether flag is active.
func (d Directives) HasRetouch(flag RetouchFlag) bool {
	return slices.Contains(d.Retouch, flag)
}

// Validate checks every selection against the option lists.
func (d Directives) Validate() error {
	if _, err := ParseStyle(string(d.Style)); err != nil {
		return err
	}
	if _, err := ParseWindow(string(d.Window)); err != nil {
		return err
	}
	if _, err := ParseSky(string(d.Sky)); err != nil {
		return err
	}
	for _, flag := range d.Retouch {
		if _, err := ParseRetouchFlag(string(flag)); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a copy that shares no slices with d.
func (d Directives) Clone() Directives {
	cp := d
	cp.Retouch = slices.Clone(d.Retouch)
	if cp.Retouch == nil {
		cp.Retouch = []RetouchFlag{}
	}
	return cp
}
