// Package board describes what a given Raspberry Pi revision provides to the
// GPIO driver: the peripheral base address of its SoC and how many GPIO lines
// it exposes. It must not include wiring choices or per-pin configuration.
package board

// GPIOOffset is the offset of the GPIO register block from the peripheral
// base. It is the same across the BCM283x lineage.
const GPIOOffset = 0x0020_0000

// Config supplies the externally-provided constants the gpio package needs.
type Config struct {
	Name string

	// PeripheralBase is the physical address of the SoC peripheral window.
	PeripheralBase int64

	// Pins is the number of GPIO lines (40 or 54 across the lineage).
	Pins int
}

// GPIOBase returns the physical address of the GPIO register block.
func (c Config) GPIOBase() int64 { return c.PeripheralBase + GPIOOffset }

// Bank1Slots returns the number of pins carried by the second interrupt bank
// (pins 32..Pins-1). Bank 0 always carries 32.
func (c Config) Bank1Slots() int {
	if c.Pins <= 32 {
		return 0
	}
	return c.Pins - 32
}

// Presets for the known board revisions. The base address moved twice across
// the lineage; the pin count of the SoC stayed at 54 even though the 40-pin
// header exposes fewer.
var (
	RaspberryPi1 = Config{Name: "bcm2835", PeripheralBase: 0x2000_0000, Pins: 54}
	RaspberryPi2 = Config{Name: "bcm2836", PeripheralBase: 0x3F00_0000, Pins: 54}
	RaspberryPi3 = Config{Name: "bcm2837", PeripheralBase: 0x3F00_0000, Pins: 54}
	RaspberryPi4 = Config{Name: "bcm2711", PeripheralBase: 0xFE00_0000, Pins: 54}

	// Header40 restricts the driver to the lines reachable on the 40-pin
	// header; some deployments prefer failing fast on unreachable numbers.
	Header40 = Config{Name: "bcm2837-header", PeripheralBase: 0x3F00_0000, Pins: 40}
)

// ByName looks up a preset; it returns false for unknown names.
func ByName(name string) (Config, bool) {
	for _, c := range []Config{RaspberryPi1, RaspberryPi2, RaspberryPi3, RaspberryPi4, Header40} {
		if c.Name == name {
			return c, true
		}
	}
	return Config{}, false
}
