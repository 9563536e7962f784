package gpio

import (
	"strconv"

	"rpigpio-go/errcode"
	"rpigpio-go/mmio"
)

// Function is a pin's selected function.
type Function uint8

const (
	FuncUnknown Function = iota
	FuncInput
	FuncOutput
	FuncAlt0
	FuncAlt1
	FuncAlt2
	FuncAlt3
	FuncAlt4
	FuncAlt5
)

// 3-bit function-select codes. The alt codes are not in numeric order.
var functionCodes = [...]uint32{
	FuncInput:  0b000,
	FuncOutput: 0b001,
	FuncAlt0:   0b100,
	FuncAlt1:   0b101,
	FuncAlt2:   0b110,
	FuncAlt3:   0b111,
	FuncAlt4:   0b011,
	FuncAlt5:   0b010,
}

func (f Function) String() string {
	switch f {
	case FuncInput:
		return "input"
	case FuncOutput:
		return "output"
	case FuncAlt0, FuncAlt1, FuncAlt2, FuncAlt3, FuncAlt4, FuncAlt5:
		return "alt" + strconv.Itoa(int(f-FuncAlt0))
	default:
		return "unknown"
	}
}

// Pull is a pin's pull-resistor state.
type Pull uint8

const (
	PullUnknown Pull = iota
	PullDisabled
	PullDown
	PullUp
)

// 2-bit pull-control codes.
var pullCodes = [...]uint32{
	PullDisabled: 0b00,
	PullDown:     0b01,
	PullUp:       0b10,
}

func (p Pull) String() string {
	switch p {
	case PullDisabled:
		return "disabled"
	case PullDown:
		return "pull_down"
	case PullUp:
		return "pull_up"
	default:
		return "unknown"
	}
}

// Pin is one claimed GPIO line. A fresh Pin has unknown function and pull
// state; callers transition it before using level operations. The original
// hardware state cannot be read back for either, so level operations
// validate the tracked function at run time and fail with state_mismatch
// rather than perform a register access in the wrong mode.
type Pin struct {
	num  uint32
	regs *registers
	fn   Function
	pull Pull
}

func (p *Pin) Number() uint32 { return p.num }

// Function reports the tracked function state.
func (p *Pin) Function() Function { return p.fn }

// Pull reports the tracked pull-resistor state.
func (p *Pin) Pull() Pull { return p.pull }

func (p *Pin) bank() Bank   { return bankOf(p.num) }
func (p *Pin) mask() uint32 { return 1 << (p.num % 32) }

func (p *Pin) fselReg() mmio.RW32 { return p.regs.fsel[p.num/10] }

func (p *Pin) fselField() mmio.Field { return mmio.NewField(3, (p.num%10)*3) }

// Input switches the pin to its input function.
func (p *Pin) Input() {
	p.fselReg().Modify(p.fselField(), functionCodes[FuncInput])
	p.fn = FuncInput
}

// Output switches the pin to its output function.
func (p *Pin) Output() {
	p.fselReg().Modify(p.fselField(), functionCodes[FuncOutput])
	p.fn = FuncOutput
}

// AltFunction multiplexes alternate function n (0..5) onto the pin.
// n outside that range fails with unsupported_alt_function and performs no
// register write.
func (p *Pin) AltFunction(n uint8) error {
	if n > 5 {
		return &errcode.E{
			C:   errcode.UnsupportedAltFunction,
			Op:  "gpio.AltFunction",
			Msg: "alt function " + strconv.Itoa(int(n)) + " out of range 0..5",
		}
	}
	fn := FuncAlt0 + Function(n)
	p.fselReg().Modify(p.fselField(), functionCodes[fn])
	p.fn = fn
	return nil
}

// pullSettleCycles is how long each hold in the pull handshake lasts. The
// hardware wants "at least 150 cycles"; precise timing is not required.
const pullSettleCycles = 150

var pudField = mmio.NewField(2, 0)

// DisablePull removes the pin's pull resistor.
func (p *Pin) DisablePull() { p.setPull(PullDisabled) }

// PullUp biases the undriven pin toward high.
func (p *Pin) PullUp() { p.setPull(PullUp) }

// PullDown biases the undriven pin toward low.
func (p *Pin) PullDown() { p.setPull(PullDown) }

// setPull runs the fixed handshake the peripheral latches pull configuration
// on: control value, hold, clock the pin, hold, clear control, clock the pin
// again. The order is load-bearing; the latch only captures on this sequence.
func (p *Pin) setPull(pull Pull) {
	p.regs.pud.Modify(pudField, pullCodes[pull])
	p.settle()
	p.regs.pudclk[p.bank()].Set(p.mask())
	p.settle()
	p.regs.pud.Set(0)
	p.regs.pudclk[p.bank()].Set(p.mask())
	p.pull = pull
}

// settle busy-waits one hold period. Register reads are used as the delay
// body so the loop cannot be elided.
func (p *Pin) settle() {
	for i := 0; i < pullSettleCycles; i++ {
		_ = p.regs.lev[Bank0].Get()
	}
}

// SetHigh drives an output pin high.
func (p *Pin) SetHigh() error {
	if p.fn != FuncOutput {
		return p.stateErr("SetHigh", FuncOutput)
	}
	p.regs.set[p.bank()].Set(p.mask())
	return nil
}

// SetLow drives an output pin low.
func (p *Pin) SetLow() error {
	if p.fn != FuncOutput {
		return p.stateErr("SetLow", FuncOutput)
	}
	p.regs.clr[p.bank()].Set(p.mask())
	return nil
}

// Toggle reads the current level of an output pin and drives the opposite.
func (p *Pin) Toggle() error {
	if p.fn != FuncOutput {
		return p.stateErr("Toggle", FuncOutput)
	}
	if p.regs.lev[p.bank()].Get()&p.mask() == 0 {
		p.regs.set[p.bank()].Set(p.mask())
	} else {
		p.regs.clr[p.bank()].Set(p.mask())
	}
	return nil
}

// IsHigh reads the level of an input pin.
func (p *Pin) IsHigh() (bool, error) {
	if p.fn != FuncInput {
		return false, p.stateErr("IsHigh", FuncInput)
	}
	return p.regs.lev[p.bank()].Get()&p.mask() != 0, nil
}

func (p *Pin) stateErr(op string, want Function) error {
	return &errcode.E{
		C:  errcode.StateMismatch,
		Op: "gpio." + op,
		Msg: "pin " + strconv.Itoa(int(p.num)) + " is " + p.fn.String() +
			", need " + want.String(),
	}
}
