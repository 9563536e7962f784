// Package gpio drives the BCM283x general-purpose I/O peripheral: claiming
// pins, configuring their function and pull state, driving and reading
// levels, and dispatching hardware-detected edge/level events to callbacks.
//
// The peripheral is represented by a single live Gpio handle over a mapped
// register block (see the mmio package). Callbacks registered on input pins
// run in interrupt context when Dispatch is invoked for their bank; nothing
// on that path blocks or allocates.
package gpio

import (
	"strconv"
	"sync"
	"sync/atomic"

	"rpigpio-go/board"
	"rpigpio-go/errcode"
	"rpigpio-go/mmio"
)

// instantiated gates construction of the peripheral handle: a single
// check-and-set claims it, Close clears it unconditionally.
var instantiated atomic.Bool

// IRQController is the outward link to the interrupt controller. The driver
// calls EnableBankLine the first time a callback registration succeeds on a
// bank, so that bank's interrupt line gets unmasked.
type IRQController interface {
	EnableBankLine(bank Bank)
}

// Gpio is the single live handle to the GPIO peripheral.
type Gpio struct {
	cfg  board.Config
	regs *registers
	irq  IRQController

	// Pin acquisition registry. Normal-context only; Dispatch never
	// touches it, so a blocking lock is fine here.
	mu   sync.Mutex
	used []bool

	banks [2]*eventBank
}

// New claims the peripheral over an already-mapped register block. At most
// one handle exists at a time; a second call fails with already_instantiated
// until Close releases the gate. irq may be nil when no interrupt controller
// is wired (poll-driven use).
func New(b mmio.Block, cfg board.Config, irq IRQController) (*Gpio, error) {
	if !instantiated.CompareAndSwap(false, true) {
		return nil, errcode.AlreadyInstantiated
	}
	g := &Gpio{
		cfg:  cfg,
		regs: newRegisters(b),
		irq:  irq,
		used: make([]bool, cfg.Pins),
	}
	g.banks[Bank0] = newEventBank(Bank0, 32)
	g.banks[Bank1] = newEventBank(Bank1, cfg.Bank1Slots())
	return g, nil
}

// Close releases the peripheral gate, permitting a new handle. Hardware
// state is left exactly as configured; callers must not assume a reset.
func (g *Gpio) Close() error {
	instantiated.Store(false)
	return nil
}

// Board reports the configuration the handle was opened with.
func (g *Gpio) Board() board.Config { return g.cfg }

// Pin claims GPIO line id and returns its handle in unknown function and
// pull state. The id stays claimed until ReleasePin.
func (g *Gpio) Pin(id uint32) (*Pin, error) {
	if int(id) >= g.cfg.Pins {
		return nil, g.invalidPin("Pin", id)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.used[id] {
		return nil, &errcode.E{C: errcode.PinInUse, Op: "gpio.Pin",
			Msg: "pin " + strconv.Itoa(int(id)) + " already claimed"}
	}
	g.used[id] = true
	return &Pin{num: id, regs: g.regs}, nil
}

// ReleasePin returns the id to the pool. This is bookkeeping only: the pin's
// hardware configuration is left exactly as the last owner set it.
func (g *Gpio) ReleasePin(id uint32) error {
	if int(id) >= g.cfg.Pins {
		return g.invalidPin("ReleasePin", id)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.used[id] {
		return &errcode.E{C: errcode.PinNotInUse, Op: "gpio.ReleasePin",
			Msg: "pin " + strconv.Itoa(int(id)) + " was not claimed"}
	}
	g.used[id] = false
	return nil
}

func (g *Gpio) invalidPin(op string, id uint32) error {
	return &errcode.E{C: errcode.InvalidPin, Op: "gpio." + op,
		Msg: "pin " + strconv.Itoa(int(id)) + " outside 0.." +
			strconv.Itoa(g.cfg.Pins-1)}
}
