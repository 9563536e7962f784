package gpio

import "sync/atomic"

// eventBank owns the callback slots for one interrupt bank: a recurring
// array (callbacks left in place after firing) and a one-shot array
// (removed by the dispatch that ran them), both indexed by pin-within-bank.
//
// The guard is the only synchronisation between the registration API
// (normal context) and dispatch (interrupt context). It is acquired with a
// single check-and-set and never waited on: interrupt context cannot be
// preempted to let a blocking lock holder finish, so waiting could deadlock
// the system. Contention is resolved by dropping the operation.
type eventBank struct {
	bank  Bank
	guard atomic.Bool

	// lineEnabled latches the one-time interrupt-controller unmask.
	lineEnabled atomic.Bool

	recurring []func()
	oneshot   []func()

	// slotMask bounds dispatch to the pins this bank actually carries;
	// status bits above the board's pin count are noise.
	slotMask uint32
}

func newEventBank(bank Bank, slots int) *eventBank {
	b := &eventBank{
		bank:      bank,
		recurring: make([]func(), slots),
		oneshot:   make([]func(), slots),
	}
	if slots >= 32 {
		b.slotMask = ^uint32(0)
	} else {
		b.slotMask = 1<<slots - 1
	}
	return b
}

func (b *eventBank) tryAcquire() bool { return b.guard.CompareAndSwap(false, true) }
func (b *eventBank) release()        { b.guard.Store(false) }

// setRecurring stores fn, superseding any one-shot for the slot. It reports
// false when the guard was contended; the call then had no effect.
func (b *eventBank) setRecurring(slot uint32, fn func()) bool {
	if !b.tryAcquire() {
		return false
	}
	b.recurring[slot] = fn
	b.oneshot[slot] = nil
	b.release()
	return true
}

// setOneshot stores fn, superseding any recurring callback for the slot.
func (b *eventBank) setOneshot(slot uint32, fn func()) bool {
	if !b.tryAcquire() {
		return false
	}
	b.oneshot[slot] = fn
	b.recurring[slot] = nil
	b.release()
	return true
}

// clear empties both slot kinds.
func (b *eventBank) clear(slot uint32) bool {
	if !b.tryAcquire() {
		return false
	}
	b.recurring[slot] = nil
	b.oneshot[slot] = nil
	b.release()
	return true
}

// dispatch services one interrupt on the bank's line.
func (b *eventBank) dispatch(regs *registers) {
	pending := regs.detectedEvents(b.bank)
	// Acknowledge before any callback runs: an edge arriving while a
	// callback executes must raise a fresh status bit, not vanish into
	// this pass.
	regs.acknowledgeEvents(b.bank, pending)

	pending &= b.slotMask
	for slot := uint32(0); pending != 0; slot, pending = slot+1, pending>>1 {
		if pending&1 == 0 {
			continue
		}
		if !b.tryAcquire() {
			// A registration is in flight; skip this pin for this
			// pass. The callback only runs on a future event.
			continue
		}
		once := b.oneshot[slot]
		b.oneshot[slot] = nil
		always := b.recurring[slot]
		b.release()
		// Invoke outside the guard so a callback can re-register.
		if once != nil {
			once()
		}
		if always != nil {
			always()
		}
	}
}

// RegisterRecurring stores fn to run on every ev detected on the pin, then
// arms the matching detect-enable bit(s); composite events arm two. Setting
// a recurring callback supersedes any one-shot for the pin.
//
// It reports false, and arms nothing, when the pin is not in the input
// function or the bank guard was contended. Contention is resolved by
// dropping the call, never by waiting or queueing.
func (g *Gpio) RegisterRecurring(p *Pin, ev Event, fn func()) bool {
	if p.fn != FuncInput {
		return false
	}
	b := g.banks[bankOf(p.num)]
	if !b.setRecurring(p.num&31, fn) {
		return false
	}
	g.regs.enableDetect(p.num, ev)
	g.enableLine(b)
	return true
}

// RegisterOneshot is RegisterRecurring for a callback that fires once and is
// removed from its slot by the dispatch pass that ran it. Setting a one-shot
// supersedes any recurring callback for the pin.
func (g *Gpio) RegisterOneshot(p *Pin, ev Event, fn func()) bool {
	if p.fn != FuncInput {
		return false
	}
	b := g.banks[bankOf(p.num)]
	if !b.setOneshot(p.num&31, fn) {
		return false
	}
	g.regs.enableDetect(p.num, ev)
	g.enableLine(b)
	return true
}

// Unregister clears both callback kinds for the pin and disarms every
// detect-enable bit it had across its bank. Best effort: false means the
// guard was contended and nothing changed. A callback whose reference an
// in-flight dispatch already took may still complete its current invocation.
func (g *Gpio) Unregister(p *Pin) bool {
	if !g.banks[bankOf(p.num)].clear(p.num & 31) {
		return false
	}
	g.regs.disableAllDetect(p.num)
	return true
}

// Dispatch services one hardware interrupt on a bank's line: it reads the
// bank status, acknowledges it, and invokes stored callbacks for each
// signalled pin, lowest pin first. Wire it to the interrupt vector, or call
// it from a poll loop where no vector exists.
func (g *Gpio) Dispatch(bank Bank) {
	if int(bank) >= len(g.banks) {
		return // unreachable through the pin registry
	}
	g.banks[bank].dispatch(g.regs)
}

// enableLine unmasks the bank's interrupt line on first use.
func (g *Gpio) enableLine(b *eventBank) {
	if g.irq == nil {
		return
	}
	if b.lineEnabled.CompareAndSwap(false, true) {
		g.irq.EnableBankLine(b.bank)
	}
}
