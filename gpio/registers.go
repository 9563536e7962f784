package gpio

import "rpigpio-go/mmio"

// Bank identifies one of the two GPIO interrupt banks. Each bank groups 32
// pins behind one status/acknowledge register pair and one interrupt line.
type Bank uint8

const (
	Bank0 Bank = 0 // pins 0..31
	Bank1 Bank = 1 // pins 32..Pins-1
)

// Event selects which hardware detection raises a bank interrupt for a pin.
// The composite kinds arm two detect bits.
type Event uint8

const (
	RisingEdge Event = iota
	FallingEdge
	BothEdges
	High
	Low
	AsyncRisingEdge
	AsyncFallingEdge
	AsyncBothEdges
)

func (e Event) String() string {
	switch e {
	case RisingEdge:
		return "rising_edge"
	case FallingEdge:
		return "falling_edge"
	case BothEdges:
		return "both_edges"
	case High:
		return "high"
	case Low:
		return "low"
	case AsyncRisingEdge:
		return "async_rising_edge"
	case AsyncFallingEdge:
		return "async_falling_edge"
	case AsyncBothEdges:
		return "async_both_edges"
	default:
		return "unknown"
	}
}

// Byte offsets of the GPIO registers within the block (BCM283x layout).
// Per-bank registers sit 4 bytes apart.
const (
	offFSEL   = 0x00 // function select, six registers 0x00..0x14
	offSET    = 0x1C // output set, write-only
	offCLR    = 0x28 // output clear, write-only
	offLEV    = 0x34 // pin level, read-only
	offEDS    = 0x40 // event detect status, write-to-clear
	offREN    = 0x4C // rising edge detect enable
	offFEN    = 0x58 // falling edge detect enable
	offHEN    = 0x64 // high level detect enable
	offLEN    = 0x70 // low level detect enable
	offAREN   = 0x7C // async rising edge detect enable
	offAFEN   = 0x88 // async falling edge detect enable
	offPUD    = 0x94 // pull control, 2-bit field
	offPUDCLK = 0x98 // pull clock
)

// BlockSize is the number of bytes to map for the GPIO register window.
const BlockSize = 0xA0

// registers is the named register map of the GPIO peripheral. Per-bank
// registers are pairs indexed by Bank.
type registers struct {
	fsel   [6]mmio.RW32
	set    [2]mmio.WO32
	clr    [2]mmio.WO32
	lev    [2]mmio.RO32
	eds    [2]mmio.RW32
	ren    [2]mmio.RW32
	fen    [2]mmio.RW32
	hen    [2]mmio.RW32
	len    [2]mmio.RW32
	aren   [2]mmio.RW32
	afen   [2]mmio.RW32
	pud    mmio.RW32
	pudclk [2]mmio.RW32
}

func newRegisters(b mmio.Block) *registers {
	r := &registers{pud: mmio.RW(b, offPUD)}
	for i := uintptr(0); i < 6; i++ {
		r.fsel[i] = mmio.RW(b, offFSEL+i*4)
	}
	for bank := uintptr(0); bank < 2; bank++ {
		r.set[bank] = mmio.WO(b, offSET+bank*4)
		r.clr[bank] = mmio.WO(b, offCLR+bank*4)
		r.lev[bank] = mmio.RO(b, offLEV+bank*4)
		r.eds[bank] = mmio.RW(b, offEDS+bank*4)
		r.ren[bank] = mmio.RW(b, offREN+bank*4)
		r.fen[bank] = mmio.RW(b, offFEN+bank*4)
		r.hen[bank] = mmio.RW(b, offHEN+bank*4)
		r.len[bank] = mmio.RW(b, offLEN+bank*4)
		r.aren[bank] = mmio.RW(b, offAREN+bank*4)
		r.afen[bank] = mmio.RW(b, offAFEN+bank*4)
		r.pudclk[bank] = mmio.RW(b, offPUDCLK+bank*4)
	}
	return r
}

func bankOf(pin uint32) Bank { return Bank(pin / 32) }

// detectEnables lists the per-event enable registers of one bank in the
// fixed order rising, falling, high, low, async rising, async falling.
func (r *registers) detectEnables(bank Bank) [6]mmio.RW32 {
	return [6]mmio.RW32{
		r.ren[bank], r.fen[bank], r.hen[bank],
		r.len[bank], r.aren[bank], r.afen[bank],
	}
}

// enableDetect arms the detect bit(s) for ev on the given pin.
func (r *registers) enableDetect(pin uint32, ev Event) {
	bank := bankOf(pin)
	f := mmio.NewField(1, pin&31)
	switch ev {
	case RisingEdge:
		r.ren[bank].Modify(f, 1)
	case FallingEdge:
		r.fen[bank].Modify(f, 1)
	case BothEdges:
		r.ren[bank].Modify(f, 1)
		r.fen[bank].Modify(f, 1)
	case High:
		r.hen[bank].Modify(f, 1)
	case Low:
		r.len[bank].Modify(f, 1)
	case AsyncRisingEdge:
		r.aren[bank].Modify(f, 1)
	case AsyncFallingEdge:
		r.afen[bank].Modify(f, 1)
	case AsyncBothEdges:
		r.aren[bank].Modify(f, 1)
		r.afen[bank].Modify(f, 1)
	}
}

// disableAllDetect clears every detect-enable bit for the pin across all
// event kinds of its bank.
func (r *registers) disableAllDetect(pin uint32) {
	f := mmio.NewField(1, pin&31)
	for _, reg := range r.detectEnables(bankOf(pin)) {
		reg.Modify(f, 0)
	}
}

// detectedEvents reads the bank status: one bit per pin with a pending event
// since the last acknowledgment.
func (r *registers) detectedEvents(bank Bank) uint32 { return r.eds[bank].Get() }

// acknowledgeEvents writes the pattern back to the status register; the
// hardware clears those bits.
func (r *registers) acknowledgeEvents(bank Bank, events uint32) { r.eds[bank].Set(events) }
