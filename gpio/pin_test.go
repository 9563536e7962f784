package gpio

import (
	"testing"

	"github.com/go-test/deep"

	"rpigpio-go/errcode"
)

func TestFunctionSelectFieldMath(t *testing.T) {
	g, mem := newTestGpio(t)

	// Pin 17 lives in fsel1 at bit offset (17%10)*3 = 21.
	p := mustPin(t, g, 17)
	p.Output()
	if got := mem.Words()[1]; got != 1<<21 {
		t.Fatalf("fsel1 after Output = %#x, want %#x", got, uint32(1)<<21)
	}
	if p.Function() != FuncOutput {
		t.Fatalf("tracked function = %v", p.Function())
	}

	if err := p.AltFunction(3); err != nil {
		t.Fatalf("AltFunction(3): %v", err)
	}
	if got := mem.Words()[1]; got != 0b111<<21 {
		t.Fatalf("fsel1 after alt3 = %#x, want %#x", got, uint32(0b111)<<21)
	}

	p.Input()
	if got := mem.Words()[1]; got != 0 {
		t.Fatalf("fsel1 after Input = %#x, want 0", got)
	}

	// Pin 53 lives in fsel5 at bit offset 9.
	p53 := mustPin(t, g, 53)
	p53.Output()
	if got := mem.Words()[5]; got != 1<<9 {
		t.Fatalf("fsel5 after Output = %#x, want %#x", got, uint32(1)<<9)
	}
}

func TestAltFunctionCodes(t *testing.T) {
	g, mem := newTestGpio(t)
	p := mustPin(t, g, 0)

	want := []uint32{0b100, 0b101, 0b110, 0b111, 0b011, 0b010}
	for n := uint8(0); n <= 5; n++ {
		if err := p.AltFunction(n); err != nil {
			t.Fatalf("AltFunction(%d): %v", n, err)
		}
		if got := mem.Words()[0] & 0b111; got != want[n] {
			t.Errorf("alt%d code = %#b, want %#b", n, got, want[n])
		}
	}
}

func TestAltFunctionOutOfRangeWritesNothing(t *testing.T) {
	g, tb := newTraceGpio(t, nil)
	p := mustPin(t, g, 9)

	err := p.AltFunction(6)
	if errcode.Of(err) != errcode.UnsupportedAltFunction {
		t.Fatalf("AltFunction(6) error = %v, want unsupported_alt_function", err)
	}
	if p.Function() != FuncUnknown {
		t.Fatalf("tracked function changed to %v", p.Function())
	}
	if got := tb.stores(); len(got) != 0 {
		t.Fatalf("AltFunction(6) wrote registers: %+v", got)
	}
}

func TestOutputLevelOperations(t *testing.T) {
	g, mem := newTestGpio(t)

	// Bank 0 pin.
	p := mustPin(t, g, 17)
	p.Output()
	if err := p.SetHigh(); err != nil {
		t.Fatalf("SetHigh: %v", err)
	}
	if got := mem.Words()[offSET/4]; got != 1<<17 {
		t.Fatalf("set0 = %#x, want %#x", got, uint32(1)<<17)
	}
	if err := p.SetLow(); err != nil {
		t.Fatalf("SetLow: %v", err)
	}
	if got := mem.Words()[offCLR/4]; got != 1<<17 {
		t.Fatalf("clr0 = %#x, want %#x", got, uint32(1)<<17)
	}

	// Bank 1 pin uses the second register of each pair.
	p40 := mustPin(t, g, 40)
	p40.Output()
	if err := p40.SetHigh(); err != nil {
		t.Fatalf("SetHigh(40): %v", err)
	}
	if got := mem.Words()[(offSET+4)/4]; got != 1<<8 {
		t.Fatalf("set1 = %#x, want %#x", got, uint32(1)<<8)
	}
}

func TestToggleDrivesOppositeOfLevel(t *testing.T) {
	g, mem := newTestGpio(t)
	p := mustPin(t, g, 5)
	p.Output()

	// Level low: toggle must write the set register.
	if err := p.Toggle(); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if got := mem.Words()[offSET/4]; got != 1<<5 {
		t.Fatalf("toggle from low: set0 = %#x", got)
	}

	// Level high: toggle must write the clear register.
	mem.Words()[offSET/4] = 0
	mem.Words()[offLEV/4] = 1 << 5
	if err := p.Toggle(); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if got := mem.Words()[offCLR/4]; got != 1<<5 {
		t.Fatalf("toggle from high: clr0 = %#x", got)
	}
	if got := mem.Words()[offSET/4]; got != 0 {
		t.Fatalf("toggle from high also wrote set0: %#x", got)
	}
}

func TestIsHigh(t *testing.T) {
	g, mem := newTestGpio(t)
	p := mustPin(t, g, 33)
	p.Input()

	if high, err := p.IsHigh(); err != nil || high {
		t.Fatalf("IsHigh on low pin = %v, %v", high, err)
	}
	mem.Words()[(offLEV+4)/4] = 1 << 1 // pin 33 = bank1 bit 1
	if high, err := p.IsHigh(); err != nil || !high {
		t.Fatalf("IsHigh on high pin = %v, %v", high, err)
	}
}

func TestLevelOperationsValidateState(t *testing.T) {
	g, tb := newTraceGpio(t, nil)

	p := mustPin(t, g, 12)
	// Unknown function: everything level-related must refuse.
	if err := p.SetHigh(); errcode.Of(err) != errcode.StateMismatch {
		t.Fatalf("SetHigh on unknown pin = %v, want state_mismatch", err)
	}
	if err := p.Toggle(); errcode.Of(err) != errcode.StateMismatch {
		t.Fatalf("Toggle on unknown pin = %v, want state_mismatch", err)
	}
	if _, err := p.IsHigh(); errcode.Of(err) != errcode.StateMismatch {
		t.Fatalf("IsHigh on unknown pin = %v, want state_mismatch", err)
	}
	if got := tb.stores(); len(got) != 0 {
		t.Fatalf("refused operations still wrote registers: %+v", got)
	}

	p.Input()
	if err := p.SetLow(); errcode.Of(err) != errcode.StateMismatch {
		t.Fatalf("SetLow on input pin = %v, want state_mismatch", err)
	}
	p.Output()
	if _, err := p.IsHigh(); errcode.Of(err) != errcode.StateMismatch {
		t.Fatalf("IsHigh on output pin = %v, want state_mismatch", err)
	}
}

func TestPullHandshakeSequence(t *testing.T) {
	g, tb := newTraceGpio(t, nil)

	// Pin 40 clocks through the bank 1 pull-clock register at 0x9C.
	p := mustPin(t, g, 40)
	p.PullUp()

	wantStores := []traceOp{
		{Kind: "store", Off: offPUD, Val: 0b10},          // 1. control value
		{Kind: "store", Off: offPUDCLK + 4, Val: 1 << 8}, // 3. clock the pin
		{Kind: "store", Off: offPUD, Val: 0},             // 5. clear control
		{Kind: "store", Off: offPUDCLK + 4, Val: 1 << 8}, // 6. clock again
	}
	if diff := deep.Equal(tb.stores(), wantStores); diff != nil {
		t.Fatalf("pull handshake writes: %v", diff)
	}
	if p.Pull() != PullUp {
		t.Fatalf("tracked pull = %v", p.Pull())
	}

	// Both holds must sit between their neighbouring writes and last at
	// least the full settle period; settle reads the level register.
	var stores []int
	for i, op := range tb.ops {
		if op.Kind == "store" {
			stores = append(stores, i)
		}
	}
	countLoads := func(from, to int) int {
		n := 0
		for _, op := range tb.ops[from:to] {
			if op.Kind == "load" && op.Off == offLEV {
				n++
			}
		}
		return n
	}
	if n := countLoads(stores[0], stores[1]); n < pullSettleCycles {
		t.Fatalf("hold after control write: %d cycles, want >= %d", n, pullSettleCycles)
	}
	if n := countLoads(stores[1], stores[2]); n < pullSettleCycles {
		t.Fatalf("hold after clock write: %d cycles, want >= %d", n, pullSettleCycles)
	}
}

func TestPullCodes(t *testing.T) {
	g, tb := newTraceGpio(t, nil)
	p := mustPin(t, g, 2)

	cases := []struct {
		name string
		do   func()
		code uint32
	}{
		{"disable", p.DisablePull, 0b00},
		{"down", p.PullDown, 0b01},
		{"up", p.PullUp, 0b10},
	}
	for _, c := range cases {
		tb.ops = nil
		c.do()
		st := tb.stores()
		if len(st) == 0 || st[0].Off != offPUD || st[0].Val != c.code {
			t.Errorf("%s: first write = %+v, want pud=%#b", c.name, st, c.code)
		}
	}
}
