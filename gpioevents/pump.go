// Package gpioevents bridges interrupt-context GPIO callbacks to ordinary
// consumers. A callback stored with the gpio package runs inside Dispatch
// and must not block there, so the pump's handler does one non-blocking send
// into a bounded queue and counts what it had to drop; a goroutine forwards
// queued hits to a channel consumers can range over.
package gpioevents

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"rpigpio-go/errcode"
	"rpigpio-go/gpio"
)

// Event is delivered from the pump to its consumer.
type Event struct {
	Pin   uint32
	Level int // 0/1 as read when the callback ran
	TS    time.Time
}

type isrEvent struct {
	pin   uint32
	level bool
}

// Pump fans interrupt-context callback hits out to a consumer channel.
type Pump struct {
	// Written by dispatch callbacks; MUST NOT block them:
	isrQ chan isrEvent
	// Consumed by the application:
	outQ    chan Event
	stopped chan struct{}

	log   *logrus.Logger
	drops uint32 // callback-side drop counter
}

// New sizes the two queues; non-positive sizes get a default. log may be nil.
func New(isrBuf, outBuf int, log *logrus.Logger) *Pump {
	if isrBuf <= 0 {
		isrBuf = 64
	}
	if outBuf <= 0 {
		outBuf = 64
	}
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Pump{
		isrQ:    make(chan isrEvent, isrBuf),
		outQ:    make(chan Event, outBuf),
		stopped: make(chan struct{}),
		log:     log,
	}
}

// Start runs the forwarding goroutine until ctx is cancelled.
func (p *Pump) Start(ctx context.Context) {
	go func() {
		defer close(p.stopped)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-p.isrQ:
				p.forward(ev)
			}
		}
	}()
}

// Events is the consumer side of the pump.
func (p *Pump) Events() <-chan Event { return p.outQ }

// Watch registers a recurring callback for ev on pin and forwards every hit
// to Events. It returns a busy error when the bank guard was contended and
// the registration was dropped. cancel unregisters the pin; it is best
// effort in the same way gpio.Unregister is.
func (p *Pump) Watch(g *gpio.Gpio, pin *gpio.Pin, ev gpio.Event) (cancel func(), err error) {
	num := pin.Number()
	handler := func() {
		level, _ := pin.IsHigh()
		select {
		case p.isrQ <- isrEvent{pin: num, level: level}:
		default:
			atomic.AddUint32(&p.drops, 1) // protect the dispatch path
		}
	}
	if !g.RegisterRecurring(pin, ev, handler) {
		return nil, &errcode.E{C: errcode.Busy, Op: "gpioevents.Watch",
			Msg: "registration dropped under guard contention"}
	}
	p.log.WithFields(logrus.Fields{"pin": num, "event": ev.String()}).
		Debug("watch registered")
	return func() { g.Unregister(pin) }, nil
}

// WatchOnce is Watch for a single delivery: the underlying callback is
// one-shot, so the hardware slot empties itself after the first event.
func (p *Pump) WatchOnce(g *gpio.Gpio, pin *gpio.Pin, ev gpio.Event) error {
	num := pin.Number()
	handler := func() {
		level, _ := pin.IsHigh()
		select {
		case p.isrQ <- isrEvent{pin: num, level: level}:
		default:
			atomic.AddUint32(&p.drops, 1)
		}
	}
	if !g.RegisterOneshot(pin, ev, handler) {
		return &errcode.E{C: errcode.Busy, Op: "gpioevents.WatchOnce",
			Msg: "registration dropped under guard contention"}
	}
	return nil
}

func (p *Pump) forward(ev isrEvent) {
	out := Event{Pin: ev.pin, Level: boolToInt(ev.level), TS: time.Now()}
	select {
	case p.outQ <- out:
	default:
		// Drop to protect the pump if the consumer is slow.
		p.log.WithField("pin", ev.pin).Warn("consumer slow, event dropped")
	}
}

// Drops reports how many callback hits the queue refused.
func (p *Pump) Drops() uint32 { return atomic.LoadUint32(&p.drops) }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
