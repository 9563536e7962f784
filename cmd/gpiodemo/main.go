// gpiodemo exercises the driver on a live board: blink an output pin, or
// watch an input pin for edges by polling the bank dispatcher.
//
//	gpiodemo -board bcm2837 -pin 17 -mode blink
//	gpiodemo -board bcm2837 -pin 17 -mode watch -event rising_edge
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"

	"rpigpio-go/board"
	"rpigpio-go/gpio"
	"rpigpio-go/gpioevents"
	"rpigpio-go/mmio"
)

var (
	boardName = flag.String("board", "bcm2837", "board preset (bcm2835/bcm2836/bcm2837/bcm2711)")
	pinNum    = flag.Uint("pin", 17, "GPIO number")
	mode      = flag.String("mode", "blink", "blink | watch")
	eventName = flag.String("event", "rising_edge", "detect event for watch mode")
	period    = flag.Duration("period", 500*time.Millisecond, "blink period")
)

// nopIRQ stands in for the interrupt controller: in poll-driven use there is
// no line to unmask.
type nopIRQ struct{}

func (nopIRQ) EnableBankLine(gpio.Bank) {}

func parseEvent(s string) (gpio.Event, bool) {
	for ev := gpio.RisingEdge; ev <= gpio.AsyncBothEdges; ev++ {
		if ev.String() == s {
			return ev, true
		}
	}
	return 0, false
}

func main() {
	flag.Parse()
	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)

	cfg, ok := board.ByName(*boardName)
	if !ok {
		log.WithField("board", *boardName).Fatal("unknown board preset")
	}

	block, err := mmio.Map(cfg.GPIOBase(), gpio.BlockSize)
	if err != nil {
		log.WithError(err).Fatal("mapping GPIO registers failed")
	}
	defer block.Close()

	g, err := gpio.New(block, cfg, nopIRQ{})
	if err != nil {
		log.WithError(err).Fatal("claiming the peripheral failed")
	}
	defer g.Close()

	p, err := g.Pin(uint32(*pinNum))
	if err != nil {
		log.WithError(err).Fatal("claiming the pin failed")
	}
	defer g.ReleasePin(p.Number())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch *mode {
	case "blink":
		blink(ctx, log, p)
	case "watch":
		watch(ctx, log, g, p)
	default:
		log.WithField("mode", *mode).Fatal("unknown mode")
	}
}

func blink(ctx context.Context, log *logrus.Logger, p *gpio.Pin) {
	p.Output()
	log.WithField("pin", p.Number()).Info("blinking; ctrl-c to stop")

	tick := time.NewTicker(*period)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = p.SetLow()
			return
		case <-tick.C:
			if err := p.Toggle(); err != nil {
				log.WithError(err).Fatal("toggle failed")
			}
		}
	}
}

func watch(ctx context.Context, log *logrus.Logger, g *gpio.Gpio, p *gpio.Pin) {
	ev, ok := parseEvent(*eventName)
	if !ok {
		log.WithField("event", *eventName).Fatal("unknown event kind")
	}

	p.Input()
	p.PullDown()

	pump := gpioevents.New(64, 64, log)
	pump.Start(ctx)
	cancel, err := pump.Watch(g, p, ev)
	if err != nil {
		log.WithError(err).Fatal("watch registration failed")
	}
	defer cancel()

	log.WithFields(logrus.Fields{"pin": p.Number(), "event": ev.String()}).
		Info("watching; ctrl-c to stop")

	// No interrupt line reaches us from user space, so poll the bank
	// dispatchers; status bits latch in hardware between polls.
	poll := time.NewTicker(time.Millisecond)
	defer poll.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			g.Dispatch(gpio.Bank0)
			g.Dispatch(gpio.Bank1)
		case e := <-pump.Events():
			log.WithFields(logrus.Fields{
				"pin":   e.Pin,
				"level": e.Level,
				"ts":    e.TS.Format(time.RFC3339Nano),
			}).Info("event")
		}
	}
}
