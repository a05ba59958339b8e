// Firmware entry point. Build with the SoC target and one board tag, e.g.
//
//	tinygo flash -target=esp32s3 -tags tbeam_1w .
//	tinygo flash -target=pico -tags pico_lora .
//
// On a Raspberry Pi bench host the same program runs under Linux:
//
//	go run -tags 'periph pi_bench' .
package main

import (
	"context"
	"runtime"
	"time"

	"meshnode-go/bus"
	"meshnode-go/services/config"
	"meshnode-go/services/hal"
	"meshnode-go/services/heartbeat"
	"meshnode-go/variant"
	"meshnode-go/variants"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)

	v := variants.Selected()
	println("[main] boot", v.Name, v.SoC)

	// Before any subsystem touches a pin.
	if err := variant.RunInit(v); err != nil {
		println("[main] variant init:", err.Error())
	}
	rep := variant.Validate(v)
	for _, is := range rep.Issues {
		println("[variant]", is.String())
	}
	if !rep.OK() {
		println("[main] pin table incomplete; affected devices will report not_connected")
	}

	ctx := config.WithDevice(context.Background(), v.Name)
	b := bus.NewBus(8)

	mon := b.NewConnection("monitor").Subscribe(bus.T("hal", "#"))
	go func() {
		for m := range mon.Channel() {
			printTopic("[monitor] <-", m.Topic)
		}
	}()

	go func() {
		if err := hal.Run(ctx, b.NewConnection("hal"), v); err != nil {
			println("[main] hal stopped:", err.Error())
		}
	}()

	config.NewConfigService(hal.Config(v)).Start(ctx, b.NewConnection("config"))
	_ = new(heartbeat.Service).Start(ctx, b.NewConnection("heartbeat"))

	tick := time.NewTicker(10 * time.Second)
	defer tick.Stop()
	for range tick.C {
		printMem()
	}
}

func printTopic(prefix string, t bus.Topic) {
	print(prefix, " ")
	for i := 0; i < t.Len(); i++ {
		if i > 0 {
			print("/")
		}
		switch x := t.At(i).(type) {
		case string:
			print(x)
		case int:
			print(x)
		default:
			print("?")
		}
	}
	println()
}

// printMem prints TinyGo heap counters without fmt.
func printMem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	println(
		"[mem]",
		"alloc:", uint32(ms.Alloc),
		"heapInuse:", uint32(ms.HeapInuse),
		"mallocs:", uint32(ms.Mallocs),
		"frees:", uint32(ms.Frees),
	)
}
