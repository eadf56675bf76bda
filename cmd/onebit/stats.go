package main

import (
	"log"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const statsAddress = "localhost:12600"

// launchStats runs the runtime statistics server on a new goroutine.
func launchStats() {
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(statsAddress))
		mgr := statsview.New()
		mgr.Start()
	}()

	log.Printf("stats server available at %s/debug/statsview", statsAddress)
}
