package main

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const (
	defaultStatsAddr = "localhost:12600"
	statsPath        = "/debug/statsview"
)

// Serve runtime statistics in the background.
func launchStats(addr string, output io.Writer) {
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(addr))
		mgr := statsview.New()
		mgr.Start()
	}()

	fmt.Fprintf(output, "stats server available at %s%s\n", addr, statsPath)
}
