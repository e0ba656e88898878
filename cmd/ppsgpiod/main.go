/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"flag"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ppsd/ppsgpio/clock"
	"github.com/ppsd/ppsgpio/config"
	"github.com/ppsd/ppsgpio/gpio"
	"github.com/ppsd/ppsgpio/pps"
	"github.com/ppsd/ppsgpio/ppsgpio"
	"github.com/ppsd/ppsgpio/stats"
)

func main() {
	var cfgPath string
	var logLevel string
	var pprofaddr string
	var snapshotInterval time.Duration

	flag.StringVar(&cfgPath, "config", "/etc/ppsgpiod.yaml", "Path to the config file")
	flag.StringVar(&logLevel, "loglevel", "info", "Set a log level. Can be: debug, info, warning, error")
	flag.StringVar(&pprofaddr, "pprofaddr", "", "host:port for the pprof to bind")
	flag.DurationVar(&snapshotInterval, "snapshotinterval", time.Second, "Interval of snapshotting the counters")

	flag.Parse()

	switch logLevel {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warning":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.Fatalf("Unrecognized log level: %v", logLevel)
	}

	if pprofaddr != "" {
		go func() {
			err := http.ListenAndServe(pprofaddr, nil)
			if err != nil {
				log.Errorf("Failed to start pprof: %v", err)
			}
		}()
	}

	cfg, err := config.ReadConfig(cfgPath)
	if err != nil {
		log.Fatalf("Failed to read config %s: %v", cfgPath, err)
	}

	registry := pps.NewRegistry(cfg.MaxSources)
	st := stats.NewJSONStats(registry)
	go st.Start(cfg.MonitoringPort)
	go func() {
		for range time.Tick(snapshotInterval) {
			st.Snapshot()
		}
	}()

	chips := map[string]*gpio.Chardev{}
	var devices []*ppsgpio.Device
	removeAll := func() {
		for i := len(devices) - 1; i >= 0; i-- {
			devices[i].Remove()
		}
	}

	for _, dc := range cfg.Devices {
		c := dc.DeviceConfig()
		conn, ok := chips[c.Chip]
		if !ok {
			conn = gpio.NewChardev(c.Chip)
			chips[c.Chip] = conn
		}
		d, err := ppsgpio.New(c, conn, conn, clock.System{}, registry, st)
		if err != nil {
			removeAll()
			log.Fatalf("Failed to create device %q: %v", c.Label, err)
		}
		if err := d.Probe(); err != nil {
			removeAll()
			log.Fatalf("Failed to probe device %q: %v", c.Label, err)
		}
		devices = append(devices, d)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	log.Infof("Got %s, removing devices", s)
	removeAll()
}
