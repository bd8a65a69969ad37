// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2017 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/pythnetwork/pythd/config"
	"github.com/pythnetwork/pythd/logger"
	"github.com/pythnetwork/pythd/node"
	"github.com/pythnetwork/pythd/util/panics"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		// go-flags already printed its own parse errors.
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}

	logger.InitLogRotator(cfg.LogFile())
	defer logger.Close()
	if err := logger.ParseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	pythd, err := node.New(cfg)
	if err != nil {
		panics.Exit(log, fmt.Sprintf("Error setting up the node: %+v", err))
	}
	if err := pythd.Start(); err != nil {
		panics.Exit(log, fmt.Sprintf("Error starting the node: %+v", err))
	}

	<-interrupt
	log.Warnf("Interrupt received, shutting down")
	pythd.Stop()
}
