/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/lumen/engine"
	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/testbed"
)

func main() {
	configPath := flag.String("config", "assets/lumen.toml", "path to the scene configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		core.LogFatal("failed to load configuration: %s", err)
		return
	}
	core.SetLogLevel(cfg.Application.LogLevel)
	core.LogDebug("log level %s", core.LogLevel())

	tb := testbed.NewTestGame(cfg, *configPath)

	e, err := engine.New(tb.Game)
	if err != nil {
		core.LogFatal("%+v", err)
		return
	}

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		core.LogFatal("failed to initialize engine: %+v", err)
		return
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// the loop stops on the next frame and cleans up on the main thread
	go func() {
		<-sigCh
		core.EventFire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
	}()

	runErr := e.Run()
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown: %s", err)
	}
	if runErr != nil {
		if core.IsPrecondition(runErr) {
			core.LogFatal("renderer precondition violated: %+v", runErr)
		}
		core.LogFatal("engine stopped: %+v", runErr)
	}
}
