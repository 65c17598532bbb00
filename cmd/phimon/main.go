package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BTBurke/accrual/monitor"
	"github.com/spf13/pflag"
)

func main() {

	usercmd, opts, err := monitor.ParseCommandLine()
	if err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Printf("Could not parse configuration: %s\n\nUse phimon --help for options\n", err)
		}
		os.Exit(1)
	}

	m, errs := monitor.New(usercmd, opts...)
	if len(errs) > 0 {
		fmt.Println("Error in config:")
		for _, e := range errs {
			fmt.Println(e)
		}
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	res, err := m.Run(ctx)
	stop()
	m.Wait()
	if err != nil {
		fmt.Println("Monitor error:", err)
		os.Exit(1)
	}

	switch {
	case res.ExitCode != 0:
		os.Exit(res.ExitCode)
	case res.Failed():
		os.Exit(1)
	}
	os.Exit(0)
}
