// Command idevice-notify observes or posts Notification Proxy
// notifications.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/go-idevice/idevice/internal/cli"
	"github.com/go-idevice/idevice/notifyproxy"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	observe = kingpin.Flag("observe", "Observe a notification (repeatable) and print occurrences until interrupted.").Strings()
	post    = kingpin.Flag("post", "Post a notification.").String()
)

func main() {
	var config cli.DeviceConfig
	var base cli.BaseConfig
	cli.RegisterDeviceFlags(&config)
	cli.RegisterBaseFlags(&base)
	cli.Initialize("idevice-notify", &base)

	if config.About {
		cli.PrintAboutAndExit("idevice-notify")
	}

	ctx := context.Background()
	p, err := config.Provider(ctx, "idevice-notify")
	if err != nil {
		cli.Fail("resolve device", err)
	}
	s, err := p.StartService(ctx, notifyproxy.ServiceName)
	if err != nil {
		cli.Fail("connect to notification proxy", err)
	}
	client := notifyproxy.New(s)
	defer client.Close()

	if *post != "" {
		if err := client.Post(ctx, *post); err != nil {
			cli.Fail("post notification", err)
		}
	}

	if len(*observe) == 0 {
		return
	}

	if err := client.ObserveAll(ctx, *observe); err != nil {
		cli.Fail("observe notifications", err)
	}
	notifications := client.Listen()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)
	for {
		select {
		case n := <-notifications:
			fmt.Println(n)
		case <-signals:
			return
		}
	}
}
