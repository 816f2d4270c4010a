// Command idevice-afc interacts with a device's filesystem over AFC.
package main

import (
	"context"
	"fmt"

	"github.com/go-idevice/idevice/afc"
	"github.com/go-idevice/idevice/internal/cli"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	listDir    = kingpin.Flag("list", "List directory contents.").Short('l').String()
	info       = kingpin.Flag("info", "Get file/directory info.").Short('i').String()
	mkdir      = kingpin.Flag("mkdir", "Create a directory.").String()
	remove     = kingpin.Flag("remove", "Remove a file or directory.").Short('r').String()
	deviceInfo = kingpin.Flag("device-info", "Get AFC device info.").Short('d').Bool()
)

func main() {
	var config cli.DeviceConfig
	var base cli.BaseConfig
	cli.RegisterDeviceFlags(&config)
	cli.RegisterBaseFlags(&base)
	cli.Initialize("idevice-afc", &base)

	if config.About {
		cli.PrintAboutAndExit("idevice-afc")
	}

	ctx := context.Background()
	p, err := config.Provider(ctx, "idevice-afc")
	if err != nil {
		cli.Fail("resolve device", err)
	}
	s, err := p.StartService(ctx, afc.ServiceName)
	if err != nil {
		cli.Fail("connect to afc", err)
	}
	client := afc.New(s)
	defer client.Close()

	if *deviceInfo {
		devInfo, err := client.GetDeviceInfo(ctx)
		if err != nil {
			cli.Fail("get device info", err)
		}
		for k, v := range devInfo {
			fmt.Printf("%s: %s\n", k, v)
		}
	}
	if *listDir != "" {
		entries, err := client.ReadDir(ctx, *listDir)
		if err != nil {
			cli.Fail("list directory", err)
		}
		for _, e := range entries {
			fmt.Println(e)
		}
	}
	if *info != "" {
		fields, err := client.GetFileInfo(ctx, *info)
		if err != nil {
			cli.Fail("get file info", err)
		}
		for k, v := range fields {
			fmt.Printf("%s: %s\n", k, v)
		}
	}
	if *mkdir != "" {
		if err := client.MakeDir(ctx, *mkdir); err != nil {
			cli.Fail("create directory", err)
		}
	}
	if *remove != "" {
		if err := client.RemovePathAndContents(ctx, *remove); err != nil {
			cli.Fail("remove path", err)
		}
	}
}
