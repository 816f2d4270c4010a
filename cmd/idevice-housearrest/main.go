// Command idevice-housearrest opens an app's Documents or container
// directory over AFC via House Arrest.
package main

import (
	"context"
	"fmt"

	"github.com/go-idevice/idevice/afc"
	"github.com/go-idevice/idevice/housearrest"
	"github.com/go-idevice/idevice/internal/cli"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	bundleID  = kingpin.Flag("bundle-id", "Bundle identifier of the app to vend.").Required().String()
	container = kingpin.Flag("container", "Vend the full app container instead of just Documents.").Bool()
	list      = kingpin.Flag("list", "List directory contents.").Short('l').Default("/").String()
)

func main() {
	var config cli.DeviceConfig
	var base cli.BaseConfig
	cli.RegisterDeviceFlags(&config)
	cli.RegisterBaseFlags(&base)
	cli.Initialize("idevice-housearrest", &base)

	if config.About {
		cli.PrintAboutAndExit("idevice-housearrest")
	}

	ctx := context.Background()
	p, err := config.Provider(ctx, "idevice-housearrest")
	if err != nil {
		cli.Fail("resolve device", err)
	}

	var client *afc.Client
	if *container {
		client, err = housearrest.Container(ctx, p, *bundleID)
		if err != nil {
			cli.Fail("vend container", err)
		}
	} else {
		client, err = housearrest.Documents(ctx, p, *bundleID)
		if err != nil {
			cli.Fail("vend documents", err)
		}
	}
	defer client.Close()

	entries, err := client.ReadDir(ctx, *list)
	if err != nil {
		cli.Fail("list directory", err)
	}
	for _, e := range entries {
		fmt.Println(e)
	}
}
