// Command idevice-mounter uploads and mounts developer disk images.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-idevice/idevice/internal/cli"
	"github.com/go-idevice/idevice/mounter"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	list      = kingpin.Flag("list", "List currently mounted images.").Bool()
	imageType = kingpin.Flag("image-type", "Image type to operate on.").Default("Developer").String()
	upload    = kingpin.Flag("upload", "Path to an image file to upload and mount.").String()
	signature = kingpin.Flag("signature", "Path to the image's signature file.").String()
	unmount   = kingpin.Flag("unmount", "Mount path to unmount.").String()
	devMode   = kingpin.Flag("developer-mode-status", "Query whether Developer Mode is enabled.").Bool()
)

func main() {
	var config cli.DeviceConfig
	var base cli.BaseConfig
	cli.RegisterDeviceFlags(&config)
	cli.RegisterBaseFlags(&base)
	cli.Initialize("idevice-mounter", &base)

	if config.About {
		cli.PrintAboutAndExit("idevice-mounter")
	}

	ctx := context.Background()
	p, err := config.Provider(ctx, "idevice-mounter")
	if err != nil {
		cli.Fail("resolve device", err)
	}
	s, err := p.StartService(ctx, mounter.ServiceName)
	if err != nil {
		cli.Fail("connect to image mounter", err)
	}
	client := mounter.New(s)
	defer client.Close()

	switch {
	case *list:
		devices, err := client.CopyDevices(ctx)
		if err != nil {
			cli.Fail("list mounted images", err)
		}
		for _, d := range devices {
			fmt.Println(d)
		}
	case *devMode:
		on, err := client.QueryDeveloperModeStatus(ctx)
		if err != nil {
			cli.Fail("query developer mode status", err)
		}
		fmt.Println(on)
	case *upload != "":
		image, err := os.Open(*upload)
		if err != nil {
			cli.Fail("open image", err)
		}
		defer image.Close()
		stat, err := image.Stat()
		if err != nil {
			cli.Fail("stat image", err)
		}
		var sig []byte
		if *signature != "" {
			sig, err = os.ReadFile(*signature)
			if err != nil {
				cli.Fail("read signature", err)
			}
		}
		if err := client.UploadImage(ctx, *imageType, image, stat.Size(), sig, nil); err != nil {
			cli.Fail("upload image", err)
		}
		if err := client.MountImage(ctx, *imageType, sig, nil, nil); err != nil {
			cli.Fail("mount image", err)
		}
	case *unmount != "":
		if err := client.UnmountImage(ctx, *unmount); err != nil {
			cli.Fail("unmount image", err)
		}
	}
}
