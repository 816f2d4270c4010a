// Command idevice-mobilebackup initiates a device backup or restore.
package main

import (
	"context"
	"fmt"

	"github.com/go-idevice/idevice/internal/cli"
	"github.com/go-idevice/idevice/mobilebackup"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	backup        = kingpin.Flag("backup", "Directory to back up into.").String()
	restore       = kingpin.Flag("restore", "Directory to restore from.").String()
	incremental   = kingpin.Flag("incremental", "Perform an incremental backup instead of a full one.").Bool()
	encryptionKey = kingpin.Flag("encryption-key", "Encryption key for the backup/restore.").String()
	info          = kingpin.Flag("info", "Print the device's current backup info.").Bool()
)

func main() {
	var config cli.DeviceConfig
	var base cli.BaseConfig
	cli.RegisterDeviceFlags(&config)
	cli.RegisterBaseFlags(&base)
	cli.Initialize("idevice-mobilebackup", &base)

	if config.About {
		cli.PrintAboutAndExit("idevice-mobilebackup")
	}

	ctx := context.Background()
	p, err := config.Provider(ctx, "idevice-mobilebackup")
	if err != nil {
		cli.Fail("resolve device", err)
	}
	s, err := p.StartService(ctx, mobilebackup.ServiceName)
	if err != nil {
		cli.Fail("connect to mobile backup", err)
	}
	client := mobilebackup.New(s)
	defer client.Close()

	backupType := mobilebackup.BackupFull
	if *incremental {
		backupType = mobilebackup.BackupIncremental
	}

	switch {
	case *backup != "":
		if err := client.InitiateBackup(ctx, backupType, *backup, *encryptionKey); err != nil {
			cli.Fail("initiate backup", err)
		}
	case *restore != "":
		if err := client.InitiateRestore(ctx, *restore, *encryptionKey); err != nil {
			cli.Fail("initiate restore", err)
		}
	case *info:
		result, err := client.GetBackupInfo(ctx)
		if err != nil {
			cli.Fail("get backup info", err)
		}
		for k, v := range result {
			fmt.Printf("%s: %v\n", k, v)
		}
	}
}
