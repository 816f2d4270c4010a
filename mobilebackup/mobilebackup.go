// Package mobilebackup implements the Mobile Backup service: plist-framed
// InitiateBackup/InitiateRestore/GetBackupInfo commands.
package mobilebackup

import (
	"context"

	"github.com/go-idevice/idevice/ideviceerr"
	"github.com/go-idevice/idevice/internal/oplog"
	"github.com/go-idevice/idevice/plistwire"
	"github.com/go-idevice/idevice/transport"
)

// ServiceName is the lockdown service identifier for Mobile Backup.
const ServiceName = "com.apple.mobile.backup"

// BackupType selects between a full and incremental backup.
type BackupType string

const (
	BackupFull        BackupType = "Full"
	BackupIncremental BackupType = "Incremental"
)

// Client is a Mobile Backup session.
type Client struct {
	stream transport.Stream
}

// New wraps an already-connected Mobile Backup channel.
func New(stream transport.Stream) *Client {
	return &Client{stream: stream}
}

// Close releases the underlying channel.
func (c *Client) Close() error {
	return c.stream.Close()
}

type backupRequest struct {
	MessageName     string `plist:"MessageName"`
	BackupType      string `plist:"BackupType,omitempty"`
	TargetDirectory string `plist:"TargetDirectory,omitempty"`
	BackupDirectory string `plist:"BackupDirectory,omitempty"`
	EncryptionKey   string `plist:"EncryptionKey,omitempty"`
}

type confirmation struct {
	Status string `plist:"Status"`
	Error  string `plist:"Error"`
}

func (c *Client) roundTripConfirm(ctx context.Context, op string, req backupRequest) error {
	entry := oplog.Start("mobilebackup", op, req.TargetDirectory+req.BackupDirectory)
	defer entry.Finish()

	if err := plistwire.WriteMessage(ctx, transport.AsWriter(ctx, c.stream), req); err != nil {
		return entry.Error(err)
	}
	var res confirmation
	if err := plistwire.ReadMessage(ctx, transport.AsReader(ctx, c.stream), &res); err != nil {
		return entry.Error(err)
	}
	if res.Status != "" && res.Status != "Success" {
		return entry.Error(ideviceerr.Protocolf("mobilebackup", "%s: %s", op, res.Error))
	}
	return nil
}

// InitiateBackup starts a backup of the given type into targetDir, with an
// optional encryption key.
func (c *Client) InitiateBackup(ctx context.Context, backupType BackupType, targetDir, encryptionKey string) error {
	return c.roundTripConfirm(ctx, "InitiateBackup", backupRequest{
		MessageName:     "InitiateBackup",
		BackupType:      string(backupType),
		TargetDirectory: targetDir,
		EncryptionKey:   encryptionKey,
	})
}

// InitiateRestore restores from backupDir, with an optional encryption key.
func (c *Client) InitiateRestore(ctx context.Context, backupDir, encryptionKey string) error {
	return c.roundTripConfirm(ctx, "InitiateRestore", backupRequest{
		MessageName:     "InitiateRestore",
		BackupDirectory: backupDir,
		EncryptionKey:   encryptionKey,
	})
}

// GetBackupInfo returns the device's current backup-related state.
func (c *Client) GetBackupInfo(ctx context.Context) (map[string]interface{}, error) {
	entry := oplog.Start("mobilebackup", "GetBackupInfo", "")
	defer entry.Finish()

	req := backupRequest{MessageName: "GetBackupInfo"}
	if err := plistwire.WriteMessage(ctx, transport.AsWriter(ctx, c.stream), req); err != nil {
		return nil, entry.Error(err)
	}
	var res plistwire.Dict
	if err := plistwire.ReadMessage(ctx, transport.AsReader(ctx, c.stream), &res); err != nil {
		return nil, entry.Error(err)
	}
	return res, nil
}
