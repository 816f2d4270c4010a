package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-idevice/idevice/ideviceerr"
	"github.com/go-idevice/idevice/usbmux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDevice_ByUDID(t *testing.T) {
	devices := []usbmux.Device{
		{UDID: "aaa", DeviceID: 1},
		{UDID: "bbb", DeviceID: 2},
	}
	got, err := resolveDevice(devices, "bbb")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), got.DeviceID)
}

func TestResolveDevice_UnknownUDID(t *testing.T) {
	devices := []usbmux.Device{{UDID: "aaa", DeviceID: 1}}
	_, err := resolveDevice(devices, "zzz")
	kind, ok := ideviceerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ideviceerr.DeviceNotFound, kind)
}

func TestResolveDevice_NoneVisible(t *testing.T) {
	_, err := resolveDevice(nil, "")
	kind, ok := ideviceerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ideviceerr.DeviceNotFound, kind)
}

func TestResolveDevice_SoleDeviceFallback(t *testing.T) {
	devices := []usbmux.Device{{UDID: "aaa", DeviceID: 7}}
	got, err := resolveDevice(devices, "")
	require.NoError(t, err)
	assert.Equal(t, uint32(7), got.DeviceID)
}

func TestResolveDevice_AmbiguousWithoutUDID(t *testing.T) {
	devices := []usbmux.Device{{UDID: "aaa"}, {UDID: "bbb"}}
	_, err := resolveDevice(devices, "")
	kind, ok := ideviceerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ideviceerr.InvalidArg, kind)
}

func TestLoadPairRecordFile_EmptyPathReturnsNil(t *testing.T) {
	c := &DeviceConfig{}
	data, err := c.loadPairRecordFile()
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestLoadPairRecordFile_RejectsMalformedPlist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pair.plist")
	require.NoError(t, os.WriteFile(path, []byte("not a plist"), 0o644))

	c := &DeviceConfig{PairingFile: path}
	_, err := c.loadPairRecordFile()
	kind, ok := ideviceerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ideviceerr.PlistMalformed, kind)
}

func TestLoadPairRecordFile_AcceptsValidPlist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pair.plist")
	const xml = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>DeviceCertificate</key>
	<string>cert</string>
</dict>
</plist>`
	require.NoError(t, os.WriteFile(path, []byte(xml), 0o644))

	c := &DeviceConfig{PairingFile: path}
	data, err := c.loadPairRecordFile()
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestProvider_HostWithoutPairingFileFails(t *testing.T) {
	c := &DeviceConfig{Host: "192.168.1.5:62078"}
	_, err := c.Provider(nil, "test") //nolint:staticcheck // a nil ctx never reaches a blocking call on this path
	kind, ok := ideviceerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ideviceerr.InvalidArg, kind)
}
