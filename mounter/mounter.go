// Package mounter implements the Image Mounter service: a plist-framed
// command/response protocol for uploading, mounting, and personalizing
// developer disk images.
package mounter

import (
	"context"
	"io"
	"sync"

	"github.com/go-idevice/idevice/ideviceerr"
	"github.com/go-idevice/idevice/internal/oplog"
	"github.com/go-idevice/idevice/plistwire"
	"github.com/go-idevice/idevice/transport"
)

// ServiceName is the lockdown service identifier for Image Mounter.
const ServiceName = "com.apple.mobile.mobile_image_mounter"

// Phase is the ordered protocol state a Client's most recent image has
// reached: Idle before any upload, Uploaded once the device has
// acknowledged the image bytes, Mounted once MountImage succeeds.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseUploaded
	PhaseMounted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseUploaded:
		return "Uploaded"
	case PhaseMounted:
		return "Mounted"
	default:
		return "Unknown"
	}
}

// ProgressSnapshot is the last (transferred, total) pair reported during
// an upload, cached so a caller can inspect progress without wiring its
// own ProgressFunc.
type ProgressSnapshot struct {
	Transferred int64
	Total       int64
}

// Client is a session against the Image Mounter service. Each method is
// one request/response round trip, except UploadImage which streams raw
// bytes after the initial command. Client also tracks the session-state
// phase reached by its most recent image (Idle → Uploaded → Mounted) and
// the last progress snapshot taken during upload.
type Client struct {
	stream transport.Stream

	mu           sync.Mutex
	phase        Phase
	imageType    string
	lastProgress ProgressSnapshot
}

// New wraps an already-connected Image Mounter channel.
func New(stream transport.Stream) *Client {
	return &Client{stream: stream}
}

// Phase returns the session-state phase reached by the most recent
// UploadImage/MountImage call.
func (c *Client) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// LastProgress returns the most recent progress snapshot recorded by
// UploadImage, or the zero value if no upload has run yet.
func (c *Client) LastProgress() ProgressSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastProgress
}

// ImageType returns the image type associated with the current Phase, or
// "" while Phase is PhaseIdle.
func (c *Client) ImageType() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.imageType
}

func (c *Client) setPhase(phase Phase, imageType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = phase
	c.imageType = imageType
}

func (c *Client) setProgress(snapshot ProgressSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastProgress = snapshot
}

// Close releases the underlying channel.
func (c *Client) Close() error {
	return c.stream.Close()
}

func (c *Client) roundTrip(ctx context.Context, req interface{}, res interface{}) error {
	if err := plistwire.WriteMessage(ctx, transport.AsWriter(ctx, c.stream), req); err != nil {
		return err
	}
	return plistwire.ReadMessage(ctx, transport.AsReader(ctx, c.stream), res)
}

// response is the common shape of every Image Mounter reply: a Status (or
// legacy free-form fields) plus an optional error pair.
type response struct {
	Status        string `plist:"Status"`
	Error         string `plist:"Error"`
	DetailedError string `plist:"DetailedError"`
}

func (r response) asError(op string) error {
	if r.Error == "" && r.DetailedError == "" {
		return nil
	}
	detail := r.Error
	if detail == "" {
		detail = r.DetailedError
	}
	return ideviceerr.Protocolf("mounter", "%s: %s", op, detail)
}

type copyDevicesRequest struct {
	Command string `plist:"Command"`
}

// copyDevicesResponse models the real wire shape: the list of mounted
// images lives under EntryList, not at the top level of the response.
// Treating the whole response as an array (as if EntryList didn't exist)
// decodes every field into the wrong place and silently yields nothing.
type copyDevicesResponse struct {
	EntryList []map[string]interface{} `plist:"EntryList"`
	Error     string                   `plist:"Error"`
}

// CopyDevices returns the dictionaries describing each currently mounted
// image.
func (c *Client) CopyDevices(ctx context.Context) ([]map[string]interface{}, error) {
	entry := oplog.Start("mounter", "CopyDevices", "")
	defer entry.Finish()

	var res copyDevicesResponse
	if err := c.roundTrip(ctx, copyDevicesRequest{Command: "CopyDevices"}, &res); err != nil {
		return nil, entry.Error(err)
	}
	if res.Error != "" {
		return nil, entry.Error(ideviceerr.Protocolf("mounter", "CopyDevices: %s", res.Error))
	}
	entry.Result("%d entries", len(res.EntryList))
	return res.EntryList, nil
}

type lookupImageRequest struct {
	Command   string `plist:"Command"`
	ImageType string `plist:"ImageType"`
}

type lookupImageResponse struct {
	ImageSignature []byte `plist:"ImageSignature"`
	Error          string `plist:"Error"`
}

// LookupImage returns the signature bytes for a previously uploaded image
// of the given type, or nil if nothing matching is mounted.
func (c *Client) LookupImage(ctx context.Context, imageType string) ([]byte, error) {
	entry := oplog.Start("mounter", "LookupImage", imageType)
	defer entry.Finish()

	var res lookupImageResponse
	if err := c.roundTrip(ctx, lookupImageRequest{Command: "LookupImage", ImageType: imageType}, &res); err != nil {
		return nil, entry.Error(err)
	}
	if res.Error != "" {
		return nil, entry.Error(ideviceerr.Protocolf("mounter", "LookupImage: %s", res.Error))
	}
	return res.ImageSignature, nil
}

type receiveBytesRequest struct {
	Command        string `plist:"Command"`
	ImageSize      uint64 `plist:"ImageSize"`
	ImageType      string `plist:"ImageType"`
	ImageSignature []byte `plist:"ImageSignature,omitempty"`
}

// ProgressFunc is invoked at chunk boundaries during UploadImage with
// bytes transferred so far and the total size.
type ProgressFunc func(transferred, total int64)

// UploadImage sends image's raw bytes to the device: a ReceiveBytes
// command, an await for ReceiveBytesAck, the raw stream (no framing at
// all — just bytes on the channel), then an await for Complete.
//
// If ctx is cancelled mid-transfer, the upload aborts after finishing the
// in-flight chunk and the channel is closed: a half-written chunk would
// leave the device's receive state undefined.
func (c *Client) UploadImage(ctx context.Context, imageType string, image io.Reader, size int64, signature []byte, progress ProgressFunc) error {
	entry := oplog.Start("mounter", "UploadImage", imageType)
	defer entry.Finish()

	req := receiveBytesRequest{Command: "ReceiveBytes", ImageSize: uint64(size), ImageType: imageType, ImageSignature: signature}
	if err := plistwire.WriteMessage(ctx, transport.AsWriter(ctx, c.stream), req); err != nil {
		return entry.Error(err)
	}

	var ack response
	if err := plistwire.ReadMessage(ctx, transport.AsReader(ctx, c.stream), &ack); err != nil {
		return entry.Error(err)
	}
	if ack.Status != "ReceiveBytesAck" {
		if err := ack.asError("ReceiveBytes"); err != nil {
			return entry.Error(err)
		}
		return entry.Error(ideviceerr.New(ideviceerr.UnexpectedResponse, "mounter: expected ReceiveBytesAck"))
	}

	const chunkSize = 64 * 1024
	buf := make([]byte, chunkSize)
	var transferred int64
	for {
		select {
		case <-ctx.Done():
			_ = c.stream.Close()
			return entry.Error(ideviceerr.New(ideviceerr.Cancelled, "upload cancelled"))
		default:
		}

		n, readErr := image.Read(buf)
		if n > 0 {
			if err := c.stream.Write(ctx, buf[:n]); err != nil {
				return entry.Error(err)
			}
			transferred += int64(n)
			c.setProgress(ProgressSnapshot{Transferred: transferred, Total: size})
			if progress != nil {
				progress(transferred, size)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return entry.Error(ideviceerr.IoErr(readErr))
		}
	}

	var complete response
	if err := plistwire.ReadMessage(ctx, transport.AsReader(ctx, c.stream), &complete); err != nil {
		return entry.Error(err)
	}
	if err := complete.asError("upload"); err != nil {
		return entry.Error(err)
	}
	if complete.Status != "Complete" {
		return entry.Error(ideviceerr.New(ideviceerr.UnexpectedResponse, "mounter: expected Complete"))
	}
	c.setPhase(PhaseUploaded, imageType)
	entry.Result("%d bytes", transferred)
	return nil
}

type mountImageRequest struct {
	Command        string                 `plist:"Command"`
	ImageType      string                 `plist:"ImageType"`
	ImageSignature []byte                 `plist:"ImageSignature"`
	TrustCache     []byte                 `plist:"ImageTrustCache,omitempty"`
	Info           map[string]interface{} `plist:"ImageInfoPlist,omitempty"`
}

// MountImage mounts a previously uploaded image, optionally supplying a
// trust cache and an info plist (personalized images require both).
func (c *Client) MountImage(ctx context.Context, imageType string, signature, trustCache []byte, info map[string]interface{}) error {
	entry := oplog.Start("mounter", "MountImage", imageType)
	defer entry.Finish()

	req := mountImageRequest{Command: "MountImage", ImageType: imageType, ImageSignature: signature, TrustCache: trustCache, Info: info}
	var res response
	if err := c.roundTrip(ctx, req, &res); err != nil {
		return entry.Error(err)
	}
	if err := res.asError("MountImage"); err != nil {
		return entry.Error(err)
	}
	c.setPhase(PhaseMounted, imageType)
	return nil
}

type unmountImageRequest struct {
	Command   string `plist:"Command"`
	MountPath string `plist:"MountPath"`
}

// UnmountImage unmounts the image mounted at mountPath.
func (c *Client) UnmountImage(ctx context.Context, mountPath string) error {
	entry := oplog.Start("mounter", "UnmountImage", mountPath)
	defer entry.Finish()

	req := unmountImageRequest{Command: "UnmountImage", MountPath: mountPath}
	var res response
	if err := c.roundTrip(ctx, req, &res); err != nil {
		return entry.Error(err)
	}
	if err := res.asError("UnmountImage"); err != nil {
		return entry.Error(err)
	}
	c.setPhase(PhaseIdle, "")
	return nil
}

type queryDeveloperModeRequest struct {
	Command string `plist:"Command"`
}

type queryDeveloperModeResponse struct {
	DeveloperModeStatus bool   `plist:"DeveloperModeStatus"`
	Error               string `plist:"Error"`
}

// QueryDeveloperModeStatus reports whether Developer Mode is enabled.
func (c *Client) QueryDeveloperModeStatus(ctx context.Context) (bool, error) {
	entry := oplog.Start("mounter", "QueryDeveloperModeStatus", "")
	defer entry.Finish()

	var res queryDeveloperModeResponse
	if err := c.roundTrip(ctx, queryDeveloperModeRequest{Command: "QueryDeveloperModeStatus"}, &res); err != nil {
		return false, entry.Error(err)
	}
	if res.Error != "" {
		return false, entry.Error(ideviceerr.Protocolf("mounter", "QueryDeveloperModeStatus: %s", res.Error))
	}
	return res.DeveloperModeStatus, nil
}

type queryNonceRequest struct {
	Command               string `plist:"Command"`
	PersonalizedImageType string `plist:"PersonalizedImageType,omitempty"`
}

type queryNonceResponse struct {
	PersonalizationNonce []byte `plist:"PersonalizationNonce"`
	Error                string `plist:"Error"`
}

// QueryNonce returns the device's current personalization nonce, scoped to
// imageType if non-empty.
func (c *Client) QueryNonce(ctx context.Context, imageType string) ([]byte, error) {
	entry := oplog.Start("mounter", "QueryNonce", imageType)
	defer entry.Finish()

	req := queryNonceRequest{Command: "QueryNonce", PersonalizedImageType: imageType}
	var res queryNonceResponse
	if err := c.roundTrip(ctx, req, &res); err != nil {
		return nil, entry.Error(err)
	}
	if res.Error != "" {
		return nil, entry.Error(ideviceerr.Protocolf("mounter", "QueryNonce: %s", res.Error))
	}
	return res.PersonalizationNonce, nil
}

type queryPersonalizationIdentifiersRequest struct {
	Command               string `plist:"Command"`
	PersonalizedImageType string `plist:"PersonalizedImageType,omitempty"`
}

type queryPersonalizationIdentifiersResponse struct {
	PersonalizationIdentifiers map[string]interface{} `plist:"PersonalizationIdentifiers"`
	Error                      string                 `plist:"Error"`
}

// QueryPersonalizationIdentifiers returns the device's TSS personalization
// identifiers, scoped to imageType if non-empty.
func (c *Client) QueryPersonalizationIdentifiers(ctx context.Context, imageType string) (map[string]interface{}, error) {
	entry := oplog.Start("mounter", "QueryPersonalizationIdentifiers", imageType)
	defer entry.Finish()

	req := queryPersonalizationIdentifiersRequest{Command: "QueryPersonalizationIdentifiers", PersonalizedImageType: imageType}
	var res queryPersonalizationIdentifiersResponse
	if err := c.roundTrip(ctx, req, &res); err != nil {
		return nil, entry.Error(err)
	}
	if res.Error != "" {
		return nil, entry.Error(ideviceerr.Protocolf("mounter", "QueryPersonalizationIdentifiers: %s", res.Error))
	}
	return res.PersonalizationIdentifiers, nil
}

type queryPersonalizationManifestRequest struct {
	Command               string `plist:"Command"`
	PersonalizedImageType string `plist:"PersonalizedImageType"`
	ImageType             string `plist:"ImageType"`
	ImageSignature        []byte `plist:"ImageSignature"`
}

type queryPersonalizationManifestResponse struct {
	ImageSignature []byte `plist:"ImageSignature"`
	Error          string `plist:"Error"`
}

// QueryPersonalizationManifest returns the cached manifest bytes for an
// already-personalized image, or an error if the device has none cached
// (the caller is then expected to fetch a fresh manifest from Apple's TSS
// service out of band).
func (c *Client) QueryPersonalizationManifest(ctx context.Context, imageType string, signature []byte) ([]byte, error) {
	entry := oplog.Start("mounter", "QueryPersonalizationManifest", imageType)
	defer entry.Finish()

	req := queryPersonalizationManifestRequest{Command: "QueryPersonalizationManifest", PersonalizedImageType: imageType, ImageType: imageType, ImageSignature: signature}
	var res queryPersonalizationManifestResponse
	if err := c.roundTrip(ctx, req, &res); err != nil {
		return nil, entry.Error(err)
	}
	if res.Error != "" {
		return nil, entry.Error(ideviceerr.Protocolf("mounter", "QueryPersonalizationManifest: %s", res.Error))
	}
	return res.ImageSignature, nil
}

type rollNonceRequest struct {
	Command string `plist:"Command"`
}

// RollPersonalizationNonce asks the device to generate a fresh
// personalization nonce for future QueryNonce calls.
func (c *Client) RollPersonalizationNonce(ctx context.Context) error {
	entry := oplog.Start("mounter", "RollPersonalizationNonce", "")
	defer entry.Finish()

	var res response
	if err := c.roundTrip(ctx, rollNonceRequest{Command: "RollPersonalizationNonce"}, &res); err != nil {
		return entry.Error(err)
	}
	return entry.Error(res.asError("RollPersonalizationNonce"))
}

// RollCryptexNonce is RollPersonalizationNonce's cryptex-scoped sibling.
func (c *Client) RollCryptexNonce(ctx context.Context) error {
	entry := oplog.Start("mounter", "RollCryptexNonce", "")
	defer entry.Finish()

	var res response
	if err := c.roundTrip(ctx, rollNonceRequest{Command: "RollCryptexNonce"}, &res); err != nil {
		return entry.Error(err)
	}
	return entry.Error(res.asError("RollCryptexNonce"))
}

// TSSCollaborator fetches a personalized manifest from Apple's Tatsu
// signing service (or a compatible substitute) for the chip identified by
// uniqueChipID, given the device's nonce and personalization identifiers.
// It is injected so that MountPersonalized never imports an HTTP client
// directly, keeping network-policy decisions (proxying, TLS pinning,
// retries) with the caller instead of this package.
type TSSCollaborator interface {
	FetchManifest(ctx context.Context, uniqueChipID uint64, nonce []byte, identifiers map[string]interface{}, buildManifest []byte) ([]byte, error)
}

// MountPersonalized runs the full personalized-image mount flow: fetch the
// nonce and personalization identifiers, request a signed manifest from
// tss, stream the image with progress reporting, then mount with the
// returned manifest and supplied trust cache.
func (c *Client) MountPersonalized(ctx context.Context, tss TSSCollaborator, imageType string, image io.Reader, imageSize int64, trustCache, buildManifest []byte, info map[string]interface{}, uniqueChipID uint64, progress ProgressFunc) error {
	entry := oplog.Start("mounter", "MountPersonalized", imageType)
	defer entry.Finish()

	nonce, err := c.QueryNonce(ctx, imageType)
	if err != nil {
		return entry.Error(err)
	}
	identifiers, err := c.QueryPersonalizationIdentifiers(ctx, imageType)
	if err != nil {
		return entry.Error(err)
	}

	manifest, err := tss.FetchManifest(ctx, uniqueChipID, nonce, identifiers, buildManifest)
	if err != nil {
		return entry.Error(ideviceerr.Wrap(ideviceerr.ServiceNotAvailable, "tss manifest fetch", err))
	}

	if err := c.UploadImage(ctx, imageType, image, imageSize, manifest, progress); err != nil {
		return entry.Error(err)
	}

	personalizedInfo := make(map[string]interface{}, len(info)+1)
	for k, v := range info {
		personalizedInfo[k] = v
	}
	personalizedInfo["PersonalizedImageType"] = imageType

	if err := c.MountImage(ctx, imageType, manifest, trustCache, personalizedInfo); err != nil {
		return entry.Error(err)
	}
	return nil
}
