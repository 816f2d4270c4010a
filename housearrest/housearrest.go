// Package housearrest implements the House Arrest service: a plist-framed
// VendDocuments/VendContainer handshake that, on success, hands the same
// underlying channel off to an AFC engine scoped to the requested app's
// container.
package housearrest

import (
	"context"

	"github.com/go-idevice/idevice/afc"
	"github.com/go-idevice/idevice/ideviceerr"
	"github.com/go-idevice/idevice/internal/oplog"
	"github.com/go-idevice/idevice/plistwire"
	"github.com/go-idevice/idevice/provider"
	"github.com/go-idevice/idevice/transport"
)

// ServiceName is the lockdown service identifier for House Arrest.
const ServiceName = "com.apple.mobile.house_arrest"

type vendRequest struct {
	Command    string `plist:"Command"`
	Identifier string `plist:"Identifier"`
}

type vendResponse struct {
	Status string `plist:"Status"`
	Error  string `plist:"Error"`
}

// Documents opens the Documents directory container for the app identified
// by bundleID and, on success, moves ownership of the channel into a new
// AFC client: the two protocols share one connection, and after
// VendDocuments succeeds every subsequent byte on it is AFC framing, not
// plist. There is no socket to swap — the same transport.Stream is simply
// wrapped by afc.New instead of being read here again.
func Documents(ctx context.Context, p provider.Provider, bundleID string) (*afc.Client, error) {
	return vend(ctx, p, "VendDocuments", bundleID)
}

// Container opens the full app container (not just Documents) for
// bundleID, with the same handoff semantics as Documents.
func Container(ctx context.Context, p provider.Provider, bundleID string) (*afc.Client, error) {
	return vend(ctx, p, "VendContainer", bundleID)
}

func vend(ctx context.Context, p provider.Provider, command, bundleID string) (*afc.Client, error) {
	entry := oplog.Start("housearrest", command, bundleID)
	defer entry.Finish()

	s, err := p.StartService(ctx, ServiceName)
	if err != nil {
		return nil, entry.Error(err)
	}

	if err := plistwire.WriteMessage(ctx, transport.AsWriter(ctx, s), vendRequest{Command: command, Identifier: bundleID}); err != nil {
		_ = s.Close()
		return nil, entry.Error(err)
	}
	var res vendResponse
	if err := plistwire.ReadMessage(ctx, transport.AsReader(ctx, s), &res); err != nil {
		_ = s.Close()
		return nil, entry.Error(err)
	}
	if res.Error != "" {
		_ = s.Close()
		return nil, entry.Error(ideviceerr.New(ideviceerr.ServiceNotAvailable, "house_arrest: "+res.Error))
	}

	// s is now AFC-framed. afc.New takes ownership; no further plist
	// traffic is ever sent or expected on this channel.
	return afc.New(s), nil
}
