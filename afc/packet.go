package afc

import (
	"context"
	"encoding/binary"

	"github.com/go-idevice/idevice/ideviceerr"
	"github.com/go-idevice/idevice/transport"
)

// headerSize is the fixed AFC packet header: entireLength, thisLength,
// packetNum, operation, and a reserved field, each an 8-byte little-endian
// word.
const headerSize = 40

type packetHeader struct {
	entireLength uint64
	thisLength   uint64
	packetNum    uint64
	operation    operation
}

func (h packetHeader) encode() []byte {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint64(buf[0:8], h.entireLength)
	binary.LittleEndian.PutUint64(buf[8:16], h.thisLength)
	binary.LittleEndian.PutUint64(buf[16:24], h.packetNum)
	binary.LittleEndian.PutUint64(buf[24:32], uint64(h.operation))
	// buf[32:40] reserved, left zero.
	return buf
}

func decodeHeader(buf []byte) packetHeader {
	return packetHeader{
		entireLength: binary.LittleEndian.Uint64(buf[0:8]),
		thisLength:   binary.LittleEndian.Uint64(buf[8:16]),
		packetNum:    binary.LittleEndian.Uint64(buf[16:24]),
		operation:    operation(binary.LittleEndian.Uint64(buf[24:32])),
	}
}

// sendPacket writes one AFC request: header followed by payload, as a
// single segment (thisLength equals entireLength).
func sendPacket(ctx context.Context, s transport.Stream, packetNum uint64, op operation, payload []byte) error {
	h := packetHeader{
		entireLength: headerSize + uint64(len(payload)),
		thisLength:   headerSize + uint64(len(payload)),
		packetNum:    packetNum,
		operation:    op,
	}
	if err := s.Write(ctx, h.encode()); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	return s.Write(ctx, payload)
}

// recvPacket reads one AFC response and returns its operation and payload.
// A STATUS response with a non-zero code is translated directly into an
// *ideviceerr.Error instead of being handed back as plain bytes, since no
// caller ever wants the raw status payload.
func recvPacket(ctx context.Context, s transport.Stream) (operation, []byte, error) {
	raw, err := s.ReadExact(ctx, headerSize)
	if err != nil {
		return 0, nil, err
	}
	h := decodeHeader(raw)
	if h.entireLength < headerSize {
		return 0, nil, ideviceerr.New(ideviceerr.Protocol, "afc packet shorter than header")
	}
	payloadLen := h.entireLength - headerSize

	var payload []byte
	if payloadLen > 0 {
		payload, err = s.ReadExact(ctx, int(payloadLen))
		if err != nil {
			return 0, nil, err
		}
	}

	if h.operation == opStatus {
		if len(payload) < 8 {
			return 0, nil, ideviceerr.New(ideviceerr.Protocol, "afc status packet missing code")
		}
		code := binary.LittleEndian.Uint64(payload[:8])
		if code != 0 {
			return h.operation, payload, statusError(code)
		}
	}
	return h.operation, payload, nil
}
