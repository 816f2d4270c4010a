package afc

// operation is the 32-bit (carried as 64-bit on the wire) command code in
// an AFC packet header. The canonical set, as implemented by the device.
type operation uint64

const (
	opStatus                   operation = 0x00000001
	opData                     operation = 0x00000002
	opReadDir                  operation = 0x00000003
	opReadFile                 operation = 0x00000004
	opWriteFile                operation = 0x00000005
	opWritePart                operation = 0x00000006
	opTruncate                 operation = 0x00000007
	opRemovePath               operation = 0x00000008
	opMakeDir                  operation = 0x00000009
	opGetFileInfo              operation = 0x0000000A
	opGetDeviceInfo            operation = 0x0000000B
	opWriteFileAtomic          operation = 0x0000000C
	opFileRefOpen              operation = 0x0000000D
	opFileRefRead              operation = 0x0000000E
	opFileRefWrite             operation = 0x0000000F
	opFileRefSeek              operation = 0x00000010
	opFileRefTell              operation = 0x00000011
	opFileRefClose             operation = 0x00000012
	opFileRefSetSize           operation = 0x00000013
	opGetConnectionInfo        operation = 0x00000014
	opSetConnectionOptions     operation = 0x00000015
	opRenamePath               operation = 0x00000016
	opSetFSBlockSize           operation = 0x00000017
	opSetSocketBlockSize       operation = 0x00000018
	opFileRefLock              operation = 0x00000019
	opMakeLink                 operation = 0x0000001A
	opGetFileHash              operation = 0x0000001B
	opSetModTime               operation = 0x0000001C
	opGetFileHashWithRange     operation = 0x0000001D
	opFileRefSetImmutableHint  operation = 0x0000001E
	opGetSizeOfPathContents    operation = 0x0000001F
	opRemovePathAndContents    operation = 0x00000020
)

// FileMode selects the open mode for FileRefOpen, per the AFC protocol's
// fixed table.
type FileMode uint64

const (
	ModeRead             FileMode = 1
	ModeWrite            FileMode = 2
	ModeReadWrite        FileMode = 3
	ModeWriteAppend      FileMode = 4
	ModeReadWriteAppend  FileMode = 5
	ModeWriteTruncAppend FileMode = 6
)

// LockOperation selects flock-style semantics for FileRefLock.
type LockOperation uint64

const (
	LockShared    LockOperation = 1 | 4
	LockExclusive LockOperation = 2 | 4
	LockUnlock    LockOperation = 8 | 4
)
