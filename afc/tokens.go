package afc

import "bytes"

// encodePath returns path as a NUL-terminated byte string, the argument
// convention for every path-taking AFC operation.
func encodePath(path string) []byte {
	buf := make([]byte, len(path)+1)
	copy(buf, path)
	return buf
}

// encodePathPair concatenates two NUL-terminated paths, used by
// RenamePath (from\0to\0) and MakeLink (target\0link\0).
func encodePathPair(a, b string) []byte {
	buf := make([]byte, 0, len(a)+1+len(b)+1)
	buf = append(buf, a...)
	buf = append(buf, 0)
	buf = append(buf, b...)
	buf = append(buf, 0)
	return buf
}

// splitTokens splits a NUL-separated token stream, dropping the trailing
// empty token the device emits as a terminator.
func splitTokens(data []byte) []string {
	parts := bytes.Split(data, []byte{0})
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(p) == 0 {
			continue
		}
		tokens = append(tokens, string(p))
	}
	return tokens
}

// parseKeyValueTokens interprets a NUL-separated token stream as
// alternating key/value pairs, as returned by GetFileInfo and
// GetDeviceInfo.
func parseKeyValueTokens(data []byte) map[string]string {
	tokens := splitTokens(data)
	info := make(map[string]string, len(tokens)/2)
	for i := 0; i+1 < len(tokens); i += 2 {
		info[tokens[i]] = tokens[i+1]
	}
	return info
}
