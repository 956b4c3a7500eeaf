package netio

import "errors"

// cobsEncode implements Consistent Overhead Byte Stuffing: it removes
// every zero byte from data by replacing runs of up to 254 non-zero
// bytes with a length prefix, so the caller can safely append a single
// 0x00 as a frame terminator.
func cobsEncode(data []byte) []byte {
	encoded := make([]byte, 0, len(data)+len(data)/254+1)
	codeIdx := 0
	encoded = append(encoded, 0) // placeholder for the first code byte
	code := byte(1)

	for _, b := range data {
		if b == 0 {
			encoded[codeIdx] = code
			codeIdx = len(encoded)
			encoded = append(encoded, 0)
			code = 1
			continue
		}
		encoded = append(encoded, b)
		code++
		if code == 0xFF {
			encoded[codeIdx] = code
			codeIdx = len(encoded)
			encoded = append(encoded, 0)
			code = 1
		}
	}
	encoded[codeIdx] = code
	return encoded
}

var (
	errCOBSEmpty      = errors.New("cobs: empty input")
	errCOBSTruncated  = errors.New("cobs: truncated block")
	errCOBSZeroInCode = errors.New("cobs: unexpected zero byte in encoded stream")
)

// cobsDecode reverses cobsEncode. The input must not include the frame
// terminator.
func cobsDecode(encoded []byte) ([]byte, error) {
	if len(encoded) == 0 {
		return nil, errCOBSEmpty
	}

	decoded := make([]byte, 0, len(encoded))
	i := 0
	for i < len(encoded) {
		code := int(encoded[i])
		if code == 0 {
			return nil, errCOBSZeroInCode
		}
		i++
		blockEnd := i + code - 1
		if blockEnd > len(encoded) {
			return nil, errCOBSTruncated
		}
		decoded = append(decoded, encoded[i:blockEnd]...)
		i = blockEnd
		if code < 0xFF && i != len(encoded) {
			decoded = append(decoded, 0)
		}
	}
	return decoded, nil
}
