//go:build !govips || !cgo

package codec

func Startup() error {
	return nil
}

func Shutdown() {}

// Decode parses an encoded image into a pixel buffer.
func Decode(data []byte) (Image, error) {
	return decodeStd(data)
}
