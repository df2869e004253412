package server

import (
	"encoding/base64"
	"errors"
	"strings"
)

// decodeImageData accepts a data-URL or bare base64 string and returns
// the raw image bytes.
func decodeImageData(data string) ([]byte, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, errors.New("no image data")
	}
	if parts := strings.SplitN(data, ",", 2); len(parts) == 2 {
		data = parts[1]
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}
	if len(decoded) == 0 {
		return nil, errors.New("no image data")
	}
	return decoded, nil
}

func encodeImageData(image []byte) string {
	if len(image) == 0 {
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)
}
