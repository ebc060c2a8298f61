package totp

import (
	"encoding/base64"

	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 256

// QRCodeDataURI describes the qrcodedatauri operation and its observable behavior.
//
// QRCodeDataURI may return an error when input validation, dependency calls, or security checks fail.
// QRCodeDataURI does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func QRCodeDataURI(uri string) (string, error) {
	png, err := qrcode.Encode(uri, qrcode.Medium, qrImageSize)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
