package pprofile

import (
	"bytes"
	"encoding/base64"

	"github.com/klauspost/compress/gzip"
)

// EncodeProfileBytes marshals p to pprof wire format, gzip-compresses it,
// and base64-encodes the result (standard alphabet, padded) — the exact
// transport encoding spec.md §6 requires for ProfileRequest.profileBytes.
func EncodeProfileBytes(p *Profile) (string, error) {
	wire := p.Marshal()

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return "", err
	}
	if _, err := zw.Write(wire); err != nil {
		zw.Close()
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
