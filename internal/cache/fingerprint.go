package cache

import (
	"bytes"
	"encoding/gob"
)

// entry is what sits behind a payload key: the formatted bytes plus the
// hash of the source they were computed from.
type entry struct {
	ContentHash string
	Payload     []byte
}

// key = platform + 0x00 + slug
func makePayloadKey(platform, slug string) []byte {
	buf := make([]byte, 0, len(platform)+1+len(slug))
	buf = append(buf, platform...)
	buf = append(buf, 0x00)
	buf = append(buf, slug...)
	return buf
}

func encodeEntry(e entry) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeEntry(v []byte) (entry, error) {
	var e entry
	if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&e); err != nil {
		return entry{}, err
	}
	return e, nil
}
