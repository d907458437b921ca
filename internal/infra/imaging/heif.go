package imaging

import (
	"encoding/binary"
	"fmt"
)

// heifDimensions reads the pixel size of the primary image from the ISOBMFF
// property boxes (meta > iprp > ipco > ispe). Grid images carry one ispe per
// tile plus one for the full canvas, so the largest one wins.
func heifDimensions(data []byte) (int, int, error) {
	meta, ok, err := findBox(data, "meta")
	if err != nil || !ok {
		return 0, 0, fmt.Errorf("%w: heif meta box missing", ErrCorrupt)
	}
	// meta is a full box: version and flags precede the children.
	if len(meta) < 4 {
		return 0, 0, fmt.Errorf("%w: heif meta box truncated", ErrCorrupt)
	}
	iprp, ok, err := findBox(meta[4:], "iprp")
	if err != nil || !ok {
		return 0, 0, fmt.Errorf("%w: heif item properties missing", ErrCorrupt)
	}
	ipco, ok, err := findBox(iprp, "ipco")
	if err != nil || !ok {
		return 0, 0, fmt.Errorf("%w: heif property container missing", ErrCorrupt)
	}

	var width, height uint32
	err = walkBoxes(ipco, func(typ string, body []byte) bool {
		if typ != "ispe" || len(body) < 12 {
			return true
		}
		w := binary.BigEndian.Uint32(body[4:8])
		h := binary.BigEndian.Uint32(body[8:12])
		if uint64(w)*uint64(h) > uint64(width)*uint64(height) {
			width, height = w, h
		}
		return true
	})
	if err != nil {
		return 0, 0, err
	}
	if width == 0 || height == 0 {
		return 0, 0, fmt.Errorf("%w: heif image size missing", ErrCorrupt)
	}
	return int(width), int(height), nil
}

func findBox(buf []byte, want string) ([]byte, bool, error) {
	var found []byte
	err := walkBoxes(buf, func(typ string, body []byte) bool {
		if typ == want {
			found = body
			return false
		}
		return true
	})
	return found, found != nil, err
}

// walkBoxes calls fn with the type and payload of each box in buf until fn
// returns false.
func walkBoxes(buf []byte, fn func(typ string, body []byte) bool) error {
	for len(buf) >= 8 {
		size := uint64(binary.BigEndian.Uint32(buf[0:4]))
		typ := string(buf[4:8])
		header := uint64(8)

		switch size {
		case 0:
			size = uint64(len(buf))
		case 1:
			if len(buf) < 16 {
				return fmt.Errorf("%w: truncated box header", ErrCorrupt)
			}
			size = binary.BigEndian.Uint64(buf[8:16])
			header = 16
		}
		if size < header || size > uint64(len(buf)) {
			return fmt.Errorf("%w: bad %q box size", ErrCorrupt, typ)
		}

		if !fn(typ, buf[header:size]) {
			return nil
		}
		buf = buf[size:]
	}
	return nil
}
