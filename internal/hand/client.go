package hand

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// maxReply bounds one detector reply line.
const maxReply = 1 << 20

// Client speaks the detector line protocol: each request is a 4-byte
// big-endian length followed by an encoded image; each reply is one JSON line.
type Client struct {
	w    io.Writer
	r    *bufio.Reader
	opts Options
}

// NewClient returns a client writing requests to w and reading replies from r.
func NewClient(w io.Writer, r io.Reader, opts Options) *Client {
	return &Client{w: w, r: bufio.NewReaderSize(r, 64*1024), opts: opts}
}

// Detect sends one encoded image and waits for its reply.
func (c *Client) Detect(image []byte) ([]Observation, error) {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(image)))
	if _, err := c.w.Write(hdr[:]); err != nil {
		return nil, fmt.Errorf("hand: write header: %w", err)
	}
	if _, err := c.w.Write(image); err != nil {
		return nil, fmt.Errorf("hand: write image: %w", err)
	}

	var line []byte
	for {
		chunk, isPrefix, err := c.r.ReadLine()
		if err != nil {
			return nil, fmt.Errorf("hand: read reply: %w", err)
		}
		line = append(line, chunk...)
		if len(line) > maxReply {
			return nil, fmt.Errorf("%w: reply exceeds %d bytes", ErrBadResponse, maxReply)
		}
		if !isPrefix {
			break
		}
	}
	return Decode(line, c.opts)
}
