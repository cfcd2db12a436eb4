package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/vango-dev/wayfinder/internal/errors"
	"github.com/vango-dev/wayfinder/pkg/browser"
)

// FrameType is the "t" field of a frame.
type FrameType string

// Client to server.
const (
	FrameHello      FrameType = "hello"
	FramePopState   FrameType = "popstate"
	FrameHashChange FrameType = "hashchange"
	FrameClick      FrameType = "click"
)

// Server to client.
const (
	FramePush        FrameType = "push"
	FrameReplace     FrameType = "replace"
	FrameHash        FrameType = "hash"
	FrameHashReplace FrameType = "hash-replace"
	FrameBack        FrameType = "back"
	FrameForward     FrameType = "forward"
	FrameGo          FrameType = "go"
	FrameRender      FrameType = "render"
	FrameError       FrameType = "error"
)

// fromClient reports whether t is sent by the browser.
func (t FrameType) fromClient() bool {
	switch t {
	case FrameHello, FramePopState, FrameHashChange, FrameClick:
		return true
	}
	return false
}

// fromServer reports whether t is sent by the server.
func (t FrameType) fromServer() bool {
	switch t {
	case FramePush, FrameReplace, FrameHash, FrameHashReplace,
		FrameBack, FrameForward, FrameGo, FrameRender, FrameError:
		return true
	}
	return false
}

// Frame is one protocol message. Only the fields relevant to Type are set.
type Frame struct {
	Type FrameType `json:"t"`

	// Location (hello, popstate, hashchange).
	Pathname string `json:"pathname,omitempty"`
	Search   string `json:"search,omitempty"`
	Hash     string `json:"hash,omitempty"`

	// State is the history state (popstate, push, replace).
	State any `json:"state,omitempty"`

	// Href is the clicked link (click).
	Href string `json:"href,omitempty"`

	// URL is the new entry's URL (push, replace).
	URL string `json:"url,omitempty"`

	// Delta is the history offset (go).
	Delta int `json:"delta,omitempty"`

	// HTML is the rendered fragment (render).
	HTML string `json:"html,omitempty"`

	// Message describes a protocol error (error).
	Message string `json:"message,omitempty"`
}

// Location returns the location carried by a hello, popstate or hashchange frame.
func (f Frame) Location() browser.Location {
	loc := browser.Location{Pathname: f.Pathname, Search: f.Search, Hash: f.Hash}
	if loc.Pathname == "" {
		loc.Pathname = "/"
	}
	return loc
}

// locationFrame builds a frame carrying loc.
func locationFrame(t FrameType, loc browser.Location) Frame {
	return Frame{Type: t, Pathname: loc.Pathname, Search: loc.Search, Hash: loc.Hash}
}

// Encode marshals a frame.
func Encode(f Frame) ([]byte, error) {
	if f.Type == "" {
		return nil, protocolError("frame has no type")
	}
	return json.Marshal(f)
}

// Decode unmarshals a frame and checks that its type is known.
func Decode(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, errors.New("B001").WithDetail("malformed frame").Wrap(err)
	}
	if !f.Type.fromClient() && !f.Type.fromServer() {
		return Frame{}, protocolError(fmt.Sprintf("unknown frame type %q", f.Type))
	}
	return f, nil
}

func protocolError(detail string) *errors.Error {
	return errors.New("B001").WithDetail(detail)
}
