package tun

import (
	"errors"
)

var (
	// ErrRemote is wrapped around the error message of a failed receipt
	ErrRemote = errors.New("tun: remote transfer failed")
	// ErrReceiptMismatch means the receiver stored something else than what was sent
	ErrReceiptMismatch = errors.New("tun: receipt does not match sent data")
	// ErrProtocol is returned on unexpected messages
	ErrProtocol = errors.New("tun: protocol violation")
)

// Header opens a transfer; Size is -1 when unknown
type Header struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// control is a text message sent between content chunks
type control struct {
	EOF bool `json:"eof"`
}

// Receipt is the receiver's answer once the content is stored
type Receipt struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
	Error  string `json:"error,omitempty"`
}
