package shoveler

import (
	"time"
)

const (
	// When reconnecting to the message bus after connection failure
	reconnectDelay = 5 * time.Second

	// When setting up the channel after a channel exception
	reInitDelay = 2 * time.Second

	// When resending messages the server didn't confirm
	resendDelay = 5 * time.Second

	// Capacity of the channel between the data-stream decoder and the
	// envelope consumer
	recordChannelSize = 100
)

// Build information, injected at link time.
var (
	Version string
	Commit  string
	Date    string
	BuiltBy string
)
