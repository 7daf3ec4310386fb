package skeleton

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Channel is one animated degree of freedom of a joint.
type Channel uint8

const (
	Xposition Channel = iota
	Yposition
	Zposition
	Xrotation
	Yrotation
	Zrotation
	numChannelKinds
)

var channelNames = [numChannelKinds]string{
	Xposition: "Xposition",
	Yposition: "Yposition",
	Zposition: "Zposition",
	Xrotation: "Xrotation",
	Yrotation: "Yrotation",
	Zrotation: "Zrotation",
}

func (c Channel) String() string {
	if !c.Valid() {
		return "Channel(" + strconv.Itoa(int(c)) + ")"
	}
	return channelNames[c]
}

// Valid reports whether c is one of the six supported kinds.
func (c Channel) Valid() bool {
	return c < numChannelKinds
}

// IsRotation reports whether c rotates about its axis.
func (c Channel) IsRotation() bool {
	return c >= Xrotation && c < numChannelKinds
}

// Axis returns 0, 1 or 2 for X, Y, Z.
func (c Channel) Axis() int {
	return int(c) % 3
}

// ParseChannel accepts the BVH channel spellings, case-insensitive.
func ParseChannel(s string) (Channel, error) {
	for i, name := range channelNames {
		if strings.EqualFold(s, name) {
			return Channel(i), nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownChannel, "%q", s)
}
