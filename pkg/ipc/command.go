package ipc

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"tarun-kavipurapu/lanshare/pkg/protocol"
)

// Command is one request a local client can make of the running node.
// The set of implementations is closed: MyID, MyAddr, Peers, Send, SendTo.
type Command interface {
	// String is the shell form of the command, e.g. "/send_to 42 a.txt".
	String() string
	// requestURI is the control API path and query for the command.
	requestURI() string
}

type MyID struct{}

type MyAddr struct{}

type Peers struct{}

// Send sends Path to every discovered peer.
type Send struct {
	Path string
}

// SendTo sends Path to the peer with the given ID.
type SendTo struct {
	ID   protocol.PeerID
	Path string
}

const (
	pathMyID   = "/myid"
	pathMyAddr = "/myaddr"
	pathPeers  = "/peers"
	pathSend   = "/send"
	pathSendTo = "/send_to"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrMissingArgs    = errors.New("missing arguments")
)

func (MyID) String() string   { return pathMyID }
func (MyAddr) String() string { return pathMyAddr }
func (Peers) String() string  { return pathPeers }
func (c Send) String() string { return pathSend + " " + c.Path }
func (c SendTo) String() string {
	return fmt.Sprintf("%s %s %s", pathSendTo, c.ID, c.Path)
}

func (MyID) requestURI() string   { return pathMyID }
func (MyAddr) requestURI() string { return pathMyAddr }
func (Peers) requestURI() string  { return pathPeers }

func (c Send) requestURI() string {
	return pathSend + "?" + url.Values{"path": {c.Path}}.Encode()
}

func (c SendTo) requestURI() string {
	return pathSendTo + "?" + url.Values{"id": {c.ID.String()}, "path": {c.Path}}.Encode()
}

// ParseCommand parses the shell form of a command. The path is everything
// after the last fixed argument, so it may contain spaces.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch name {
	case pathMyID:
		return MyID{}, nil
	case pathMyAddr:
		return MyAddr{}, nil
	case pathPeers:
		return Peers{}, nil
	case pathSend:
		if rest == "" {
			return nil, fmt.Errorf("%w: usage: %s <path>", ErrMissingArgs, pathSend)
		}
		return Send{Path: rest}, nil
	case pathSendTo:
		idStr, path, _ := strings.Cut(rest, " ")
		path = strings.TrimSpace(path)
		if idStr == "" || path == "" {
			return nil, fmt.Errorf("%w: usage: %s <id> <path>", ErrMissingArgs, pathSendTo)
		}
		id, err := protocol.ParsePeerID(idStr)
		if err != nil {
			return nil, err
		}
		return SendTo{ID: id, Path: path}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
}
