package ipc

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"tarun-kavipurapu/lanshare/pkg/protocol"
)

// Client talks to a running node's control API over its unix socket.
type Client struct {
	cl *fasthttp.Client
}

func NewClient(socketPath string) *Client {
	return &Client{
		cl: &fasthttp.Client{
			Name: "lanshare",
			Dial: func(string) (net.Conn, error) {
				return net.DialTimeout("unix", socketPath, time.Second)
			},
		},
	}
}

// Do runs cmd and returns the response body. Non-200 responses are returned
// as errors carrying the server's message.
func (c *Client) Do(cmd Command) (string, error) {
	cmd = absolutize(cmd)

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	// The host is ignored by Dial; it only has to be well-formed.
	req.SetRequestURI("http://lanshare" + cmd.requestURI())
	switch cmd.(type) {
	case Send, SendTo:
		req.Header.SetMethod(fasthttp.MethodPost)
	default:
		req.Header.SetMethod(fasthttp.MethodGet)
	}

	if err := c.cl.Do(req, resp); err != nil {
		return "", fmt.Errorf("is the daemon running? %w", err)
	}

	body := strings.TrimSpace(string(resp.Body()))
	if resp.StatusCode() != fasthttp.StatusOK {
		return "", fmt.Errorf("%s failed (status %d): %s", cmd, resp.StatusCode(), body)
	}
	return body, nil
}

// absolutize resolves relative paths against the client's working
// directory, which the daemon does not share.
func absolutize(cmd Command) Command {
	switch c := cmd.(type) {
	case Send:
		if abs, err := filepath.Abs(c.Path); err == nil {
			c.Path = abs
		}
		return c
	case SendTo:
		if abs, err := filepath.Abs(c.Path); err == nil {
			c.Path = abs
		}
		return c
	default:
		return cmd
	}
}

func (c *Client) MyID() (protocol.PeerID, error) {
	body, err := c.Do(MyID{})
	if err != nil {
		return 0, err
	}
	return protocol.ParsePeerID(body)
}

func (c *Client) MyAddr() (protocol.PeerAddress, error) {
	body, err := c.Do(MyAddr{})
	if err != nil {
		return protocol.PeerAddress{}, err
	}
	return protocol.ParsePeerAddress(body)
}

// Peers returns the discovered peer ids, or false if there are none.
func (c *Client) Peers() ([]protocol.PeerID, bool, error) {
	body, err := c.Do(Peers{})
	if err != nil {
		return nil, false, err
	}
	if body == "" {
		return nil, false, nil
	}

	var ids []protocol.PeerID
	for _, line := range strings.Split(body, "\n") {
		id, err := protocol.ParsePeerID(strings.TrimSpace(line))
		if err != nil {
			return nil, false, err
		}
		ids = append(ids, id)
	}
	return ids, true, nil
}

func (c *Client) Send(path string) error {
	_, err := c.Do(Send{Path: path})
	return err
}

func (c *Client) SendTo(id protocol.PeerID, path string) error {
	_, err := c.Do(SendTo{ID: id, Path: path})
	return err
}
