package ipc

import (
	"errors"
	"net"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"tarun-kavipurapu/lanshare/pkg/protocol"
)

type fakeNode struct {
	mu    sync.Mutex
	peers []protocol.PeerID
	sent  []Command
	err   error
}

func (n *fakeNode) GetMyID() protocol.PeerID { return 42 }

func (n *fakeNode) GetMyAddress() protocol.PeerAddress {
	return netip.MustParseAddrPort("10.0.0.5:25802")
}

func (n *fakeNode) ListPeers() ([]protocol.PeerID, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.peers, len(n.peers) > 0
}

func (n *fakeNode) SendFile(path string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, Send{Path: path})
	return n.err
}

func (n *fakeNode) SendFileTo(id protocol.PeerID, path string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, SendTo{ID: id, Path: path})
	return n.err
}

func startServer(t *testing.T, node Node) (*Client, string) {
	t.Helper()

	socket := filepath.Join(t.TempDir(), "ctl.sock")
	s := NewServer(node, socket)
	if err := s.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	go func() {
		if err := s.Serve(); err != nil {
			t.Errorf("Serve: %v", err)
		}
	}()
	t.Cleanup(func() { s.Close() })

	return NewClient(socket), socket
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		line string
		want Command
	}{
		{"/myid", MyID{}},
		{"  /myaddr  ", MyAddr{}},
		{"/peers", Peers{}},
		{"/send a.txt", Send{Path: "a.txt"}},
		{"/send my file.txt", Send{Path: "my file.txt"}},
		{"/send_to 7 b.bin", SendTo{ID: 7, Path: "b.bin"}},
		{"/send_to 7 dir/with space.bin", SendTo{ID: 7, Path: "dir/with space.bin"}},
	}

	for _, tc := range cases {
		got, err := ParseCommand(tc.line)
		if err != nil {
			t.Errorf("ParseCommand(%q): %v", tc.line, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseCommand(%q) = %#v, want %#v", tc.line, got, tc.want)
		}
	}
}

func TestParseCommandErrors(t *testing.T) {
	cases := []struct {
		line string
		want error
	}{
		{"/nope", ErrUnknownCommand},
		{"", ErrUnknownCommand},
		{"/send", ErrMissingArgs},
		{"/send_to 7", ErrMissingArgs},
		{"/send_to", ErrMissingArgs},
	}

	for _, tc := range cases {
		if _, err := ParseCommand(tc.line); !errors.Is(err, tc.want) {
			t.Errorf("ParseCommand(%q) = %v, want %v", tc.line, err, tc.want)
		}
	}

	if _, err := ParseCommand("/send_to abc file"); err == nil {
		t.Error("ParseCommand accepted a non-numeric id")
	}
}

func TestCommandStringRoundTrip(t *testing.T) {
	for _, cmd := range []Command{MyID{}, MyAddr{}, Peers{}, Send{Path: "x y"}, SendTo{ID: 3, Path: "z"}} {
		got, err := ParseCommand(cmd.String())
		if err != nil || got != cmd {
			t.Errorf("ParseCommand(%q) = %#v, %v", cmd.String(), got, err)
		}
	}
}

func TestClientQueries(t *testing.T) {
	node := &fakeNode{}
	cl, _ := startServer(t, node)

	id, err := cl.MyID()
	if err != nil || id != 42 {
		t.Errorf("MyID() = %v, %v; want 42", id, err)
	}

	addr, err := cl.MyAddr()
	if err != nil || addr != netip.MustParseAddrPort("10.0.0.5:25802") {
		t.Errorf("MyAddr() = %v, %v", addr, err)
	}

	ids, ok, err := cl.Peers()
	if err != nil || ok || len(ids) != 0 {
		t.Errorf("Peers() on empty node = %v, %v, %v", ids, ok, err)
	}

	node.mu.Lock()
	node.peers = []protocol.PeerID{1, 2}
	node.mu.Unlock()

	ids, ok, err = cl.Peers()
	if err != nil || !ok || len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Errorf("Peers() = %v, %v, %v; want [1 2]", ids, ok, err)
	}
}

func TestClientSendResolvesPaths(t *testing.T) {
	node := &fakeNode{}
	cl, _ := startServer(t, node)

	if err := cl.Send("rel.txt"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := cl.SendTo(9, "/abs/with space.txt"); err != nil {
		t.Fatalf("SendTo: %v", err)
	}

	node.mu.Lock()
	defer node.mu.Unlock()
	if len(node.sent) != 2 {
		t.Fatalf("node received %d commands, want 2", len(node.sent))
	}

	send := node.sent[0].(Send)
	if !filepath.IsAbs(send.Path) || filepath.Base(send.Path) != "rel.txt" {
		t.Errorf("Send path = %q, want absolute rel.txt", send.Path)
	}
	if node.sent[1] != (SendTo{ID: 9, Path: "/abs/with space.txt"}) {
		t.Errorf("SendTo = %#v", node.sent[1])
	}
}

func TestNodeErrorsAreReported(t *testing.T) {
	node := &fakeNode{err: errors.New("unknown peer: 9")}
	cl, _ := startServer(t, node)

	err := cl.SendTo(9, "/a")
	if err == nil || !strings.Contains(err.Error(), "unknown peer") {
		t.Errorf("SendTo() = %v, want the node's error", err)
	}
}

func TestBadRequests(t *testing.T) {
	cl, _ := startServer(t, &fakeNode{})

	for _, cmd := range []Command{Send{Path: ""}, SendTo{ID: 1, Path: ""}} {
		// Bypass absolutize so the empty path reaches the server.
		uri := cmd.requestURI()
		if _, err := cl.Do(rawCommand(uri)); err == nil || !strings.Contains(err.Error(), "400") {
			t.Errorf("%s: err = %v, want status 400", uri, err)
		}
	}

	if _, err := cl.Do(rawCommand("/send_to?id=abc&path=x")); err == nil || !strings.Contains(err.Error(), "400") {
		t.Errorf("bad id: err = %v, want status 400", err)
	}
	if _, err := cl.Do(rawCommand("/reboot")); err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("unknown path: err = %v, want status 404", err)
	}
}

type rawCommand string

func (r rawCommand) String() string     { return string(r) }
func (r rawCommand) requestURI() string { return string(r) }

func TestListenReplacesStaleSocket(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "ctl.sock")

	ln, err := net.Listen("unix", socket)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	// Leave the file behind without a listener.
	ln.(*net.UnixListener).SetUnlinkOnClose(false)
	ln.Close()

	s := NewServer(&fakeNode{}, socket)
	if err := s.Listen(); err != nil {
		t.Fatalf("Listen over stale socket: %v", err)
	}
	s.Close()

	if _, err := os.Stat(socket); !os.IsNotExist(err) {
		t.Errorf("socket file still exists after Close: %v", err)
	}
}

func TestListenRefusesLiveSocket(t *testing.T) {
	_, socket := startServer(t, &fakeNode{})

	s := NewServer(&fakeNode{}, socket)
	if err := s.Listen(); err == nil {
		s.Close()
		t.Fatal("second server took over a live socket")
	}
}

func TestListenRefusesRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-socket")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := NewServer(&fakeNode{}, path).Listen(); err == nil {
		t.Fatal("Listen replaced a regular file")
	}
}
