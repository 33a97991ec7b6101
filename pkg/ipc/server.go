package ipc

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"tarun-kavipurapu/lanshare/pkg/logger"
	"tarun-kavipurapu/lanshare/pkg/protocol"
)

// Node is the part of a running peer the control API drives.
type Node interface {
	GetMyID() protocol.PeerID
	GetMyAddress() protocol.PeerAddress
	ListPeers() ([]protocol.PeerID, bool)
	SendFile(path string) error
	SendFileTo(id protocol.PeerID, path string) error
}

// Server exposes a Node over HTTP on a unix socket.
type Server struct {
	node       Node
	socketPath string

	srv *fasthttp.Server
	ln  net.Listener
}

func NewServer(node Node, socketPath string) *Server {
	s := &Server{
		node:       node,
		socketPath: socketPath,
	}
	s.srv = &fasthttp.Server{
		Name:    "lanshare",
		Handler: s.handler,
	}
	return s
}

// Listen creates the socket. A socket file left behind by a dead daemon is
// replaced; one that still accepts connections is an error.
func (s *Server) Listen() error {
	if err := removeStaleSocket(s.socketPath); err != nil {
		return err
	}

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.socketPath, err)
	}
	s.ln = ln

	logger.Sugar.Infof("[IPC] control API listening on %s", s.socketPath)
	return nil
}

func removeStaleSocket(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}

	if info.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("%s exists and is not a socket", path)
	}

	if conn, err := net.DialTimeout("unix", path, 100*time.Millisecond); err == nil {
		conn.Close()
		return fmt.Errorf("another instance is already listening on %s", path)
	}

	logger.Sugar.Warnf("[IPC] removing stale socket %s", path)
	return os.Remove(path)
}

// Serve handles requests until Close.
func (s *Server) Serve() error {
	if s.ln == nil {
		return errors.New("control API is not listening")
	}

	err := s.srv.Serve(s.ln)
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// Close stops accepting requests and removes the socket file.
func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}

	err := s.ln.Close()
	if rmErr := os.Remove(s.socketPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
		err = rmErr
	}
	return err
}

func (s *Server) handler(ctx *fasthttp.RequestCtx) {
	cmd, err := commandFromRequest(ctx)
	if err != nil {
		if errors.Is(err, ErrUnknownCommand) {
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		} else {
			ctx.SetStatusCode(fasthttp.StatusBadRequest)
		}
		ctx.WriteString(err.Error())
		return
	}

	logger.Sugar.Debugf("[IPC] %s", cmd)

	resp, err := Execute(s.node, cmd)
	if err != nil {
		logger.Sugar.Errorf("[IPC] %s failed: %v", cmd, err)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.WriteString(err.Error())
		return
	}
	ctx.WriteString(resp)
}

func commandFromRequest(ctx *fasthttp.RequestCtx) (Command, error) {
	args := ctx.QueryArgs()

	switch string(ctx.Path()) {
	case pathMyID:
		return MyID{}, nil
	case pathMyAddr:
		return MyAddr{}, nil
	case pathPeers:
		return Peers{}, nil
	case pathSend:
		path := string(args.Peek("path"))
		if path == "" {
			return nil, errors.New("bad `path` GET param: file path must be provided")
		}
		return Send{Path: path}, nil
	case pathSendTo:
		id, err := protocol.ParsePeerID(string(args.Peek("id")))
		if err != nil {
			return nil, fmt.Errorf("bad `id` GET param: %v", err)
		}
		path := string(args.Peek("path"))
		if path == "" {
			return nil, errors.New("bad `path` GET param: file path must be provided")
		}
		return SendTo{ID: id, Path: path}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, ctx.Path())
	}
}

// Execute runs cmd against node and renders the reply the way the control
// API returns it.
func Execute(node Node, cmd Command) (string, error) {
	switch c := cmd.(type) {
	case MyID:
		return node.GetMyID().String(), nil
	case MyAddr:
		return node.GetMyAddress().String(), nil
	case Peers:
		ids, ok := node.ListPeers()
		if !ok {
			return "", nil
		}
		lines := make([]string, len(ids))
		for i, id := range ids {
			lines[i] = id.String()
		}
		return strings.Join(lines, "\n"), nil
	case Send:
		if err := node.SendFile(c.Path); err != nil {
			return "", err
		}
		return "ok", nil
	case SendTo:
		if err := node.SendFileTo(c.ID, c.Path); err != nil {
			return "", err
		}
		return "ok", nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
}
