/*
outbound.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

import (
	"context"
	"net"
)

// OutboundServer listens for FreeSWITCH's "socket" dialplan application
// dialing back in, per spec.md section 4.6 (outbound mode). Each
// accepted connection is handed to Handler in its own goroutine, paired
// with the Channel constructed from its initial CHANNEL_DATA frame.
type OutboundServer struct {
	ln      net.Listener
	cfg     Config
	handler func(ctx context.Context, sock *EventSocket, ch *Channel)
}

// ListenOutbound starts accepting outbound connections on addr (e.g.
// ":8084", matching a FreeSWITCH dialplan's socket(host:port) target).
// Accepting starts with Serve; handler runs once per connection, and the
// listener keeps accepting until Serve's ctx is cancelled or Close is
// called.
func ListenOutbound(addr string, cfg Config, handler func(ctx context.Context, sock *EventSocket, ch *Channel)) (*OutboundServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &ConnectionError{Op: "listen", Err: err}
	}
	return &OutboundServer{ln: ln, cfg: cfg, handler: handler}, nil
}

// Close stops accepting new connections.
func (o *OutboundServer) Close() error { return o.ln.Close() }

// Addr returns the listener's bound address.
func (o *OutboundServer) Addr() net.Addr { return o.ln.Addr() }

// Serve accepts connections until ctx is cancelled or the listener is
// closed, running handler for each in its own goroutine.
func (o *OutboundServer) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		o.ln.Close()
	}()
	for {
		conn, err := o.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return &ConnectionError{Op: "accept", Err: err}
			}
		}
		go o.serveOne(ctx, conn)
	}
}

// serveOne performs the outbound handshake on one accepted connection:
// send "connect", read the reply whose headers ARE the originating
// channel's CHANNEL_DATA, run "myevents <uuid>" (no "linger" is sent), then build
// a Channel and hand it to the registered handler, per spec.md section
// 4.6. Grounded on mdigger-esl's outbound connect flow and spec.md's
// module description for the Channel type (no teacher analog: cgrates
// is inbound-only).
func (o *OutboundServer) serveOne(ctx context.Context, conn net.Conn) {
	sock := newEventSocket(conn, o.cfg)
	sock.markAuthed() // outbound connections have no auth/request step
	go sock.run()

	connectCtx, cancel := context.WithTimeout(ctx, sock.cfg.ResponseTimeout)
	reply, err := sock.SendCommand(connectCtx, "connect")
	cancel()
	if err != nil {
		sock.fail(err)
		return
	}

	frame := &Frame{Headers: newOrderedHeaders()}
	for _, k := range reply.headerKeys() {
		frame.Headers.Set(k, reply.Headers[k])
	}
	channelData := NewEventMessage(frame)

	myeventsCtx, cancel := context.WithTimeout(ctx, sock.cfg.ResponseTimeout)
	_, err = sock.SendCommand(myeventsCtx, "myevents "+channelData.UUID())
	cancel()
	if err != nil {
		sock.fail(err)
		return
	}

	ch := newChannel(sock, channelData)
	if o.handler != nil {
		o.handler(ctx, sock, ch)
	}
}

// headerKeys is a small adapter: CommandReply.Headers is an unordered
// map (spec.md doesn't require order preservation post-decode), but
// NewEventMessage needs an orderedHeaders to build from. Order doesn't
// matter for channel-data reconstruction since every lookup is by name.
func (r *CommandReply) headerKeys() []string {
	keys := make([]string, 0, len(r.Headers))
	for k := range r.Headers {
		keys = append(keys, k)
	}
	return keys
}
