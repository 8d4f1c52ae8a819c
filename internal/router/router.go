// Package router wires the transport, id mapper, and interceptor pipeline
// into the two concurrent forwarding loops that make up the proxy's core
// loop (spec.md §4.F, §5).
package router

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/firi/roslyn-lsp-proxy/internal/idmap"
	"github.com/firi/roslyn-lsp-proxy/internal/pipeline"
	"github.com/firi/roslyn-lsp-proxy/internal/protocol"
	"github.com/firi/roslyn-lsp-proxy/internal/transport"
)

// Router owns both framed connections and runs the client->server and
// server->client forwarding loops concurrently, joining them with an
// errgroup so either side's clean shutdown or error ends the whole proxy.
type Router struct {
	clientReader *transport.Reader
	clientWriter *transport.Writer
	serverReader *transport.Reader
	// serverWriter is shared by both loops (the client->server loop forwards
	// requests, the server->client loop writes middleware-injected requests
	// and locally-answered responses back to the server); transport.Writer
	// already serializes its own writes, so no extra lock is needed here.
	serverWriter *transport.Writer

	ids      *idmap.Mapper
	pipeline *pipeline.Pipeline
	log      *slog.Logger
}

// New builds a Router over already-opened client and server pipes.
func New(clientReader *transport.Reader, clientWriter *transport.Writer,
	serverReader *transport.Reader, serverWriter *transport.Writer,
	p *pipeline.Pipeline, log *slog.Logger) *Router {
	return &Router{
		clientReader: clientReader,
		clientWriter: clientWriter,
		serverReader: serverReader,
		serverWriter: serverWriter,
		ids:          idmap.New(),
		pipeline:     p,
		log:          log,
	}
}

// Run starts both forwarding loops and blocks until one of them returns,
// either because its peer closed the connection (nil error) or because of
// an unrecoverable I/O error. It then cancels the other loop's context and
// returns the first loop's error, if any. The other loop checks its context
// between messages, so it stops once its current read returns.
func (r *Router) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)
	first := make(chan error, 2)

	g.Go(func() error {
		err := r.routeClientToServer(gCtx)
		first <- err
		return err
	})
	g.Go(func() error {
		err := r.routeServerToClient(gCtx)
		first <- err
		return err
	})

	return <-first
}

func (r *Router) routeClientToServer(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		msg, err := r.clientReader.ReadMessage()
		if err != nil {
			if err == transport.ErrNoMoreMessages {
				r.log.Info("client connection closed")
				return nil
			}
			return fmt.Errorf("read from client: %w", err)
		}

		r.log.Debug("client -> server", "method", msg.Method())

		result := r.pipeline.ProcessClient(msg)

		if result.Blocked {
			r.log.Debug("message blocked by interceptor", "direction", "client->server", "method", msg.Method())
			if err := r.writeInjected(result.Injected, r.serverWriter.WriteMessage); err != nil {
				return err
			}
			continue
		}

		forwarded := r.mapClientMessage(result.Message)

		// Injected messages go out before the triggering message, so e.g. a
		// synthesized didOpen lands before the request that needed it.
		if err := r.writeInjected(result.Injected, r.serverWriter.WriteMessage); err != nil {
			return err
		}
		if err := r.serverWriter.WriteMessage(forwarded); err != nil {
			return fmt.Errorf("write to server: %w", err)
		}
	}
}

func (r *Router) routeServerToClient(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		msg, err := r.serverReader.ReadMessage()
		if err != nil {
			if err == transport.ErrNoMoreMessages {
				r.log.Info("server connection closed")
				return nil
			}
			return fmt.Errorf("read from server: %w", err)
		}

		r.log.Debug("server -> client", "method", msg.Method())

		result := r.pipeline.ProcessServer(msg)

		if result.Blocked {
			r.log.Debug("message blocked by interceptor", "direction", "server->client", "method", msg.Method())
			if err := r.writeInjected(result.Injected, r.serverWriter.WriteMessage); err != nil {
				return err
			}
			continue
		}

		// Any messages an interceptor injects on this path are server-bound
		// (e.g. a restore request or a replayed didOpen) regardless of the
		// current message's own destination.
		if err := r.writeInjected(result.Injected, r.serverWriter.WriteMessage); err != nil {
			return err
		}

		// An interceptor may have answered a server Request locally by
		// replacing it with a Response (e.g. capability registration);
		// that response is addressed to the server, not the client.
		if msg.Request != nil && result.Message.Response != nil {
			if err := r.serverWriter.WriteMessage(result.Message); err != nil {
				return fmt.Errorf("write locally-answered response to server: %w", err)
			}
			continue
		}

		forwarded, ok := r.unmapServerMessage(result.Message)
		if !ok {
			r.log.Warn("skipping response with unknown server id", "id", idString(result.Message))
			continue
		}

		if err := r.clientWriter.WriteMessage(forwarded); err != nil {
			return fmt.Errorf("write to client: %w", err)
		}
	}
}

func (r *Router) writeInjected(msgs []protocol.Message, write func(protocol.Message) error) error {
	for _, m := range msgs {
		if err := write(m); err != nil {
			return fmt.Errorf("write injected message: %w", err)
		}
	}
	return nil
}

// mapClientMessage rewrites a client Request's id into the proxy's private
// server-facing id space, so ids the proxy itself generates for injected
// requests never collide with the client's own id sequence.
func (r *Router) mapClientMessage(msg protocol.Message) protocol.Message {
	if msg.Request == nil {
		return msg
	}
	mapped := *msg.Request
	mapped.ID = r.ids.MapClientID(mapped.ID)
	return protocol.NewRequestMessage(mapped)
}

// unmapServerMessage reverses mapClientMessage for a Response, restoring
// the client's original id. Non-Response messages pass through unchanged.
func (r *Router) unmapServerMessage(msg protocol.Message) (protocol.Message, bool) {
	if msg.Response == nil {
		return msg, true
	}
	clientID, ok := r.ids.GetClientID(msg.Response.ID)
	if !ok {
		return protocol.Message{}, false
	}
	r.ids.Remove(msg.Response.ID)

	mapped := *msg.Response
	mapped.ID = clientID
	return protocol.NewResponseMessage(mapped), true
}

func idString(msg protocol.Message) string {
	id, ok := msg.ID()
	if !ok {
		return ""
	}
	return id.String()
}
