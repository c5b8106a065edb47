/*
Package buddy relays text from a browser extension to a local display.

The extension posts an action and some text (or the page markup) to the HTTP ingress. The
dispatcher picks a transform for the action (summary, link extraction, a translation stub or
identity), pushes the result onto the relay queue and answers with a short acknowledgement.
A single display consumer polls the queue on a fixed interval and shows one result per tick,
replacing whatever it showed before.

# Architecture

The core is hexagonal:

  - pkg/domain: actions, payloads and lifecycle hooks.
  - pkg/transform: the pure text transforms.
  - pkg/dispatch: the action router.
  - pkg/ports: the RelayQueue and Dispatcher interfaces.
  - pkg/adapters: HTTP and MCP ingress; in-memory and Redis relay queues.
  - pkg/display: the polling consumer and its output surfaces.

App wires them for one process. With the redis backend the ingress (buddy serve) and the
display (buddy display) can run as separate processes sharing one list.

# Usage

	cfg := config.Default()
	app, err := buddy.New(ctx, cfg, buddy.WithSurface(display.NewWriterSurface(os.Stdout)))
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	ln, err := app.Listen()
	if err != nil {
		log.Fatal(err)
	}
	// Blocks until ctx is cancelled.
	if err := app.Run(ctx, ln); err != nil {
		log.Fatal(err)
	}
*/
package buddy
