/*
Package dispatch maps an action to its transform and acknowledgement, and relays the result.

The mapping is a table indexed by domain.ActionID whose length is checked against
domain.ActionCount at compile time, so adding an action without a route fails the build.

# Usage

	d := dispatch.New(queue, dispatch.WithLogger(logger))
	result, status := d.Dispatch(ctx, domain.NewPayload("summarizePage", text, html))
*/
package dispatch
