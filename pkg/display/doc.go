/*
Package display drains the relay into a single visible surface.

A Consumer polls the relay at a fixed interval and takes at most one item per tick. Each
item replaces the whole display state; nothing is kept from earlier items. When producers
outpace the interval, items are shown one per tick in FIFO order, so an item may be visible
for a single tick before being overwritten.

Run drives the loop with a ticker for headless use. The TUI drives Tick from its own
tea.Tick loop instead.
*/
package display
