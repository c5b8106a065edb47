/*
Package ports defines the driven ports (interfaces) of the Buddy relay.

These interfaces decouple the dispatch pipeline from concrete transports and storage,
allowing the same core to run in one process (in-memory relay) or split across processes
(Redis relay).

# Key Interfaces

  - RelayQueue: FIFO carrying transform results from producers to the display consumer.
  - Dispatcher: Turns a payload into a relayed result and an acknowledgement.
  - DistributedLocker: Keeps a shared relay down to one display consumer.
*/
package ports
