/*
Package wire implements the byte-level protocol between an orchestrator and its
remote participants.

A Frame is a (command, payload) pair. On the stream every frame is written as a
4-byte big-endian length followed by the frame bytes:

	[length][command bytes][separator][payload bytes]

The Connector owns one duplex stream and moves whole frames across it.
*/
package wire
