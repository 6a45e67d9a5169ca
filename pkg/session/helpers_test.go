package session_test

import (
	"net"

	"github.com/aretw0/arbiter/pkg/wire"
)

func wireConnectors(a, b net.Conn) (*wire.Connector, *wire.Connector) {
	return wire.NewConnector(a), wire.NewConnector(b)
}
