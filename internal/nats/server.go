package nats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/tilegrid/internal/logger"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// portFile is written next to the JetStream store by the primary process so
// other tilegrid processes on the same data directory can join it.
const portFile = "server.port"

// StartEmbeddedNATS starts an embedded NATS server with JetStream enabled
// using the specified data directory for file-based storage. The server
// listens on a random loopback port, which is returned and recorded in the
// data directory.
func StartEmbeddedNATS(dataDir string) (*server.Server, int, error) {
	logger.Debug("Starting embedded NATS server with data dir: %s", dataDir)

	opts := &server.Options{
		JetStream: true,
		StoreDir:  dataDir,
		Host:      "127.0.0.1",
		Port:      server.RANDOM_PORT,
		NoLog:     true,
		NoSigs:    true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		logger.Error("Failed to create NATS server: %v", err)
		return nil, 0, err
	}

	go ns.Start()

	logger.Debug("Waiting for NATS server to be ready...")
	if !ns.ReadyForConnections(4 * time.Second) {
		logger.Error("NATS server failed to start within 4s timeout")
		ns.Shutdown()
		return nil, 0, errors.New("nats server failed to start within timeout")
	}

	port := 0
	if addr := ns.Addr(); addr != nil {
		port = portFromAddr(addr.String())
	}
	if port > 0 {
		if err := os.WriteFile(filepath.Join(dataDir, portFile), []byte(strconv.Itoa(port)), 0644); err != nil {
			logger.Warn("Failed to write NATS port file: %v", err)
		}
	}

	logger.Debug("NATS server ready on port %d", port)
	return ns, port, nil
}

// TryConnectExisting connects to a primary tilegrid process already serving
// dataDir. Returns nil if none is reachable.
func TryConnectExisting(dataDir string) *nats.Conn {
	data, err := os.ReadFile(filepath.Join(dataDir, portFile))
	if err != nil {
		return nil
	}
	port, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || port <= 0 {
		return nil
	}
	nc, err := ConnectToPort(port)
	if err != nil {
		logger.Debug("Stale NATS port file (port %d): %v", port, err)
		return nil
	}
	return nc
}

// ConnectToPort connects to a NATS server on a loopback port.
func ConnectToPort(port int) (*nats.Conn, error) {
	url := fmt.Sprintf("nats://127.0.0.1:%d", port)
	nc, err := nats.Connect(url, nats.Timeout(time.Second), nats.Name("tilegrid"))
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", url, err)
	}
	return nc, nil
}

// ConnectInProcess creates an in-process connection to the embedded NATS server.
func ConnectInProcess(ns *server.Server) (*nats.Conn, error) {
	logger.Debug("Connecting to NATS server in-process")
	conn, err := nats.Connect("", nats.InProcessServer(ns))
	if err != nil {
		logger.Error("Failed to connect to NATS in-process: %v", err)
		return nil, err
	}
	return conn, nil
}

// CreateJetStream creates a JetStream context from a NATS connection.
func CreateJetStream(nc *nats.Conn) (jetstream.JetStream, error) {
	return jetstream.New(nc)
}

// Shutdown drains the connection and, when ns is non-nil, shuts the server
// down and removes its port file.
func Shutdown(nc *nats.Conn, ns *server.Server, dataDir string) error {
	logger.Debug("Starting NATS shutdown")

	if nc != nil {
		drainDone := make(chan error, 1)
		go func() {
			drainDone <- nc.Drain()
		}()

		select {
		case err := <-drainDone:
			if err != nil {
				logger.Warn("NATS drain failed, forcing close: %v", err)
				nc.Close()
			}
		case <-time.After(2 * time.Second):
			logger.Warn("NATS drain timed out after 2s, forcing close")
			nc.Close()
		}
	}

	if ns == nil {
		return nil
	}

	if dataDir != "" {
		_ = os.Remove(filepath.Join(dataDir, portFile))
	}

	ns.Shutdown()
	shutdownDone := make(chan struct{})
	go func() {
		ns.WaitForShutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		logger.Debug("NATS server shut down cleanly")
		return nil
	case <-time.After(5 * time.Second):
		logger.Error("NATS server shutdown timed out after 5s")
		return errors.New("NATS server shutdown timed out")
	}
}

func portFromAddr(addr string) int {
	i := strings.LastIndex(addr, ":")
	if i < 0 {
		return 0
	}
	port, err := strconv.Atoi(addr[i+1:])
	if err != nil {
		return 0
	}
	return port
}
