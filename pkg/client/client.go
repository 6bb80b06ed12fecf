package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/dougsko/trx8/pkg/protocol"
)

// SocketClient represents a client connection to the core engine
type SocketClient struct {
	socketPath string
	timeout    time.Duration
}

// NewSocketClient creates a new socket client
func NewSocketClient(socketPath string) *SocketClient {
	return &SocketClient{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// SendCommand sends a command and returns the response
func (c *SocketClient) SendCommand(cmd string) (*protocol.Response, error) {
	// Connect to Unix socket
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to socket: %w", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	if _, err := conn.Write([]byte(cmd + "\n")); err != nil {
		return nil, fmt.Errorf("send error: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read error: %w", err)
		}
		return nil, fmt.Errorf("no response received")
	}

	var response protocol.Response
	if err := json.Unmarshal(scanner.Bytes(), &response); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	return &response, nil
}

// call sends cmd and turns an unsuccessful response into an error
func (c *SocketClient) call(what, cmd string) (*protocol.Response, error) {
	resp, err := c.SendCommand(cmd)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%s error: %s", what, resp.Error)
	}
	return resp, nil
}

// GetStatus gets the current radio status
func (c *SocketClient) GetStatus() (*protocol.Status, error) {
	resp, err := c.call("status", protocol.CmdStatus)
	if err != nil {
		return nil, err
	}

	var status protocol.Status
	if err := resp.Decode("status", &status); err != nil {
		return nil, fmt.Errorf("failed to parse status: %w", err)
	}
	return &status, nil
}

// GetBands gets the band table
func (c *SocketClient) GetBands() ([]protocol.Band, error) {
	resp, err := c.call("bands", protocol.CmdBands)
	if err != nil {
		return nil, err
	}

	var bands []protocol.Band
	if err := resp.Decode("bands", &bands); err != nil {
		return nil, fmt.Errorf("failed to parse bands: %w", err)
	}
	return bands, nil
}

// PressKey queues a front panel key code (0..11) and returns the command it
// is expected to trigger
func (c *SocketClient) PressKey(code int) (string, error) {
	resp, err := c.call("key", fmt.Sprintf("%s:%d", protocol.CmdKey, code))
	if err != nil {
		return "", err
	}

	command, _ := resp.Data["command"].(string)
	return command, nil
}

// Tune simulates pulses encoder edges in direction (-1 or 1)
func (c *SocketClient) Tune(pulses int64, direction int) error {
	_, err := c.call("tune", fmt.Sprintf("%s:%d:%d", protocol.CmdTune, pulses, direction))
	return err
}

// Save persists every VFO frequency
func (c *SocketClient) Save() error {
	_, err := c.call("save", protocol.CmdSave)
	return err
}

// Ping tests the connection
func (c *SocketClient) Ping() error {
	_, err := c.call("ping", protocol.CmdPing)
	return err
}

// IsConnected tests if the daemon is reachable
func (c *SocketClient) IsConnected() bool {
	return c.Ping() == nil
}
