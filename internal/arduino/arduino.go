package arduino

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/fanctld/fanctld/internal/configuration"
	"github.com/fanctld/fanctld/internal/ui"
	cmap "github.com/orcaman/concurrent-map/v2"
	"go.bug.st/serial"
)

// SetPwmMarker starts every host to board command frame. The frame is
// three bytes: marker, PWM pin, PWM value.
const SetPwmMarker = 0xF1

// ConnectionMap contains the link to every configured board, keyed by id.
var ConnectionMap = cmap.New[Link]()

// Link is the host side of one Arduino board running the fan firmware.
type Link interface {
	GetId() string

	GetConfig() configuration.ArduinoConfig

	// Connect opens the serial port and starts the status reader. It is a
	// no-op when the connection is already open.
	Connect() error

	IsConnected() bool

	Close()

	// SetPwm commands the given PWM value on the given pin, reconnecting
	// first if necessary. The board reflects the applied value in its next
	// status message.
	SetPwm(pin int, pwm int) error

	// GetRpm returns the most recent RPM measured on the given tacho pin.
	// It fails when no status has arrived yet or the last one is older
	// than the status ttl.
	GetRpm(pin int) (int, error)

	// GetPwm returns the PWM value the board reports for the given pin,
	// subject to the same freshness rules as GetRpm.
	GetPwm(pin int) (int, error)

	// StatusAge returns the seconds since the last status message, or NaN
	// if none has arrived yet.
	StatusAge() float64

	// WaitForStatus blocks until the next status message arrives or the
	// timeout expires. Meant for interactive use, the control loop never
	// waits on a board.
	WaitForStatus(timeout time.Duration) error
}

// boardStatus is one decoded status line. The firmware keys both maps by
// the decimal pin number.
type boardStatus struct {
	FanInputs map[string]int `json:"fan_inputs"`
	FanPwm    map[string]int `json:"fan_pwm"`
}

type Connection struct {
	Config configuration.ArduinoConfig

	// dial opens the serial connection, swappable for tests
	dial func() (io.ReadWriteCloser, error)

	mu           sync.Mutex
	port         io.ReadWriteCloser
	generation   int
	status       *boardStatus
	statusTime   time.Time
	statusSignal chan struct{}
}

func NewConnection(config configuration.ArduinoConfig) *Connection {
	return &Connection{
		Config: config,
		dial: func() (io.ReadWriteCloser, error) {
			mode := &serial.Mode{
				BaudRate: config.Baud(),
				DataBits: 8,
				Parity:   serial.NoParity,
				StopBits: serial.OneStopBit,
			}
			return serial.Open(config.SerialUrl, mode)
		},
		statusSignal: make(chan struct{}),
	}
}

func (c *Connection) GetId() string {
	return c.Config.ID
}

func (c *Connection) GetConfig() configuration.ArduinoConfig {
	return c.Config
}

func (c *Connection) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked()
}

func (c *Connection) connectLocked() error {
	if c.port != nil {
		return nil
	}
	port, err := c.dial()
	if err != nil {
		return fmt.Errorf("unable to open %s: %s", c.Config.SerialUrl, err.Error())
	}
	c.port = port
	c.generation++
	go c.readLoop(port, c.generation)
	return nil
}

func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port != nil
}

func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

// closeLocked drops the connection. The last received status is kept, it
// expires on its own through the status ttl.
func (c *Connection) closeLocked() {
	if c.port == nil {
		return
	}
	_ = c.port.Close()
	c.port = nil
}

func (c *Connection) SetPwm(pin int, pwm int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(); err != nil {
		return err
	}
	frame := []byte{SetPwmMarker, byte(pin), byte(pwm)}
	if _, err := c.port.Write(frame); err != nil {
		c.closeLocked()
		return fmt.Errorf("unable to write to %s: %s", c.Config.SerialUrl, err.Error())
	}
	return nil
}

func (c *Connection) GetRpm(pin int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status, err := c.freshStatusLocked()
	if err != nil {
		return 0, err
	}
	rpm, ok := status.FanInputs[strconv.Itoa(pin)]
	if !ok {
		return 0, fmt.Errorf("board %s does not report pin %d", c.Config.SerialUrl, pin)
	}
	return rpm, nil
}

func (c *Connection) GetPwm(pin int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status, err := c.freshStatusLocked()
	if err != nil {
		return 0, err
	}
	pwm, ok := status.FanPwm[strconv.Itoa(pin)]
	if !ok {
		return 0, fmt.Errorf("board %s does not report pin %d", c.Config.SerialUrl, pin)
	}
	return pwm, nil
}

func (c *Connection) freshStatusLocked() (*boardStatus, error) {
	if c.status == nil {
		return nil, fmt.Errorf("no status from the board at %s yet", c.Config.SerialUrl)
	}
	age := time.Since(c.statusTime)
	if age > c.Config.Ttl() {
		return nil, fmt.Errorf("the last status from the board at %s is too old: %s", c.Config.SerialUrl, age)
	}
	return c.status, nil
}

func (c *Connection) StatusAge() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == nil {
		return math.NaN()
	}
	return time.Since(c.statusTime).Seconds()
}

func (c *Connection) WaitForStatus(timeout time.Duration) error {
	c.mu.Lock()
	signal := c.statusSignal
	c.mu.Unlock()

	select {
	case <-signal:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timed out waiting for a status from the board at %s", c.Config.SerialUrl)
	}
}

func (c *Connection) readLoop(port io.ReadWriteCloser, generation int) {
	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := c.handleLine(line); err != nil {
			ui.Error("Unable to decode status line from Arduino %s: %v", c.Config.SerialUrl, err)
			break
		}
	}
	if err := scanner.Err(); err != nil {
		ui.Warning("Lost connection to Arduino %s: %v", c.Config.SerialUrl, err)
	}
	// read failure or an undecodable line, drop the connection so the
	// next tick reopens it from a clean state
	c.mu.Lock()
	if c.generation == generation {
		c.closeLocked()
	}
	c.mu.Unlock()
}

func (c *Connection) handleLine(line []byte) error {
	var message map[string]json.RawMessage
	if err := json.Unmarshal(line, &message); err != nil {
		return err
	}
	if errValue, ok := message["error"]; ok {
		ui.Warning("Received an error from Arduino %s: %s", c.Config.SerialUrl, string(errValue))
		return nil
	}

	var status boardStatus
	if err := json.Unmarshal(line, &status); err != nil {
		return err
	}

	c.mu.Lock()
	c.status = &status
	c.statusTime = time.Now()
	close(c.statusSignal)
	c.statusSignal = make(chan struct{})
	c.mu.Unlock()
	return nil
}
