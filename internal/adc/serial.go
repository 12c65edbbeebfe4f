package adc

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"

	"go.bug.st/serial"

	"github.com/pglab/photogate-daq/internal/packet"
)

// DefaultBaudRate is the standard baud rate of the ADC front-end firmware.
const DefaultBaudRate = 115200

// SerialReader reads scans from a serial-attached ADC front-end.
//
// The firmware emits one line per conversion cycle, six comma-separated
// decimal counts: "4095,4010,3998,120,4088,4001\n". A background goroutine
// parses lines as they arrive and keeps the most recent scan; ReadAll hands
// out that latest scan so the acquisition loop never blocks on the wire.
type SerialReader struct {
	conn serial.Port
	done chan struct{}

	mu      sync.Mutex
	scan    Scan
	have    bool
	readErr error
}

// NewSerialReader opens the given port and starts the background line
// reader. A baudRate of 0 uses DefaultBaudRate.
func NewSerialReader(portName string, baudRate int) (*SerialReader, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	conn, err := serial.Open(portName, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}

	r := &SerialReader{
		conn: conn,
		done: make(chan struct{}),
	}
	go r.readLines(conn)

	return r, nil
}

// ReadAll returns the most recent scan received from the front-end.
// Returns an error until the first complete line has arrived, and again
// once the stream has died: handing out the frozen last scan under fresh
// timestamps would silently corrupt timing data.
func (r *SerialReader) ReadAll() (Scan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.readErr != nil {
		return Scan{}, r.readErr
	}
	if !r.have {
		return Scan{}, fmt.Errorf("no data received yet")
	}
	return r.scan, nil
}

// Close stops the background reader and closes the port.
func (r *SerialReader) Close() error {
	if err := r.conn.Close(); err != nil {
		return fmt.Errorf("close serial port: %w", err)
	}
	<-r.done
	return nil
}

// readLines consumes lines from src until the stream fails or is closed.
// Unparseable lines are logged and dropped; partial start-up lines are
// common after a mid-stream attach, so the first drop is expected. On
// exit the stream error is latched so ReadAll stops serving stale data.
func (r *SerialReader) readLines(src io.Reader) {
	defer close(r.done)

	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		scan, err := parseLine(scanner.Text())
		if err != nil {
			log.Printf("adc: dropping line: %v", err)
			continue
		}

		r.mu.Lock()
		r.scan = scan
		r.have = true
		r.mu.Unlock()
	}

	err := scanner.Err()
	if err != nil {
		err = fmt.Errorf("serial stream: %w", err)
		log.Printf("adc: serial read stopped: %v", err)
	} else {
		err = fmt.Errorf("serial stream closed")
	}

	r.mu.Lock()
	r.readErr = err
	r.mu.Unlock()
}

// parseLine converts one firmware line into a scan.
func parseLine(line string) (Scan, error) {
	var scan Scan

	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != packet.NumChannels {
		return scan, fmt.Errorf("expected %d fields, got %d in %q", packet.NumChannels, len(fields), line)
	}

	for i, f := range fields {
		v, err := strconv.ParseUint(strings.TrimSpace(f), 10, 16)
		if err != nil {
			return scan, fmt.Errorf("field %d of %q: %w", i, line, err)
		}
		scan[i] = uint16(v)
	}

	return scan, nil
}
