package netutil

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
)

type connMetrics struct {
	readCalls    *metrics.Counter
	readBytes    *metrics.Counter
	readErrors   *metrics.Counter
	readTimeouts *metrics.Counter

	writeCalls    *metrics.Counter
	writtenBytes  *metrics.Counter
	writeErrors   *metrics.Counter
	writeTimeouts *metrics.Counter

	closeErrors *metrics.Counter

	conns *metrics.Counter
}

func (cm *connMetrics) init(name, addr string) {
	cm.readCalls = metrics.NewCounter(fmt.Sprintf(`pagetrack_tcplistener_read_calls_total{name=%q, addr=%q}`, name, addr))
	cm.readBytes = metrics.NewCounter(fmt.Sprintf(`pagetrack_tcplistener_read_bytes_total{name=%q, addr=%q}`, name, addr))
	cm.readErrors = metrics.NewCounter(fmt.Sprintf(`pagetrack_tcplistener_errors_total{name=%q, addr=%q, type="read"}`, name, addr))
	cm.readTimeouts = metrics.NewCounter(fmt.Sprintf(`pagetrack_tcplistener_read_timeouts_total{name=%q, addr=%q}`, name, addr))

	cm.writeCalls = metrics.NewCounter(fmt.Sprintf(`pagetrack_tcplistener_write_calls_total{name=%q, addr=%q}`, name, addr))
	cm.writtenBytes = metrics.NewCounter(fmt.Sprintf(`pagetrack_tcplistener_written_bytes_total{name=%q, addr=%q}`, name, addr))
	cm.writeErrors = metrics.NewCounter(fmt.Sprintf(`pagetrack_tcplistener_errors_total{name=%q, addr=%q, type="write"}`, name, addr))
	cm.writeTimeouts = metrics.NewCounter(fmt.Sprintf(`pagetrack_tcplistener_write_timeouts_total{name=%q, addr=%q}`, name, addr))

	cm.closeErrors = metrics.NewCounter(fmt.Sprintf(`pagetrack_tcplistener_errors_total{name=%q, addr=%q, type="close"}`, name, addr))

	cm.conns = metrics.NewCounter(fmt.Sprintf(`pagetrack_tcplistener_conns{name=%q, addr=%q}`, name, addr))
}

type statConn struct {
	closeCalls atomic.Uint64

	net.Conn

	cm *connMetrics
}

func (sc *statConn) Read(p []byte) (int, error) {
	n, err := sc.Conn.Read(p)
	sc.cm.readCalls.Inc()
	sc.cm.readBytes.Add(n)
	if err != nil && err != io.EOF {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			sc.cm.readTimeouts.Inc()
		} else {
			sc.cm.readErrors.Inc()
		}
	}
	return n, err
}

func (sc *statConn) Write(p []byte) (int, error) {
	n, err := sc.Conn.Write(p)
	sc.cm.writeCalls.Inc()
	sc.cm.writtenBytes.Add(n)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			sc.cm.writeTimeouts.Inc()
		} else {
			sc.cm.writeErrors.Inc()
		}
	}
	return n, err
}

func (sc *statConn) Close() error {
	if sc.closeCalls.Add(1) > 1 {
		// The connection has been already closed.
		return nil
	}
	err := sc.Conn.Close()
	sc.cm.conns.Dec()
	if err != nil {
		sc.cm.closeErrors.Inc()
	}
	return err
}
