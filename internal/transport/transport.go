// Package transport binds each configured agent to a UDP socket, decodes
// inbound SNMP packets, resolves the community string to the Agent
// Assembler's context (spec §6's `<community>@<vlan>` convention), and
// hands the decoded packet to internal/wire for an answer. It owns no
// SNMP semantics of its own — internal/engine/simulator.go's listener
// loop and socket tuning are the model this package generalizes from a
// fixed per-device port scheme to one port per configured agent. Unlike
// that listener, each AgentServer splits reading from answering: one
// goroutine reads the socket and a fixed pool of workerPoolSize goroutines
// decode and answer concurrently, per spec §5's per-agent worker pool.
package transport

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/snmpfleet/snmpsim/internal/assembler"
	"github.com/snmpfleet/snmpsim/internal/metrics"
	"github.com/snmpfleet/snmpsim/internal/routing"
	"github.com/snmpfleet/snmpsim/internal/v3"
	"github.com/snmpfleet/snmpsim/internal/wire"
)

// readTimeout bounds each ReadFromUDP call so Stop can unblock listener
// goroutines without relying on a platform-specific cancelable read.
const readTimeout = time.Second

// packetBufferSize matches the teacher's packet pool allocation: large
// enough for any realistic SNMP datagram without fragmenting UDP.
const packetBufferSize = 64 * 1024

// workerPoolSize is spec §5's fixed per-agent worker pool: one goroutine
// reads datagrams off the socket, and workerPoolSize goroutines pull from
// the resulting job queue to decode/answer them concurrently. The
// teacher's own internal/engine/simulator.go:handleListener answers
// inline on the read goroutine; this package diverges from that on
// purpose to give each agent the concurrent handler pool the spec calls
// for, rather than serializing every PDU behind one goroutine.
const workerPoolSize = 3

// jobQueueSize bounds how many decoded-but-not-yet-answered datagrams may
// queue up when all workerPoolSize workers are busy, so a burst of
// traffic backs up rather than blocking the read loop indefinitely.
const jobQueueSize = 32

// job is one inbound datagram handed from the read loop to a worker.
type job struct {
	data   []byte
	remote *net.UDPAddr
}

// AgentServer answers SNMP requests for one assembled Agent on one UDP
// socket.
type AgentServer struct {
	agent *assembler.Agent
	resp  *wire.Responder
	v3    *v3.Session
	addr  string
	port  int

	router   *routing.Router
	datasets map[string]*wire.Responder

	jobs chan job

	mu     sync.Mutex
	conn   *net.UDPConn
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewAgentServer builds a server for agent, listening on addr:port.
func NewAgentServer(agentEntry *assembler.Agent, addr string, port int) *AgentServer {
	return &AgentServer{
		agent: agentEntry,
		resp:  wire.NewResponder(agentEntry.Registry),
		addr:  addr,
		port:  port,
	}
}

// WithV3 attaches an SNMPv3 USM session, enabling this server to decode
// and answer authenticated/encrypted v3 requests alongside v1/v2c.
func (s *AgentServer) WithV3(session *v3.Session) *AgentServer {
	s.v3 = session
	return s
}

// WithMetrics attaches a metrics.Metrics to this server's Responder,
// labeling every recorded PDU/failure with agentName.
func (s *AgentServer) WithMetrics(agentName string, m *metrics.Metrics) *AgentServer {
	s.resp.WithMetrics(agentName, m)
	return s
}

// WithRouting attaches a dataset Router and the alternate Responders it
// may select between, keyed by the same dataset path the Router's rules
// name. A request whose community/context/engineID/source/destination
// match a rule is answered from the matching dataset instead of this
// server's default Responder; an unmatched request (or one with no
// Router at all) falls back to the default. SNMPv3 requests carry no
// community or context, but do carry this session's engineID, so
// engineID-only rules still route them.
func (s *AgentServer) WithRouting(router *routing.Router, datasets map[string]*wire.Responder) *AgentServer {
	s.router = router
	s.datasets = datasets
	return s
}

// Start binds the UDP socket, tunes it, and begins serving in the
// background. Start returns once the socket is bound; serving happens on
// a spawned goroutine.
func (s *AgentServer) Start() error {
	udpAddr := &net.UDPAddr{IP: net.ParseIP(s.addr), Port: s.port}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("transport: listen on %s:%d: %w", s.addr, s.port, err)
	}
	if err := tuneSocket(conn); err != nil {
		_ = conn.Close()
		return fmt.Errorf("transport: tune socket %s:%d: %w", s.addr, s.port, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.conn = conn
	s.cancel = cancel
	s.jobs = make(chan job, jobQueueSize)
	s.mu.Unlock()

	s.wg.Add(1 + workerPoolSize)
	for i := 0; i < workerPoolSize; i++ {
		go s.worker(ctx, conn)
	}
	go s.serve(ctx, conn)
	return nil
}

// Stop closes the socket and waits for the serve loop to exit.
func (s *AgentServer) Stop() {
	s.mu.Lock()
	conn := s.conn
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.SetDeadline(time.Now())
		_ = conn.Close()
	}
	s.wg.Wait()
}

// serve is the single reader goroutine: it owns the socket's read side,
// copies each datagram (the shared buf is reused on the next read, so a
// worker can't be left holding it), and queues the copy for the worker
// pool. It never decodes or answers a packet itself.
func (s *AgentServer) serve(ctx context.Context, conn *net.UDPConn) {
	defer s.wg.Done()
	buf := make([]byte, packetBufferSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, remote, err := conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			select {
			case <-ctx.Done():
				return
			default:
				log.Printf("transport: %s:%d: read error: %v", s.addr, s.port, err)
				continue
			}
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		select {
		case s.jobs <- job{data: data, remote: remote}:
		case <-ctx.Done():
			return
		}
	}
}

// worker is one of workerPoolSize concurrent handler goroutines pulling
// from the job queue serve fills. Each worker decodes, answers, and
// writes its own response independently of the others; net.UDPConn's
// WriteToUDP is safe for concurrent use by multiple goroutines.
func (s *AgentServer) worker(ctx context.Context, conn *net.UDPConn) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.jobs:
			out := s.handle(j.data, j.remote)
			if out == nil {
				continue
			}
			if _, err := conn.WriteToUDP(out, j.remote); err != nil {
				log.Printf("transport: %s:%d: write error: %v", s.addr, s.port, err)
			}
		}
	}
}

// handle decodes one datagram, resolves its community to a context, and
// returns the marshaled response, or nil if the packet cannot be
// answered (malformed packet, or a community the agent doesn't
// recognize — dropped silently, matching spec's "no authentication
// beyond community strings forwarded to the engine": an unrecognized
// community is simply never matched to any context).
func (s *AgentServer) handle(packet []byte, remote *net.UDPAddr) []byte {
	if s.v3 != nil {
		req, report, err := s.v3.Decode(packet)
		switch {
		case err != nil:
			log.Printf("transport: %s:%d: v3 decode error: %v", s.addr, s.port, err)
			return nil
		case report != nil:
			// discovery or auth failure: the Report is the whole answer.
			return report
		case req != nil:
			resp := s.responderFor("", "", s.v3.Config.EngineID, remote)
			return s.answerV2Shaped(resp, "", req, s.v3.Encode)
		}
		// fall through: not a v3 packet, try v1/v2c below.
	}

	req, err := decode(packet)
	if err != nil {
		log.Printf("transport: %s:%d: decode error: %v", s.addr, s.port, err)
		return nil
	}

	ctxName, ok := s.agent.ContextFor(req.Community)
	if !ok {
		return nil
	}
	return s.answerV2Shaped(s.responderFor(req.Community, ctxName, "", remote), ctxName, req, encode)
}

// responderFor selects the dataset-routed Responder for this request, if
// a Router is attached and its rules match, falling back to the
// server's default Responder otherwise. engineID is only non-empty on
// the SNMPv3 path, already in internal/v3's decoded raw-byte form.
func (s *AgentServer) responderFor(community, ctxName, engineID string, remote *net.UDPAddr) *wire.Responder {
	if s.router == nil {
		return s.resp
	}
	key := routing.RequestKey{Community: community, Context: ctxName, EngineID: engineID, DstPort: s.port}
	if remote != nil {
		key.SrcIP = remote.IP
	}
	path := s.router.Select(key)
	if resp, ok := s.datasets[path]; ok {
		return resp
	}
	return s.resp
}

func (s *AgentServer) answerV2Shaped(resp *wire.Responder, ctxName string, req *gosnmp.SnmpPacket, marshal func(*gosnmp.SnmpPacket) ([]byte, error)) []byte {
	respPacket := resp.Handle(ctxName, req)
	out, err := marshal(respPacket)
	if err != nil {
		log.Printf("transport: %s:%d: encode error: %v", s.addr, s.port, err)
		return nil
	}
	return out
}

// decode tries v2c then v1, mirroring agent.go's decodePacket fallback
// chain for the community-based security models this package serves.
func decode(packet []byte) (*gosnmp.SnmpPacket, error) {
	v2c := gosnmp.GoSNMP{Version: gosnmp.Version2c, Community: "public"}
	if req, err := v2c.SnmpDecodePacket(packet); err == nil {
		return req, nil
	}
	v1 := gosnmp.GoSNMP{Version: gosnmp.Version1, Community: "public"}
	req, err := v1.SnmpDecodePacket(packet)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func encode(packet *gosnmp.SnmpPacket) ([]byte, error) {
	return packet.MarshalMsg()
}
