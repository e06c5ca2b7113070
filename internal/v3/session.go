package v3

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
)

// Session holds one agent's v3 engine state: its USM config, boot
// counter, and start time (used to derive engineTime for the time-window
// check). It is the v3-only slice of what the teacher's VirtualAgent
// tracked inline, pulled out so internal/transport can own exactly one
// of these per agent without depending on the rest of the agent's state.
type Session struct {
	Config    Config
	Boots     uint32
	StartTime time.Time
}

// NewSession builds a Session for an agent's v3 config. boots is the
// engine's current boot count, persisted and supplied by the caller
// (internal/bootstate.Store in practice) so it survives process restarts.
func NewSession(cfg Config, boots uint32) *Session {
	return &Session{Config: cfg, Boots: boots, StartTime: time.Now()}
}

func (s *Session) engineTime() uint32 {
	return uint32(time.Since(s.StartTime).Seconds())
}

// Decode authenticates and decrypts one incoming v3 datagram. If the
// packet fails discovery/time-window/HMAC checks, report is a
// ready-to-send Report PDU and req/err are both nil — the caller should
// send report back to the requester unchanged. If the packet decodes
// and validates cleanly, req is the usable request and report is nil.
func (s *Session) Decode(packet []byte) (req *gosnmp.SnmpPacket, report []byte, err error) {
	usmParams := s.Config.BuildUSM(s.Boots, s.engineTime())
	if initErr := usmParams.InitSecurityKeys(); initErr != nil {
		return nil, nil, fmt.Errorf("v3: init security keys: %w", initErr)
	}

	decoder := gosnmp.GoSNMP{
		Version:            gosnmp.Version3,
		SecurityModel:      gosnmp.UserSecurityModel,
		MsgFlags:           s.Config.SecurityLevel(),
		SecurityParameters: usmParams,
	}

	rawCopy := make([]byte, len(packet))
	copy(rawCopy, packet)

	decoded, decodeErr := decoder.SnmpDecodePacket(packet)
	if decodeErr == nil && decoded.Version == gosnmp.Version3 {
		if decoded.MsgFlags&gosnmp.AuthNoPriv != 0 {
			if authErr := s.verifyIncomingHMAC(rawCopy, decoded, usmParams); authErr != nil {
				out, buildErr := s.report(decoded, USMStatsWrongDigestOID)
				return nil, out, buildErr
			}
		}
		if reportOID := s.validateWindow(decoded); reportOID != "" {
			out, buildErr := s.report(decoded, reportOID)
			return nil, out, buildErr
		}
		if s.needsDiscoveryReport(decoded) {
			out, buildErr := s.discoveryReport(decoded)
			return nil, out, buildErr
		}
		return decoded, nil, nil
	}

	if decodeErr != nil && isAuthError(decodeErr) {
		noAuth := gosnmp.GoSNMP{
			Version:            gosnmp.Version3,
			SecurityModel:      gosnmp.UserSecurityModel,
			MsgFlags:           gosnmp.NoAuthNoPriv,
			SecurityParameters: &gosnmp.UsmSecurityParameters{UserName: s.Config.Username},
		}
		baseReq, baseErr := noAuth.SnmpDecodePacket(packet)
		if baseErr == nil {
			out, buildErr := s.report(baseReq, USMStatsWrongDigestOID)
			return nil, out, buildErr
		}
	}

	return nil, nil, decodeErr
}

// Encode marshals resp, localizing USM security keys and allocating a
// fresh privacy salt first — gosnmp's MarshalMsg signs with SecretKey
// directly and relies on InitPacket for the encryption IV, so both must
// be primed before every Marshal call.
func (s *Session) Encode(resp *gosnmp.SnmpPacket) ([]byte, error) {
	if resp.Version == gosnmp.Version3 {
		if usm, ok := resp.SecurityParameters.(*gosnmp.UsmSecurityParameters); ok && usm != nil {
			if err := usm.InitSecurityKeys(); err != nil {
				return nil, fmt.Errorf("v3: init security keys: %w", err)
			}
			if err := usm.InitPacket(resp); err != nil {
				return nil, fmt.Errorf("v3: init packet salt: %w", err)
			}
		}
	}
	return resp.MarshalMsg()
}

// BuildResponse prepares a GetResponse for req, carrying over the v3
// security parameters at the security level the request actually used
// (never escalating a noAuthNoPriv request's reply to authenticated).
func (s *Session) BuildResponse(req *gosnmp.SnmpPacket, vars []gosnmp.SnmpPDU, errCode gosnmp.SNMPError, errIndex uint8) *gosnmp.SnmpPacket {
	resp := *req
	resp.PDUType = gosnmp.GetResponse
	resp.Variables = vars
	resp.Error = errCode
	resp.ErrorIndex = errIndex

	if resp.Version != gosnmp.Version3 {
		return &resp
	}

	resp.MsgFlags = req.MsgFlags & gosnmp.AuthPriv
	resp.SecurityModel = gosnmp.UserSecurityModel
	resp.ContextEngineID = s.Config.EngineID

	username := s.Config.Username
	if usm, ok := req.SecurityParameters.(*gosnmp.UsmSecurityParameters); ok && usm.UserName != "" {
		username = usm.UserName
	}

	cfg := s.Config.forFlags(resp.MsgFlags)
	cfg.Username = username
	resp.SecurityParameters = cfg.BuildUSM(s.Boots, s.engineTime())
	return &resp
}

func (s *Session) report(req *gosnmp.SnmpPacket, reportOID string) ([]byte, error) {
	resp := s.BuildResponse(req, []gosnmp.SnmpPDU{BuildUSMReportVar(reportOID)}, gosnmp.NoError, 0)
	resp.PDUType = gosnmp.Report
	return s.Encode(resp)
}

func (s *Session) discoveryReport(req *gosnmp.SnmpPacket) ([]byte, error) {
	requestUsername := ""
	if usm, ok := req.SecurityParameters.(*gosnmp.UsmSecurityParameters); ok {
		requestUsername = usm.UserName
	}
	resp := s.BuildResponse(req, []gosnmp.SnmpPDU{BuildUSMReportVar(USMStatsUnknownEngineIDOID)}, gosnmp.NoError, 0)
	resp.PDUType = gosnmp.Report
	if usm, ok := resp.SecurityParameters.(*gosnmp.UsmSecurityParameters); ok && usm != nil {
		usm.UserName = requestUsername
	}
	return s.Encode(resp)
}

func (s *Session) needsDiscoveryReport(req *gosnmp.SnmpPacket) bool {
	if !s.Config.Enabled {
		return false
	}
	usm, ok := req.SecurityParameters.(*gosnmp.UsmSecurityParameters)
	if !ok || usm == nil {
		return true
	}
	return usm.AuthoritativeEngineID == ""
}

// validateWindow checks the incoming message's boot count and time
// offset against this engine's own, per RFC 3414 §3.2 steps 7-8.
func (s *Session) validateWindow(req *gosnmp.SnmpPacket) string {
	usm, ok := req.SecurityParameters.(*gosnmp.UsmSecurityParameters)
	if !ok || usm == nil {
		return USMStatsUnknownEngineIDOID
	}
	if usm.AuthoritativeEngineID != "" && usm.AuthoritativeEngineID != s.Config.EngineID {
		return USMStatsUnknownEngineIDOID
	}
	if usm.AuthoritativeEngineID == "" {
		return ""
	}

	if usm.AuthoritativeEngineBoots != s.Boots {
		return USMStatsNotInTimeWindowOID
	}
	now := s.engineTime()
	var diff uint32
	if now > usm.AuthoritativeEngineTime {
		diff = now - usm.AuthoritativeEngineTime
	} else {
		diff = usm.AuthoritativeEngineTime - now
	}
	if diff > 150 {
		return USMStatsNotInTimeWindowOID
	}
	return ""
}

// verifyIncomingHMAC re-derives the authentication digest over the raw
// packet bytes (auth params zeroed, payload still encrypted) and
// compares it to the digest the requester sent, per RFC 3414 §6.3.3.
func (s *Session) verifyIncomingHMAC(rawCopy []byte, req *gosnmp.SnmpPacket, localUSM *gosnmp.UsmSecurityParameters) error {
	usmParams, ok := req.SecurityParameters.(*gosnmp.UsmSecurityParameters)
	if !ok || len(usmParams.AuthenticationParameters) == 0 {
		return nil
	}

	authProto := s.Config.Auth
	if authProto == AuthNone || len(localUSM.SecretKey) == 0 {
		return nil
	}

	received := []byte(usmParams.AuthenticationParameters)
	if len(received) == 0 {
		return nil
	}

	searchLimit := len(rawCopy)
	if searchLimit > 200 {
		searchLimit = 200
	}
	authLen := byte(len(received))
	idx := -1
	for i := 0; i < searchLimit-int(authLen)-1; i++ {
		if rawCopy[i] == 0x04 && rawCopy[i+1] == authLen {
			if bytes.Equal(rawCopy[i+2:i+2+int(authLen)], received) {
				idx = i + 2
				break
			}
		}
	}
	if idx < 0 {
		return nil
	}
	for i := idx; i < idx+int(authLen); i++ {
		rawCopy[i] = 0
	}

	computed, err := HMACDigest(authProto, localUSM.SecretKey, rawCopy)
	if err != nil {
		return fmt.Errorf("v3: HMAC computation failed: %w", err)
	}
	truncated := computed
	if len(truncated) > len(received) {
		truncated = computed[:len(received)]
	}
	if !bytes.Equal(truncated, received) {
		return fmt.Errorf("v3: HMAC mismatch: wrong authentication key")
	}
	return nil
}

// isAuthError reports whether err looks like gosnmp rejecting a v3
// packet for authentication/digest reasons rather than a structural
// decode failure, so the caller can still extract a base packet for a
// WrongDigest Report.
func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gosnmp.ErrWrongDigest) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "digest") || strings.Contains(msg, "authentication")
}
