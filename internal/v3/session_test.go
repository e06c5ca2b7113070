package v3

import (
	"testing"
	"time"

	"github.com/gosnmp/gosnmp"
)

func testConfig(engineID string) Config {
	return Config{
		Enabled:  true,
		EngineID: engineID,
		Username: "operator",
		Auth:     AuthSHA1,
		AuthKey:  "authpass123",
		Priv:     PrivNone,
	}
}

func signedRequest(t *testing.T, engineID string, boots, engineTime uint32, authKey string) []byte {
	t.Helper()
	usm := &gosnmp.UsmSecurityParameters{
		AuthoritativeEngineID:    engineID,
		AuthoritativeEngineBoots: boots,
		AuthoritativeEngineTime:  engineTime,
		UserName:                 "operator",
		AuthenticationProtocol:   gosnmp.SHA,
		PrivacyProtocol:          gosnmp.NoPriv,
		AuthenticationPassphrase: authKey,
	}
	req := &gosnmp.SnmpPacket{
		Version:            gosnmp.Version3,
		MsgFlags:           gosnmp.AuthNoPriv,
		SecurityModel:      gosnmp.UserSecurityModel,
		SecurityParameters: usm,
		PDUType:            gosnmp.GetRequest,
		RequestID:          1,
		Variables:          []gosnmp.SnmpPDU{{Name: "1.3.6.1.2.1.1.1.0", Type: gosnmp.Null}},
	}
	if err := usm.InitSecurityKeys(); err != nil {
		t.Fatalf("InitSecurityKeys: %v", err)
	}
	if err := usm.InitPacket(req); err != nil {
		t.Fatalf("InitPacket: %v", err)
	}
	raw, err := req.MarshalMsg()
	if err != nil {
		t.Fatalf("MarshalMsg: %v", err)
	}
	return raw
}

func discoveryProbe(t *testing.T) []byte {
	t.Helper()
	usm := &gosnmp.UsmSecurityParameters{UserName: "operator"}
	req := &gosnmp.SnmpPacket{
		Version:            gosnmp.Version3,
		MsgFlags:           gosnmp.NoAuthNoPriv,
		SecurityModel:      gosnmp.UserSecurityModel,
		SecurityParameters: usm,
		PDUType:            gosnmp.GetRequest,
		RequestID:          1,
		Variables:          []gosnmp.SnmpPDU{{Name: "1.3.6.1.2.1.1.1.0", Type: gosnmp.Null}},
	}
	raw, err := req.MarshalMsg()
	if err != nil {
		t.Fatalf("MarshalMsg: %v", err)
	}
	return raw
}

func TestSessionDecodeSendsDiscoveryReportOnFirstContact(t *testing.T) {
	s := NewSession(testConfig(GenerateEngineID("dev1")), 1)
	req, report, err := s.Decode(discoveryProbe(t))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if req != nil {
		t.Fatalf("expected no usable request on discovery, got %+v", req)
	}
	if report == nil {
		t.Fatalf("expected a discovery report, got nil")
	}
}

func TestSessionDecodeAcceptsAuthenticatedRequest(t *testing.T) {
	engineID := GenerateEngineID("dev2")
	s := NewSession(testConfig(engineID), 1)
	raw := signedRequest(t, engineID, 1, s.engineTime(), "authpass123")

	req, report, err := s.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if report != nil {
		t.Fatalf("expected no report for a valid authenticated request")
	}
	if req == nil {
		t.Fatalf("expected a usable request")
	}
	if req.PDUType != gosnmp.GetRequest {
		t.Fatalf("PDUType = %v, want GetRequest", req.PDUType)
	}
}

func TestSessionDecodeWrongKeyProducesWrongDigestReport(t *testing.T) {
	engineID := GenerateEngineID("dev3")
	s := NewSession(testConfig(engineID), 1)
	raw := signedRequest(t, engineID, 1, s.engineTime(), "totally-different-pass")

	req, report, err := s.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if req != nil {
		t.Fatalf("expected no usable request for a wrong-key packet")
	}
	if report == nil {
		t.Fatalf("expected a WrongDigest report")
	}
}

func TestSessionDecodeStaleEngineTimeProducesNotInTimeWindowReport(t *testing.T) {
	engineID := GenerateEngineID("dev4")
	s := NewSession(testConfig(engineID), 1)
	s.StartTime = time.Now().Add(-time.Hour)
	raw := signedRequest(t, engineID, 1, 0, "authpass123")

	req, report, err := s.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if req != nil {
		t.Fatalf("expected no usable request for a stale time window")
	}
	if report == nil {
		t.Fatalf("expected a NotInTimeWindow report")
	}
}

func TestSessionBuildResponseNeverEscalatesSecurityLevel(t *testing.T) {
	engineID := GenerateEngineID("dev5")
	cfg := testConfig(engineID)
	cfg.Priv = PrivAES128
	cfg.PrivKey = "privpass123"
	s := NewSession(cfg, 1)

	req := &gosnmp.SnmpPacket{
		Version:            gosnmp.Version3,
		MsgFlags:           gosnmp.NoAuthNoPriv,
		SecurityModel:      gosnmp.UserSecurityModel,
		SecurityParameters: &gosnmp.UsmSecurityParameters{UserName: "operator"},
		PDUType:            gosnmp.GetRequest,
		RequestID:          7,
	}
	resp := s.BuildResponse(req, nil, gosnmp.NoError, 0)
	if resp.MsgFlags&gosnmp.AuthPriv != gosnmp.NoAuthNoPriv {
		t.Fatalf("response escalated security level: flags = %v", resp.MsgFlags)
	}
}
