package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		CodeInvalidDirection,
		CodeOutOfBounds,
		CodeBlocked,
		CodeNoArrows,
		CodeNothingToCollect,
		CodeUnknownActionName,
		CodeInconsistentEvidence,
		CodeBadMessage,
		CodeUnknownAction,
		CodeBadRequest,
		CodeUnknownAgent,
		CodeAgentTaken,
		CodeEpisodeOver,
		CodeInternal,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("E_NOT_DEFINED") {
		t.Fatalf("expected unknown code rejected")
	}
}

func TestDecodeBase(t *testing.T) {
	m, err := DecodeBase([]byte(`{"type":"ACT","protocol_version":"1.0","action":"move_front"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Type != TypeAct || m.ProtocolVersion != Version {
		t.Fatalf("unexpected base: %+v", m)
	}
	if _, err := DecodeBase([]byte(`{"protocol_version":"1.0"}`)); err == nil {
		t.Fatalf("expected missing type error")
	}
	if _, err := DecodeBase([]byte(`not json`)); err == nil {
		t.Fatalf("expected json error")
	}
}
