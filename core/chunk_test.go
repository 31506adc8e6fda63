package core

import (
	"encoding/json"
	"testing"
)

func TestStreamChunk_WireFormat(t *testing.T) {
	cases := []struct {
		chunk StreamChunk
		want  string
	}{
		{TokenChunk("hello", AgentTypeSupervisor), `{"type":"token","content":"hello","agent_type":"supervisor"}`},
		{ToolStartChunk("create_invoice", AgentTypeSupervisor), `{"type":"tool_start","tool_name":"create_invoice","agent_type":"supervisor"}`},
		{CompleteChunk(AgentTypeSupervisor), `{"type":"complete","agent_type":"supervisor"}`},
		{ErrorChunk("boom"), `{"type":"error","error":"boom"}`},
	}
	for _, tc := range cases {
		data, err := json.Marshal(tc.chunk)
		if err != nil {
			t.Fatalf("marshal %v: %v", tc.chunk.Type, err)
		}
		if string(data) != tc.want {
			t.Errorf("chunk %v: got %s want %s", tc.chunk.Type, data, tc.want)
		}
	}
}

func TestStreamChunk_Terminal(t *testing.T) {
	if TokenChunk("x", "").Terminal() || ToolStartChunk("t", "").Terminal() {
		t.Error("token/tool_start must not be terminal")
	}
	if !CompleteChunk("").Terminal() || !ErrorChunk("e").Terminal() {
		t.Error("complete/error must be terminal")
	}
}

func TestStreamEvent_Terminal(t *testing.T) {
	if TokenEvent("x").Terminal() || ToolStartEvent("t").Terminal() {
		t.Error("token/tool_start events must not be terminal")
	}
	if !DoneEvent().Terminal() || !ErrorEvent("e").Terminal() {
		t.Error("done/error events must be terminal")
	}
}
