package interpret

import (
	"encoding/json"
	"testing"
)

func mustParse(t *testing.T, s string) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		t.Fatalf("repaired output still invalid: %v\n%s", err, s)
	}
	return out
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"code fence", "```json\n{\"reply\":\"hi\"}\n```"},
		{"bare fence", "```\n{\"reply\":\"hi\"}\n```"},
		{"surrounding prose", "Sure! Here is the JSON: {\"reply\":\"hi\"} Hope that helps."},
		{"trailing comma", `{"reply":"hi","goal":{"title":"x",},}`},
		{"smart quotes", "{\u201creply\u201d:\u201chi\u201d}"},
		{"single quoted keys", `{'reply':"hi",'extra':"y"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustParse(t, RepairJSON(tt.in))
			if got["reply"] != "hi" {
				t.Errorf("reply = %v", got["reply"])
			}
		})
	}
}

func TestRepairJSONLeavesValidAlone(t *testing.T) {
	in := `{"reply":"already fine"}`
	if got := RepairJSON(in); got != in {
		t.Errorf("RepairJSON changed valid input: %q", got)
	}
}
