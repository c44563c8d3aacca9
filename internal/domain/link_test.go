package domain

import (
	"encoding/json"
	"testing"
)

func TestLinkKey(t *testing.T) {
	t.Run("generates consistent key", func(t *testing.T) {
		l1 := Link{Source: "1", Target: "2", SourcePort: "ge-0/0/1", TargetPort: "pon1"}
		l2 := Link{Source: "1", Target: "2", SourcePort: "ge-0/0/1", TargetPort: "pon1"}

		if l1.Key() != l2.Key() {
			t.Error("expected same link to generate same key")
		}
	})

	t.Run("reported from the other port yields the same key", func(t *testing.T) {
		forward := Link{Source: "1", Target: "2", SourcePort: "ge-0/0/1", TargetPort: "pon1"}
		reverse := Link{Source: "2", Target: "1", SourcePort: "pon1", TargetPort: "ge-0/0/1"}

		if forward.Key() != reverse.Key() {
			t.Error("expected reversed link to generate same key")
		}
	})

	t.Run("parallel links on different ports differ", func(t *testing.T) {
		a := Link{Source: "1", Target: "2", SourcePort: "p1", TargetPort: "p1"}
		b := Link{Source: "1", Target: "2", SourcePort: "p2", TargetPort: "p2"}

		if a.Key() == b.Key() {
			t.Error("expected different ports to generate different keys")
		}
	})

	t.Run("unlabeled links keep direction and attributes", func(t *testing.T) {
		forward := Link{Source: "1", Target: "2", Type: "Fibra"}
		reverse := Link{Source: "2", Target: "1", Type: "Fibra"}
		radio := Link{Source: "1", Target: "2", Type: "Radio"}
		second := Link{Source: "1", Target: "2", Type: "Fibra", Ordinal: 1}

		if forward.Key() == reverse.Key() || forward.Key() == radio.Key() || forward.Key() == second.Key() {
			t.Error("expected distinct keys for unlabeled links")
		}
		if forward.Mirrorable() {
			t.Error("expected unlabeled link not to be mirrorable")
		}
	})

	t.Run("generates short hash", func(t *testing.T) {
		l := Link{Source: "1", Target: "2"}
		if len(l.Key()) != 16 {
			t.Errorf("expected key length 16, got %d", len(l.Key()))
		}
	})
}

func TestLinkUnmarshalJSON(t *testing.T) {
	t.Run("accepts resolved node references", func(t *testing.T) {
		data := `{"source": {"id": 4, "nome": "SW"}, "target": 9, "tipo": "Fibra", "speed": "10G", "porta_origem_id": 31, "Obs": "<p>rack 2</p>"}`

		var link Link
		if err := json.Unmarshal([]byte(data), &link); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if link.Source != "4" || link.Target != "9" {
			t.Errorf("expected 4 -> 9, got %s -> %s", link.Source, link.Target)
		}
		if link.SourcePortID != "31" {
			t.Errorf("expected port id 31, got %s", link.SourcePortID)
		}
		if link.Note != "<p>rack 2</p>" {
			t.Errorf("unexpected note %q", link.Note)
		}
	})
}

func TestLinkInvolves(t *testing.T) {
	link := Link{Source: "a", Target: "b"}

	if !link.Involves("a") || !link.Involves("b") {
		t.Error("expected link to involve both endpoints")
	}
	if link.Involves("c") {
		t.Error("expected link not to involve c")
	}
	if link.OtherEnd("a") != "b" || link.OtherEnd("b") != "a" {
		t.Error("expected OtherEnd to return the opposite endpoint")
	}
}

func TestCommandResultOK(t *testing.T) {
	tests := []struct {
		name   string
		result *CommandResult
		want   bool
	}{
		{"success flag", &CommandResult{Success: true}, true},
		{"message only", &CommandResult{Message: "Portas conectadas"}, true},
		{"error wins", &CommandResult{Success: true, Error: "porta ocupada"}, false},
		{"empty", &CommandResult{}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.OK(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
