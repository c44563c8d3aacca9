package domain

import (
	"crypto/sha256"
	"fmt"
)

// Link represents a port-to-port connection between two nodes.
// Source and Target reference nodes by ID; they are resolved against the
// current node set at render time.
type Link struct {
	Source       ID     `json:"source"`
	Target       ID     `json:"target"`
	Type         string `json:"tipo"`
	Speed        string `json:"speed"`
	SourcePort   string `json:"porta_origem,omitempty"`
	TargetPort   string `json:"porta_destino,omitempty"`
	SourcePortID ID     `json:"porta_origem_id,omitempty"`
	Note         string `json:"Obs,omitempty"`

	// Ordinal tells apart unlabeled links that are otherwise identical
	Ordinal int `json:"-"`
}

// Key returns a deterministic identifier for the connection.
//
// The backend lists a connection once from each of its ports. When both
// port labels are known the key ignores direction, so the two reports
// share it. Without labels mirror reports cannot be told from parallel
// links, and the key keeps direction and every distinguishing attribute.
func (l *Link) Key() string {
	var key string
	if l.Mirrorable() {
		a, aPort := l.Source, l.SourcePort
		b, bPort := l.Target, l.TargetPort
		if a > b || (a == b && aPort > bPort) {
			a, b = b, a
			aPort, bPort = bPort, aPort
		}
		key = fmt.Sprintf("%s:%s-%s:%s", a, aPort, b, bPort)
	} else {
		key = fmt.Sprintf("%s>%s|%s|%s|%s|%s|%s|#%d",
			l.Source, l.Target, l.Type, l.Speed, l.SourcePortID, l.SourcePort, l.TargetPort, l.Ordinal)
	}
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", hash[:8])
}

// Mirrorable reports whether both port labels are present, which is what
// lets two reports of one connection be recognised as the same link
func (l *Link) Mirrorable() bool {
	return l.SourcePort != "" && l.TargetPort != ""
}

// Involves checks if this link touches the given node
func (l *Link) Involves(nodeID ID) bool {
	return l.Source == nodeID || l.Target == nodeID
}

// OtherEnd returns the node on the other end of this link
func (l *Link) OtherEnd(nodeID ID) ID {
	if l.Source == nodeID {
		return l.Target
	}
	return l.Source
}
