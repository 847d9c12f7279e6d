package api

import (
	"errors"
	"math"
)

// Validator - интерфейс, который могут реализовать DTO
type Validator interface {
	Validate() error
}

func (e Envelope) Validate() error {
	if e.SenderID == "" {
		return errors.New("senderId is required")
	}
	if e.Type == "" {
		return errors.New("type is required")
	}
	return nil
}

func (p HandshakePayload) Validate() error {
	if p.SenderID == "" {
		return errors.New("senderId is required")
	}
	return nil
}

func (p AgentInfoPayload) Validate() error {
	for _, a := range p.Agents {
		if a.ID == "" {
			return errors.New("agent id is required")
		}
	}
	return nil
}

func (p IntentionPayload) Validate() error {
	if math.IsNaN(p.Utility) || math.IsInf(p.Utility, 0) {
		return errors.New("utility must be finite")
	}
	return nil
}

func (p CollisionPayload) Validate() error {
	switch p.Type {
	case CollisionMove, CollisionMoved, CollisionEnd:
		return nil
	}
	return errors.New("unknown collision type")
}

func (p HandoverRolePayload) Validate() error {
	if p.Role != "COLLECTOR" && p.Role != "COURIER" {
		return errors.New("role must be COLLECTOR or COURIER")
	}
	return nil
}
