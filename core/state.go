package tutoring

import "fmt"

// State is the user-observable state of a live session.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnectedIdle
	StateListening
	StateSpeaking
	StateInterrupted
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnectedIdle:
		return "connected_idle"
	case StateListening:
		return "listening"
	case StateSpeaking:
		return "speaking"
	case StateInterrupted:
		return "interrupted"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Status is the human readable status shown next to the conversation.
func (s State) Status() string {
	switch s {
	case StateDisconnected:
		return "Desconectado"
	case StateConnecting:
		return "Conectando..."
	case StateConnectedIdle:
		return "Conectado"
	case StateListening:
		return "Ouvindo..."
	case StateSpeaking:
		return "Falando..."
	case StateInterrupted:
		return "Interrompido"
	case StateErrored:
		return "Erro na conexão"
	default:
		return ""
	}
}

// IsConnected reports whether a transport is open in this state.
func (s State) IsConnected() bool {
	switch s {
	case StateConnectedIdle, StateListening, StateSpeaking, StateInterrupted:
		return true
	default:
		return false
	}
}

// CanConnect reports whether a new connection attempt may start.
func (s State) CanConnect() bool {
	return s == StateDisconnected || s == StateErrored
}
