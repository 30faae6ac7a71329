package offline

// State es la etapa del ciclo de vida de la generación más reciente.
type State int

const (
	StateIdle State = iota
	StateInstalling
	StateInstalled // esperando activación
	StateActivating
	StateActive
	StateRedundant // falló la instalación
)

func (s State) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	case StateRedundant:
		return "redundant"
	default:
		return "idle"
	}
}

// MarshalText serializa State como string en JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status es una foto del manager.
type Status struct {
	State   State  `json:"state"`
	Active  string `json:"active,omitempty"`
	Waiting string `json:"waiting,omitempty"`
}
