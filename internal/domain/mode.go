package domain

// Mode selects what the prompt is built from.
type Mode string

const (
	// ModeTitle asks for declensions of the title only.
	ModeTitle Mode = "title"
	// ModeContent asks for aliases using the title and a body excerpt.
	ModeContent Mode = "content"
)

// IsValid checks if the mode is one of the supported values
func (m Mode) IsValid() bool {
	switch m {
	case ModeTitle, ModeContent:
		return true
	default:
		return false
	}
}

// UsesBody reports whether the mode sends a body excerpt to the model.
func (m Mode) UsesBody() bool {
	return m == ModeContent
}

// ParseMode converts a raw string into a Mode. Empty input means ModeTitle.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeTitle, nil
	}
	m := Mode(s)
	if !m.IsValid() {
		return "", ErrInvalidMode
	}
	return m, nil
}
