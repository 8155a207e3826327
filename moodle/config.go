package moodle

import "fmt"

// Numbering selects how Moodle labels the answers of a question.
type Numbering string

const (
	NumberingNone       Numbering = "none"
	NumberingLowerAlpha Numbering = "abc"
	NumberingUpperAlpha Numbering = "ABCD"
	NumberingNumeric    Numbering = "123"
)

// Valid reports whether n is one of the accepted numbering styles.
func (n Numbering) Valid() bool {
	switch n {
	case NumberingNone, NumberingLowerAlpha, NumberingUpperAlpha, NumberingNumeric:
		return true
	}
	return false
}

// Config is the presentation configuration for one serialization run.
// It is passed explicitly; there is no process-wide configuration state.
type Config struct {
	Numbering      Numbering
	ShuffleAnswers bool
	// Penalty is the fraction of the question's value deducted for picking
	// a wrong answer, in [0,1]. 0 means wrong answers score zero.
	Penalty float64
}

// DefaultConfig mirrors the tool's historical defaults.
func DefaultConfig() Config {
	return Config{
		Numbering:      NumberingLowerAlpha,
		ShuffleAnswers: true,
		Penalty:        0,
	}
}

// Validate checks the configuration before a run.
func (c Config) Validate() error {
	if !c.Numbering.Valid() {
		return fmt.Errorf("invalid answer numbering %q (want none, abc, ABCD or 123)", c.Numbering)
	}
	if c.Penalty < 0 || c.Penalty > 1 {
		return fmt.Errorf("penalty %v out of range [0,1]", c.Penalty)
	}
	return nil
}
