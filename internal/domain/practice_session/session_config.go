package practicesession

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Mode selects how the next batch is drawn from the bank.
type Mode string

const (
	ModeSerial          Mode = "serial"
	ModeRandomLimited   Mode = "rand_limited"
	ModeRandomUnlimited Mode = "rand_unlimited"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeSerial, ModeRandomLimited, ModeRandomUnlimited:
		return true
	}
	return false
}

const (
	DefaultTimeMinutes   = 15
	DefaultQuestionLimit = 25

	// minutesPerQuestion drives the suggested time limit.
	minutesPerQuestion = 0.6
)

// QuizConfig is owned by a session and edited by the user.
type QuizConfig struct {
	TimeMinutes    FlexInt `json:"timeMinutes"`
	QuestionLimit  FlexInt `json:"questionLimit"`
	Mode           Mode    `json:"mode" validate:"required,oneof=serial rand_limited rand_unlimited"`
	ShuffleOptions bool    `json:"shuffleOptions"`
}

// DefaultConfig returns the configuration of a freshly created session.
func DefaultConfig() QuizConfig {
	return QuizConfig{
		TimeMinutes:    DefaultTimeMinutes,
		QuestionLimit:  DefaultQuestionLimit,
		Mode:           ModeSerial,
		ShuffleOptions: true,
	}
}

// SafeLimit is the question limit used when drawing; blank or non-positive
// values count as 1.
func (c QuizConfig) SafeLimit() int {
	if c.QuestionLimit <= 0 {
		return 1
	}
	return int(c.QuestionLimit)
}

// SafeTime is the time limit in minutes used when starting a quiz.
func (c QuizConfig) SafeTime() int {
	if c.TimeMinutes <= 0 {
		return 1
	}
	return int(c.TimeMinutes)
}

// TimeForLimit is the suggested time in minutes for a batch of n questions.
func TimeForLimit(n int) int {
	return max(1, int(math.Round(float64(n)*minutesPerQuestion)))
}

// FlexInt decodes from a JSON number or a numeric string. Older backups
// stored raw form-field text, so "" and "12" both occur in the wild.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		str = strings.TrimSpace(str)
		if str == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return err
		}
		*f = FlexInt(n)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}
