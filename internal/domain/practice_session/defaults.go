package practicesession

// maxSuggestedLimit caps the suggested batch size.
const maxSuggestedLimit = 25

// SmartDefaults suggests a question limit and time limit for a bank of
// total questions. It is re-run whenever the parsed question count or the
// mode changes.
func SmartDefaults(total int, mode Mode, progress Progress) (limit, minutes int) {
	if total == 0 {
		return DefaultQuestionLimit, DefaultTimeMinutes
	}

	available := total
	switch mode {
	case ModeSerial:
		if remaining := max(0, total-progress.NextSerialIndex); remaining > 0 {
			available = remaining
		}
	case ModeRandomLimited:
		if remaining := max(0, total-len(progress.UsedRandomIndices)); remaining > 0 {
			available = remaining
		}
	}

	limit = min(maxSuggestedLimit, available)
	return limit, TimeForLimit(limit)
}

// ApplySmartDefaults returns cfg with the suggested limit and time applied.
func ApplySmartDefaults(cfg QuizConfig, total int, progress Progress) QuizConfig {
	limit, minutes := SmartDefaults(total, cfg.Mode, progress)
	cfg.QuestionLimit = FlexInt(limit)
	cfg.TimeMinutes = FlexInt(minutes)
	return cfg
}
