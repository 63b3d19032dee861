package content

import (
	"math"
	"unicode"
	"unicode/utf8"

	"github.com/radio-t/webradio/podcast"
)

// TextProcessor handles text-related operations
type TextProcessor struct{}

// NewTextProcessor creates a new text processor
func NewTextProcessor() *TextProcessor {
	return &TextProcessor{}
}

// EstimateAudioDuration estimates the spoken duration of text in seconds
func (tp *TextProcessor) EstimateAudioDuration(text string) float64 {
	// about 160 words per minute with 5-6 characters per word
	charCount := 0
	for _, char := range text {
		if !unicode.IsSpace(char) {
			charCount++
		}
	}

	estimatedWords := float64(charCount) / avgCharsPerWord
	return estimatedWords / avgWordsPerMinute * 60.0
}

// EstimateScriptDuration estimates the spoken duration of all script lines in seconds
func (tp *TextProcessor) EstimateScriptDuration(lines []podcast.Line) float64 {
	var total float64
	for _, line := range lines {
		total += tp.EstimateAudioDuration(line.Text)
	}
	return total
}

// CalculateSpeechSpeed determines the speech speed factor to match target duration
func (tp *TextProcessor) CalculateSpeechSpeed(estimatedDuration float64, targetDurationMinutes int) float64 {
	speechSpeed := 1.0
	if estimatedDuration <= 0 || targetDurationMinutes <= 0 {
		return speechSpeed
	}

	targetDurationSeconds := float64(targetDurationMinutes * 60)

	// slower or faster speech for the target, kept within bounds
	speechSpeed = estimatedDuration / targetDurationSeconds
	return math.Max(minSpeechSpeed, math.Min(maxSpeechSpeed, speechSpeed))
}

// TruncateString truncates a string to the specified length and adds "..." if truncated,
// it ensures UTF-8 characters are not broken
func (tp *TextProcessor) TruncateString(s string, maxLength int) string {
	if utf8.RuneCountInString(s) <= maxLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLength]) + "..."
}
