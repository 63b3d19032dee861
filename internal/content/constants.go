package content

import "time"

// http and network timeouts
const (
	defaultHTTPTimeout      = 30 * time.Second
	OpenAIHTTPTimeout       = 2 * time.Minute
	SpeechGenerationTimeout = 30 * time.Second
)

// content processing limits
const (
	minArticleTextLength  = 100
	maxArticleBodyBytes   = 10 << 20
	MaxSourceChars        = 5000
	DisplayTruncateLength = 50
)

// language model parameters
const (
	OpenAITemperature = 0.7
	OpenAIMaxTokens   = 4000
)

// text processing constants
const (
	avgCharsPerWord   = 5.5
	avgWordsPerMinute = 160.0
	minSpeechSpeed    = 0.8
	maxSpeechSpeed    = 1.2
)
