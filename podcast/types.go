package podcast

import (
	"sort"
	"strings"
	"time"
)

// Speaker identifies which host a script line belongs to
type Speaker int

// speakers recognised in a generated script
const (
	SpeakerPrimary Speaker = iota
	SpeakerSecondary
	SpeakerUnknown
)

// String returns a short name for the speaker
func (s Speaker) String() string {
	switch s {
	case SpeakerPrimary:
		return "primary"
	case SpeakerSecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// Line is one parsed dialogue turn of a script
type Line struct {
	Speaker Speaker
	Tag     string // raw speaker token as written by the model, empty for untagged lines
	Text    string
}

// DefaultVoice is used when neither the speaker nor the config resolves to a voice
const DefaultVoice = "alloy"

// VoiceConfig maps speakers to synthesis voices for a single render
type VoiceConfig struct {
	Primary   string
	Secondary string
	Default   string  // voice for unrecognised speakers, falls back to Primary
	Speed     float64 // playback rate passed to the synthesizer as is
}

// VoiceFor returns the voice for the given speaker
func (c VoiceConfig) VoiceFor(s Speaker) string {
	switch s {
	case SpeakerPrimary:
		if c.Primary != "" {
			return c.Primary
		}
	case SpeakerSecondary:
		if c.Secondary != "" {
			return c.Secondary
		}
	}
	if c.Default != "" {
		return c.Default
	}
	if c.Primary != "" {
		return c.Primary
	}
	return DefaultVoice
}

// Style is a program preset: how the hosts talk and which voices they use
type Style struct {
	Key            string `yaml:"key" json:"key"`
	Label          string `yaml:"label" json:"label"`
	Role           string `yaml:"role" json:"role"` // role description for the script prompt, may contain %s for the language
	PrimaryVoice   string `yaml:"primary_voice" json:"primary_voice"`
	SecondaryVoice string `yaml:"secondary_voice" json:"secondary_voice"`
}

// VoiceConfig builds the voice configuration of the style with the given speed
func (s Style) VoiceConfig(speed float64) VoiceConfig {
	if speed <= 0 {
		speed = 1.0
	}
	return VoiceConfig{
		Primary:   s.PrimaryVoice,
		Secondary: s.SecondaryVoice,
		Default:   s.PrimaryVoice,
		Speed:     speed,
	}
}

// RoleFor returns the role description with the broadcast language filled in
func (s Style) RoleFor(language string) string {
	if strings.Contains(s.Role, "%s") {
		return strings.ReplaceAll(s.Role, "%s", language)
	}
	return s.Role
}

// StandardStyle is used when a request does not name a known style
const StandardStyle = "standard"

// DefaultStyles returns the built-in program styles
func DefaultStyles() []Style {
	return []Style{
		{
			Key:            StandardStyle,
			Label:          "Standard news",
			Role:           "A: main MC, B: assistant. Tone: standard news broadcast in %s.",
			PrimaryVoice:   "echo",
			SecondaryVoice: "nova",
		},
		{
			Key:            "jk",
			Label:          "High school girls",
			Role:           "A and B: two high school girls. Tone: casual, youth slang.",
			PrimaryVoice:   "shimmer",
			SecondaryVoice: "nova",
		},
		{
			Key:            "comedian",
			Label:          "Comedy duo",
			Role:           "A: the funny one, B: the straight man with a Kansai accent. Tone: late-night radio.",
			PrimaryVoice:   "echo",
			SecondaryVoice: "onyx",
		},
		{
			Key:            "okayama",
			Label:          "Okayama announcers",
			Role:           "A and B: announcers speaking the Okayama dialect.",
			PrimaryVoice:   "echo",
			SecondaryVoice: "nova",
		},
		{
			Key:            "university",
			Label:          "University students",
			Role:           "A: male university student, B: female university student. Tone: cafeteria chat.",
			PrimaryVoice:   "fable",
			SecondaryVoice: "alloy",
		},
	}
}

// CreateStyleMap indexes styles by key, later entries override earlier ones
func CreateStyleMap(styles []Style) map[string]Style {
	styleMap := make(map[string]Style, len(styles))
	for _, s := range styles {
		if s.Key == "" {
			continue
		}
		styleMap[s.Key] = s
	}
	return styleMap
}

// SortedStyles returns styles from the map ordered by key
func SortedStyles(styleMap map[string]Style) []Style {
	res := make([]Style, 0, len(styleMap))
	for _, s := range styleMap {
		res = append(res, s)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Key < res[j].Key })
	return res
}

// Render is the cached result of one (source, style, language) render
type Render struct {
	Key       string    `json:"key"`
	SourceURL string    `json:"url"`
	Style     string    `json:"style"`
	Language  string    `json:"language"`
	Title     string    `json:"title"`
	AudioPath string    `json:"audio_path"`
	Lines     int       `json:"lines"`
	Segments  int       `json:"segments"`
	Bytes     int       `json:"bytes"`
	Duration  float64   `json:"duration_seconds"`
	CreatedAt time.Time `json:"created_at"`
}

// Article is the fetched source text
type Article struct {
	URL     string
	Title   string
	Content string
}

// GenerateScriptParams contains parameters for script generation
type GenerateScriptParams struct {
	Title    string
	Content  string
	Style    Style
	Language string
}

// RenderRequest asks for a radio program for the given source
type RenderRequest struct {
	URL      string `json:"url"`
	Style    string `json:"style"`
	Language string `json:"language"`
}

// IcecastConfig describes an Icecast mount to stream to
type IcecastConfig struct {
	URL   string
	Mount string
	User  string
	Pass  string
}

// Config represents the CLI configuration
type Config struct {
	Request    RenderRequest
	Icecast    IcecastConfig
	DryRun     bool   // play locally instead of streaming
	OutputFile string // output MP3 file path
	Stream     bool   // stream the result to Icecast
}
