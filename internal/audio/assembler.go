// Package audio assembles synthesized script lines into a single program track.
package audio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/radio-t/webradio/podcast"
)

// assembly errors
var (
	ErrAssemblyEmpty     = errors.New("no line was synthesized")
	ErrAssemblyCancelled = errors.New("assembly cancelled")
	ErrExport            = errors.New("failed to export track")
)

// Synthesizer turns one utterance into encoded audio
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string, speed float64) ([]byte, error)
}

// SynthesizerFunc adapts a function to Synthesizer
type SynthesizerFunc func(ctx context.Context, text, voice string, speed float64) ([]byte, error)

// Synthesize calls f
func (f SynthesizerFunc) Synthesize(ctx context.Context, text, voice string, speed float64) ([]byte, error) {
	return f(ctx, text, voice, speed)
}

// Encoder exports a track into one encoded stream
type Encoder interface {
	Encode(ctx context.Context, track *Track) ([]byte, error)
}

// SynthesisError reports a script line that could not be rendered
type SynthesisError struct {
	Line     int
	Voice    string
	Attempts int
	Err      error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("failed to synthesize line %d with voice %q after %d attempt(s): %v", e.Line, e.Voice, e.Attempts, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// Options control pacing, parallelism and retries of the assembly
type Options struct {
	LeadInMs   int
	Gap        GapRange
	Policy     GapPolicy
	Workers    int           // parallel synthesis calls, 1 means sequential
	Retries    int           // extra attempts per line after the first failure
	RetryDelay time.Duration // delay before the first retry, doubled on each next one
}

// DefaultOptions returns sequential assembly with the default pacing and no retries
func DefaultOptions() Options {
	return Options{
		LeadInMs: DefaultLeadInMs,
		Gap:      DefaultGapRange(),
		Policy:   GapAfterEveryLine,
		Workers:  1,
	}
}

// AssemblerParams contains dependencies of the assembler
type AssemblerParams struct {
	Synthesizer Synthesizer
	Decoder     Decoder // defaults to MP3Decoder
	Encoder     Encoder
	Options     Options
	Rand        Rand // defaults to the global source
	Logger      zerolog.Logger
}

// Assembler synthesizes script lines and joins them into one track
type Assembler struct {
	synth   Synthesizer
	decoder Decoder
	encoder Encoder
	opts    Options
	rng     Rand
	log     zerolog.Logger
}

// Result of an assembly
type Result struct {
	Audio    []byte
	Lines    int // lines in the input
	Segments int // lines synthesized and placed on the track
	Failed   []*SynthesisError
	Duration time.Duration
	Track    *Track
}

// NewAssembler creates a new assembler
func NewAssembler(params AssemblerParams) *Assembler {
	opts := params.Options
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Gap.Validate() != nil {
		opts.Gap = DefaultGapRange()
	}
	decoder := params.Decoder
	if decoder == nil {
		decoder = NewMP3Decoder()
	}
	return &Assembler{
		synth:   params.Synthesizer,
		decoder: decoder,
		encoder: params.Encoder,
		opts:    opts,
		rng:     params.Rand,
		log:     params.Logger,
	}
}

// outcome of one line, kept by input index
type outcome struct {
	attempted bool
	segment   Segment
	err       *SynthesisError
}

// Assemble synthesizes every line and exports the resulting track. Failed lines
// are dropped and reported in Result.Failed. ErrAssemblyEmpty is returned when no
// line could be synthesized, ErrExport when encoding fails. On context
// cancellation no further lines are synthesized and the partial result is
// returned with ErrAssemblyCancelled.
func (a *Assembler) Assemble(ctx context.Context, lines []podcast.Line, voices podcast.VoiceConfig) (Result, error) {
	res := Result{Lines: len(lines)}
	if a.synth == nil || a.encoder == nil {
		return res, errors.New("assembler is missing synthesizer or encoder")
	}

	start := time.Now()
	outcomes := a.synthesizeAll(ctx, lines, voices)
	track, cancelled := a.buildTrack(outcomes, &res)
	res.Track = track
	res.Duration = track.Duration()

	var cancelErr error
	if cancelled || ctx.Err() != nil {
		cancelErr = fmt.Errorf("%w: %w", ErrAssemblyCancelled, context.Cause(ctx))
	}

	if res.Segments == 0 {
		a.log.Error().Int("lines", res.Lines).Int("failed", len(res.Failed)).Msg("assembly produced no segments")
		if cancelErr != nil {
			return res, fmt.Errorf("%w: %w", ErrAssemblyEmpty, cancelErr)
		}
		return res, ErrAssemblyEmpty
	}

	// export the partial track even when the caller gave up waiting
	audio, err := a.encoder.Encode(context.WithoutCancel(ctx), track)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrExport, err)
	}
	res.Audio = audio

	a.log.Info().Int("lines", res.Lines).Int("segments", res.Segments).Int("failed", len(res.Failed)).
		Dur("duration", res.Duration).Dur("took", time.Since(start)).Int("bytes", len(audio)).Msg("assembly completed")
	return res, cancelErr
}

// buildTrack lays out lead-in, segments and gaps in input order
func (a *Assembler) buildTrack(outcomes []outcome, res *Result) (track *Track, cancelled bool) {
	track = NewTrack()
	track.AppendSilence(a.opts.LeadInMs)

	last := len(outcomes) - 1
	for i, o := range outcomes {
		if !o.attempted {
			return track, true
		}

		if o.err != nil {
			res.Failed = append(res.Failed, o.err)
		} else {
			if a.opts.Policy == GapBetweenSegments && track.Segments() > 0 {
				track.AppendSilence(a.opts.Gap.Pick(a.rng))
			}
			track.AppendSegment(o.segment)
			res.Segments++
		}

		if i == last {
			continue
		}
		switch a.opts.Policy {
		case GapAfterEveryLine:
			track.AppendSilence(a.opts.Gap.Pick(a.rng))
		case GapAfterSegment:
			if o.err == nil {
				track.AppendSilence(a.opts.Gap.Pick(a.rng))
			}
		}
	}
	return track, false
}

// synthesizeAll renders lines, in parallel when configured, keeping results
// indexed by input position
func (a *Assembler) synthesizeAll(ctx context.Context, lines []podcast.Line, voices podcast.VoiceConfig) []outcome {
	outcomes := make([]outcome, len(lines))

	if a.opts.Workers == 1 {
		for i, line := range lines {
			if ctx.Err() != nil {
				break
			}
			outcomes[i] = a.synthesizeLine(ctx, i, line, voices)
		}
		return outcomes
	}

	var g errgroup.Group
	g.SetLimit(a.opts.Workers)
	for i, line := range lines {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			outcomes[i] = a.synthesizeLine(ctx, i, line, voices)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// synthesizeLine calls the synthesizer with bounded retries and decodes the result
func (a *Assembler) synthesizeLine(ctx context.Context, idx int, line podcast.Line, voices podcast.VoiceConfig) outcome {
	voice := voices.VoiceFor(line.Speaker)
	fail := func(attempts int, err error) outcome {
		a.log.Warn().Err(err).Int("line", idx).Str("voice", voice).Int("attempts", attempts).Msg("line dropped")
		return outcome{attempted: true, err: &SynthesisError{Line: idx, Voice: voice, Attempts: attempts, Err: err}}
	}

	if line.Text == "" {
		return fail(0, errors.New("empty text"))
	}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= a.opts.Retries; attempt++ {
		if attempt > 0 {
			delay := a.opts.RetryDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return fail(attempts, fmt.Errorf("%w (last error: %w)", ctx.Err(), lastErr))
			case <-time.After(delay):
			}
		}

		attempts++
		started := time.Now()
		data, err := a.synth.Synthesize(ctx, line.Text, voice, voices.Speed)
		if err != nil {
			lastErr = err
			a.log.Debug().Err(err).Int("line", idx).Int("attempt", attempts).Msg("synthesis attempt failed")
			continue
		}

		seg, err := a.decoder.Decode(data)
		if err != nil {
			lastErr = fmt.Errorf("failed to decode audio: %w", err)
			continue
		}
		seg.Line = idx
		seg.Voice = voice

		a.log.Debug().Int("line", idx).Str("voice", voice).Str("speaker", line.Speaker.String()).
			Dur("took", time.Since(started)).Int("bytes", len(data)).Msg("line synthesized")
		return outcome{attempted: true, segment: seg}
	}
	return fail(attempts, lastErr)
}
