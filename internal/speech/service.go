// Package speech is the manager layer. It ties validation, synthesis,
// chunking, batch scheduling, combining, storage, and history together
// behind one API used by both the HTTP server and the CLI.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/speechfoundry/chorus/internal/audiomix"
	"github.com/speechfoundry/chorus/internal/batch"
	"github.com/speechfoundry/chorus/internal/bus"
	"github.com/speechfoundry/chorus/internal/chunk"
	"github.com/speechfoundry/chorus/internal/config"
	"github.com/speechfoundry/chorus/internal/history"
	"github.com/speechfoundry/chorus/internal/protocol"
	"github.com/speechfoundry/chorus/internal/report"
	"github.com/speechfoundry/chorus/internal/storage"
	"github.com/speechfoundry/chorus/internal/tts"
)

// Input is one synthesis request as received from a caller. Zero-valued
// fields fall back to the configured defaults.
type Input struct {
	UserID       string
	Text         string
	SSML         string
	LanguageCode string
	VoiceName    string
	Gender       string
	Encoding     string
	SpeakingRate float64
	Pitch        float64
}

// Result is the outcome of a single synthesis call.
type Result struct {
	RequestID      string  `json:"request_id"`
	AudioURL       string  `json:"audio_url"`
	LocalPath      string  `json:"local_path,omitempty"`
	Duration       float64 `json:"duration_seconds"`
	CharacterCount int     `json:"character_count"`
	ProcessingMS   int64   `json:"processing_time_ms"`
	Encoding       string  `json:"audio_encoding"`
}

// DocumentInput is a document synthesis request. The document is cleaned,
// chunked, synthesized in parallel, and optionally combined into one file.
type DocumentInput struct {
	Input
	Name     string // base name for artifacts; "document" when empty
	Combine  bool
	Progress func(batch.Result)
}

// BatchItem is one named entry of a multi-text batch.
type BatchItem struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// BatchInput is a multi-text batch request. Each item becomes its own
// artifact; there is no combining step.
type BatchInput struct {
	Input
	Items    []BatchItem
	Progress func(batch.Result)
}

// RunResult is the outcome of a document or batch run. A failed combine
// step is reported in CombineError; the per-chunk artifacts and the
// summary survive it.
type RunResult struct {
	RunID            string         `json:"run_id"`
	Summary          report.Summary `json:"summary"`
	LogPath          string         `json:"log_path,omitempty"`
	CombinedURL      string         `json:"combined_url,omitempty"`
	CombinedPath     string         `json:"combined_path,omitempty"`
	CombineErrorKind string         `json:"combine_error_kind,omitempty"`
	CombineError     string         `json:"combine_error,omitempty"`
}

// Service coordinates the synthesis pipeline.
type Service struct {
	cfg      config.Config
	synth    tts.Synthesizer
	store    *storage.Composite
	hist     *history.Store
	runner   *batch.Runner
	combiner *audiomix.Combiner
	bus      *bus.Client
	log      *slog.Logger
}

// New wires the service. hist and busClient may be nil-equivalent
// (disabled history, no bus) without changing behavior.
func New(cfg config.Config, synth tts.Synthesizer, store *storage.Composite, hist *history.Store, combiner *audiomix.Combiner, busClient *bus.Client, log *slog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		synth:    synth,
		store:    store,
		hist:     hist,
		runner:   batch.NewRunner(log),
		combiner: combiner,
		bus:      busClient,
		log:      log.With(slog.String("component", "speech")),
	}
}

func (s *Service) callTimeout() time.Duration {
	return time.Duration(s.cfg.TTS.CallTimeoutMS) * time.Millisecond
}

// buildRequest merges caller overrides over the configured defaults.
func (s *Service) buildRequest(in Input) tts.Request {
	req := tts.Request{
		Text:         in.Text,
		SSML:         in.SSML,
		LanguageCode: s.cfg.TTS.Language,
		VoiceName:    s.cfg.TTS.Voice,
		Gender:       s.cfg.TTS.Gender,
		Encoding:     tts.Encoding(s.cfg.TTS.Encoding),
		SpeakingRate: s.cfg.TTS.SpeakingRate,
		Pitch:        s.cfg.TTS.Pitch,
		SampleRate:   s.cfg.TTS.SampleRate,
	}
	if in.LanguageCode != "" {
		req.LanguageCode = in.LanguageCode
	}
	if in.VoiceName != "" {
		req.VoiceName = in.VoiceName
	}
	if in.Gender != "" {
		req.Gender = in.Gender
	}
	if in.Encoding != "" {
		req.Encoding = tts.Encoding(in.Encoding)
	}
	if in.SpeakingRate != 0 {
		req.SpeakingRate = in.SpeakingRate
	}
	if in.Pitch != 0 {
		req.Pitch = in.Pitch
	}
	return req
}

// SynthesizeText converts plain text into one stored audio artifact.
func (s *Service) SynthesizeText(ctx context.Context, in Input) (*Result, error) {
	in.SSML = ""
	return s.synthesizeOne(ctx, in, "text")
}

// SynthesizeSSML converts an SSML document into one stored audio artifact.
func (s *Service) SynthesizeSSML(ctx context.Context, in Input) (*Result, error) {
	in.Text = ""
	return s.synthesizeOne(ctx, in, "ssml")
}

func (s *Service) synthesizeOne(ctx context.Context, in Input, kind string) (*Result, error) {
	req := s.buildRequest(in)
	if err := ValidateRequest(req, s.cfg.TTS.MaxTextLength); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout())
	defer cancel()

	resp, err := s.synth.Synthesize(callCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = tts.NewError(tts.KindTimeout, "synthesis timed out", err)
		}
		s.recordRequest(in.UserID, requestID, kind, req, "", 0, err)
		return nil, err
	}

	name := requestID + req.Encoding.Ext()
	locator, localPath, err := s.store.Save(ctx, name, resp.Audio, req.Encoding.ContentType())
	if err != nil {
		s.recordRequest(in.UserID, requestID, kind, req, "", 0, err)
		return nil, err
	}

	durationSec := resp.Duration.Seconds()
	s.recordRequest(in.UserID, requestID, kind, req, locator, durationSec, nil)

	return &Result{
		RequestID:      requestID,
		AudioURL:       locator,
		LocalPath:      localPath,
		Duration:       durationSec,
		CharacterCount: resp.CharacterCount,
		ProcessingMS:   resp.ProcessingTime.Milliseconds(),
		Encoding:       string(req.Encoding),
	}, nil
}

// ProcessDocument runs the chunk-synthesize-store pipeline over a long
// document and optionally combines the chunk audio into a single file.
// Combining only happens when every chunk succeeded.
func (s *Service) ProcessDocument(ctx context.Context, in DocumentInput) (*RunResult, error) {
	req := s.buildRequest(in.Input)
	req.Text = "placeholder" // length is enforced per chunk, not per document
	req.SSML = ""
	if err := ValidateRequest(req, s.cfg.TTS.MaxTextLength); err != nil {
		return nil, err
	}

	cleaned := chunk.Clean(in.Text)
	chunks, err := chunk.Split(cleaned, s.cfg.Batch.ChunkSize, s.cfg.Batch.PreserveSentences)
	if err != nil {
		return nil, tts.NewError(tts.KindInvalidInput, "split document", err)
	}
	if len(chunks) == 0 {
		return nil, tts.NewError(tts.KindInvalidInput, "document contains no synthesizable text", nil)
	}

	name := in.Name
	if name == "" {
		name = "document"
	}
	runID := uuid.NewString()
	enc := tts.Encoding(s.cfg.TTS.Encoding)
	if in.Encoding != "" {
		enc = tts.Encoding(in.Encoding)
	}

	jobs := make([]batch.Job, len(chunks))
	for i, c := range chunks {
		jobIn := in.Input
		jobIn.Text = c
		jobIn.SSML = ""
		jobs[i] = batch.Job{
			Ordinal: i,
			Name:    fmt.Sprintf("%s_%03d%s", name, i+1, enc.Ext()),
			Request: s.buildRequest(jobIn),
		}
	}

	results := s.run(ctx, runID, jobs, in.Progress)
	summary := report.Summarize(results)

	out := &RunResult{RunID: runID, Summary: summary}

	if in.Combine && summary.Failed == 0 && summary.Skipped == 0 {
		segments := make([][]byte, len(results))
		for i, r := range results {
			segments[i] = r.Outcome.Audio
		}
		combined, err := s.combiner.Combine(ctx, segments, enc)
		if err == nil {
			var locator, localPath string
			locator, localPath, err = s.store.Save(ctx, name+"_combined"+enc.Ext(), combined, enc.ContentType())
			if err == nil {
				out.CombinedURL = locator
				out.CombinedPath = localPath
			}
		}
		if err != nil {
			out.CombineErrorKind = string(tts.KindOf(err))
			out.CombineError = tts.MessageOf(err)
			s.log.Warn("combine failed, per-chunk artifacts kept",
				slog.String("run_id", runID),
				slog.String("error", out.CombineError))
		}
	}

	s.finishRun(ctx, in.UserID, name, out, &summary)
	return out, nil
}

// ProcessBatch synthesizes a list of named texts, one artifact each.
func (s *Service) ProcessBatch(ctx context.Context, in BatchInput) (*RunResult, error) {
	if len(in.Items) == 0 {
		return nil, tts.NewError(tts.KindInvalidInput, "batch contains no items", nil)
	}
	req := s.buildRequest(in.Input)
	req.Text = "placeholder"
	req.SSML = ""
	if err := ValidateRequest(req, s.cfg.TTS.MaxTextLength); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	enc := tts.Encoding(s.cfg.TTS.Encoding)
	if in.Encoding != "" {
		enc = tts.Encoding(in.Encoding)
	}

	jobs := make([]batch.Job, len(in.Items))
	for i, item := range in.Items {
		jobIn := in.Input
		jobIn.Text = item.Text
		jobIn.SSML = ""
		itemName := item.Name
		if itemName == "" {
			itemName = fmt.Sprintf("item_%03d", i+1)
		}
		jobs[i] = batch.Job{
			Ordinal: i,
			Name:    itemName + enc.Ext(),
			Request: s.buildRequest(jobIn),
		}
	}

	results := s.run(ctx, runID, jobs, in.Progress)
	summary := report.Summarize(results)
	out := &RunResult{RunID: runID, Summary: summary}

	s.finishRun(ctx, in.UserID, "batch", out, &summary)
	return out, nil
}

// run executes the jobs through the worker pool, storing each artifact
// as it is produced and publishing progress on the bus.
func (s *Service) run(ctx context.Context, runID string, jobs []batch.Job, progress func(batch.Result)) []batch.Result {
	work := func(ctx context.Context, job batch.Job) (batch.Outcome, error) {
		resp, err := s.synth.Synthesize(ctx, job.Request)
		if err != nil {
			return batch.Outcome{}, err
		}
		locator, localPath, err := s.store.Save(ctx, job.Name, resp.Audio, job.Request.Encoding.ContentType())
		if err != nil {
			return batch.Outcome{}, err
		}
		return batch.Outcome{
			Locator:        locator,
			LocalPath:      localPath,
			Audio:          resp.Audio,
			Duration:       resp.Duration,
			CharacterCount: resp.CharacterCount,
			ProcessingTime: resp.ProcessingTime,
		}, nil
	}

	opts := batch.Options{
		Concurrency:     s.cfg.Batch.Workers,
		ContinueOnError: s.cfg.Batch.ContinueOnError,
		CallTimeout:     s.callTimeout(),
		Progress: func(res batch.Result) {
			s.bus.PublishJobEvent(protocol.JobEvent{
				RunID:      runID,
				Ordinal:    res.Ordinal,
				Name:       res.Name,
				Status:     string(res.Status),
				ErrorKind:  string(res.ErrKind),
				ErrorMsg:   res.ErrMessage,
				Locator:    res.Outcome.Locator,
				DurationMS: res.Outcome.ProcessingTime.Milliseconds(),
				Timestamp:  time.Now().UTC(),
			})
			if progress != nil {
				progress(res)
			}
		},
	}
	return s.runner.Run(ctx, jobs, work, opts)
}

// finishRun persists the run log, records history, and announces the
// final tally. Logging failures do not fail the run.
func (s *Service) finishRun(ctx context.Context, userID, input string, out *RunResult, summary *report.Summary) {
	runLog := report.RunLog{
		RunID:     out.RunID,
		Input:     input,
		Timestamp: time.Now().UTC(),
		Summary:   *summary,
	}
	path, err := report.WriteLog(s.cfg.Storage.OutputDir, runLog)
	if err != nil {
		s.log.Warn("write run log", slog.String("run_id", out.RunID), slog.String("error", err.Error()))
	} else {
		out.LogPath = path
	}

	if s.hist != nil {
		err := s.hist.RecordRun(ctx, history.Run{
			RunID:     out.RunID,
			UserID:    userID,
			Total:     summary.Total,
			Succeeded: summary.Succeeded,
			Failed:    summary.Failed,
			Skipped:   summary.Skipped,
			LogPath:   out.LogPath,
		})
		if err != nil {
			s.log.Warn("record run history", slog.String("run_id", out.RunID), slog.String("error", err.Error()))
		}
	}

	s.bus.PublishRunDone(protocol.RunDone{
		RunID:     out.RunID,
		Total:     summary.Total,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
		Skipped:   summary.Skipped,
		LogPath:   out.LogPath,
		Timestamp: time.Now().UTC(),
	})

	s.log.Info("run finished",
		slog.String("run_id", out.RunID),
		slog.Int("total", summary.Total),
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed),
		slog.Int("skipped", summary.Skipped))
}

func (s *Service) recordRequest(userID, requestID, kind string, req tts.Request, locator string, durationSec float64, callErr error) {
	if s.hist == nil {
		return
	}
	rec := history.Request{
		RequestID:   requestID,
		UserID:      userID,
		Kind:        kind,
		TextLength:  len(req.Payload()),
		VoiceName:   req.VoiceName,
		Language:    req.LanguageCode,
		Encoding:    string(req.Encoding),
		Status:      "success",
		Locator:     locator,
		DurationSec: durationSec,
	}
	if callErr != nil {
		rec.Status = "failure"
		rec.ErrorKind = string(tts.KindOf(callErr))
	}
	// history writes happen off the request context so a canceled call
	// still leaves a record
	if err := s.hist.RecordRequest(context.Background(), rec); err != nil {
		s.log.Warn("record request history", slog.String("request_id", requestID), slog.String("error", err.Error()))
	}
}

// Voices lists provider voices, optionally filtered by language, with
// the category tally.
func (s *Service) Voices(ctx context.Context, languageCode string) ([]tts.Voice, tts.Catalog, error) {
	if languageCode != "" && !config.ValidLanguageCode(languageCode) {
		return nil, tts.Catalog{}, tts.NewError(tts.KindInvalidInput, "invalid language code format", nil)
	}
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout())
	defer cancel()

	voices, err := s.synth.ListVoices(callCtx, languageCode)
	if err != nil {
		return nil, tts.Catalog{}, err
	}
	return voices, tts.Categorize(voices), nil
}

// History lists past synthesis requests for a user, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]history.Request, error) {
	if err := ValidateHistoryQuery(userID, limit); err != nil {
		return nil, err
	}
	if s.hist == nil {
		return nil, nil
	}
	return s.hist.ListRequests(ctx, userID, limit)
}
