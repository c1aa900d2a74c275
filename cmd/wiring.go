package cmd

import (
	"fmt"

	"montage-media/application/highlight"
	"montage-media/application/pipeline"
	"montage-media/application/reframe"
	"montage-media/application/scene"
	"montage-media/application/silence"
	"montage-media/domain/analysis"
	"montage-media/infrastructure/config"
	"montage-media/infrastructure/export"
	"montage-media/infrastructure/ffmpeg"
	"montage-media/infrastructure/filesystem"
	"montage-media/infrastructure/opencv"
	"montage-media/infrastructure/subtitles"

	"github.com/rs/zerolog"
)

// appServices holds the production object graph built from a Config
type appServices struct {
	inspector *ffmpeg.Inspector
	decoder   *opencv.Decoder
	muxer     *ffmpeg.Muxer
	clipper   *ffmpeg.Clipper
	extractor *ffmpeg.Extractor

	scenes      *scene.Service
	silences    *silence.Service
	highlights  *highlight.Service
	reframer    *reframe.Service
	transcriber analysis.Transcriber
	pipeline    *pipeline.Service
	posters     *export.PosterWriter
}

// newAppServices wires every adapter and service. reframeOpts are passed to
// the reframe service, e.g. a progress reporter.
func newAppServices(c *config.Config, logger zerolog.Logger, reframeOpts ...reframe.Option) (*appServices, error) {
	sceneCfg, err := c.SceneDetection()
	if err != nil {
		return nil, err
	}
	silenceCfg, err := c.SilenceDetection()
	if err != nil {
		return nil, err
	}
	highlightCfg, err := c.Highlight()
	if err != nil {
		return nil, err
	}

	s := &appServices{
		inspector: ffmpeg.NewInspector(ffmpeg.WithInspectorPath(c.FFmpeg.InspectorPath)),
		muxer:     ffmpeg.NewMuxer(ffmpeg.WithMuxerFFmpegPath(c.FFmpeg.BinaryPath)),
		clipper:   ffmpeg.NewClipper(ffmpeg.WithClipperFFmpegPath(c.FFmpeg.BinaryPath)),
		extractor: ffmpeg.NewExtractor(ffmpeg.WithExtractorFFmpegPath(c.FFmpeg.BinaryPath)),
	}

	audio := ffmpeg.NewAudioReader(
		ffmpeg.WithAudioFFmpegPath(c.FFmpeg.BinaryPath),
		ffmpeg.WithChunkFrames(c.FFmpeg.ChunkFrames),
	)
	s.decoder = opencv.NewDecoder(s.inspector, audio)

	var encoderOpts []opencv.EncoderOption
	if c.FFmpeg.TempDir != "" {
		encoderOpts = append(encoderOpts, opencv.WithTempDir(c.FFmpeg.TempDir))
	}
	encoder := opencv.NewEncoder(s.muxer, encoderOpts...)
	analyzer := opencv.NewAnalyzer()
	files := filesystem.NewChecker()

	s.scenes = scene.NewService(s.decoder, analyzer, files, sceneCfg, logger)
	s.silences = silence.NewService(s.decoder, files, silenceCfg, logger)
	s.highlights = highlight.NewService(s.decoder, analyzer, files, highlightCfg, logger)
	s.reframer = reframe.NewService(s.decoder, encoder, analyzer, files, files, logger, reframeOpts...)
	s.posters = export.NewPosterWriter(s.decoder, logger)

	s.transcriber, err = newTranscriber(c, s.extractor, logger)
	if err != nil {
		return nil, err
	}

	pipelineOpts := []pipeline.Option{pipeline.WithSubtitleReader(subtitles.NewReader())}
	if s.transcriber != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithTranscriber(s.transcriber))
	}
	s.pipeline = pipeline.NewService(s.scenes, s.silences, s.highlights, s.reframer, logger, pipelineOpts...)

	return s, nil
}

// newTranscriber selects the speech-to-text strategy named by the config.
// It returns nil when transcription is disabled.
func newTranscriber(c *config.Config, extractor subtitles.SpeechExtractor, logger zerolog.Logger) (analysis.Transcriber, error) {
	switch c.Transcription.Mode {
	case config.TranscriptionNone:
		return nil, nil
	case config.TranscriptionSidecar, "":
		return subtitles.NewSidecarTranscriber(logger), nil
	case config.TranscriptionCommand:
		if c.Transcription.Command == "" {
			return nil, fmt.Errorf("%w: transcription mode %q needs a command", analysis.ErrInvalidConfiguration, c.Transcription.Mode)
		}
		var opts []subtitles.CommandTranscriberOption
		if c.FFmpeg.TempDir != "" {
			opts = append(opts, subtitles.WithTranscriberTempDir(c.FFmpeg.TempDir))
		}
		return subtitles.NewCommandTranscriber(c.Transcription.Command, c.Transcription.Args, extractor, logger, opts...), nil
	default:
		return nil, fmt.Errorf("%w: unknown transcription mode %q", analysis.ErrInvalidConfiguration, c.Transcription.Mode)
	}
}
