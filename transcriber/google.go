package transcriber

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"voxsheet/audio"
	"voxsheet/encoder"
)

type recognizeFunc func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

// Google calls Cloud Speech-to-Text synchronous recognition.
type Google struct {
	recognize recognizeFunc
	close     func() error
	lang      string
	format    string
}

// NewGoogle creates a Speech client. With an empty credentials path the
// library falls back to application default credentials.
func NewGoogle(ctx context.Context, credentials, lang, format string) (*Google, error) {
	var opts []option.ClientOption
	if credentials != "" {
		opts = append(opts, option.WithCredentialsFile(credentials))
	}
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	return &Google{
		recognize: func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
			return c.Recognize(ctx, req)
		},
		close:  c.Close,
		lang:   lang,
		format: format,
	}, nil
}

func (g *Google) Name() string { return BackendGoogle }

func (g *Google) Close() error {
	if g.close == nil {
		return nil
	}
	return g.close()
}

func (g *Google) Transcribe(ctx context.Context, pcm []byte, cfg audio.CaptureConfig) Result {
	start := time.Now()
	r := g.transcribe(ctx, pcm, cfg)
	r.Latency = time.Since(start)
	return r
}

func (g *Google) request(pcm []byte, cfg audio.CaptureConfig) (*speechpb.RecognizeRequest, error) {
	enc := speechpb.RecognitionConfig_LINEAR16
	content := pcm
	if g.format == FormatFLAC {
		data, err := encoder.EncodeFLAC(pcm, cfg.SampleRate)
		if err != nil {
			return nil, err
		}
		enc = speechpb.RecognitionConfig_FLAC
		content = data
	}
	return &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          enc,
			SampleRateHertz:   int32(cfg.SampleRate),
			AudioChannelCount: int32(cfg.Channels),
			LanguageCode:      g.lang,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: content},
		},
	}, nil
}

func (g *Google) transcribe(ctx context.Context, pcm []byte, cfg audio.CaptureConfig) Result {
	req, err := g.request(pcm, cfg)
	if err != nil {
		return fail(ServerError, err.Error())
	}
	resp, err := g.recognize(ctx, req)
	if err != nil {
		return classifyRPC(err)
	}
	return fromResponse(resp)
}

func fromResponse(resp *speechpb.RecognizeResponse) Result {
	if resp == nil || len(resp.Results) == 0 || len(resp.Results[0].Alternatives) == 0 {
		return fail(NoResult, "")
	}
	alt := resp.Results[0].Alternatives[0]
	text := strings.TrimSpace(alt.Transcript)
	if text == "" {
		return fail(NoResult, "")
	}
	return Result{Text: text, Confidence: float64(alt.Confidence)}
}

func classifyRPC(err error) Result {
	if errors.Is(err, context.DeadlineExceeded) {
		return fail(Timeout, err.Error())
	}
	st, ok := status.FromError(err)
	if !ok {
		return classify(err)
	}
	switch st.Code() {
	case codes.DeadlineExceeded:
		return fail(Timeout, st.Message())
	case codes.Unavailable:
		return fail(NetworkError, st.Message())
	}
	return fail(ServerError, st.Code().String()+": "+st.Message())
}
