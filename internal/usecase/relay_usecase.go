package usecase

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/logger"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/metrics"
)

const sniffLen = 3072

type Opener interface {
	Open(ctx context.Context, url string) (*http.Response, error)
}

// RelayedResponse is an upstream body being streamed through. The caller
// closes Body.
type RelayedResponse struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// RelayUseCase passes an arbitrary upstream URL through without touching the
// tile cache.
type RelayUseCase struct {
	upstream Opener
	logger   logger.Logger
}

func NewRelayUseCase(upstream Opener, l logger.Logger) *RelayUseCase {
	return &RelayUseCase{
		upstream: upstream,
		logger:   l,
	}
}

func (uc *RelayUseCase) Relay(ctx context.Context, rawURL string) (*RelayedResponse, error) {
	if rawURL == "" {
		metrics.RelayRequests.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: no provider URL passed", model.ErrValidation)
	}

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		metrics.RelayRequests.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: provider URL must be an absolute http(s) URL", model.ErrValidation)
	}

	resp, err := uc.upstream.Open(ctx, u.String())
	if err != nil {
		metrics.RelayRequests.WithLabelValues("upstream_error").Inc()
		uc.logger.Warn("relay upstream failed", "url", u.String(), "error", err)
		return nil, err
	}

	body := io.ReadCloser(resp.Body)
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		br := bufio.NewReaderSize(resp.Body, sniffLen)
		head, _ := br.Peek(sniffLen)
		contentType = mimetype.Detect(head).String()
		body = struct {
			io.Reader
			io.Closer
		}{br, resp.Body}
	}

	metrics.RelayRequests.WithLabelValues("ok").Inc()

	return &RelayedResponse{
		Body:          body,
		ContentType:   contentType,
		ContentLength: resp.ContentLength,
	}, nil
}
