package translator

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"

	"cloud.google.com/go/translate"
	"github.com/foxseedlab/firassist/external/gcp"
	"github.com/foxseedlab/firassist/internal/failure"
	"github.com/foxseedlab/firassist/internal/metrics"
	"github.com/foxseedlab/firassist/internal/translator"
	"golang.org/x/text/language"
)

type translateFunc func(ctx context.Context, inputs []string, target language.Tag, opts *translate.Options) ([]translate.Translation, error)

type CloudTranslator struct {
	credentialsJSON string
	metrics         *metrics.Metrics

	mu        sync.Mutex
	translate translateFunc
	closeFn   func() error
}

func NewCloudTranslator(credentialsJSON string, m *metrics.Metrics) *CloudTranslator {
	return &CloudTranslator{credentialsJSON: credentialsJSON, metrics: m}
}

var _ translator.Translator = (*CloudTranslator)(nil)

func (t *CloudTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" || strings.EqualFold(source, target) {
		return text, nil
	}
	src, err := language.Parse(source)
	if err != nil {
		return "", fmt.Errorf("parse source language %q: %w", source, err)
	}
	dst, err := language.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse target language %q: %w", target, err)
	}

	call, err := t.client(ctx)
	if err != nil {
		t.fail()
		return "", fmt.Errorf("create translation client: %v: %w", err, failure.ErrServiceUnavailable)
	}
	out, err := call(ctx, []string{text}, dst, &translate.Options{Source: src, Format: translate.Text})
	if err != nil {
		t.fail()
		slog.Warn("translation failed", "source", source, "target", target, "error", err)
		return "", fmt.Errorf("translate %s to %s: %v: %w", source, target, err, failure.ErrServiceUnavailable)
	}
	if len(out) == 0 {
		t.fail()
		return "", fmt.Errorf("translate %s to %s: empty response: %w", source, target, failure.ErrServiceUnavailable)
	}
	return html.UnescapeString(out[0].Text), nil
}

func (t *CloudTranslator) Shutdown() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closeFn == nil {
		return nil
	}
	err := t.closeFn()
	t.closeFn = nil
	t.translate = nil
	return err
}

func (t *CloudTranslator) client(ctx context.Context) (translateFunc, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.translate != nil {
		return t.translate, nil
	}

	opts, err := gcp.ClientOptions(gcp.ClientConfig{CredentialsJSON: t.credentialsJSON})
	if err != nil {
		return nil, err
	}
	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	slog.Info("translation client initialized")

	t.translate = client.Translate
	t.closeFn = client.Close
	return t.translate, nil
}

func (t *CloudTranslator) fail() {
	if t.metrics != nil {
		t.metrics.TranslationFailures.Inc()
	}
}
