package translator

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/translate"
	"github.com/foxseedlab/firassist/internal/failure"
	"github.com/foxseedlab/firassist/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/text/language"
)

func TestTranslateSameLanguageIsIdentity(t *testing.T) {
	tr := NewCloudTranslator("", nil)
	tr.translate = func(context.Context, []string, language.Tag, *translate.Options) ([]translate.Translation, error) {
		t.Fatal("collaborator must not be called")
		return nil, nil
	}

	got, err := tr.Translate(context.Background(), "bike stolen", "en", "EN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "bike stolen" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestTranslateSendsTagsAndUnescapes(t *testing.T) {
	tr := NewCloudTranslator("", nil)
	var gotTarget language.Tag
	var gotOpts *translate.Options
	tr.translate = func(_ context.Context, inputs []string, target language.Tag, opts *translate.Options) ([]translate.Translation, error) {
		gotTarget = target
		gotOpts = opts
		if len(inputs) != 1 || inputs[0] != "मेरी बाइक चोरी हो गई" {
			t.Fatalf("unexpected inputs: %v", inputs)
		}
		return []translate.Translation{{Text: "My bike was stolen &amp; I saw the thief"}}, nil
	}

	got, err := tr.Translate(context.Background(), "मेरी बाइक चोरी हो गई", "hi", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "My bike was stolen & I saw the thief" {
		t.Fatalf("unexpected text: %q", got)
	}
	if gotTarget != language.English {
		t.Fatalf("unexpected target: %v", gotTarget)
	}
	if gotOpts.Source != language.Hindi || gotOpts.Format != translate.Text {
		t.Fatalf("unexpected options: %+v", gotOpts)
	}
}

func TestTranslateFailureIsServiceUnavailable(t *testing.T) {
	m := metrics.NewNop()
	tr := NewCloudTranslator("", m)
	tr.translate = func(context.Context, []string, language.Tag, *translate.Options) ([]translate.Translation, error) {
		return nil, errors.New("quota exceeded")
	}

	_, err := tr.Translate(context.Background(), "text", "ta", "en")
	if !errors.Is(err, failure.ErrServiceUnavailable) {
		t.Fatalf("expected service unavailable, got %v", err)
	}
	if got := testutil.ToFloat64(m.TranslationFailures); got != 1 {
		t.Fatalf("expected failure to be counted, got %v", got)
	}
}

func TestTranslateRejectsBadTag(t *testing.T) {
	tr := NewCloudTranslator("", nil)
	if _, err := tr.Translate(context.Background(), "text", "not a tag!", "en"); err == nil {
		t.Fatal("expected parse error")
	}
}
