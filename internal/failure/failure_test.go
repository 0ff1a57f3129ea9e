package failure

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{nil, KindNone},
		{fmt.Errorf("decode upload: %w", ErrUnsupportedFormat), KindUnsupportedFormat},
		{fmt.Errorf("recognize: %w", ErrUnintelligible), KindUnintelligible},
		{fmt.Errorf("recognize: %w: %w", ErrServiceUnavailable, errors.New("deadline exceeded")), KindServiceUnavailable},
		{fmt.Errorf("tts: %w", ErrSynthesisFailed), KindSynthesisFailed},
		{errors.New("boom"), KindUnknown},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("KindOf(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestKindString_Distinct(t *testing.T) {
	seen := map[string]Kind{}
	for _, k := range []Kind{KindNone, KindUnsupportedFormat, KindUnintelligible, KindServiceUnavailable, KindSynthesisFailed, KindUnknown} {
		if prev, ok := seen[k.String()]; ok {
			t.Fatalf("kinds %d and %d share label %q", prev, k, k.String())
		}
		seen[k.String()] = k
	}
}
