package transfer

import (
	"reflect"
	"strings"
	"testing"

	"github.com/danmuck/dataplanectl/internal/testutil/testlog"
)

func TestResolveCombinesPullAndPush(t *testing.T) {
	testlog.Start(t)
	sinks := NewSet("sinkType", "anotherSinkType")
	pulls := NewSet("pullDestType", "anotherPullDestType")

	got := Resolve(sinks, pulls).Slice()
	want := []string{
		"anotherPullDestType-PULL",
		"anotherSinkType-PUSH",
		"pullDestType-PULL",
		"sinkType-PUSH",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected transfer types: got=%v want=%v", got, want)
	}
}

func TestResolveDisjointSizesAndNoCrossContamination(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		sinks []string
		pulls []string
	}{
		{sinks: nil, pulls: nil},
		{sinks: []string{"s3"}, pulls: nil},
		{sinks: nil, pulls: []string{"http"}},
		{sinks: []string{"s3", "azure", "kafka"}, pulls: []string{"http", "ftp"}},
	}
	for _, tc := range cases {
		sinks := NewSet(tc.sinks...)
		pulls := NewSet(tc.pulls...)
		got := Resolve(sinks, pulls)
		if got.Len() != sinks.Len()+pulls.Len() {
			t.Fatalf("size mismatch sinks=%v pulls=%v got=%v", tc.sinks, tc.pulls, got.Slice())
		}
		for v := range got {
			switch {
			case strings.HasSuffix(v, SuffixPush):
				if !sinks.Has(strings.TrimSuffix(v, SuffixPush)) {
					t.Fatalf("push type %q not derived from a sink type", v)
				}
			case strings.HasSuffix(v, SuffixPull):
				if !pulls.Has(strings.TrimSuffix(v, SuffixPull)) {
					t.Fatalf("pull type %q not derived from a pull destination type", v)
				}
			default:
				t.Fatalf("unexpected transfer type %q", v)
			}
		}
	}
}

func TestResolveSameTypeOnBothAxes(t *testing.T) {
	testlog.Start(t)
	got := Resolve(NewSet("HttpData"), NewSet("HttpData"))
	if got.Len() != 2 || !got.Has("HttpData-PULL") || !got.Has("HttpData-PUSH") {
		t.Fatalf("expected distinct pull and push entries, got %v", got.Slice())
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	testlog.Start(t)
	sinks := NewSet("a", "b")
	pulls := NewSet("c")
	first := Resolve(sinks, pulls)
	second := Resolve(sinks, pulls)
	if !first.Equal(second) {
		t.Fatalf("resolve not idempotent: %v vs %v", first.Slice(), second.Slice())
	}
	if sinks.Len() != 2 || pulls.Len() != 1 {
		t.Fatalf("inputs mutated: sinks=%v pulls=%v", sinks.Slice(), pulls.Slice())
	}
	first["extra-PUSH"] = struct{}{}
	if Resolve(sinks, pulls).Has("extra-PUSH") {
		t.Fatalf("results must not share state across calls")
	}
}

func TestNewSetSkipsBlanks(t *testing.T) {
	testlog.Start(t)
	s := NewSet("", "  ", "x", "x ")
	if s.Len() != 1 || !s.Has("x") {
		t.Fatalf("unexpected set: %v", s.Slice())
	}
}
