package subtitle

import (
	"reflect"
	"strings"
	"testing"

	"github.com/asticode/go-astisub"
)

var (
	primaryAB = []Cue{
		{Start: 0, End: 1, Text: "A"},
		{Start: 1, End: 2, Text: "B"},
	}
	translationXY = []Cue{
		{Start: 0, End: 1, Text: "X"},
		{Start: 1, End: 2, Text: "Y"},
	}
)

func TestBuildVTTModes(t *testing.T) {
	tests := []struct {
		name   string
		mode   Mode
		tracks [][]Cue
		want   string
	}{
		{
			name:   "primary",
			mode:   ModePrimary,
			tracks: [][]Cue{primaryAB, translationXY},
			want: "WEBVTT\n\n" +
				"00:00:00.000 --> 00:00:01.000\nA\n\n" +
				"00:00:01.000 --> 00:00:02.000\nB\n\n",
		},
		{
			name:   "translation",
			mode:   ModeTranslation,
			tracks: [][]Cue{translationXY},
			want: "WEBVTT\n\n" +
				"00:00:00.000 --> 00:00:01.000\nX\n\n" +
				"00:00:01.000 --> 00:00:02.000\nY\n\n",
		},
		{
			name:   "both",
			mode:   ModeBoth,
			tracks: [][]Cue{primaryAB, translationXY},
			want: "WEBVTT\n\n" +
				"00:00:00.000 --> 00:00:01.000\nA\nX\n\n" +
				"00:00:01.000 --> 00:00:02.000\nB\nY\n\n",
		},
		{
			name:   "both with short translation",
			mode:   ModeBoth,
			tracks: [][]Cue{primaryAB, translationXY[:1]},
			want: "WEBVTT\n\n" +
				"00:00:00.000 --> 00:00:01.000\nA\nX\n\n" +
				"00:00:01.000 --> 00:00:02.000\nB\n\n\n",
		},
		{
			name:   "both without second track",
			mode:   ModeBoth,
			tracks: [][]Cue{primaryAB[:1]},
			want:   "WEBVTT\n\n00:00:00.000 --> 00:00:01.000\nA\n\n\n",
		},
		{
			name:   "empty",
			mode:   ModePrimary,
			tracks: [][]Cue{nil},
			want:   "WEBVTT\n\n",
		},
		{
			name: "no tracks",
			mode: ModeBoth,
			want: "WEBVTT\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildVTT(tt.mode, tt.tracks...); got != tt.want {
				t.Errorf("BuildVTT() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildVTTAlignsByIndex(t *testing.T) {
	// second track timing is ignored and its extra cues are dropped
	translation := []Cue{
		{Start: 50, End: 51, Text: "X"},
		{Start: 0, End: 0.1, Text: "Y"},
		{Start: 2, End: 3, Text: "Z"},
	}
	got := BuildVTT(ModeBoth, primaryAB, translation)

	if strings.Contains(got, "Z") {
		t.Error("extra translation cue leaked into the document")
	}
	if strings.Contains(got, "00:00:50.000") {
		t.Error("translation timing leaked into the document")
	}
	if !strings.Contains(got, "00:00:01.000 --> 00:00:02.000\nB\nY\n\n") {
		t.Errorf("cue 1 not paired by index:\n%s", got)
	}
}

func TestBuildVTTIsWellFormed(t *testing.T) {
	doc := BuildVTT(ModeBoth, primaryAB, translationXY)

	subs, err := astisub.ReadFromWebVTT(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("astisub rejected the document: %v", err)
	}
	if len(subs.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(subs.Items))
	}
	if got := subs.Items[1].StartAt.Seconds(); got != 1 {
		t.Errorf("item 1 start: got %v", got)
	}
	if n := len(subs.Items[0].Lines); n != 2 {
		t.Errorf("item 0: expected 2 lines, got %d", n)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"", ModePrimary, false},
		{"primary", ModePrimary, false},
		{"Translation", ModeTranslation, false},
		{" both ", ModeBoth, false},
		{"dual", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMerge(t *testing.T) {
	got := Merge(ModeBoth, primaryAB, translationXY[:1])
	want := []Cue{
		{Start: 0, End: 1, Text: "A\nX"},
		{Start: 1, End: 2, Text: "B\n"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge() = %+v, want %+v", got, want)
	}

	got = Merge(ModePrimary, primaryAB, translationXY)
	if !reflect.DeepEqual(got, primaryAB) {
		t.Errorf("Merge(primary) = %+v, want %+v", got, primaryAB)
	}
}

func TestParseVTT(t *testing.T) {
	content := `WEBVTT - sample

NOTE this is ignored

STYLE
::cue { color: yellow }

intro
00:00:01.000 --> 00:00:04.000 align:start
Hello, world!

00:05.500 --> 00:08.200
Short timing
second line

3
not a timing line
dropped
`
	result := ParseVTT(content)
	if result.Skipped != 1 {
		t.Errorf("expected 1 skipped block, got %d", result.Skipped)
	}
	want := []Cue{
		{Start: 1, End: 4, Text: "Hello, world!"},
		{Start: 5.5, End: 8.2, Text: "Short timing\nsecond line"},
	}
	if len(result.Cues) != len(want) {
		t.Fatalf("expected %d cues, got %d: %+v", len(want), len(result.Cues), result.Cues)
	}
	for i := range want {
		if result.Cues[i].Text != want[i].Text {
			t.Errorf("cue %d text: got %q, want %q", i, result.Cues[i].Text, want[i].Text)
		}
		if diff := result.Cues[i].Start - want[i].Start; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("cue %d start: got %v, want %v", i, result.Cues[i].Start, want[i].Start)
		}
	}
}

func TestVTTRoundTrip(t *testing.T) {
	cues := []Cue{
		{Start: 0.5, End: 2, Text: "one"},
		{Start: 2, End: 3, Text: ""},
		{Start: 3661.25, End: 3662, Text: "two\nlines"},
	}
	got := ParseVTT(BuildVTT(ModePrimary, cues)).Cues
	if !reflect.DeepEqual(got, cues) {
		t.Errorf("round trip = %+v, want %+v", got, cues)
	}
}
