package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Action
	}{
		{name: "open package", text: "open com.example.app", want: OpenApp{Target: "com.example.app"}},
		{name: "launch keyword", text: "launch com.tencent.mm", want: OpenApp{Target: "com.tencent.mm"}},
		{name: "open is case-insensitive", text: "OPEN com.Example.App", want: OpenApp{Target: "com.Example.App"}},
		{name: "open keyword mid-sentence", text: "please open com.example.app now", want: OpenApp{Target: "com.example.app"}},
		{name: "tap", text: "tap 100,200", want: Tap{X: 100, Y: 200}},
		{name: "tap full-width comma", text: "tap 100，200", want: Tap{X: 100, Y: 200}},
		{name: "tap spaced comma", text: "  Tap   100 , 200 ", want: Tap{X: 100, Y: 200}},
		{name: "swipe", text: "swipe 10,20 to 30,40", want: Swipe{X1: 10, Y1: 20, X2: 30, Y2: 40}},
		{name: "swipe full-width commas", text: "swipe 10，20 to 30，40", want: Swipe{X1: 10, Y1: 20, X2: 30, Y2: 40}},
		{name: "insert", text: "insert hello world", want: InsertText{Content: "hello world"}},
		{name: "paste keeps case", text: "paste Hello World", want: InsertText{Content: "Hello World"}},
		{name: "insert collapses whitespace", text: "insert  hello \t world ", want: InsertText{Content: "hello world"}},
		{
			name: "unknown",
			text: "xyz",
			want: Unrecognized{Reason: ReasonUnknownCommand, Category: KindUnrecognized, Text: "xyz"},
		},
		{
			name: "open without target",
			text: "open",
			want: Unrecognized{Reason: ReasonMissingTarget, Category: KindOpenApp, Text: "open"},
		},
		{
			name: "tap missing y",
			text: "tap 100",
			want: Unrecognized{Reason: ReasonBadCoordinates, Category: KindTap, Text: "tap 100"},
		},
		{
			name: "tap negative is not a coordinate",
			text: "tap -5,10",
			want: Unrecognized{Reason: ReasonBadCoordinates, Category: KindTap, Text: "tap -5,10"},
		},
		{
			name: "tap overflow",
			text: "tap 99999999999999999999,1",
			want: Unrecognized{Reason: ReasonBadCoordinates, Category: KindTap, Text: "tap 99999999999999999999,1"},
		},
		{
			name: "swipe missing end point",
			text: "swipe 10,20",
			want: Unrecognized{Reason: ReasonBadCoordinates, Category: KindSwipe, Text: "swipe 10,20"},
		},
		{
			name: "insert without content",
			text: "insert   ",
			want: Unrecognized{Reason: ReasonMissingContent, Category: KindInsertText, Text: "insert   "},
		},
		{
			name: "failure keeps submitted whitespace",
			text: "  Tap   100 ",
			want: Unrecognized{Reason: ReasonBadCoordinates, Category: KindTap, Text: "  Tap   100 "},
		},
		{
			name: "tap inside a word is not a keyword",
			text: "whatsapp",
			want: Unrecognized{Reason: ReasonUnknownCommand, Category: KindUnrecognized, Text: "whatsapp"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.text))
		})
	}
}

func TestParsePrecedence(t *testing.T) {
	// open wins over every later category, even when it appears last.
	assert.Equal(t, OpenApp{Target: "com.example.app"}, Parse("tap 1,2 then open com.example.app"))

	// tap wins over swipe and insert.
	assert.Equal(t, Tap{X: 1, Y: 2}, Parse("insert x swipe 1,2 to 3,4 tap 1,2"))

	// A matched category with bad parameters does not fall through.
	got := Parse("tap here and insert hello")
	require.IsType(t, Unrecognized{}, got)
	assert.Equal(t, ReasonBadCoordinates, got.(Unrecognized).Reason)
}

func TestParseDeterministic(t *testing.T) {
	inputs := []string{"open com.example.app", "tap 100，200", "swipe 1,2 to 3,4", "insert hi", "xyz", ""}
	for _, in := range inputs {
		first := Parse(in)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Parse(in), "input %q", in)
		}
	}
}

func TestUnrecognizedErr(t *testing.T) {
	err := Parse("tap 100").(Unrecognized).Err()

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ReasonBadCoordinates, perr.Reason)
	assert.Contains(t, err.Error(), "tap 100,200")
	assert.Contains(t, err.Error(), `"tap 100"`)

	err = Parse("tap  100").(Unrecognized).Err()
	assert.Contains(t, err.Error(), `"tap  100"`)

	err = Parse("xyz").(Unrecognized).Err()
	assert.Equal(t, "unknown command: xyz", err.Error())
}

func TestKinds(t *testing.T) {
	assert.Equal(t, KindOpenApp, Parse("open a").Kind())
	assert.Equal(t, KindTap, Parse("tap 1,2").Kind())
	assert.Equal(t, KindSwipe, Parse("swipe 1,2 to 3,4").Kind())
	assert.Equal(t, KindInsertText, Parse("paste a").Kind())
	assert.Equal(t, KindUnrecognized, Parse("").Kind())
}
