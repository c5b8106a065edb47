package transform_test

import (
	"strings"
	"testing"

	"github.com/aretw0/buddy/pkg/transform"
	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Empty", "", ""},
		{"No Boundary", "just some words without end", "just some words without end"},
		{"One Sentence", "Hello world.", "Hello world."},
		{"Two Sentences", "Hello world. How are you?", "Hello world. How are you?"},
		{"Exactly Three", "One. Two! Three?", "One. Two! Three?"},
		{"Truncates To Three", "One. Two. Three. Four. Five.", "One. Two. Three."},
		{"Collapses Whitespace", "One.   Two.\n\nThree.\tFour.", "One. Two. Three."},
		{"Punctuation Without Space", "v1.2 is out. Try it.", "v1.2 is out. Try it."},
		{"Trailing Fragment", "First. second part", "First. second part"},
		{"Unicode", "Olá. Ça va? Très bien! Merci.", "Olá. Ça va? Très bien!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transform.Summarize(tt.in))
		})
	}
}

func TestSummarize_IdempotentOnShortInput(t *testing.T) {
	for _, in := range []string{"A sentence.", "A sentence. Another one!"} {
		once := transform.Summarize(in)
		assert.Equal(t, in, once)
		assert.Equal(t, once, transform.Summarize(once))
	}
}

func TestExtractLinks(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Empty", "", ""},
		{"Ignores Non Anchor Href", `<a href="http://x">t</a><b href="y">bad</b>`, "http://x"},
		{"Order Preserved", `<p><a href="1">a</a> text <A HREF="2">b</A></p><a href='3'/>`, "1\n2\n3"},
		{"Unclosed Tags", `<div><a href="http://a"><span><a class=x href=http://b>`, "http://a\nhttp://b"},
		{"Garbage", `<<<a href="ok">>><//a <a`, "ok"},
		{"Entities Unescaped", `<a href="/q?a=1&amp;b=2">q</a>`, "/q?a=1&b=2"},
		{"Empty Href Kept", `<a href="">x</a><a name="top">y</a><a href="b">b</a>`, "\nb"},
		{"Bare Href Kept", `<a href>x</a><a href="b">`, "\nb"},
		{"Repeated Href", `<a href="a" href="b">ab</a>`, "a\nb"},
		{"Plain Text", "no markup at all", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transform.ExtractLinks(tt.in))
		})
	}
}

func TestTranslateStub(t *testing.T) {
	got := transform.TranslateStub("hi")
	assert.Equal(t, transform.MandarinMarker+"hi", got)
	assert.Equal(t, got, transform.TranslateStub("hi"))
	assert.True(t, strings.HasPrefix(transform.TranslateStub(""), transform.MandarinMarker))
}

func TestIdentity(t *testing.T) {
	assert.Equal(t, "  as is  ", transform.Identity("  as is  "))
}
