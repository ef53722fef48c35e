package domain

import "testing"

func TestFileRef_RoundTrip(t *testing.T) {
	body := EncodeFileRef("https://x/y.pdf", "report.pdf")
	if body != "📎ARQUIVO:https://x/y.pdf|report.pdf" {
		t.Fatalf("encoded body = %q", body)
	}
	ref, ok := ParseFileRef(body)
	if !ok {
		t.Fatalf("expected file ref")
	}
	if ref.URL != "https://x/y.pdf" || ref.Filename != "report.pdf" {
		t.Fatalf("decoded = %+v", ref)
	}
}

func TestParseFileRef_SplitsOnFirstPipe(t *testing.T) {
	ref, ok := ParseFileRef("📎ARQUIVO:https://x/a.txt|weird|name.txt")
	if !ok || ref.URL != "https://x/a.txt" || ref.Filename != "weird|name.txt" {
		t.Fatalf("got %+v ok=%v", ref, ok)
	}
}

func TestParseFileRef_Rejects(t *testing.T) {
	for _, body := range []string{
		"hello",
		"📎ARQUIVO:",
		"📎ARQUIVO:https://x/a.txt",
		"📎ARQUIVO:|name.txt",
		"📎ARQUIVO:https://x/a.txt|",
	} {
		if _, ok := ParseFileRef(body); ok {
			t.Fatalf("ParseFileRef(%q) should fail", body)
		}
	}
}

func TestPrimaryPayload(t *testing.T) {
	img := "https://x/i.jpg"
	empty := ""
	cases := []struct {
		msg  SupportMessage
		want PayloadKind
	}{
		{SupportMessage{Message: "hi"}, PayloadText},
		{SupportMessage{Message: ImageCaption, ImageURL: &img}, PayloadImage},
		{SupportMessage{Message: ImageCaption, ImageURL: &empty}, PayloadText},
		{SupportMessage{Message: EncodeFileRef("https://x/f.pdf", "f.pdf")}, PayloadFile},
	}
	for i, tc := range cases {
		if got := PrimaryPayload(tc.msg); got != tc.want {
			t.Fatalf("case %d: got %q want %q", i, got, tc.want)
		}
	}
}
