package usecase

import "testing"

func TestFindUnsubscribeURL(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		htmlBody string
		want     string
	}{
		{
			name:     "html href",
			htmlBody: `<a href="https://news.example.com/unsubscribe?u=42">Unsubscribe</a>`,
			want:     "https://news.example.com/unsubscribe?u=42",
		},
		{
			name:     "html opt-out href",
			htmlBody: `<p>Click <a href='https://mailer.example.com/opt-out/abc'>here</a></p>`,
			want:     "https://mailer.example.com/opt-out/abc",
		},
		{
			name: "plain text url",
			body: "To stop receiving these emails visit https://example.com/unsubscribe/token123.",
			want: "https://example.com/unsubscribe/token123",
		},
		{
			name:     "html preferred over plain text",
			body:     "https://plain.example.com/unsubscribe",
			htmlBody: `<a href="https://html.example.com/unsubscribe">bye</a>`,
			want:     "https://html.example.com/unsubscribe",
		},
		{
			name: "nothing found",
			body: "Hi, see you at the meeting tomorrow.",
			want: "",
		},
		{
			name:     "unrelated link ignored",
			htmlBody: `<a href="https://example.com/article">Read more</a>`,
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findUnsubscribeURL(tt.body, tt.htmlBody)
			if got != tt.want {
				t.Errorf("findUnsubscribeURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
