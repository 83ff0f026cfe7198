package site

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Blog", "blog"},
		{"Post One", "post-one"},
		{"Crème Brûlée", "creme-brulee"},
		{"hello_world", "hello-world"},
		{"Über uns", "uber-uns"},
		{"  spaced  out  ", "spaced-out"},
		{"v1.2 notes", "v1-2-notes"},
		{"404", "404"},
		{"", ""},
	}

	for _, test := range tests {
		if got := Slugify(test.in); got != test.want {
			t.Errorf("Slugify(%q) = %q, want %q", test.in, got, test.want)
		}
	}
}

func TestSlugifyPath(t *testing.T) {
	if got := SlugifyPath("Blog/Post One"); got != "blog/post-one" {
		t.Errorf("SlugifyPath = %q, want blog/post-one", got)
	}
}

func TestTitleFromSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"post-one", "Post One"},
		{"blog", "Blog"},
		{"index", "Index"},
	}

	for _, test := range tests {
		if got := TitleFromSlug(test.in); got != test.want {
			t.Errorf("TitleFromSlug(%q) = %q, want %q", test.in, got, test.want)
		}
	}
}
