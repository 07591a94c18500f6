package text

import "testing"

func TestPlain(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "   ", want: ""},
		{name: "plain passthrough", in: "  Content   Type ", want: "Content Type"},
		{name: "deck markup", in: `<span class="choice" data-value="4">Generic <b>Object</b></span>`, want: "Generic Object"},
		{name: "entities", in: "Tom &amp; Jerry", want: "Tom & Jerry"},
		{name: "script dropped", in: `<script>alert(1)</script>Safe`, want: "Safe"},
		{name: "adjacent elements", in: "<li>one</li><li>two</li>", want: "one two"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Plain(tc.in); got != tc.want {
				t.Fatalf("Plain(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestContains(t *testing.T) {
	if !Contains(`<span class="deck">Generic Object</span>`, "Object") {
		t.Fatal("expected match through markup")
	}
	if Contains("Generic Object", "") {
		t.Fatal("empty needle must not match")
	}
	if Contains("Generic", "Object") {
		t.Fatal("unexpected match")
	}
}

func TestJoin(t *testing.T) {
	if got := Join([]string{"<i>a</i>", "", " b "}); got != "a b" {
		t.Fatalf("Join = %q", got)
	}
}
