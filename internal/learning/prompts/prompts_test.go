package prompts

import (
	"strings"
	"testing"
)

func TestBuild(t *testing.T) {
	cases := []struct {
		name    PromptName
		in      Input
		want    []string
		wantErr bool
	}{
		{
			name: PromptInitialLessonIdeas,
			in:   Input{Topic: "Spanish", Count: 4},
			want: []string{"'Spanish'", "Generate 4 diverse", "single key 'lessons'"},
		},
		{
			name: PromptInitialLessonIdeas,
			in:   Input{Topic: "Spanish", Count: 3, ExistingTitles: "Greetings"},
			want: []string{"Avoid repeating these existing lessons: Greetings."},
		},
		{
			name:    PromptInitialLessonIdeas,
			in:      Input{Topic: "Spanish"},
			wantErr: true,
		},
		{
			name: PromptFollowUpLessonIdeas,
			in:   Input{Topic: "Chess", Query: "openings with a focus on The basics", ExistingTitles: "Rules"},
			want: []string{"add lessons about 'openings with a focus on The basics'", "lessons: Rules."},
		},
		{
			name: PromptFulfillLessonPlan,
			in:   Input{Topic: "Chess", Count: 2, ExistingTitles: "Rules, Tactics"},
			want: []string{"exactly 2 more"},
		},
		{
			name:    PromptClarifyingQuestion,
			in:      Input{Topic: "Chess", Query: "  "},
			wantErr: true,
		},
		{
			name: PromptLessonContent,
			in:   Input{Topic: "Chess", LessonTitle: "Forks"},
			want: []string{"'Forks'", "correct_index"},
		},
	}
	for _, tc := range cases {
		t.Run(string(tc.name), func(t *testing.T) {
			p, err := Build(tc.name, tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if p.System != jsonOnlySystem {
				t.Fatalf("system: %q", p.System)
			}
			if p.Schema == nil || p.SchemaName == "" {
				t.Fatalf("missing schema")
			}
			for _, w := range tc.want {
				if !strings.Contains(p.User, w) {
					t.Fatalf("user prompt missing %q:\n%s", w, p.User)
				}
			}
		})
	}
}

func TestBuildUnknown(t *testing.T) {
	if _, err := Build(PromptName("nope"), Input{}); err == nil {
		t.Fatalf("expected unknown prompt error")
	}
}

func TestFingerprintStable(t *testing.T) {
	a, err := Build(PromptInitialLessonIdeas, Input{Topic: "x", Count: 1})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	b, _ := Build(PromptInitialLessonIdeas, Input{Topic: "x", Count: 1})
	c, _ := Build(PromptInitialLessonIdeas, Input{Topic: "x", Count: 2})
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("fingerprint not stable")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Fatalf("fingerprint ignores input")
	}
}
