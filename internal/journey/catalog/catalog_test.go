package catalog

import (
	"testing"

	"github.com/yungbote/nutripath-backend/internal/journey/conditions"
)

const testCatalog = `
version: 1
default_persona: balanced
personas:
  balanced: [s1, s2, s3, s4]
  tiny: [s1, s2]
  huge: [s1, s2, s3, s4, s5, s6, s7]
stages:
  - code: s1
    title: Stage One
    type: habit
    requirements:
      logic: AND
      rules:
        - metric: meals_logged
          gte: 5
    tasks:
      - key: t1
        type: metric
        title: Log meals
        xp: 10
        check:
          kind: meals_logged
          target: 5
      - key: t2
        type: manual
        title: Read up
        xp: 5
        check:
          kind: manual
  - code: s2
    title: Stage Two
    type: habit
    tasks:
      - key: t3
        type: metric
        title: Weigh in
        xp: 20
        check:
          kind: weigh_ins
          target: 2
  - code: s3
    title: Stage Three
    type: habit
    tasks: []
  - code: s4
    title: Stage Four
    type: habit
    tasks: []
  - code: s5
    title: Stage Five
    type: habit
    tasks: []
  - code: s6
    title: Stage Six
    type: habit
    tasks: []
  - code: s7
    title: Stage Seven
    type: habit
    tasks: []
`

func TestParseAndStagesFor(t *testing.T) {
	cat, err := Parse([]byte(testCatalog))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	balanced := cat.StagesFor("balanced", nil)
	if len(balanced) != 4 {
		t.Fatalf("balanced stages=%d, want 4", len(balanced))
	}
	for i, st := range balanced {
		if st.OrderIndex != i {
			t.Fatalf("stage %q order=%d, want %d", st.Code, st.OrderIndex, i)
		}
	}

	// Below MinStages the persona keeps what it has.
	tiny := cat.StagesFor("tiny", nil)
	if len(tiny) != 2 {
		t.Fatalf("tiny stages=%d, want 2", len(tiny))
	}

	// Above MaxStages the list truncates to the first five.
	huge := cat.StagesFor("huge", nil)
	if len(huge) != MaxStages {
		t.Fatalf("huge stages=%d, want %d", len(huge), MaxStages)
	}
	if huge[len(huge)-1].Code != "s5" {
		t.Fatalf("truncation must keep template order, last=%q", huge[len(huge)-1].Code)
	}

	// Unknown persona falls back to the default list.
	fallback := cat.StagesFor("astronaut", nil)
	if len(fallback) != 4 || fallback[0].Code != "s1" {
		t.Fatalf("fallback stages unexpected: %+v", fallback)
	}
}

func TestParseValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing_default", "version: 1\npersonas:\n  a: []\nstages: []\n"},
		{"default_without_list", "version: 1\ndefault_persona: a\npersonas:\n  b: []\nstages: []\n"},
		{"unknown_stage_ref", "version: 1\ndefault_persona: a\npersonas:\n  a: [nope]\nstages: []\n"},
		{"duplicate_stage_code", "version: 1\ndefault_persona: a\npersonas:\n  a: [s]\nstages:\n  - code: s\n  - code: s\n"},
		{"duplicate_task_key", "version: 1\ndefault_persona: a\npersonas:\n  a: [s]\nstages:\n  - code: s\n    tasks:\n      - key: k\n      - key: k\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.yaml)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestTaskCheckDecodes(t *testing.T) {
	cat, err := Parse([]byte(testCatalog))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s1 := cat.StagesFor("balanced", nil)[0]
	if s1.Tasks[0].Check.Kind != conditions.KindMealsLogged {
		t.Fatalf("check kind=%q, want meals_logged", s1.Tasks[0].Check.Kind)
	}
	if s1.Tasks[0].Check.Target != 5 {
		t.Fatalf("check target=%v, want 5", s1.Tasks[0].Check.Target)
	}
	if s1.XPTotal() != 15 {
		t.Fatalf("xp total=%d, want 15", s1.XPTotal())
	}
}

func TestEmbeddedCatalogParses(t *testing.T) {
	cat, err := Parse(embeddedTemplates)
	if err != nil {
		t.Fatalf("embedded catalog must parse: %v", err)
	}
	def := cat.StagesFor(cat.DefaultPersona(), nil)
	if len(def) < MinStages || len(def) > MaxStages {
		t.Fatalf("default persona has %d stages, want %d..%d", len(def), MinStages, MaxStages)
	}
	for _, st := range def {
		if st.XPTotal() <= 0 {
			t.Fatalf("stage %q has no task XP", st.Code)
		}
	}
}

// Windowed checks count qualifying days against the lookback window itself;
// a literal target on them is dead weight and means the copy promises
// something the evaluator never reads.
func TestEmbeddedWindowedChecksUseLookback(t *testing.T) {
	cat, err := Parse(embeddedTemplates)
	if err != nil {
		t.Fatalf("embedded catalog must parse: %v", err)
	}
	windowed := map[conditions.Kind]bool{
		conditions.KindWeeklyDeficit:  true,
		conditions.KindWeeklySurplus:  true,
		conditions.KindWeeklyBalanced: true,
	}
	for code, st := range cat.stages {
		for _, task := range st.Tasks {
			if !windowed[task.Check.Kind] {
				continue
			}
			if task.Check.LookbackDays <= 0 {
				t.Fatalf("stage %q task %q: windowed check needs lookback_days", code, task.Key)
			}
			if task.Check.Target != 0 {
				t.Fatalf("stage %q task %q: target is ignored for windowed checks", code, task.Key)
			}
		}
	}
}
