package deadline

import (
	"testing"

	"github.com/joseph-ayodele/deadline-extractor/constants"
)

func TestClassify(t *testing.T) {
	c := NewClassifier(nil)
	tests := []struct {
		context string
		want    constants.EventType
	}{
		{"The HEARING is scheduled", constants.Hearing},
		{"next court date", constants.Hearing},
		{"response due", constants.Deadline}, // deadline rule precedes response
		{"please submit the brief", constants.Filing},
		{"reply brief", constants.Response},
		{"jury trial begins", constants.Trial},
		{"depo of the witness", constants.Deposition},
		{"status conference", constants.Conference},
		{"payment of fees", constants.Deadline},
		{"", constants.Deadline},
	}
	for _, tt := range tests {
		t.Run(tt.context, func(t *testing.T) {
			if got := c.Classify(tt.context); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.context, got, tt.want)
			}
		})
	}
}

func TestClassifyCustomOrder(t *testing.T) {
	c := NewClassifier([]constants.KeywordRule{
		{EventType: constants.Trial, Keywords: []string{"Trial"}},
		{EventType: constants.Hearing, Keywords: []string{"hearing", " "}},
	})
	if got := c.Classify("trial hearing"); got != constants.Trial {
		t.Errorf("got %s", got)
	}
	if got := c.Classify("a hearing"); got != constants.Hearing {
		t.Errorf("got %s", got)
	}
	// blank keywords are dropped rather than matching everything
	if got := c.Classify("nothing relevant"); got != constants.Deadline {
		t.Errorf("got %s", got)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := NewClassifier(nil)
	in := "Deposition and Trial and Hearing"
	first := c.Classify(in)
	for i := 0; i < 50; i++ {
		if got := c.Classify(in); got != first {
			t.Fatalf("iteration %d: %s != %s", i, got, first)
		}
	}
	if first != constants.Hearing {
		t.Errorf("got %s", first)
	}
}

func TestClassifierRulesIsCopy(t *testing.T) {
	c := NewClassifier(nil)
	rules := c.Rules()
	rules[0].Keywords[0] = "mutated"
	if c.Classify("hearing") != constants.Hearing {
		t.Error("mutating Rules() result changed the classifier")
	}
}
