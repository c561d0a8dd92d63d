package queue

import (
	"testing"
)

func TestRecomputeJob_MapRoundTrip(t *testing.T) {
	job := NewRecomputeJob("user-1", 42)
	if job.ID == "" || job.Type != JobRecompute || job.RequestedAt == 0 {
		t.Fatalf("NewRecomputeJob = %+v", job)
	}

	values, err := job.ToMap()
	if err != nil {
		t.Fatalf("ToMap: %v", err)
	}
	if values["user_id"] != "user-1" || values["token"] != "42" {
		t.Errorf("index fields = %v", values)
	}

	got, err := ParseRecomputeJob(values)
	if err != nil {
		t.Fatalf("ParseRecomputeJob: %v", err)
	}
	if got != job {
		t.Errorf("parsed %+v, want %+v", got, job)
	}
}

func TestParseRecomputeJob_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]interface{}
	}{
		{"no data field", map[string]interface{}{"type": JobRecompute}},
		{"data not a string", map[string]interface{}{"data": 12}},
		{"bad json", map[string]interface{}{"data": "{"}},
		{"no user", map[string]interface{}{"data": `{"id":"x","token":1}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseRecomputeJob(tt.values); err == nil {
				t.Error("expected error")
			}
		})
	}
}
