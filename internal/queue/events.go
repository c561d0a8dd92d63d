package queue

import (
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Job types carried on the recommendation stream
const (
	JobRecompute = "recompute"
)

// Stream names
const (
	StreamRecommend = "recommend:jobs"
)

// Consumer group name for recommendation workers
const (
	ConsumerGroupRecommend = "recommend-workers"
)

// RecomputeJob asks a worker to rebuild one user's recommendations. Token is
// the user's request token at dispatch time; workers drop jobs whose token
// has been superseded.
type RecomputeJob struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	UserID      string `json:"user_id"`
	Token       int64  `json:"token"`
	RequestedAt int64  `json:"requested_at"` // Unix millis
}

func NewRecomputeJob(userID string, token int64) RecomputeJob {
	return RecomputeJob{
		ID:          uuid.NewString(),
		Type:        JobRecompute,
		UserID:      userID,
		Token:       token,
		RequestedAt: time.Now().UnixMilli(),
	}
}

// ToMap converts the job to XADD field-value pairs. The full job travels as
// JSON in "data"; user and token are duplicated for XRANGE readability.
func (j RecomputeJob) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(j)
	if err != nil {
		return nil, fmt.Errorf("marshal job: %w", err)
	}
	return map[string]interface{}{
		"type":    j.Type,
		"user_id": j.UserID,
		"token":   strconv.FormatInt(j.Token, 10),
		"data":    string(data),
	}, nil
}

// ParseRecomputeJob parses a job from Redis stream message values.
func ParseRecomputeJob(values map[string]interface{}) (RecomputeJob, error) {
	data, ok := values["data"].(string)
	if !ok {
		return RecomputeJob{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var job RecomputeJob
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return RecomputeJob{}, fmt.Errorf("unmarshal job: %w", err)
	}
	if job.UserID == "" {
		return RecomputeJob{}, fmt.Errorf("job %s has no user id", job.ID)
	}
	return job, nil
}
