// Package buffer manages the pre-produced fallback items deployed when the
// daily pipeline cannot run.
package buffer

import "time"

// Item is one pre-produced content item held in reserve.
type Item struct {
	ID         string     `json:"id" firestore:"-"`
	Title      string     `json:"title" firestore:"title"`
	MediaPath  string     `json:"mediaPath" firestore:"mediaPath"`
	CreatedAt  time.Time  `json:"createdAt" firestore:"createdAt"`
	Deployed   bool       `json:"deployed" firestore:"deployed"`
	DeployedAt *time.Time `json:"deployedAt,omitempty" firestore:"deployedAt,omitempty"`
}

// DeployMessage is published for the downstream publishing stage when a
// buffer item replaces today's run.
type DeployMessage struct {
	JobType    string    `json:"job_type"`
	ItemID     string    `json:"item_id"`
	Title      string    `json:"title"`
	MediaPath  string    `json:"media_path"`
	DeployedAt time.Time `json:"deployed_at"`
}

// JobTypeDeploy is the DeployMessage job type.
const JobTypeDeploy = "buffer_deploy"
