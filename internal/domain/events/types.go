package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	TypeQuizCompleted   = "quiz_completed"
	TypeCommunityJoined = "community_joined"
)

// Event is a validated webhook payload
type Event interface {
	// EventType is the value of the "type" member
	EventType() string
	// Identity returns the parts that make one delivery distinct; replays
	// of the same event yield the same parts
	Identity() []string
}

// Version accepts both "1" and 1
type Version string

// UnmarshalJSON implements json.Unmarshaler
func (v *Version) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Version(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("version must be a string or number")
	}
	*v = Version(n.String())
	return nil
}

// QuizCompleted is sent when a user passes a community quiz
type QuizCompleted struct {
	Type        string `json:"type" binding:"required,eq=quiz_completed"`
	UserAddress string `json:"userAddress" binding:"required,eth_addr"`
	CommunityID string `json:"communityId" binding:"required"`
	Metadata    struct {
		QuizID      string `json:"quizId" binding:"required"`
		CompletedAt string `json:"completedAt" binding:"required"`
		Score       *int   `json:"score,omitempty"`
	} `json:"metadata" binding:"required"`
	Version Version `json:"version" binding:"required"`
}

func (e *QuizCompleted) EventType() string { return TypeQuizCompleted }

func (e *QuizCompleted) Identity() []string {
	return []string{strings.ToLower(e.UserAddress), e.CommunityID, e.Metadata.QuizID}
}

// CommunityJoined is sent when a user joins a community
type CommunityJoined struct {
	Type        string `json:"type" binding:"required,eq=community_joined"`
	UserAddress string `json:"userAddress" binding:"required,eth_addr"`
	CommunityID string `json:"communityId" binding:"required"`
	Metadata    struct {
		JoinedAt string `json:"joinedAt" binding:"required"`
	} `json:"metadata" binding:"required"`
	Version Version `json:"version" binding:"required"`
}

func (e *CommunityJoined) EventType() string { return TypeCommunityJoined }

func (e *CommunityJoined) Identity() []string {
	return []string{strings.ToLower(e.UserAddress), e.CommunityID}
}
